package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

// Orchestrator routes action requests through validation, the active policy,
// and execution, and keeps the session's audit trail.
type Orchestrator struct {
	Registry   ports.PolicyRegistry
	Classifier ports.RiskClassifier
	Files      ports.FileManager
	Executor   ports.CommandExecutor
	Audit      ports.AuditRepository
	Logger     ports.Logger
	Config     domain.Config

	sessionID string

	mu    sync.Mutex
	log   domain.AuditLog
	stats domain.ActionStats
}

// NewOrchestrator wires an orchestrator with a fresh session id.
func NewOrchestrator(
	registry ports.PolicyRegistry,
	classifier ports.RiskClassifier,
	files ports.FileManager,
	executor ports.CommandExecutor,
	audit ports.AuditRepository,
	logger ports.Logger,
	cfg domain.Config,
) *Orchestrator {
	o := &Orchestrator{
		Registry:   registry,
		Classifier: classifier,
		Files:      files,
		Executor:   executor,
		Audit:      audit,
		Logger:     logger,
		Config:     cfg,
		sessionID:  uuid.NewString(),
	}
	o.stats = domain.ActionStats{
		ByType: make(map[domain.ActionType]int),
		ByMode: make(map[domain.PolicyKind]int),
	}
	return o
}

// SessionID identifies this orchestrator's lifetime in the audit trail.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// HandleAction runs one request end to end. It never panics: failures of any
// kind come back as a failed ActionResult.
func (o *Orchestrator) HandleAction(ctx context.Context, req *domain.ActionRequest) (result domain.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			if o.Logger != nil {
				o.Logger.Error("action handler panicked", fmt.Errorf("%v", r), map[string]interface{}{
					"action": string(req.ActionType),
				})
			}
			result = domain.ActionResult{
				Success: false,
				Message: "Internal error while handling action",
				Errors:  []string{fmt.Sprintf("panic: %v", r)},
			}
		}
		o.record(*req, result)
	}()

	active := o.Registry.Current()
	if active == nil {
		return domain.ActionResult{
			Success: false,
			Message: "No active policy",
			Errors:  []string{"switch to a policy before submitting actions"},
		}
	}

	// Plan generation and change analysis happen inside their home variants;
	// anywhere else nobody would perform the work, so refuse up front instead
	// of reporting a hollow approval.
	if req.ActionType == domain.ActionGeneratePlan && active.Kind() != domain.PolicyPlan {
		return domain.ActionResult{
			Success: false,
			Message: "Plan generation is only available in plan mode",
			Errors:  []string{"switch to plan mode first"},
		}
	}
	if req.ActionType == domain.ActionAnalyzeChange && active.Kind() != domain.PolicyWatch {
		return domain.ActionResult{
			Success: false,
			Message: "Change analysis is only available in watch mode",
			Errors:  []string{"switch to watch mode first"},
		}
	}

	// Mutating requests pass the classifier gate before the policy sees
	// them, so a critical request is refused identically in every mode.
	if req.ActionType.IsMutating() {
		validation := o.Classifier.Validate(*req)
		req.RiskLevel = validation.Severity
		if !validation.IsSafe {
			o.mu.Lock()
			o.stats.Blocked++
			o.mu.Unlock()
			if o.Logger != nil {
				o.Logger.Error("action blocked", domain.ErrValidationBlocked, map[string]interface{}{
					"action":     string(req.ActionType),
					"risk_score": validation.RiskScore,
				})
			}
			return domain.ActionResult{
				Success: false,
				Message: "Action blocked: critical risk detected",
				Details: map[string]any{
					"risk_score": validation.RiskScore,
					"severity":   string(validation.Severity),
					"patterns":   validation.MatchedPatterns,
				},
				Errors: append([]string(nil), validation.BlockedReasons...),
			}
		}
	}

	result = active.Handle(req)
	if !result.Success {
		return result
	}

	if !o.needsExecution(req, active.Config()) {
		return result
	}

	executed := o.executeOperation(ctx, req)
	executed.Warnings = append(executed.Warnings, result.Warnings...)
	return executed
}

// needsExecution reports whether an approved request still has work to do
// here. Plan generation and change analysis complete inside the policy.
func (o *Orchestrator) needsExecution(req *domain.ActionRequest, cfg domain.PolicyConfig) bool {
	switch {
	case req.ActionType == domain.ActionGeneratePlan, req.ActionType == domain.ActionAnalyzeChange:
		return false
	case req.ActionType.IsFileMutation():
		return cfg.AllowFileEdits
	default:
		return true
	}
}

func (o *Orchestrator) executeOperation(ctx context.Context, req *domain.ActionRequest) domain.ActionResult {
	switch req.ActionType {
	case domain.ActionReadFile:
		return o.execRead(req)
	case domain.ActionWriteFile, domain.ActionEditFile:
		return o.execWrite(req, false)
	case domain.ActionCreateFile:
		return o.execWrite(req, true)
	case domain.ActionDeleteFile:
		return o.execDelete(req)
	case domain.ActionMoveFile:
		return o.execMove(req)
	case domain.ActionRunCommand:
		return o.execCommand(ctx, req)
	case domain.ActionListFiles:
		return o.execList(req)
	case domain.ActionSearch:
		return o.execSearch(req)
	}
	return domain.ActionResult{
		Success: false,
		Message: fmt.Sprintf("Unsupported action type %s", req.ActionType),
	}
}

func (o *Orchestrator) execRead(req *domain.ActionRequest) domain.ActionResult {
	content, err := o.Files.Read(req.Target)
	if err != nil {
		return failedResult(fmt.Sprintf("Cannot read %s", req.Target), err)
	}
	return domain.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Read %s (%d bytes)", req.Target, len(content)),
		Details: map[string]any{"content": content},
	}
}

func (o *Orchestrator) execWrite(req *domain.ActionRequest, mustBeNew bool) domain.ActionResult {
	if mustBeNew {
		if _, err := o.Files.FileInfo(req.Target); err == nil {
			return domain.ActionResult{
				Success: false,
				Message: fmt.Sprintf("Cannot create %s: already exists", req.Target),
				Errors:  []string{"file exists"},
			}
		}
	}

	content, ok := req.Details["content"].(string)
	if !ok {
		// Edits may arrive as an old/new pair; the first occurrence of
		// the old fragment is replaced.
		oldFragment, _ := req.Details["old_content"].(string)
		newFragment, hasNew := req.Details["new_content"].(string)
		if !hasNew || oldFragment == "" {
			return domain.ActionResult{
				Success: false,
				Message: fmt.Sprintf("No content provided for %s", req.Target),
				Errors:  []string{"details require content or old_content/new_content"},
			}
		}
		current, err := o.Files.Read(req.Target)
		if err != nil {
			return failedResult(fmt.Sprintf("Cannot edit %s", req.Target), err)
		}
		if !strings.Contains(current, oldFragment) {
			return domain.ActionResult{
				Success: false,
				Message: fmt.Sprintf("Edit fragment not found in %s", req.Target),
				Errors:  []string{"old_content not present"},
			}
		}
		content = strings.Replace(current, oldFragment, newFragment, 1)
	}

	reason := req.Detail("reason")
	if reason == "" {
		reason = string(req.ActionType)
	}
	backup, err := o.Files.Write(req.Target, content, !mustBeNew, reason)
	if err != nil {
		return failedResult(fmt.Sprintf("Cannot write %s", req.Target), err)
	}
	result := domain.ActionResult{
		Success:       true,
		Message:       fmt.Sprintf("Wrote %s", req.Target),
		ModifiedFiles: []string{req.Target},
	}
	if backup != nil {
		result.Details = map[string]any{"backup_id": backup.ID}
	}
	return result
}

func (o *Orchestrator) execDelete(req *domain.ActionRequest) domain.ActionResult {
	backup, err := o.Files.Delete(req.Target, true, "delete")
	if err != nil {
		return failedResult(fmt.Sprintf("Cannot delete %s", req.Target), err)
	}
	result := domain.ActionResult{
		Success:       true,
		Message:       fmt.Sprintf("Deleted %s", req.Target),
		ModifiedFiles: []string{req.Target},
	}
	if backup != nil {
		result.Details = map[string]any{"backup_id": backup.ID}
	}
	return result
}

func (o *Orchestrator) execMove(req *domain.ActionRequest) domain.ActionResult {
	dest := req.Detail("destination")
	if dest == "" {
		return domain.ActionResult{
			Success: false,
			Message: fmt.Sprintf("No destination for moving %s", req.Target),
			Errors:  []string{"details require destination"},
		}
	}
	content, err := o.Files.Read(req.Target)
	if err != nil {
		return failedResult(fmt.Sprintf("Cannot move %s", req.Target), err)
	}
	if _, err := o.Files.Write(dest, content, true, "move"); err != nil {
		return failedResult(fmt.Sprintf("Cannot move %s to %s", req.Target, dest), err)
	}
	if _, err := o.Files.Delete(req.Target, true, "move"); err != nil {
		return failedResult(fmt.Sprintf("Moved %s but could not remove the source", req.Target), err)
	}
	return domain.ActionResult{
		Success:       true,
		Message:       fmt.Sprintf("Moved %s to %s", req.Target, dest),
		ModifiedFiles: []string{req.Target, dest},
	}
}

func (o *Orchestrator) execCommand(ctx context.Context, req *domain.ActionRequest) domain.ActionResult {
	command := req.Detail("command")
	if command == "" {
		// The target doubles as the command line when no detail is set.
		command = req.Target
	}
	if command == "" {
		return domain.ActionResult{
			Success: false,
			Message: "No command provided",
			Errors:  []string{"a command is required, as a detail or as the target"},
		}
	}

	timeout := time.Duration(o.Config.Execution.TimeoutSeconds) * time.Second
	execResult, err := o.Executor.Execute(ctx, command, timeout)

	details := map[string]any{
		"stdout":      execResult.Stdout,
		"stderr":      execResult.Stderr,
		"exit_code":   execResult.ExitCode,
		"duration_ms": execResult.DurationMS,
	}
	if execResult.TimedOut {
		details["timed_out"] = true
		return domain.ActionResult{
			Success: false,
			Message: fmt.Sprintf("Command timed out after %s", timeout),
			Details: details,
			Errors:  []string{err.Error()},
		}
	}
	if err != nil {
		return domain.ActionResult{
			Success: false,
			Message: fmt.Sprintf("Command failed with exit code %d", execResult.ExitCode),
			Details: details,
			Errors:  []string{err.Error()},
		}
	}
	return domain.ActionResult{
		Success: true,
		Message: "Command completed",
		Details: details,
	}
}

func (o *Orchestrator) execList(req *domain.ActionRequest) domain.ActionResult {
	target := req.Target
	if target == "" {
		target = "."
	}
	names, err := o.Files.List(target)
	if err != nil {
		return failedResult(fmt.Sprintf("Cannot list %s", target), err)
	}
	return domain.ActionResult{
		Success: true,
		Message: fmt.Sprintf("%d entries in %s", len(names), target),
		Details: map[string]any{"entries": names},
	}
}

func (o *Orchestrator) execSearch(req *domain.ActionRequest) domain.ActionResult {
	query := req.Detail("query")
	if query == "" {
		return domain.ActionResult{
			Success: false,
			Message: "No search query provided",
			Errors:  []string{"details require query"},
		}
	}
	content, err := o.Files.Read(req.Target)
	if err != nil {
		return failedResult(fmt.Sprintf("Cannot search %s", req.Target), err)
	}

	var matches []string
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, query) {
			matches = append(matches, fmt.Sprintf("%d: %s", i+1, line))
		}
	}
	return domain.ActionResult{
		Success: true,
		Message: fmt.Sprintf("%d matches for %q in %s", len(matches), query, req.Target),
		Details: map[string]any{"matches": matches},
	}
}

// record updates counters, the bounded in-memory log, and the persistent
// audit store (best-effort).
func (o *Orchestrator) record(req domain.ActionRequest, result domain.ActionResult) {
	mode := domain.PolicyKind("")
	if active := o.Registry.Current(); active != nil {
		mode = active.Kind()
	}

	entry := domain.AuditEntry{
		Timestamp:  time.Now(),
		SessionID:  o.sessionID,
		ActionType: req.ActionType,
		Target:     req.Target,
		Success:    result.Success,
		Message:    result.Message,
		Mode:       mode,
	}

	o.mu.Lock()
	o.log.Append(entry)
	o.stats.Total++
	if result.Success {
		o.stats.Successful++
	} else {
		o.stats.Failed++
	}
	o.stats.ByType[req.ActionType]++
	if mode != "" {
		o.stats.ByMode[mode]++
	}
	o.mu.Unlock()

	if o.Audit != nil {
		if err := o.Audit.Save(entry); err != nil && o.Logger != nil {
			o.Logger.Warn("audit save failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// SwitchMode activates the named policy.
func (o *Orchestrator) SwitchMode(kind domain.PolicyKind) (ports.Policy, error) {
	return o.Registry.Switch(kind)
}

// History returns up to limit newest in-memory audit entries, oldest first.
func (o *Orchestrator) History(limit int) []domain.AuditEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.log.Recent(limit)
}

// Stats returns the session counters.
func (o *Orchestrator) Stats() domain.ActionStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats.Clone()
}

// ResetStats zeroes the session counters.
func (o *Orchestrator) ResetStats() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats = domain.ActionStats{
		ByType: make(map[domain.ActionType]int),
		ByMode: make(map[domain.PolicyKind]int),
	}
}

// ClearHistory drops the in-memory audit log.
func (o *Orchestrator) ClearHistory() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log.Clear()
}

// Indicator is the active policy's prompt tag.
func (o *Orchestrator) Indicator() string {
	if active := o.Registry.Current(); active != nil {
		return active.Indicator()
	}
	return "[-]"
}

func failedResult(message string, err error) domain.ActionResult {
	return domain.ActionResult{
		Success: false,
		Message: message,
		Errors:  []string{err.Error()},
	}
}
