package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

type stubClassifier struct{}

func (stubClassifier) Validate(req domain.ActionRequest) domain.ValidationResult {
	command := ""
	if req.Details != nil {
		command, _ = req.Details["command"].(string)
	}
	if strings.Contains(command, "rm -rf /") {
		return domain.ValidationResult{
			IsSafe:          false,
			RiskScore:       100,
			Severity:        domain.RiskCritical,
			BlockedReasons:  []string{"critical pattern detected"},
			MatchedPatterns: []string{"critical: rm -rf /"},
		}
	}
	return domain.ValidationResult{IsSafe: true, Severity: domain.RiskSafe}
}

type stubPolicy struct {
	kind    domain.PolicyKind
	cfg     domain.PolicyConfig
	handle  func(*domain.ActionRequest) domain.ActionResult
	handled int
}

func (p *stubPolicy) Kind() domain.PolicyKind     { return p.kind }
func (p *stubPolicy) Config() domain.PolicyConfig { return p.cfg }
func (p *stubPolicy) Indicator() string           { return "[stub]" }
func (p *stubPolicy) Stats() domain.PolicyStats   { return domain.PolicyStats{Kind: p.kind} }

func (p *stubPolicy) Handle(req *domain.ActionRequest) domain.ActionResult {
	p.handled++
	if p.handle != nil {
		return p.handle(req)
	}
	return domain.ActionResult{Success: true, Message: "approved"}
}

type stubRegistry struct {
	active ports.Policy
}

func (r *stubRegistry) Switch(kind domain.PolicyKind) (ports.Policy, error) {
	r.active = &stubPolicy{kind: kind, cfg: domain.DefaultPolicyConfig(kind)}
	return r.active, nil
}

func (r *stubRegistry) Current() ports.Policy { return r.active }

func (r *stubRegistry) History() []domain.PolicyTransition { return nil }

type stubFiles struct {
	files map[string]string
}

func newStubFiles() *stubFiles { return &stubFiles{files: map[string]string{}} }

func (s *stubFiles) Read(path string) (string, error) {
	content, ok := s.files[path]
	if !ok {
		return "", domain.ErrNotFound
	}
	return content, nil
}

func (s *stubFiles) Write(path, content string, createBackup bool, _ string) (*domain.Backup, error) {
	var backup *domain.Backup
	if prev, ok := s.files[path]; ok && createBackup {
		backup = &domain.Backup{ID: "backup-1", FilePath: path, OriginalContent: prev}
	}
	s.files[path] = content
	return backup, nil
}

func (s *stubFiles) Delete(path string, _ bool, _ string) (*domain.Backup, error) {
	if _, ok := s.files[path]; !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.files, path)
	return nil, nil
}

func (s *stubFiles) Diff(string, string) (string, error) { return "", nil }

func (s *stubFiles) MultiEdit([]domain.FileEdit, bool) ([]*domain.Backup, error) { return nil, nil }

func (s *stubFiles) Rollback(string, string) error { return nil }

func (s *stubFiles) ListBackups(string) ([]domain.Backup, error) { return nil, nil }

func (s *stubFiles) List(string) ([]string, error) { return []string{"a.txt"}, nil }

func (s *stubFiles) FileInfo(path string) (domain.FileInfo, error) {
	if _, ok := s.files[path]; !ok {
		return domain.FileInfo{}, domain.ErrNotFound
	}
	return domain.FileInfo{Path: path, IsFile: true}, nil
}

type stubExecutor struct {
	calls  int
	result domain.ExecutionResult
	err    error
}

func (s *stubExecutor) Execute(context.Context, string, time.Duration) (domain.ExecutionResult, error) {
	s.calls++
	return s.result, s.err
}

type stubAudit struct {
	saved []domain.AuditEntry
}

func (s *stubAudit) Save(entry domain.AuditEntry) error { s.saved = append(s.saved, entry); return nil }

func (s *stubAudit) Records(int, string) ([]domain.AuditEntry, error) { return s.saved, nil }

func (s *stubAudit) Clear() error { s.saved = nil; return nil }

func (s *stubAudit) ExportJSON(string) error { return nil }

func (s *stubAudit) Path() string { return "stub" }

func newTestOrchestrator(registry ports.PolicyRegistry, files ports.FileManager, exec ports.CommandExecutor) *Orchestrator {
	cfg := domain.Config{}
	cfg.Execution.TimeoutSeconds = 5
	return NewOrchestrator(registry, stubClassifier{}, files, exec, &stubAudit{}, nil, cfg)
}

func autoRegistry() *stubRegistry {
	registry := &stubRegistry{}
	registry.Switch(domain.PolicyAutoAccept)
	return registry
}

func TestHandleActionBlocksCriticalCommand(t *testing.T) {
	registry := autoRegistry()
	exec := &stubExecutor{}
	o := newTestOrchestrator(registry, newStubFiles(), exec)

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionRunCommand,
		Details:    map[string]any{"command": "rm -rf /"},
	})

	if result.Success {
		t.Fatal("critical command must not succeed")
	}
	if !strings.Contains(strings.ToLower(result.Message), "blocked") {
		t.Fatalf("message %q does not mention blocking", result.Message)
	}
	if exec.calls != 0 {
		t.Fatal("blocked command must never reach the executor")
	}
	if o.Stats().Blocked != 1 {
		t.Fatalf("blocked counter %d, want 1", o.Stats().Blocked)
	}
	if registry.active.(*stubPolicy).handled != 0 {
		t.Fatal("blocked command must not reach the policy")
	}
}

func TestHandleActionExecutesApprovedRead(t *testing.T) {
	files := newStubFiles()
	files.files["a.txt"] = "content here"
	o := newTestOrchestrator(autoRegistry(), files, &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionReadFile,
		Target:     "a.txt",
	})

	if !result.Success {
		t.Fatalf("read failed: %v", result.Errors)
	}
	if result.Details["content"] != "content here" {
		t.Fatalf("unexpected details %+v", result.Details)
	}
}

func TestHandleActionSkipsExecutionWhenPolicyRejects(t *testing.T) {
	registry := &stubRegistry{active: &stubPolicy{
		kind: domain.PolicyInteractive,
		cfg:  domain.DefaultPolicyConfig(domain.PolicyInteractive),
		handle: func(*domain.ActionRequest) domain.ActionResult {
			return domain.ActionResult{Success: false, Message: "Action rejected by user"}
		},
	}}
	files := newStubFiles()
	files.files["a.txt"] = "v1"
	o := newTestOrchestrator(registry, files, &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionWriteFile,
		Target:     "a.txt",
		Details:    map[string]any{"content": "v2"},
	})

	if result.Success {
		t.Fatal("rejected action must not succeed")
	}
	if files.files["a.txt"] != "v1" {
		t.Fatal("rejected action must not modify files")
	}
}

func TestHandleActionWriteAndEdit(t *testing.T) {
	files := newStubFiles()
	o := newTestOrchestrator(autoRegistry(), files, &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionWriteFile,
		Target:     "a.txt",
		Details:    map[string]any{"content": "alpha beta"},
	})
	if !result.Success {
		t.Fatalf("write failed: %v", result.Errors)
	}

	result = o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionEditFile,
		Target:     "a.txt",
		Details:    map[string]any{"old_content": "beta", "new_content": "gamma"},
	})
	if !result.Success {
		t.Fatalf("edit failed: %v", result.Errors)
	}
	if files.files["a.txt"] != "alpha gamma" {
		t.Fatalf("edit produced %q", files.files["a.txt"])
	}
}

func TestHandleActionCreateRefusesExisting(t *testing.T) {
	files := newStubFiles()
	files.files["a.txt"] = "v1"
	o := newTestOrchestrator(autoRegistry(), files, &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionCreateFile,
		Target:     "a.txt",
		Details:    map[string]any{"content": "v2"},
	})
	if result.Success {
		t.Fatal("create must refuse an existing file")
	}
	if files.files["a.txt"] != "v1" {
		t.Fatal("existing file modified")
	}
}

func TestHandleActionRunCommand(t *testing.T) {
	exec := &stubExecutor{result: domain.ExecutionResult{Ran: true, Stdout: "ok\n"}}
	o := newTestOrchestrator(autoRegistry(), newStubFiles(), exec)

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionRunCommand,
		Details:    map[string]any{"command": "echo ok"},
	})
	if !result.Success {
		t.Fatalf("command failed: %v", result.Errors)
	}
	if result.Details["stdout"] != "ok\n" {
		t.Fatalf("unexpected details %+v", result.Details)
	}
	if exec.calls != 1 {
		t.Fatalf("executor called %d times", exec.calls)
	}
}

func TestHandleActionRunCommandFromTarget(t *testing.T) {
	exec := &stubExecutor{result: domain.ExecutionResult{Ran: true, Stdout: "hi\n"}}
	o := newTestOrchestrator(autoRegistry(), newStubFiles(), exec)

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionRunCommand,
		Target:     "echo hi",
	})
	if !result.Success {
		t.Fatalf("command in target failed: %q %v", result.Message, result.Errors)
	}
	if exec.calls != 1 {
		t.Fatalf("executor called %d times", exec.calls)
	}
	if result.Details["stdout"] != "hi\n" {
		t.Fatalf("unexpected details %+v", result.Details)
	}
}

func TestHandleActionCommandTimeout(t *testing.T) {
	exec := &stubExecutor{
		result: domain.ExecutionResult{TimedOut: true, ExitCode: -1},
		err:    fmt.Errorf("command after 5s: %w", domain.ErrTimeout),
	}
	o := newTestOrchestrator(autoRegistry(), newStubFiles(), exec)

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionRunCommand,
		Details:    map[string]any{"command": "sleep 100"},
	})
	if result.Success {
		t.Fatal("timed-out command must not succeed")
	}
	if result.Details["timed_out"] != true {
		t.Fatalf("missing timeout detail: %+v", result.Details)
	}
}

func TestHandleActionPlanResultPassesThrough(t *testing.T) {
	registry := &stubRegistry{active: &stubPolicy{
		kind: domain.PolicyPlan,
		cfg:  domain.DefaultPolicyConfig(domain.PolicyPlan),
		handle: func(*domain.ActionRequest) domain.ActionResult {
			return domain.ActionResult{Success: true, Message: "Plan written to plans/x.md"}
		},
	}}
	exec := &stubExecutor{}
	o := newTestOrchestrator(registry, newStubFiles(), exec)

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionGeneratePlan,
		Target:     "refactor",
	})
	if !result.Success || !strings.Contains(result.Message, "Plan written") {
		t.Fatalf("unexpected result %+v", result)
	}
	if exec.calls != 0 {
		t.Fatal("plan generation must not execute anything")
	}
}

func TestHandleActionGeneratePlanOutsidePlanMode(t *testing.T) {
	registry := autoRegistry()
	o := newTestOrchestrator(registry, newStubFiles(), &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionGeneratePlan,
		Target:     "refactor",
	})
	if result.Success {
		t.Fatal("plan generation outside plan mode must fail")
	}
	if !strings.Contains(result.Message, "plan mode") {
		t.Fatalf("message %q does not name plan mode", result.Message)
	}
	if registry.active.(*stubPolicy).handled != 0 {
		t.Fatal("refused request must not reach the policy")
	}
}

func TestHandleActionAnalyzeChangeOutsideWatchMode(t *testing.T) {
	o := newTestOrchestrator(autoRegistry(), newStubFiles(), &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionAnalyzeChange,
		Target:     "main.go",
	})
	if result.Success {
		t.Fatal("change analysis outside watch mode must fail")
	}
	if !strings.Contains(result.Message, "watch mode") {
		t.Fatalf("message %q does not name watch mode", result.Message)
	}
}

func TestHandleActionRecoversFromPanic(t *testing.T) {
	registry := &stubRegistry{active: &stubPolicy{
		kind: domain.PolicyAutoAccept,
		cfg:  domain.DefaultPolicyConfig(domain.PolicyAutoAccept),
		handle: func(*domain.ActionRequest) domain.ActionResult {
			panic("boom")
		},
	}}
	o := newTestOrchestrator(registry, newStubFiles(), &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionReadFile,
		Target:     "a.txt",
	})
	if result.Success {
		t.Fatal("panicking handler must yield a failed result")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "boom") {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
}

func TestHandleActionWithoutActivePolicy(t *testing.T) {
	o := newTestOrchestrator(&stubRegistry{}, newStubFiles(), &stubExecutor{})

	result := o.HandleAction(context.Background(), &domain.ActionRequest{
		ActionType: domain.ActionReadFile,
		Target:     "a.txt",
	})
	if result.Success {
		t.Fatal("no active policy must fail the action")
	}
}

func TestAuditLogKeepsNewestHundred(t *testing.T) {
	files := newStubFiles()
	files.files["a.txt"] = "x"
	o := newTestOrchestrator(autoRegistry(), files, &stubExecutor{})

	for i := 0; i < domain.AuditLogCapacity+20; i++ {
		o.HandleAction(context.Background(), &domain.ActionRequest{
			ActionType: domain.ActionReadFile,
			Target:     "a.txt",
			Details:    map[string]any{"seq": i},
		})
	}

	history := o.History(0)
	if len(history) != domain.AuditLogCapacity {
		t.Fatalf("history length %d, want %d", len(history), domain.AuditLogCapacity)
	}
}

func TestStatsAndReset(t *testing.T) {
	files := newStubFiles()
	files.files["a.txt"] = "x"
	o := newTestOrchestrator(autoRegistry(), files, &stubExecutor{})

	o.HandleAction(context.Background(), &domain.ActionRequest{ActionType: domain.ActionReadFile, Target: "a.txt"})
	o.HandleAction(context.Background(), &domain.ActionRequest{ActionType: domain.ActionReadFile, Target: "missing.txt"})

	stats := o.Stats()
	if stats.Total != 2 || stats.Successful != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.ByType[domain.ActionReadFile] != 2 {
		t.Fatalf("by-type count %d", stats.ByType[domain.ActionReadFile])
	}
	if stats.ByMode[domain.PolicyAutoAccept] != 2 {
		t.Fatalf("by-mode count %d", stats.ByMode[domain.PolicyAutoAccept])
	}

	o.ResetStats()
	if o.Stats().Total != 0 {
		t.Fatal("stats not reset")
	}
}

func TestSessionIDStampsAuditEntries(t *testing.T) {
	audit := &stubAudit{}
	cfg := domain.Config{}
	cfg.Execution.TimeoutSeconds = 5
	files := newStubFiles()
	files.files["a.txt"] = "x"
	o := NewOrchestrator(autoRegistry(), stubClassifier{}, files, &stubExecutor{}, audit, nil, cfg)

	o.HandleAction(context.Background(), &domain.ActionRequest{ActionType: domain.ActionReadFile, Target: "a.txt"})

	if len(audit.saved) != 1 {
		t.Fatalf("persistent audit entries %d", len(audit.saved))
	}
	if audit.saved[0].SessionID != o.SessionID() {
		t.Fatal("audit entry missing session id")
	}
	if audit.saved[0].Mode != domain.PolicyAutoAccept {
		t.Fatalf("audit mode %s", audit.saved[0].Mode)
	}
}
