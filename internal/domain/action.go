package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ActionType enumerates the operations the orchestrator understands.
type ActionType string

const (
	ActionReadFile      ActionType = "read_file"
	ActionWriteFile     ActionType = "write_file"
	ActionEditFile      ActionType = "edit_file"
	ActionDeleteFile    ActionType = "delete_file"
	ActionCreateFile    ActionType = "create_file"
	ActionMoveFile      ActionType = "move_file"
	ActionRunCommand    ActionType = "run_command"
	ActionGeneratePlan  ActionType = "generate_plan"
	ActionAnalyzeChange ActionType = "analyze_change"
	ActionListFiles     ActionType = "list_files"
	ActionSearch        ActionType = "search"
)

// IsFileMutation reports whether the action rewrites files on disk.
func (t ActionType) IsFileMutation() bool {
	switch t {
	case ActionWriteFile, ActionEditFile, ActionDeleteFile, ActionCreateFile, ActionMoveFile:
		return true
	}
	return false
}

// IsMutating reports whether the action can change system state at all,
// through the filesystem or through the shell.
func (t ActionType) IsMutating() bool {
	return t.IsFileMutation() || t == ActionRunCommand
}

// IsRead reports whether the action only inspects state.
func (t ActionType) IsRead() bool {
	switch t {
	case ActionReadFile, ActionListFiles, ActionSearch, ActionAnalyzeChange:
		return true
	}
	return false
}

// ActionRequest describes one operation submitted to the active policy.
// RiskLevel and RequiresConfirmation are filled in during classification.
type ActionRequest struct {
	ActionType           ActionType
	Target               string
	Details              map[string]any
	RiskLevel            RiskLevel
	RequiresConfirmation bool
	Metadata             map[string]string
}

// Detail returns the named detail as a string, or "" when absent.
func (r ActionRequest) Detail(key string) string {
	if r.Details == nil {
		return ""
	}
	value, ok := r.Details[key]
	if !ok {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// DetailsString renders the details map with sorted keys so the classifier
// scans a stable representation.
func (r ActionRequest) DetailsString() string {
	if len(r.Details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(r.Details))
	for key := range r.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", key, r.Details[key])
	}
	return sb.String()
}

// IsHighRisk reports whether the classified level is high or critical.
func (r ActionRequest) IsHighRisk() bool {
	return r.RiskLevel == RiskHigh || r.RiskLevel == RiskCritical
}

// IsCritical reports whether the classified level is critical.
func (r ActionRequest) IsCritical() bool {
	return r.RiskLevel == RiskCritical
}

// ActionResult is the outcome of handling one request.
type ActionResult struct {
	Success       bool
	Message       string
	Details       map[string]any
	ModifiedFiles []string
	Errors        []string
	Warnings      []string
}

// HasErrors reports whether any error was recorded.
func (r ActionResult) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings reports whether any warning was recorded.
func (r ActionResult) HasWarnings() bool { return len(r.Warnings) > 0 }
