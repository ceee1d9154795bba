// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces allow the orchestrator to remain
// independent of specific implementations like the filesystem, sqlite, or
// the terminal.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/warden-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.warden/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// RiskClassifier scores a proposed action against ordered pattern tiers.
// Validate is pure and deterministic given the loaded rule tables.
type RiskClassifier interface {
	Validate(domain.ActionRequest) domain.ValidationResult
}

// Policy is the handle the orchestrator holds on the active policy variant.
// Concrete dispatch across the four kinds is an exhaustive switch inside the
// policy package, not interface-per-variant.
type Policy interface {
	Kind() domain.PolicyKind
	Config() domain.PolicyConfig
	Handle(*domain.ActionRequest) domain.ActionResult
	Indicator() string
	Stats() domain.PolicyStats
}

// PolicyRegistry owns variant construction and tracks the single currently
// active variant. It is passed to the orchestrator explicitly; there is no
// process-wide registry.
type PolicyRegistry interface {
	Switch(domain.PolicyKind) (Policy, error)
	Current() Policy
	History() []domain.PolicyTransition
}

// FileManager is the transactional file layer: atomic writes, backups with
// pruning, unified diffs, and multi-file all-or-nothing edits.
type FileManager interface {
	Read(path string) (string, error)
	Write(path, content string, createBackup bool, reason string) (*domain.Backup, error)
	Delete(path string, createBackup bool, reason string) (*domain.Backup, error)
	Diff(path, newContent string) (string, error)
	MultiEdit(edits []domain.FileEdit, atomic bool) ([]*domain.Backup, error)
	Rollback(path, backupID string) error
	ListBackups(path string) ([]domain.Backup, error)
	List(path string) ([]string, error)
	FileInfo(path string) (domain.FileInfo, error)
}

// CommandExecutor runs shell commands with a bounded timeout.
type CommandExecutor interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (domain.ExecutionResult, error)
}

// ConfirmationPrompter handles interactive confirmations for the
// interactive-confirm and auto-accept policies.
type ConfirmationPrompter interface {
	// Choose presents the request (and diff, when non-empty) and returns the
	// 5-way choice. The prompter re-renders details on every call, so the
	// "view again" choice is a plain re-invocation.
	Choose(req domain.ActionRequest, diff string) (domain.ConfirmChoice, error)
	// ConfirmHighRisk asks a single yes/no question for a high-risk action.
	ConfirmHighRisk(req domain.ActionRequest, validation domain.ValidationResult) (bool, error)
	Enabled() bool
}

// AuditRepository persists handled-action records beyond the bounded
// in-memory log.
type AuditRepository interface {
	Save(entry domain.AuditEntry) error
	Records(limit int, search string) ([]domain.AuditEntry, error)
	Clear() error
	ExportJSON(dest string) error
	Path() string
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external
// services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
