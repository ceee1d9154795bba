package commands

// Error messages
const (
	ErrOrchestratorUnavailable = "orchestrator unavailable"
	ErrDoctorUnavailable       = "doctor service unavailable"
	ErrAuditStoreUnavailable   = "audit store unavailable"
	ErrFileManagerUnavailable  = "file manager unavailable"
	ErrCommandRequired         = "a command is required for run_command, via --command or as the target"
	ErrTargetRequired          = "a target is required for this action"
)

// Success messages
const (
	MsgNoAuditRecorded    = "No actions recorded yet."
	MsgNoBackupsRecorded  = "No backups recorded."
	MsgRulesMatchDefaults = "Rule tables match the built-in defaults."
)
