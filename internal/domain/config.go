package domain

// Config mirrors ~/.warden/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	DefaultMode         string            `yaml:"default_mode"`
	Security            SecuritySettings  `yaml:"security"`
	Files               FileSettings      `yaml:"files"`
	Execution           ExecutionSettings `yaml:"execution"`
	Plan                PlanSettings      `yaml:"plan"`
	Watch               WatchSettings     `yaml:"watch"`
	Audit               AuditSettings     `yaml:"audit"`
}

// SecuritySettings defines classifier behavior.
type SecuritySettings struct {
	RulesFile string `yaml:"rules_file"`
}

// FileSettings controls the transactional file layer.
type FileSettings struct {
	ProjectRoot       string `yaml:"project_root"`
	BackupDir         string `yaml:"backup_dir"`
	MaxBackupsPerFile int    `yaml:"max_backups_per_file"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	Shell          string `yaml:"shell"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// PlanSettings configures the plan-generation policy.
type PlanSettings struct {
	OutputDir string `yaml:"output_dir"`
}

// WatchSettings configures the background watch policy.
type WatchSettings struct {
	Dir            string   `yaml:"dir"`
	Patterns       []string `yaml:"patterns"`
	DebounceMS     int      `yaml:"debounce_ms"`
	QueueSize      int      `yaml:"queue_size"`
	EnableThrottle bool     `yaml:"enable_throttle"`
}

// AuditSettings configures the persistent audit trail.
type AuditSettings struct {
	Database string `yaml:"database"`
}
