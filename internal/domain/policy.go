package domain

import "time"

// PolicyKind enumerates the four operating policies. Dispatch over kinds is
// an exhaustive switch; adding a kind is a compile-checked change.
type PolicyKind string

const (
	PolicyInteractive PolicyKind = "interactive"
	PolicyAutoAccept  PolicyKind = "auto"
	PolicyPlan        PolicyKind = "plan"
	PolicyWatch       PolicyKind = "watch"
)

// ParsePolicyKind resolves a user-supplied mode name.
func ParsePolicyKind(name string) (PolicyKind, bool) {
	switch PolicyKind(name) {
	case PolicyInteractive, PolicyAutoAccept, PolicyPlan, PolicyWatch:
		return PolicyKind(name), true
	}
	return "", false
}

// PolicyConfig fixes a policy variant's behavior.
type PolicyConfig struct {
	AutoConfirm      bool
	AllowFileEdits   bool
	AllowDestructive bool
	BackgroundWatch  bool
	ConfirmHighRisk  bool
	DiffDisplay      bool
	PlanOutputDir    string
	WatchDir         string
	WatchPatterns    []string
	WatchDebounce    time.Duration
}

// DefaultPolicyConfig returns the fixed configuration for a policy kind.
func DefaultPolicyConfig(kind PolicyKind) PolicyConfig {
	switch kind {
	case PolicyAutoAccept:
		return PolicyConfig{
			AutoConfirm:      true,
			AllowFileEdits:   true,
			AllowDestructive: true,
			ConfirmHighRisk:  true,
		}
	case PolicyPlan:
		return PolicyConfig{
			AutoConfirm:   true,
			PlanOutputDir: ".warden/plans",
		}
	case PolicyWatch:
		return PolicyConfig{
			AutoConfirm:     true,
			BackgroundWatch: true,
			WatchDir:        ".",
			WatchPatterns:   DefaultWatchPatterns(),
			WatchDebounce:   500 * time.Millisecond,
		}
	default:
		return PolicyConfig{
			AllowFileEdits:  true,
			ConfirmHighRisk: true,
			DiffDisplay:     true,
		}
	}
}

// DefaultWatchPatterns lists the source-file globs the watch policy observes
// when none are configured.
func DefaultWatchPatterns() []string {
	return []string{"*.go", "*.py", "*.js", "*.ts", "*.tsx", "*.jsx"}
}

// PlanRecord names one plan document generated during a session.
type PlanRecord struct {
	Filename string
	Filepath string
	PlanType string
	Title    string
}

// PolicyStats is a by-value snapshot of a variant's session counters. Only
// the fields relevant to the active kind are populated.
type PolicyStats struct {
	Kind PolicyKind

	// interactive
	Confirmed int
	Rejected  int

	// auto-accept
	Executed int
	Warned   int

	// shared by interactive and auto-accept
	Blocked int

	// plan
	PlansGenerated int
	PlanFiles      []PlanRecord

	// watch
	ChangesDetected int
	FilesAnalyzed   int
	WatcherActive   bool
	ThrottleCount   int
	DroppedEvents   int
	CPUPercent      float64
	RAMPercent      float64
	RecentChanges   []ChangeEvent
}

// PolicyTransition records one registry mode switch.
type PolicyTransition struct {
	Kind PolicyKind
	At   time.Time
}

// ConfirmChoice is the 5-way answer of the interactive confirmation prompt.
type ConfirmChoice int

const (
	ChoiceReject ConfirmChoice = iota
	ChoiceConfirm
	ChoiceAlways
	ChoiceView
	ChoiceQuit
)
