package policy

import (
	"fmt"
	"sync"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/infrastructure/watcher"
	"github.com/doeshing/warden-go/internal/ports"
)

// Deps are the collaborators a policy variant may use. Watch is only needed
// by the watch kind; Prompter only by the confirming kinds.
type Deps struct {
	Classifier ports.RiskClassifier
	Files      ports.FileManager
	Prompter   ports.ConfirmationPrompter
	Logger     ports.Logger
	NewWatcher func(domain.PolicyConfig) *watcher.Watcher
}

// Policy is a single struct covering all four variants, discriminated by
// kind. Handle and the lifecycle hooks dispatch with an exhaustive switch,
// so a new kind fails loudly instead of silently falling through.
type Policy struct {
	kind domain.PolicyKind
	cfg  domain.PolicyConfig
	deps Deps

	mu sync.Mutex

	// interactive
	confirmed   int
	rejected    int
	alwaysAllow map[domain.ActionType]bool

	// auto-accept
	executed int
	warned   int

	// shared
	blocked int

	// plan
	plans []domain.PlanRecord

	// watch
	watch         *watcher.Watcher
	filesAnalyzed int
	foldedWatch   domain.WatchStats
	foldedPerf    domain.PerfSnapshot
	recentChanges []domain.ChangeEvent
}

// New builds an inactive policy of the given kind.
func New(kind domain.PolicyKind, cfg domain.PolicyConfig, deps Deps) *Policy {
	return &Policy{
		kind:        kind,
		cfg:         cfg,
		deps:        deps,
		alwaysAllow: make(map[domain.ActionType]bool),
	}
}

// Kind returns the variant tag.
func (p *Policy) Kind() domain.PolicyKind { return p.kind }

// Config returns the variant's fixed configuration.
func (p *Policy) Config() domain.PolicyConfig { return p.cfg }

// Handle classifies the request, stamps its risk level, and applies the
// variant's gating rules. A Success result means the action is approved; for
// plan generation and change analysis the work itself happens here too.
func (p *Policy) Handle(req *domain.ActionRequest) domain.ActionResult {
	validation := p.deps.Classifier.Validate(*req)
	req.RiskLevel = validation.Severity

	switch p.kind {
	case domain.PolicyInteractive:
		return p.handleInteractive(req, validation)
	case domain.PolicyAutoAccept:
		return p.handleAuto(req, validation)
	case domain.PolicyPlan:
		return p.handlePlan(req, validation)
	case domain.PolicyWatch:
		return p.handleWatch(req, validation)
	}
	return domain.ActionResult{
		Success: false,
		Message: fmt.Sprintf("unknown policy kind %q", p.kind),
		Errors:  []string{"unhandled policy kind"},
	}
}

// Activate resets session counters and starts background work for the
// variants that have any.
func (p *Policy) Activate() error {
	p.mu.Lock()
	p.confirmed, p.rejected, p.blocked = 0, 0, 0
	p.executed, p.warned = 0, 0
	p.plans = nil
	p.filesAnalyzed = 0
	p.foldedWatch = domain.WatchStats{}
	p.foldedPerf = domain.PerfSnapshot{}
	p.recentChanges = nil
	p.alwaysAllow = make(map[domain.ActionType]bool)
	p.mu.Unlock()

	switch p.kind {
	case domain.PolicyInteractive, domain.PolicyAutoAccept, domain.PolicyPlan:
		return nil
	case domain.PolicyWatch:
		return p.activateWatch()
	}
	return fmt.Errorf("unknown policy kind %q", p.kind)
}

// Deactivate stops background work and folds its final statistics into the
// snapshot returned by Stats.
func (p *Policy) Deactivate() error {
	switch p.kind {
	case domain.PolicyInteractive, domain.PolicyAutoAccept, domain.PolicyPlan:
		return nil
	case domain.PolicyWatch:
		p.deactivateWatch()
		return nil
	}
	return fmt.Errorf("unknown policy kind %q", p.kind)
}

// Indicator is the short prompt tag shown while this variant is active.
func (p *Policy) Indicator() string {
	switch p.kind {
	case domain.PolicyInteractive:
		return "[ask]"
	case domain.PolicyAutoAccept:
		return "[auto]"
	case domain.PolicyPlan:
		return "[plan]"
	case domain.PolicyWatch:
		return "[watch]"
	}
	return "[?]"
}

// Stats returns a by-value snapshot of the session counters.
func (p *Policy) Stats() domain.PolicyStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := domain.PolicyStats{
		Kind:      p.kind,
		Confirmed: p.confirmed,
		Rejected:  p.rejected,
		Executed:  p.executed,
		Warned:    p.warned,
		Blocked:   p.blocked,
	}
	stats.PlansGenerated = len(p.plans)
	stats.PlanFiles = append([]domain.PlanRecord(nil), p.plans...)

	watchStats := p.foldedWatch
	perf := p.foldedPerf
	recent := p.recentChanges
	if p.watch != nil {
		watchStats = p.watch.Stats()
		perf = p.watch.Perf()
		recent = p.watch.Recent(10)
	}
	stats.ChangesDetected = watchStats.ChangesDetected
	stats.DroppedEvents = watchStats.DroppedEvents
	stats.ThrottleCount = watchStats.ThrottleCount
	stats.WatcherActive = watchStats.Active
	stats.FilesAnalyzed = p.filesAnalyzed
	stats.CPUPercent = perf.CPUPercent
	stats.RAMPercent = perf.RAMPercent
	stats.RecentChanges = append([]domain.ChangeEvent(nil), recent...)
	return stats
}

func blockedResult(validation domain.ValidationResult) domain.ActionResult {
	return domain.ActionResult{
		Success: false,
		Message: "Action blocked: critical risk detected",
		Details: map[string]any{
			"risk_score": validation.RiskScore,
			"severity":   string(validation.Severity),
		},
		Errors:   append([]string(nil), validation.BlockedReasons...),
		Warnings: append([]string(nil), validation.Warnings...),
	}
}

var _ ports.Policy = (*Policy)(nil)
