package policy

import (
	"fmt"
	"sync"
	"time"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

// Registry owns the four policy variants and tracks which one is active.
// It is an ordinary injected object: callers that need it hold a reference,
// there is no process-wide instance.
type Registry struct {
	deps      Deps
	configure func(domain.PolicyKind) domain.PolicyConfig

	mu      sync.Mutex
	current *Policy
	history []domain.PolicyTransition
}

// NewRegistry builds a registry. configure may be nil, in which case each
// kind gets its default configuration.
func NewRegistry(deps Deps, configure func(domain.PolicyKind) domain.PolicyConfig) *Registry {
	if configure == nil {
		configure = domain.DefaultPolicyConfig
	}
	return &Registry{deps: deps, configure: configure}
}

// Switch deactivates the active variant, activates a fresh one of the given
// kind, and records the transition. Switching to the active kind is a no-op.
func (r *Registry) Switch(kind domain.PolicyKind) (ports.Policy, error) {
	if _, ok := domain.ParsePolicyKind(string(kind)); !ok {
		return nil, fmt.Errorf("unknown policy kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && r.current.Kind() == kind {
		return r.current, nil
	}

	if r.current != nil {
		if err := r.current.Deactivate(); err != nil {
			return nil, fmt.Errorf("deactivate %s: %w", r.current.Kind(), err)
		}
	}

	next := New(kind, r.configure(kind), r.deps)
	if err := next.Activate(); err != nil {
		r.current = nil
		return nil, fmt.Errorf("activate %s: %w", kind, err)
	}

	r.current = next
	r.history = append(r.history, domain.PolicyTransition{Kind: kind, At: time.Now()})
	return next, nil
}

// Current returns the active variant, nil before the first Switch.
func (r *Registry) Current() ports.Policy {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.current
}

// History returns the transitions in order.
func (r *Registry) History() []domain.PolicyTransition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PolicyTransition(nil), r.history...)
}

// Shutdown deactivates whatever is active.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	err := r.current.Deactivate()
	r.current = nil
	return err
}

var _ ports.PolicyRegistry = (*Registry)(nil)
