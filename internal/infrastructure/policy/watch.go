package policy

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/infrastructure/watcher"
)

// handleWatch permits only observation. Mutations are refused while the
// background watcher reports on the tree.
func (p *Policy) handleWatch(req *domain.ActionRequest, validation domain.ValidationResult) domain.ActionResult {
	switch {
	case req.ActionType == domain.ActionAnalyzeChange:
		return p.analyzeChange(req)
	case req.ActionType.IsMutating():
		return domain.ActionResult{
			Success: false,
			Message: fmt.Sprintf("Watch mode is observe-only: %s was not executed", req.ActionType),
			Details: map[string]any{"read_only": true},
		}
	default:
		return approvedResult(req, validation)
	}
}

func (p *Policy) analyzeChange(req *domain.ActionRequest) domain.ActionResult {
	info, err := p.deps.Files.FileInfo(req.Target)
	if err != nil {
		return domain.ActionResult{
			Success: false,
			Message: fmt.Sprintf("Cannot analyze %s", req.Target),
			Errors:  []string{err.Error()},
		}
	}

	p.mu.Lock()
	p.filesAnalyzed++
	p.mu.Unlock()

	return domain.ActionResult{
		Success: true,
		Message: fmt.Sprintf("%s: %s, modified %s", info.Path,
			humanize.Bytes(uint64(info.Size)), humanize.Time(info.Modified)),
		Details: map[string]any{
			"path":     info.Path,
			"size":     info.Size,
			"modified": info.Modified,
			"is_file":  info.IsFile,
		},
	}
}

func (p *Policy) activateWatch() error {
	if p.deps.NewWatcher == nil {
		return fmt.Errorf("watch policy requires a watcher")
	}
	w := p.deps.NewWatcher(p.cfg)
	if err := w.Start(); err != nil {
		return err
	}
	p.mu.Lock()
	p.watch = w
	p.mu.Unlock()

	if p.deps.Logger != nil {
		p.deps.Logger.Info("watching for changes", map[string]interface{}{
			"dir":      p.cfg.WatchDir,
			"patterns": p.cfg.WatchPatterns,
		})
	}
	return nil
}

// deactivateWatch stops the watcher and folds its final counters into the
// policy so Stats stays meaningful after shutdown.
func (p *Policy) deactivateWatch() {
	p.mu.Lock()
	w := p.watch
	p.watch = nil
	p.mu.Unlock()
	if w == nil {
		return
	}

	w.Stop()

	stats := w.Stats()
	perf := w.Perf()
	recent := w.Recent(10)

	p.mu.Lock()
	p.foldedWatch = stats
	p.foldedPerf = perf
	p.recentChanges = recent
	p.mu.Unlock()
}

// Watcher exposes the running watcher, nil for other kinds or when stopped.
func (p *Policy) Watcher() *watcher.Watcher {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watch
}
