package policy

import (
	"fmt"

	"github.com/doeshing/warden-go/internal/domain"
)

// handleInteractive confirms every action with the user, reads included.
// Critical requests never reach the prompt.
func (p *Policy) handleInteractive(req *domain.ActionRequest, validation domain.ValidationResult) domain.ActionResult {
	if !validation.IsSafe {
		p.count(func() { p.blocked++ })
		return blockedResult(validation)
	}

	req.RequiresConfirmation = true

	p.mu.Lock()
	always := p.alwaysAllow[req.ActionType]
	p.mu.Unlock()
	if always {
		p.count(func() { p.confirmed++ })
		return approvedResult(req, validation)
	}

	if p.deps.Prompter == nil || !p.deps.Prompter.Enabled() {
		p.count(func() { p.rejected++ })
		return domain.ActionResult{
			Success:  false,
			Message:  "Action rejected: confirmation required but no interactive terminal",
			Warnings: append([]string(nil), validation.Warnings...),
		}
	}

	diff := p.previewDiff(req)

	for {
		choice, err := p.deps.Prompter.Choose(*req, diff)
		if err != nil {
			p.count(func() { p.rejected++ })
			return domain.ActionResult{
				Success: false,
				Message: "Action rejected: confirmation failed",
				Errors:  []string{err.Error()},
			}
		}
		switch choice {
		case domain.ChoiceConfirm:
			p.count(func() { p.confirmed++ })
			return approvedResult(req, validation)
		case domain.ChoiceAlways:
			p.mu.Lock()
			p.alwaysAllow[req.ActionType] = true
			p.confirmed++
			p.mu.Unlock()
			return approvedResult(req, validation)
		case domain.ChoiceView:
			// The prompter re-renders the request on the next iteration.
			continue
		case domain.ChoiceQuit:
			p.count(func() { p.rejected++ })
			return domain.ActionResult{
				Success: false,
				Message: "Action rejected: quit requested",
				Details: map[string]any{"quit": true},
			}
		default:
			p.count(func() { p.rejected++ })
			return domain.ActionResult{
				Success: false,
				Message: "Action rejected by user",
			}
		}
	}
}

// previewDiff renders the pending change when diff display is on and the
// request rewrites a file's content.
func (p *Policy) previewDiff(req *domain.ActionRequest) string {
	if !p.cfg.DiffDisplay || p.deps.Files == nil {
		return ""
	}
	switch req.ActionType {
	case domain.ActionWriteFile, domain.ActionEditFile, domain.ActionCreateFile:
	default:
		return ""
	}
	content, ok := req.Details["content"].(string)
	if !ok {
		if content, ok = req.Details["new_content"].(string); !ok {
			return ""
		}
	}
	diff, err := p.deps.Files.Diff(req.Target, content)
	if err != nil {
		if p.deps.Logger != nil {
			p.deps.Logger.Debug("diff preview unavailable", map[string]interface{}{
				"path": req.Target, "error": err.Error(),
			})
		}
		return ""
	}
	return diff
}

func (p *Policy) count(fn func()) {
	p.mu.Lock()
	fn()
	p.mu.Unlock()
}

func approvedResult(req *domain.ActionRequest, validation domain.ValidationResult) domain.ActionResult {
	return domain.ActionResult{
		Success:  true,
		Message:  fmt.Sprintf("%s approved", req.ActionType),
		Warnings: append([]string(nil), validation.Warnings...),
	}
}
