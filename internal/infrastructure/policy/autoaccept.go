package policy

import "github.com/doeshing/warden-go/internal/domain"

// handleAuto executes without prompting, with two exceptions: critical
// requests are blocked outright, and high-risk ones get a single yes/no
// confirmation when the variant is configured for it.
func (p *Policy) handleAuto(req *domain.ActionRequest, validation domain.ValidationResult) domain.ActionResult {
	if !validation.IsSafe {
		p.count(func() { p.blocked++ })
		if p.deps.Logger != nil {
			p.deps.Logger.Warn("critical action blocked", map[string]interface{}{
				"action": string(req.ActionType),
				"target": req.Target,
			})
		}
		return blockedResult(validation)
	}

	if validation.Severity == domain.RiskHigh && p.cfg.ConfirmHighRisk {
		req.RequiresConfirmation = true
		if p.deps.Prompter == nil || !p.deps.Prompter.Enabled() {
			p.count(func() { p.blocked++ })
			return domain.ActionResult{
				Success:  false,
				Message:  "High-risk action declined: no interactive terminal for confirmation",
				Warnings: append([]string(nil), validation.Warnings...),
			}
		}
		ok, err := p.deps.Prompter.ConfirmHighRisk(*req, validation)
		if err != nil {
			p.count(func() { p.blocked++ })
			return domain.ActionResult{
				Success: false,
				Message: "High-risk action declined: confirmation failed",
				Errors:  []string{err.Error()},
			}
		}
		if !ok {
			p.count(func() { p.blocked++ })
			return domain.ActionResult{
				Success:  false,
				Message:  "High-risk action declined by user",
				Warnings: append([]string(nil), validation.Warnings...),
			}
		}
	}

	p.mu.Lock()
	p.executed++
	if len(validation.Warnings) > 0 {
		p.warned++
	}
	p.mu.Unlock()

	result := approvedResult(req, validation)
	if validation.Severity == domain.RiskMedium {
		result.Warnings = append(result.Warnings, "Proceeding automatically despite medium risk")
	}
	return result
}
