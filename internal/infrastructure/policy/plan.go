package policy

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/doeshing/warden-go/internal/domain"
)

var (
	planStripRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	planCollapseRe = regexp.MustCompile(`[-\s]+`)
)

// handlePlan is read-only: mutations are refused and captured as plan
// material instead. Plan generation itself writes only into the plan output
// directory.
func (p *Policy) handlePlan(req *domain.ActionRequest, validation domain.ValidationResult) domain.ActionResult {
	switch {
	case req.ActionType == domain.ActionGeneratePlan:
		return p.generatePlan(req)
	case req.ActionType.IsMutating():
		return domain.ActionResult{
			Success: false,
			Message: fmt.Sprintf("Plan mode is read-only: %s was not executed. Generate a plan instead.", req.ActionType),
			Details: map[string]any{"read_only": true},
		}
	default:
		return approvedResult(req, validation)
	}
}

func (p *Policy) generatePlan(req *domain.ActionRequest) domain.ActionResult {
	title := req.Target
	if title == "" {
		title = req.Detail("title")
	}
	if title == "" {
		title = "untitled"
	}
	planType := req.Detail("plan_type")
	if planType == "" {
		planType = "task"
	}
	content := req.Detail("content")

	now := time.Now()
	filename := fmt.Sprintf("%s_%s_%s.md", planType, sanitizeTitle(title), now.Format("20060102_150405"))
	outDir := p.cfg.PlanOutputDir
	if outDir == "" {
		outDir = ".warden/plans"
	}
	path := filepath.Join(outDir, filename)

	document := renderPlan(title, planType, content, req, now)
	if _, err := p.deps.Files.Write(path, document, false, "plan"); err != nil {
		return domain.ActionResult{
			Success: false,
			Message: "Plan generation failed",
			Errors:  []string{err.Error()},
		}
	}

	record := domain.PlanRecord{
		Filename: filename,
		Filepath: path,
		PlanType: planType,
		Title:    title,
	}
	p.mu.Lock()
	p.plans = append(p.plans, record)
	p.mu.Unlock()

	return domain.ActionResult{
		Success:       true,
		Message:       fmt.Sprintf("Plan written to %s", path),
		Details:       map[string]any{"plan_type": planType, "title": title},
		ModifiedFiles: []string{path},
	}
}

// sanitizeTitle turns a free-form title into a filename fragment: lowercase,
// punctuation stripped, whitespace and dashes collapsed to underscores,
// truncated to 50 characters. Truncation counts runes so a multi-byte
// character is never split.
func sanitizeTitle(title string) string {
	s := strings.ToLower(title)
	s = planStripRe.ReplaceAllString(s, "")
	s = planCollapseRe.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		s = "untitled"
	}
	if runes := []rune(s); len(runes) > 50 {
		s = string(runes[:50])
	}
	return s
}

func renderPlan(title, planType, content string, req *domain.ActionRequest, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "**Generated:** %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Type:** %s\n", planType)
	sb.WriteString("**Mode:** PLAN (read-only)\n")
	if author := req.Detail("author"); author != "" {
		fmt.Fprintf(&sb, "**Author:** %s\n", author)
	}
	if tags := req.Detail("tags"); tags != "" {
		fmt.Fprintf(&sb, "**Tags:** %s\n", tags)
	}
	sb.WriteString("\n---\n\n")
	if content != "" {
		sb.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n---\n")
	sb.WriteString("*Generated in plan mode. No changes were made to your system.*\n")
	return sb.String()
}
