package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

// Classifier implements the RiskClassifier port. Rules compile once at
// construction; Validate is read-only and safe for concurrent use.
type Classifier struct {
	critical  []compiledRule
	high      []compiledRule
	medium    []compiledRule
	protected []string
	sensitive []string
}

// NewClassifier loads rule tables from disk (or the embedded defaults when
// the path is empty or missing) and compiles them.
func NewClassifier(path string) (*Classifier, error) {
	rules, err := LoadRules(expandPath(path))
	if err != nil {
		return nil, err
	}

	critical, err := compileTier(rules.Rules.Critical)
	if err != nil {
		return nil, err
	}
	high, err := compileTier(rules.Rules.High)
	if err != nil {
		return nil, err
	}
	medium, err := compileTier(rules.Rules.Medium)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		critical:  critical,
		high:      high,
		medium:    medium,
		protected: rules.Paths.Protected,
		sensitive: rules.Paths.Sensitive,
	}, nil
}

// Validate implements ports.RiskClassifier. Critical matches short-circuit:
// the result is unsafe with score 100 and a blocked reason. Every other tier
// only raises the score and adds warnings.
func (c *Classifier) Validate(req domain.ActionRequest) domain.ValidationResult {
	result := domain.ValidationResult{IsSafe: true}
	text := scanBuffer(req)

	if matches := matchTier(c.critical, "critical", text); len(matches) > 0 {
		result.MatchedPatterns = matches
		result.BlockedReasons = append(result.BlockedReasons,
			"Critical pattern detected: "+strings.Join(matches, ", "))
		result.IsSafe = false
		result.RiskScore = 100
		result.Severity = domain.RiskCritical
		return result
	}

	if matches := matchTier(c.high, "high-risk", text); len(matches) > 0 {
		result.MatchedPatterns = append(result.MatchedPatterns, matches...)
		result.Warnings = append(result.Warnings,
			"High-risk pattern detected: "+strings.Join(matches, ", "))
		result.RiskScore = maxScore(result.RiskScore, 75)
	}

	if matches := matchTier(c.medium, "medium-risk", text); len(matches) > 0 {
		result.MatchedPatterns = append(result.MatchedPatterns, matches...)
		result.Warnings = append(result.Warnings,
			"Medium-risk pattern detected: "+strings.Join(matches, ", "))
		result.RiskScore = maxScore(result.RiskScore, 50)
	}

	if req.ActionType.IsFileMutation() {
		if warning := c.checkProtectedPaths(req.Target); warning != "" {
			result.Warnings = append(result.Warnings, warning)
			result.RiskScore = maxScore(result.RiskScore, 60)
		}
	}

	result.Severity = domain.SeverityForScore(result.RiskScore)
	return result
}

// IsCritical reports whether the request trips the critical tier.
func (c *Classifier) IsCritical(req domain.ActionRequest) bool {
	return c.Validate(req).Severity == domain.RiskCritical
}

// IsHighRisk reports whether the request scores high or critical.
func (c *Classifier) IsHighRisk(req domain.ActionRequest) bool {
	severity := c.Validate(req).Severity
	return severity == domain.RiskHigh || severity == domain.RiskCritical
}

// RiskScore returns the 0-100 score for the request.
func (c *Classifier) RiskScore(req domain.ActionRequest) int {
	return c.Validate(req).RiskScore
}

func (c *Classifier) checkProtectedPaths(path string) string {
	if path == "" {
		return ""
	}
	resolved, err := filepath.Abs(expandPath(path))
	if err != nil {
		resolved = path
	}
	for _, protected := range c.protected {
		if strings.HasPrefix(resolved, protected) ||
			strings.HasPrefix(resolved, "/private"+protected) {
			return "Protected system path: " + protected
		}
	}
	for _, sensitive := range c.sensitive {
		if strings.HasPrefix(resolved, expandPath(sensitive)) {
			return "Sensitive user path: " + sensitive
		}
	}
	return ""
}

func scanBuffer(req domain.ActionRequest) string {
	return fmt.Sprintf("%s %s %s", req.Target, req.Detail("command"), req.DetailsString())
}

func matchTier(tier []compiledRule, category, text string) []string {
	var matches []string
	for _, rule := range tier {
		if rule.re.MatchString(text) {
			matches = append(matches, category+": "+rule.rule.Pattern)
		}
	}
	return matches
}

func maxScore(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

var _ ports.RiskClassifier = (*Classifier)(nil)
