package domain

// RiskLevel enumerates classifier outcomes.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// MoreSevere reports whether next outranks current.
func MoreSevere(next, current RiskLevel) bool {
	return riskOrder(next) > riskOrder(current)
}

func riskOrder(level RiskLevel) int {
	switch level {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// SeverityForScore maps a 0-100 risk score to its severity tier.
// 100 is critical, >=75 high, >=50 medium, >=25 low, otherwise safe.
func SeverityForScore(score int) RiskLevel {
	switch {
	case score >= 100:
		return RiskCritical
	case score >= 75:
		return RiskHigh
	case score >= 50:
		return RiskMedium
	case score >= 25:
		return RiskLow
	default:
		return RiskSafe
	}
}

// ValidationResult aggregates the classifier's assessment of one request.
// Invariant: IsSafe is false exactly when RiskScore is 100 (critical tier);
// every other tier only accumulates warnings.
type ValidationResult struct {
	IsSafe          bool
	RiskScore       int
	Severity        RiskLevel
	Warnings        []string
	BlockedReasons  []string
	MatchedPatterns []string
}
