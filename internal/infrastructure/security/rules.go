package security

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/warden-go/assets"
)

// Rule is one declarative pattern in a tier.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root. Tiers are evaluated in order: critical,
// high, medium.
type RulesFile struct {
	Rules struct {
		Critical []Rule `yaml:"critical"`
		High     []Rule `yaml:"high"`
		Medium   []Rule `yaml:"medium"`
	} `yaml:"rules"`
	Paths struct {
		Protected []string `yaml:"protected"`
		Sensitive []string `yaml:"sensitive"`
	} `yaml:"paths"`
}

type compiledRule struct {
	re   *regexp.Regexp
	rule Rule
}

func compileTier(rules []Rule) ([]compiledRule, error) {
	var compiled []compiledRule
	for _, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, compiledRule{re: re, rule: rule})
	}
	return compiled, nil
}

// LoadRules reads a rules file, falling back to the embedded defaults when
// the path is empty or missing.
func LoadRules(path string) (RulesFile, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules()
		}
		return RulesFile{}, err
	}
	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, err
	}
	if len(rules.Rules.Critical) == 0 && len(rules.Rules.High) == 0 && len(rules.Rules.Medium) == 0 {
		return DefaultRules()
	}
	return rules, nil
}

// DefaultRules parses the embedded default rule tables.
func DefaultRules() (RulesFile, error) {
	var rules RulesFile
	if err := yaml.Unmarshal(assets.DefaultRulesYAML, &rules); err != nil {
		return RulesFile{}, err
	}
	return rules, nil
}
