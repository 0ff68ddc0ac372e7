// Package sourcing maps inbound referral text to a campaign attribution tag.
package sourcing

import (
	"fmt"
	"strings"
)

// Attribution defaults.
const (
	// SourceFormDefault is assigned to leads arriving through the web form
	// when the form carries no referral hint.
	SourceFormDefault = "Formulario web"
)

// Match types for sourcing rules.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

// Rule maps a referral trigger to an attribution source tag.
type Rule struct {
	Trigger   string `yaml:"trigger"`
	MatchType string `yaml:"matchType"`
	Source    string `yaml:"source"`
}

// Match resolves a referral string against the rule list. Rules are tried in
// order and the first hit wins, so more specific rules must be listed before
// broader substring ones. Comparisons are case-sensitive. An empty referral
// is a direct form visit and gets the static form source; an unmatched
// non-empty referral produces an "unknown campaign" tag that preserves the
// raw referral for later triage.
func Match(referral string, rules []Rule) string {
	referral = strings.TrimSpace(referral)
	if referral == "" {
		return SourceFormDefault
	}

	for _, rule := range rules {
		switch rule.MatchType {
		case MatchExact:
			if referral == rule.Trigger {
				return rule.Source
			}
		case MatchSubstring:
			if strings.Contains(referral, rule.Trigger) {
				return rule.Source
			}
		}
	}

	return fmt.Sprintf("Campaña desconocida (%s)", referral)
}
