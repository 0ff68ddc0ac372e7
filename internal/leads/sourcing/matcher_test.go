package sourcing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchExactRule(t *testing.T) {
	rules := []Rule{
		{Trigger: "Promo Verano", MatchType: MatchExact, Source: "Campaña Verano"},
	}

	got := Match("Promo Verano", rules)
	if got != "Campaña Verano" {
		t.Fatalf("expected exact match, got %q", got)
	}
}

func TestMatchSubstringRule(t *testing.T) {
	rules := []Rule{
		{Trigger: "descuento", MatchType: MatchSubstring, Source: "Campaña Descuentos"},
	}

	got := Match("Hola, vi el descuento en Facebook", rules)
	if got != "Campaña Descuentos" {
		t.Fatalf("expected substring match, got %q", got)
	}
}

func TestMatchIsCaseSensitive(t *testing.T) {
	rules := []Rule{
		{Trigger: "promo", MatchType: MatchExact, Source: "Campaña Promo"},
		{Trigger: "descuento", MatchType: MatchSubstring, Source: "Campaña Descuentos"},
	}

	if got := Match("PROMO", rules); got != "Campaña desconocida (PROMO)" {
		t.Fatalf("expected case-variant referral to miss the exact rule, got %q", got)
	}
	if got := Match("gran DESCUENTO hoy", rules); got != "Campaña desconocida (gran DESCUENTO hoy)" {
		t.Fatalf("expected case-variant referral to miss the substring rule, got %q", got)
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	rules := []Rule{
		{Trigger: "promo verano", MatchType: MatchExact, Source: "Específica"},
		{Trigger: "promo", MatchType: MatchSubstring, Source: "Genérica"},
	}

	if got := Match("promo verano", rules); got != "Específica" {
		t.Fatalf("expected the earlier rule to win, got %q", got)
	}
	if got := Match("promo otoño", rules); got != "Genérica" {
		t.Fatalf("expected fall-through to the substring rule, got %q", got)
	}
}

func TestMatchUnmatchedReferralKeepsRawText(t *testing.T) {
	got := Match("anuncio misterioso", nil)
	want := "Campaña desconocida (anuncio misterioso)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMatchEmptyReferral(t *testing.T) {
	rules := []Rule{
		{Trigger: "promo", MatchType: MatchSubstring, Source: "Campaña"},
	}

	if got := Match("   ", rules); got != SourceFormDefault {
		t.Fatalf("expected form default for blank referral, got %q", got)
	}
}

func TestLoadRulesMissingFileIsNotAnError(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules != nil {
		t.Fatalf("expected nil rules, got %v", rules)
	}
}

func TestLoadRulesEmptyPathDisablesMatching(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules != nil {
		t.Fatalf("expected nil rules, got %v", rules)
	}
}

func TestLoadRulesParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - trigger: Promo Verano
    matchType: exact
    source: Campaña Verano
  - trigger: descuento
    matchType: substring
    source: Campaña Descuentos
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Trigger != "Promo Verano" || rules[0].MatchType != MatchExact {
		t.Fatalf("unexpected first rule: %+v", rules[0])
	}
}

func TestLoadRulesRejectsUnknownMatchType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - trigger: promo
    matchType: regex
    source: Campaña
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected an error for unknown matchType")
	}
}
