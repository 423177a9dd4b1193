package catalog

import (
	"testing"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights failed validation: %v", err)
	}
}

func TestRiskCategoryBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{90, domain.RiskCritical},
		{75, domain.RiskCritical},
		{74.9, domain.RiskHigh},
		{60, domain.RiskHigh},
		{59.9, domain.RiskModerate},
		{40, domain.RiskModerate},
		{39.9, domain.RiskLow},
		{25, domain.RiskLow},
		{24.9, domain.RiskMinimal},
		{0, domain.RiskMinimal},
	}
	for _, tc := range cases {
		if got := RiskCategoryFor(tc.score); got.Level != tc.want {
			t.Errorf("RiskCategoryFor(%.1f) = %s, want %s", tc.score, got.Level, tc.want)
		}
	}
}

func TestEvacuationRates(t *testing.T) {
	cases := []struct {
		level domain.AlertLevel
		want  float64
	}{
		{domain.LevelRed, 0.60},
		{domain.LevelOrange, 0.35},
		{domain.LevelYellow, 0.15},
		{domain.LevelGreen, 0},
	}
	for _, tc := range cases {
		if got := EvacuationRate(tc.level); got != tc.want {
			t.Errorf("EvacuationRate(%s) = %v, want %v", tc.level.Level, got, tc.want)
		}
	}
}

func TestVenueCapacity(t *testing.T) {
	cases := []struct {
		venue string
		want  int
	}{
		{"Bislig Elementary School", 200},
		{"chapel", 100},
		{"San Roque Church", 100},
		{"gymnasium", 300},
		{"covered court", 300},
		{"Barangay Hall", 80},
		{"warehouse", 150},
	}
	for _, tc := range cases {
		if got := VenueCapacity(tc.venue); got != tc.want {
			t.Errorf("VenueCapacity(%q) = %d, want %d", tc.venue, got, tc.want)
		}
	}
}

func TestDefaultRulesAreValid(t *testing.T) {
	rules := DefaultRules()
	if len(rules) != 15 {
		t.Fatalf("expected 15 built-in rules, got %d", len(rules))
	}
	seen := make(map[string]bool)
	for i := range rules {
		if err := ValidateRule(&rules[i]); err != nil {
			t.Errorf("rule %s: %v", rules[i].ID, err)
		}
		if seen[rules[i].ID] {
			t.Errorf("duplicate rule id %s", rules[i].ID)
		}
		seen[rules[i].ID] = true
	}
}

func TestValidateRuleRejectsMalformed(t *testing.T) {
	bad := []domain.DecisionRule{
		{ID: "", Action: "act", Condition: domain.RuleCondition{domain.FieldRainfall: minOf(1)}},
		{ID: "R1", Action: "", Condition: domain.RuleCondition{domain.FieldRainfall: minOf(1)}},
		{ID: "R2", Action: "act"},
		{ID: "R3", Action: "act", Condition: domain.RuleCondition{domain.FieldRainfall: {}}},
		{ID: "R4", Action: "act", Condition: domain.RuleCondition{domain.FieldRainfall: between(10, 5)}},
	}
	for _, rule := range bad {
		if err := ValidateRule(&rule); err == nil {
			t.Errorf("rule %q: expected validation error", rule.ID)
		}
	}
}
