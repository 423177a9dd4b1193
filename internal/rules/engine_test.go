package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(clockwork.NewFakeClockAt(time.Date(2025, 11, 3, 6, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func conditions(numbers map[string]float64, labels map[string]string) domain.Conditions {
	if numbers == nil {
		numbers = map[string]float64{}
	}
	if labels == nil {
		labels = map[string]string{}
	}
	return domain.Conditions{Numbers: numbers, Labels: labels}
}

func triggeredIDs(rules []domain.TriggeredRule) map[string]bool {
	ids := make(map[string]bool, len(rules))
	for _, r := range rules {
		ids[r.ID] = true
	}
	return ids
}

func TestEngineLoadsBuiltinTable(t *testing.T) {
	engine := newTestEngine(t)
	if engine.RulesCount() != 15 {
		t.Errorf("expected 15 built-in rules, got %d", engine.RulesCount())
	}
}

func TestTriggeredExtremeFlood(t *testing.T) {
	engine := newTestEngine(t)
	cond := conditions(
		map[string]float64{domain.FieldRainfall: 160, domain.FieldWindSpeed: 10},
		map[string]string{domain.FieldFloodLevel: "High", domain.FieldAlertLevel: "RED"},
	)

	triggered := engine.Triggered(cond)
	ids := triggeredIDs(triggered)

	for _, want := range []string{"DR-001", "DR-010", "DR-012", "DR-014"} {
		if !ids[want] {
			t.Errorf("expected rule %s to trigger, got %v", want, ids)
		}
	}
	if ids["DR-002"] {
		t.Error("DR-002 must not trigger above its rainfall ceiling")
	}
	if ids["DR-009"] {
		t.Error("DR-009 needs strong wind as well")
	}
}

func TestTriggeredRangeCeilings(t *testing.T) {
	engine := newTestEngine(t)

	// 120mm sits inside DR-002's band and outside DR-001's.
	cond := conditions(
		map[string]float64{domain.FieldRainfall: 120},
		map[string]string{domain.FieldFloodLevel: "Moderate"},
	)
	ids := triggeredIDs(engine.Triggered(cond))
	if !ids["DR-002"] || ids["DR-001"] || ids["DR-003"] {
		t.Errorf("120mm/Moderate: got %v", ids)
	}

	// 149mm is still DR-002; 150mm is not.
	cond.Numbers[domain.FieldRainfall] = 149
	if ids := triggeredIDs(engine.Triggered(cond)); !ids["DR-002"] {
		t.Errorf("149mm should stay in DR-002 band, got %v", ids)
	}
	cond.Numbers[domain.FieldRainfall] = 150
	if ids := triggeredIDs(engine.Triggered(cond)); ids["DR-002"] {
		t.Errorf("150mm must leave DR-002 band, got %v", ids)
	}
}

func TestTriggeredCompoundRule(t *testing.T) {
	engine := newTestEngine(t)
	cond := conditions(
		map[string]float64{domain.FieldRainfall: 110, domain.FieldWindSpeed: 26},
		map[string]string{domain.FieldFloodLevel: "High"},
	)
	ids := triggeredIDs(engine.Triggered(cond))
	if !ids["DR-009"] {
		t.Errorf("compound rule should trigger, got %v", ids)
	}
}

func TestTriggeredMissingLabelFailsMembership(t *testing.T) {
	engine := newTestEngine(t)
	cond := conditions(map[string]float64{domain.FieldRainfall: 160}, nil)
	ids := triggeredIDs(engine.Triggered(cond))
	if ids["DR-001"] {
		t.Error("DR-001 requires a flood level label")
	}
	if !ids["DR-014"] {
		t.Errorf("DR-014 needs only rainfall, got %v", ids)
	}
}

func TestTriggeredPostEventFlag(t *testing.T) {
	engine := newTestEngine(t)
	cond := domain.Conditions{
		Numbers: map[string]float64{},
		Labels:  map[string]string{domain.FieldAlertLevel: "GREEN"},
		Flags:   map[string]bool{domain.FieldPostEvent: true},
	}
	if ids := triggeredIDs(engine.Triggered(cond)); !ids["DR-015"] {
		t.Errorf("recovery rule should trigger post-event, got %v", ids)
	}

	cond.Flags[domain.FieldPostEvent] = false
	if ids := triggeredIDs(engine.Triggered(cond)); ids["DR-015"] {
		t.Error("recovery rule must not trigger without the post-event flag")
	}
}

func TestTriggeredSortedByPriority(t *testing.T) {
	engine := newTestEngine(t)
	cond := conditions(
		map[string]float64{domain.FieldRainfall: 160, domain.FieldEvacuees: 120},
		map[string]string{domain.FieldFloodLevel: "High", domain.FieldAlertLevel: "RED"},
	)
	triggered := engine.Triggered(cond)
	if len(triggered) < 3 {
		t.Fatalf("expected several triggered rules, got %d", len(triggered))
	}
	for i := 1; i < len(triggered); i++ {
		if domain.PriorityRank(triggered[i].Priority) < domain.PriorityRank(triggered[i-1].Priority) {
			t.Fatalf("rules out of priority order: %s before %s", triggered[i-1].ID, triggered[i].ID)
		}
	}
	for _, tr := range triggered {
		if tr.TriggeredAt.IsZero() {
			t.Errorf("rule %s missing trigger timestamp", tr.ID)
		}
	}
}

func TestRecommendedActionsBuckets(t *testing.T) {
	engine := newTestEngine(t)
	cond := conditions(
		map[string]float64{domain.FieldRainfall: 160, domain.FieldEvacuees: 120},
		map[string]string{domain.FieldFloodLevel: "High", domain.FieldAlertLevel: "RED"},
	)
	cond.AreaName = "San Isidro"

	actions := engine.RecommendedActions(cond)
	if actions.AreaName != "San Isidro" {
		t.Errorf("areaName = %q", actions.AreaName)
	}
	if len(actions.ImmediateAction) == 0 || len(actions.PriorityActions) == 0 || len(actions.AdvisoryActions) == 0 {
		t.Fatalf("expected all buckets populated: %d/%d/%d",
			len(actions.ImmediateAction), len(actions.PriorityActions), len(actions.AdvisoryActions))
	}
	total := len(actions.ImmediateAction) + len(actions.PriorityActions) + len(actions.AdvisoryActions)
	if total != len(actions.TriggeredRules) {
		t.Errorf("buckets hold %d rules, triggered %d", total, len(actions.TriggeredRules))
	}
	for _, tr := range actions.ImmediateAction {
		if tr.Priority != domain.PriorityCritical {
			t.Errorf("immediate bucket has %s rule %s", tr.Priority, tr.ID)
		}
	}
}

func TestLoadCustomRuleWithExpression(t *testing.T) {
	engine := newTestEngine(t)
	custom := &domain.DecisionRule{
		ID:         "CR-001",
		Category:   "FLOOD",
		Priority:   domain.PriorityHigh,
		Expression: `rainfall > 80.0 && floodLevel == "Moderate"`,
		Action:     "Deploy pumps to low-lying streets",
	}

	if err := engine.LoadCustomRules([]*domain.DecisionRule{custom}); err != nil {
		t.Fatalf("failed to load custom rule: %v", err)
	}
	if engine.RulesCount() != 16 {
		t.Errorf("expected 16 rules after load, got %d", engine.RulesCount())
	}

	cond := conditions(
		map[string]float64{domain.FieldRainfall: 90},
		map[string]string{domain.FieldFloodLevel: "Moderate"},
	)
	if ids := triggeredIDs(engine.Triggered(cond)); !ids["CR-001"] {
		t.Errorf("custom rule should trigger, got %v", ids)
	}

	cond.Labels[domain.FieldFloodLevel] = "Low"
	if ids := triggeredIDs(engine.Triggered(cond)); ids["CR-001"] {
		t.Error("custom rule must not trigger when expression is false")
	}
}

func TestLoadCustomRuleReplacesSet(t *testing.T) {
	engine := newTestEngine(t)
	first := &domain.DecisionRule{
		ID: "CR-001", Category: "WIND", Priority: domain.PriorityLow,
		Expression: "windSpeed > 5.0", Action: "Advise fishermen",
	}
	if err := engine.LoadCustomRules([]*domain.DecisionRule{first}); err != nil {
		t.Fatal(err)
	}
	if err := engine.LoadCustomRules(nil); err != nil {
		t.Fatal(err)
	}
	if engine.RulesCount() != 15 {
		t.Errorf("reload with empty set should drop custom rules, got %d", engine.RulesCount())
	}
}

func TestValidateRuleRejectsBadExpression(t *testing.T) {
	engine := newTestEngine(t)

	bad := &domain.DecisionRule{
		ID: "CR-BAD", Category: "FLOOD", Priority: domain.PriorityHigh,
		Expression: "this is not valid CEL !!!", Action: "act",
	}
	if err := engine.ValidateRule(bad); err == nil {
		t.Error("expected compile error for invalid CEL")
	}

	nonBool := &domain.DecisionRule{
		ID: "CR-NUM", Category: "FLOOD", Priority: domain.PriorityHigh,
		Expression: "rainfall + 1.0", Action: "act",
	}
	if err := engine.ValidateRule(nonBool); err == nil {
		t.Error("expected error for non-boolean expression")
	}

	empty := &domain.DecisionRule{ID: "CR-EMPTY", Action: "act"}
	if err := engine.ValidateRule(empty); !errors.Is(err, domain.ErrBadRuleConfig) {
		t.Errorf("expected ErrBadRuleConfig, got %v", err)
	}
}

func TestMatrixSummaries(t *testing.T) {
	engine := newTestEngine(t)
	matrix := engine.Matrix()

	if matrix.Summary.Total != 15 {
		t.Errorf("total = %d, want 15", matrix.Summary.Total)
	}
	if matrix.Summary.ByCategory["FLOOD"] != 3 {
		t.Errorf("FLOOD count = %d, want 3", matrix.Summary.ByCategory["FLOOD"])
	}
	if matrix.Summary.ByPriority[domain.PriorityCritical] != 4 {
		t.Errorf("CRITICAL count = %d, want 4", matrix.Summary.ByPriority[domain.PriorityCritical])
	}
	if matrix.Summary.ByPriority[domain.PriorityLow] != 0 {
		t.Errorf("LOW count = %d, want 0", matrix.Summary.ByPriority[domain.PriorityLow])
	}

	var sum int
	for _, n := range matrix.Summary.ByCategory {
		sum += n
	}
	if sum != matrix.Summary.Total {
		t.Errorf("category counts sum to %d, want %d", sum, matrix.Summary.Total)
	}
}
