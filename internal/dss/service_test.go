package dss

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
	"github.com/rjrmendiola/gsmap-api/internal/rules"
)

// fakeRepo is an in-memory Repository for orchestrator tests.
type fakeRepo struct {
	areas   []*domain.AreaProfile
	custom  map[string]*domain.DecisionRule
	reports []*domain.Report
	failOn  string
}

func newFakeRepo(areas ...*domain.AreaProfile) *fakeRepo {
	return &fakeRepo{areas: areas, custom: make(map[string]*domain.DecisionRule)}
}

func (r *fakeRepo) SaveArea(ctx context.Context, area *domain.AreaProfile) error {
	r.areas = append(r.areas, area)
	return nil
}

func (r *fakeRepo) GetArea(ctx context.Context, areaID int64) (*domain.AreaProfile, error) {
	for _, a := range r.areas {
		if a.ID == areaID {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) GetAreaBySlug(ctx context.Context, slug string) (*domain.AreaProfile, error) {
	for _, a := range r.areas {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) ListAreas(ctx context.Context) ([]*domain.AreaProfile, error) {
	if r.failOn == "ListAreas" {
		return nil, errors.New("db down")
	}
	return r.areas, nil
}

func (r *fakeRepo) SaveHazardProfile(ctx context.Context, p *domain.HazardProfile) error { return nil }
func (r *fakeRepo) SaveShelter(ctx context.Context, s *domain.Shelter) error            { return nil }

func (r *fakeRepo) SaveWeatherSnapshot(ctx context.Context, snap *domain.WeatherAggregate) error {
	return nil
}

func (r *fakeRepo) LatestWeatherSnapshot(ctx context.Context, areaID int64) (*domain.WeatherAggregate, error) {
	return nil, domain.ErrMissingWeather
}

func (r *fakeRepo) SaveCustomRule(ctx context.Context, rule *domain.DecisionRule) error {
	r.custom[rule.ID] = rule
	return nil
}

func (r *fakeRepo) ListCustomRules(ctx context.Context) ([]*domain.DecisionRule, error) {
	out := make([]*domain.DecisionRule, 0, len(r.custom))
	for _, rule := range r.custom {
		out = append(out, rule)
	}
	return out, nil
}

func (r *fakeRepo) DeleteCustomRule(ctx context.Context, ruleID string) error {
	if _, ok := r.custom[ruleID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.custom, ruleID)
	return nil
}

func (r *fakeRepo) SaveReport(ctx context.Context, report *domain.Report) error {
	r.reports = append(r.reports, report)
	return nil
}

func (r *fakeRepo) ListReports(ctx context.Context, kind string, since time.Time) ([]*domain.Report, error) {
	var out []*domain.Report
	for _, rep := range r.reports {
		if rep.Kind == kind && !rep.GeneratedAt.Before(since) {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

// fakeWeather serves aggregates from a map; absent areas report
// missing weather.
type fakeWeather struct {
	byArea map[int64]*domain.WeatherAggregate
}

func (w *fakeWeather) Latest(ctx context.Context, areaID int64) (*domain.WeatherAggregate, error) {
	wx, ok := w.byArea[areaID]
	if !ok {
		return nil, domain.ErrMissingWeather
	}
	return wx, nil
}

func intp(v int) *int { return &v }

func floodProneArea() *domain.AreaProfile {
	return &domain.AreaProfile{
		ID:         1,
		Name:       "San Roque",
		Slug:       "san-roque",
		Population: intp(1200),
		AreaSqKm:   2.5,
		Livelihood: "agriculture",
		Hazard: &domain.HazardProfile{
			AreaID:         1,
			MeanSlopeDeg:   1.5,
			MaxSlopeDeg:    3,
			FloodLevel:     domain.HazardHigh,
			LandslideLevel: domain.HazardLow,
		},
		Shelters: []domain.Shelter{
			{ID: 1, AreaID: 1, Name: "San Roque ES", Venue: "San Roque Elementary School"},
			{ID: 2, AreaID: 1, Name: "San Roque Chapel", Venue: "Chapel"},
		},
	}
}

func slideProneArea() *domain.AreaProfile {
	return &domain.AreaProfile{
		ID:         2,
		Name:       "Calvary Hill",
		Slug:       "calvary-hill",
		Population: intp(400),
		AreaSqKm:   3.1,
		Hazard: &domain.HazardProfile{
			AreaID:         2,
			MeanSlopeDeg:   12,
			MaxSlopeDeg:    20,
			FloodLevel:     domain.HazardLow,
			LandslideLevel: domain.HazardHigh,
		},
		Shelters: []domain.Shelter{
			{ID: 3, AreaID: 2, Name: "Calvary Hill Gym", Venue: "Covered Court"},
		},
	}
}

func quietArea() *domain.AreaProfile {
	return &domain.AreaProfile{
		ID:         3,
		Name:       "Poblacion",
		Slug:       "poblacion",
		Population: intp(2000),
		AreaSqKm:   1.2,
		Hazard: &domain.HazardProfile{
			AreaID:         3,
			MeanSlopeDeg:   3,
			MaxSlopeDeg:    6,
			FloodLevel:     domain.HazardLow,
			LandslideLevel: domain.HazardLow,
		},
	}
}

func newTestService(t *testing.T) (*Service, *fakeRepo, clockwork.Clock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 3, 6, 0, 0, 0, time.UTC))
	engine, err := rules.NewEngine(clock)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	repo := newFakeRepo(floodProneArea(), slideProneArea(), quietArea(),
		&domain.AreaProfile{ID: 4, Name: "Upland", Slug: "upland"})
	weather := &fakeWeather{byArea: map[int64]*domain.WeatherAggregate{
		1: {AreaID: 1, RainfallMm: 160, SoilMoisture: 0.90, WindSpeedMs: 10},
		2: {AreaID: 2, RainfallMm: 120, SoilMoisture: 0.80, WindSpeedMs: 10},
		3: {AreaID: 3, RainfallMm: 5, SoilMoisture: 0.30, WindSpeedMs: 5},
	}}
	return NewService(repo, weather, engine, clock), repo, clock
}

func TestAlertsReport(t *testing.T) {
	svc, _, clock := newTestService(t)

	report, err := svc.Alerts(context.Background())
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if len(report.Alerts) != 2 {
		t.Fatalf("got %d alerts, want 2 (quiet and weatherless areas excluded)", len(report.Alerts))
	}
	if report.Alerts[0].AreaName != "San Roque" {
		t.Errorf("highest priority alert = %q, want San Roque", report.Alerts[0].AreaName)
	}
	if report.Alerts[0].Level != domain.LevelRed {
		t.Errorf("San Roque level = %v, want RED", report.Alerts[0].Level)
	}
	if report.Alerts[1].Level.Priority >= report.Alerts[0].Level.Priority {
		t.Errorf("alerts not sorted by descending priority: %v then %v",
			report.Alerts[0].Level.Priority, report.Alerts[1].Level.Priority)
	}
	if report.Statistics.Total != 2 || report.Statistics.ByLevel.Red != 1 {
		t.Errorf("statistics = %+v, want total 2 with one RED", report.Statistics)
	}
	if !report.GeneratedAt.Equal(clock.Now()) {
		t.Errorf("GeneratedAt = %v, want clock time", report.GeneratedAt)
	}
}

func TestAlertForArea(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.AlertForArea(ctx, 2)
	if err != nil {
		t.Fatalf("AlertForArea(2): %v", err)
	}
	if a.AreaName != "Calvary Hill" {
		t.Errorf("got alert for %q, want Calvary Hill", a.AreaName)
	}

	// Quiet area has no active alert.
	if _, err := svc.AlertForArea(ctx, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("quiet area: got %v, want ErrNotFound", err)
	}
	if _, err := svc.AlertForArea(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown area: got %v, want ErrNotFound", err)
	}
}

func TestTriggeredRules(t *testing.T) {
	svc, _, _ := newTestService(t)

	report, err := svc.TriggeredRules(context.Background())
	if err != nil {
		t.Fatalf("TriggeredRules: %v", err)
	}
	if len(report.Triggered) == 0 {
		t.Fatal("expected triggered rules for alerted areas")
	}
	total := 0
	for _, actions := range report.Triggered {
		if len(actions.TriggeredRules) == 0 {
			t.Errorf("area %q included with zero triggered rules", actions.AreaName)
		}
		total += len(actions.TriggeredRules)
	}
	if report.Summary.AreasWithRules != len(report.Triggered) {
		t.Errorf("AreasWithRules = %d, want %d", report.Summary.AreasWithRules, len(report.Triggered))
	}
	if report.Summary.RulesTriggered != total {
		t.Errorf("RulesTriggered = %d, want %d", report.Summary.RulesTriggered, total)
	}
}

func TestEvacuationPlanAndStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	plan, err := svc.EvacuationPlan(ctx)
	if err != nil {
		t.Fatalf("EvacuationPlan: %v", err)
	}
	if plan.Status != domain.PlanEvacuationRequired {
		t.Errorf("plan status = %q, want %q", plan.Status, domain.PlanEvacuationRequired)
	}
	if plan.TotalAreas != 2 {
		t.Errorf("plan covers %d areas, want 2", plan.TotalAreas)
	}

	entry, err := svc.EvacuationPlanForArea(ctx, 1)
	if err != nil {
		t.Fatalf("EvacuationPlanForArea(1): %v", err)
	}
	// RED over 1200 residents at the 60% rate.
	if entry.EstimatedEvacuees != 720 {
		t.Errorf("San Roque evacuees = %d, want 720", entry.EstimatedEvacuees)
	}

	if _, err := svc.EvacuationPlanForArea(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown area plan: got %v, want ErrNotFound", err)
	}

	status, err := svc.EvacuationStatus(ctx)
	if err != nil {
		t.Fatalf("EvacuationStatus: %v", err)
	}
	if status.TotalShelters != 3 {
		t.Errorf("TotalShelters = %d, want 3", status.TotalShelters)
	}
	// school 200 + chapel 100 + covered court 300
	if status.TotalCapacity != 600 {
		t.Errorf("TotalCapacity = %d, want 600", status.TotalCapacity)
	}
}

func TestRiskScores(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.RiskScores(ctx, nil)
	if err != nil {
		t.Fatalf("RiskScores: %v", err)
	}
	if len(report.Scores) != 4 {
		t.Fatalf("scored %d areas, want all 4", len(report.Scores))
	}
	for i := 1; i < len(report.Scores); i++ {
		if report.Scores[i].TotalScore > report.Scores[i-1].TotalScore {
			t.Fatalf("scores not sorted descending at index %d", i)
		}
	}

	one, err := svc.RiskScoreForArea(ctx, 1, nil)
	if err != nil {
		t.Fatalf("RiskScoreForArea(1): %v", err)
	}
	if one.AreaID != 1 {
		t.Errorf("AreaID = %d, want 1", one.AreaID)
	}

	bad := domain.Weights{FloodHazard: 0.9, LandslideHazard: 0.9}
	if _, err := svc.RiskScores(ctx, &bad); !errors.Is(err, domain.ErrInvalidWeights) {
		t.Errorf("bad weights: got %v, want ErrInvalidWeights", err)
	}
}

func TestCompareScenarios(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CompareScenarios(ctx, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty scenarios: got %v, want ErrInvalidInput", err)
	}

	results, err := svc.CompareScenarios(ctx, []domain.Scenario{
		{Name: "baseline", Weights: domain.Weights{FloodHazard: 0.25, LandslideHazard: 0.25, CurrentWeather: 0.20, PopulationDensity: 0.15, Vulnerability: 0.10, Infrastructure: 0.05}},
		{Name: "flood-heavy", Weights: domain.Weights{FloodHazard: 0.60, LandslideHazard: 0.10, CurrentWeather: 0.10, PopulationDensity: 0.10, Vulnerability: 0.05, Infrastructure: 0.05}},
	})
	if err != nil {
		t.Fatalf("CompareScenarios: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].ScenarioName != "flood-heavy" {
		t.Errorf("second scenario = %q, want flood-heavy", results[1].ScenarioName)
	}
}

func TestDashboard(t *testing.T) {
	svc, _, _ := newTestService(t)

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.Alerts == nil || dash.Alerts.Statistics.Total != 2 {
		t.Errorf("dashboard alerts missing or wrong count: %+v", dash.Alerts)
	}
	if dash.RiskScores == nil || len(dash.RiskScores.Scores) != 4 {
		t.Error("dashboard risk scores missing")
	}
	if dash.DecisionMatrix.Summary.Total != 15 {
		t.Errorf("decision matrix total = %d, want 15", dash.DecisionMatrix.Summary.Total)
	}
	if dash.EvacuationPlan == nil || dash.EvacuationStatus.TotalShelters != 3 {
		t.Error("dashboard evacuation sections incomplete")
	}
	if len(dash.TriggeredRules) == 0 || len(dash.TriggeredRules) > 5 {
		t.Errorf("dashboard triggered rule sets = %d, want 1..5", len(dash.TriggeredRules))
	}
}

func TestCustomRuleLifecycle(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	rule := &domain.DecisionRule{
		Category:   "FLOOD_RESPONSE",
		Priority:   domain.PriorityHigh,
		Expression: `rainfall > 80.0 && floodLevel == "High"`,
		Action:     "Stage rescue boats at riverside purok",
	}
	if err := svc.SaveCustomRule(ctx, rule); err != nil {
		t.Fatalf("SaveCustomRule: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("expected an assigned rule ID")
	}
	if svc.engine.RulesCount() != 16 {
		t.Errorf("engine has %d rules after save, want 16", svc.engine.RulesCount())
	}
	if _, ok := repo.custom[rule.ID]; !ok {
		t.Error("rule not persisted")
	}

	// Invalid rules never reach the repository.
	bad := &domain.DecisionRule{ID: "CR-bad", Expression: `rainfall +`, Action: "x"}
	if err := svc.SaveCustomRule(ctx, bad); !errors.Is(err, domain.ErrBadRuleConfig) {
		t.Errorf("invalid rule: got %v, want ErrBadRuleConfig", err)
	}
	if _, ok := repo.custom["CR-bad"]; ok {
		t.Error("invalid rule was persisted")
	}

	if err := svc.DeleteCustomRule(ctx, rule.ID); err != nil {
		t.Fatalf("DeleteCustomRule: %v", err)
	}
	if svc.engine.RulesCount() != 15 {
		t.Errorf("engine has %d rules after delete, want 15", svc.engine.RulesCount())
	}
	if err := svc.DeleteCustomRule(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleting unknown rule: got %v, want ErrNotFound", err)
	}
}

func TestRecomputeArchivesReports(t *testing.T) {
	svc, repo, clock := newTestService(t)

	result, err := svc.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if result.Alerts == nil || result.Plan == nil || result.RiskScores == nil {
		t.Fatal("recompute result incomplete")
	}
	if len(repo.reports) != 3 {
		t.Fatalf("archived %d reports, want 3", len(repo.reports))
	}
	kinds := map[string]bool{}
	for _, rep := range repo.reports {
		kinds[rep.Kind] = true
		if len(rep.Payload) == 0 {
			t.Errorf("report %s has empty payload", rep.Kind)
		}
		if !rep.GeneratedAt.Equal(clock.Now()) {
			t.Errorf("report %s timestamp = %v, want clock time", rep.Kind, rep.GeneratedAt)
		}
	}
	for _, kind := range []string{domain.ReportKindAlerts, domain.ReportKindEvacuation, domain.ReportKindRiskScores} {
		if !kinds[kind] {
			t.Errorf("missing archived report kind %q", kind)
		}
	}
}

func TestRepositoryFailurePropagates(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.failOn = "ListAreas"

	if _, err := svc.Alerts(context.Background()); err == nil {
		t.Fatal("expected error when area listing fails")
	}
}
