package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

func newTestScorer() *Scorer {
	return New(clockwork.NewFakeClockAt(time.Date(2025, 11, 3, 6, 0, 0, 0, time.UTC)))
}

func fptr(v float64) *float64 { return &v }

func TestScoreFloodHazard(t *testing.T) {
	if got := scoreFloodHazard(nil); got != 25 {
		t.Errorf("nil hazard = %v, want 25", got)
	}
	if got := scoreFloodHazard(&domain.HazardProfile{FloodLevel: domain.HazardHigh}); got != 100 {
		t.Errorf("High = %v, want 100", got)
	}
	if got := scoreFloodHazard(&domain.HazardProfile{FloodLevel: domain.HazardModerate}); got != 50 {
		t.Errorf("Moderate = %v, want 50", got)
	}
	// A stored numeric score overrides the level mapping.
	h := &domain.HazardProfile{FloodLevel: domain.HazardLow, FloodRiskScore: fptr(87)}
	if got := scoreFloodHazard(h); got != 87 {
		t.Errorf("numeric override = %v, want 87", got)
	}
}

func TestScoreLandslideHazardSlopeAdjustment(t *testing.T) {
	base := &domain.HazardProfile{LandslideLevel: domain.HazardModerate}
	if got := scoreLandslideHazard(base); got != 50 {
		t.Fatalf("base = %v, want 50", got)
	}

	steep := &domain.HazardProfile{LandslideLevel: domain.HazardModerate, MeanSlopeDeg: 22}
	if got := scoreLandslideHazard(steep); math.Abs(got-55) > 1e-9 {
		t.Errorf("slope 22 = %v, want 55", got)
	}

	verySteep := &domain.HazardProfile{LandslideLevel: domain.HazardModerate, MeanSlopeDeg: 32}
	if got := scoreLandslideHazard(verySteep); math.Abs(got-65) > 1e-9 {
		t.Errorf("slope 32 = %v, want 65", got)
	}

	// Adjustment is capped at 100.
	capped := &domain.HazardProfile{LandslideLevel: domain.HazardHigh, MeanSlopeDeg: 35}
	if got := scoreLandslideHazard(capped); got != 100 {
		t.Errorf("capped = %v, want 100", got)
	}
}

func TestScoreCurrentWeather(t *testing.T) {
	cases := []struct {
		name string
		wx   *domain.WeatherAggregate
		want float64
	}{
		{"nil weather", nil, 0},
		{"calm", &domain.WeatherAggregate{}, 0},
		{"worst case", &domain.WeatherAggregate{RainfallMm: 160, SoilMoisture: 0.90, WindSpeedMs: 40}, 100},
		{"rain only extreme", &domain.WeatherAggregate{RainfallMm: 150}, 40},
		{"rain high moisture moist wind yellow", &domain.WeatherAggregate{RainfallMm: 100, SoilMoisture: 0.60, WindSpeedMs: 15}, 53},
		{"light rain damp", &domain.WeatherAggregate{RainfallMm: 25, SoilMoisture: 0.40}, 15},
	}
	for _, tc := range cases {
		if got := scoreCurrentWeather(tc.wx); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScorePopulationDensityBands(t *testing.T) {
	cases := []struct {
		density float64
		want    float64
	}{
		{0, 50}, {100, 15}, {500, 30}, {1000, 50}, {2000, 75}, {3000, 100}, {4500, 100},
	}
	for _, tc := range cases {
		area := &domain.AreaProfile{PopulationDensity: tc.density}
		if got := scorePopulationDensity(area); got != tc.want {
			t.Errorf("density %v = %v, want %v", tc.density, got, tc.want)
		}
	}
}

func TestScoreVulnerability(t *testing.T) {
	cases := []struct {
		name       string
		livelihood string
		sqkm       float64
		want       float64
	}{
		{"empty profile", "", 0, 50},
		{"farming", "Agriculture and farming", 2, 70},
		{"fishing village", "Fishing", 2, 65},
		{"farming and fishing small area", "agriculture, fishery", 0.5, 95},
		{"trading", "Trading", 3, 50},
	}
	for _, tc := range cases {
		area := &domain.AreaProfile{Livelihood: tc.livelihood, AreaSqKm: tc.sqkm}
		if got := scoreVulnerability(area); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScoreInfrastructure(t *testing.T) {
	mk := func(n int) *domain.AreaProfile {
		return &domain.AreaProfile{Shelters: make([]domain.Shelter, n)}
	}
	cases := []struct {
		shelters int
		want     float64
	}{
		{0, 80}, {1, 60}, {2, 40}, {3, 30}, {5, 30},
	}
	for _, tc := range cases {
		if got := scoreInfrastructure(mk(tc.shelters)); got != tc.want {
			t.Errorf("%d shelters = %v, want %v", tc.shelters, got, tc.want)
		}
	}
}

func TestEqualWeightsMidScores(t *testing.T) {
	// Six criteria all at 50 with equal weights must land exactly on 50.
	w := domain.Weights{
		FloodHazard:       1.0 / 6,
		LandslideHazard:   1.0 / 6,
		CurrentWeather:    1.0 / 6,
		PopulationDensity: 1.0 / 6,
		Vulnerability:     1.0 / 6,
		Infrastructure:    1.0 / 6,
	}
	criteria := domain.CriteriaScores{
		FloodHazard: 50, LandslideHazard: 50, CurrentWeather: 50,
		PopulationDensity: 50, Vulnerability: 50, Infrastructure: 50,
	}
	total := math.Round(criteria.WeightedTotal(w)*100) / 100
	if total != 50.00 {
		t.Fatalf("total = %v, want 50.00", total)
	}

	s := newTestScorer()
	result := s.ScoreArea(&domain.AreaProfile{ID: 1, Name: "Test"}, nil, w)
	if result.Category.Level == "" {
		t.Error("category not assigned")
	}
}

func TestCategoryIgnoresDisplayRounding(t *testing.T) {
	// A total of 74.996 rounds to 75.00 for display but stays below the
	// critical cutoff, so the category must come from the exact value.
	s := newTestScorer()
	area := &domain.AreaProfile{
		ID:     1,
		Name:   "Boundary",
		Hazard: &domain.HazardProfile{FloodRiskScore: fptr(74.996)},
	}
	w := domain.Weights{FloodHazard: 1.0}

	res := s.ScoreArea(area, nil, w)

	if res.TotalScore != 75.00 {
		t.Fatalf("totalScore = %v, want 75.00", res.TotalScore)
	}
	if res.Category.Level != domain.RiskHigh {
		t.Errorf("category = %s, want HIGH", res.Category.Level)
	}
}

func TestScoreAllSortsAndSummarizes(t *testing.T) {
	s := newTestScorer()
	areas := []*domain.AreaProfile{
		{ID: 1, Name: "Quiet", Hazard: &domain.HazardProfile{FloodLevel: domain.HazardLow, LandslideLevel: domain.HazardLow}},
		{ID: 2, Name: "Exposed", PopulationDensity: 3500,
			Hazard: &domain.HazardProfile{FloodLevel: domain.HazardHigh, LandslideLevel: domain.HazardHigh}},
	}
	weather := domain.WeatherByArea{
		2: {AreaID: 2, RainfallMm: 160, SoilMoisture: 0.90, WindSpeedMs: 40},
	}

	report, err := s.ScoreAll(areas, weather, nil)
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	if len(report.Scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(report.Scores))
	}
	if report.Scores[0].AreaName != "Exposed" {
		t.Errorf("scores not sorted descending: %s first", report.Scores[0].AreaName)
	}
	if report.Summary.HighestRisk == nil || report.Summary.HighestRisk.AreaName != "Exposed" {
		t.Errorf("highestRisk = %+v", report.Summary.HighestRisk)
	}
	if report.Summary.LowestRisk == nil || report.Summary.LowestRisk.AreaName != "Quiet" {
		t.Errorf("lowestRisk = %+v", report.Summary.LowestRisk)
	}
	wantAvg := (report.Scores[0].TotalScore + report.Scores[1].TotalScore) / 2
	if math.Abs(report.Summary.AverageScore-wantAvg) > 1e-9 {
		t.Errorf("averageScore = %v, want %v", report.Summary.AverageScore, wantAvg)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not stamped")
	}
}

func TestScoreAllRejectsBadWeights(t *testing.T) {
	s := newTestScorer()
	bad := domain.Weights{FloodHazard: 0.9, LandslideHazard: 0.9}
	_, err := s.ScoreAll(nil, nil, &bad)
	if !errors.Is(err, domain.ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
}

func TestCompareScenarios(t *testing.T) {
	s := newTestScorer()
	areas := []*domain.AreaProfile{
		{ID: 1, Name: "Riverside", Hazard: &domain.HazardProfile{FloodLevel: domain.HazardHigh, LandslideLevel: domain.HazardLow}},
		{ID: 2, Name: "Hillside", Hazard: &domain.HazardProfile{FloodLevel: domain.HazardLow, LandslideLevel: domain.HazardHigh}},
	}

	scenarios := []domain.Scenario{
		{Name: "flood-heavy", Weights: domain.Weights{FloodHazard: 0.70, LandslideHazard: 0.10, CurrentWeather: 0.05, PopulationDensity: 0.05, Vulnerability: 0.05, Infrastructure: 0.05}},
		{Name: "landslide-heavy", Weights: domain.Weights{FloodHazard: 0.10, LandslideHazard: 0.70, CurrentWeather: 0.05, PopulationDensity: 0.05, Vulnerability: 0.05, Infrastructure: 0.05}},
	}

	results, err := s.CompareScenarios(areas, nil, scenarios)
	if err != nil {
		t.Fatalf("CompareScenarios: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ScenarioName != "flood-heavy" || results[1].ScenarioName != "landslide-heavy" {
		t.Errorf("scenario names: %s, %s", results[0].ScenarioName, results[1].ScenarioName)
	}
	if results[0].Scores[0].AreaName != "Riverside" {
		t.Errorf("flood-heavy top = %s, want Riverside", results[0].Scores[0].AreaName)
	}
	if results[1].Scores[0].AreaName != "Hillside" {
		t.Errorf("landslide-heavy top = %s, want Hillside", results[1].Scores[0].AreaName)
	}

	badScenario := []domain.Scenario{{Name: "broken", Weights: domain.Weights{FloodHazard: 0.5}}}
	if _, err := s.CompareScenarios(areas, nil, badScenario); !errors.Is(err, domain.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights, got %v", err)
	}
}
