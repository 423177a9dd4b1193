package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

func testClassifier() *Classifier {
	return New(clockwork.NewFakeClockAt(time.Date(2025, 11, 3, 6, 0, 0, 0, time.UTC)))
}

func wx(rain, moisture, wind float64) *domain.WeatherAggregate {
	return &domain.WeatherAggregate{RainfallMm: rain, SoilMoisture: moisture, WindSpeedMs: wind}
}

func hazard(meanSlope, maxSlope float64, flood, landslide domain.HazardLevel) *domain.HazardProfile {
	return &domain.HazardProfile{
		MeanSlopeDeg:   meanSlope,
		MaxSlopeDeg:    maxSlope,
		FloodLevel:     flood,
		LandslideLevel: landslide,
	}
}

func TestFloodRiskFlatExtremeSaturated(t *testing.T) {
	c := testClassifier()
	risk := c.FloodRisk(wx(160, 0.90, 0), hazard(1, 0, domain.HazardLow, domain.HazardLow))

	if risk.Level.Level != "RED" {
		t.Fatalf("level = %s, want RED", risk.Level.Level)
	}
	joined := strings.Join(risk.Reasons, " ")
	if !strings.Contains(joined, "extreme rainfall") {
		t.Errorf("reasons should mention extreme rainfall, got %q", joined)
	}
	if !strings.Contains(joined, "saturated soil") {
		t.Errorf("reasons should mention saturated soil, got %q", joined)
	}
}

func TestFloodRiskBands(t *testing.T) {
	c := testClassifier()
	cases := []struct {
		name           string
		slope          float64
		rain, moisture float64
		want           string
	}{
		{"flat dry", 1, 0, 0.3, "GREEN"},
		{"flat moderate rain moist soil", 1, 60, 0.70, "ORANGE"},
		{"flat high rain saturated", 1, 120, 0.80, "RED"},
		{"flat extreme rain dry soil", 1, 160, 0.3, "RED"},
		{"flat high rain dry soil", 1, 120, 0.3, "ORANGE"},
		{"flat moderate rain only", 1, 60, 0.3, "YELLOW"},
		{"flat moist soil only", 1, 10, 0.70, "YELLOW"},
		{"gentle high rain saturated", 3, 120, 0.80, "ORANGE"},
		{"gentle extreme rain", 3, 160, 0.3, "ORANGE"},
		{"gentle moderate rain moist", 3, 60, 0.70, "YELLOW"},
		{"gentle quiet", 3, 10, 0.3, "GREEN"},
		{"moderate high rain saturated", 7, 120, 0.80, "YELLOW"},
		{"moderate extreme rain", 7, 160, 0.3, "YELLOW"},
		{"moderate quiet", 7, 10, 0.3, "GREEN"},
		{"steep local flooding only", 12, 200, 0.95, "GREEN"},
		{"very steep extreme rain flash flood", 20, 160, 0.5, "RED"},
		{"very steep high rain", 20, 120, 0.5, "GREEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			risk := c.FloodRisk(wx(tc.rain, tc.moisture, 0), hazard(tc.slope, 0, domain.HazardLow, domain.HazardLow))
			if risk.Level.Level != tc.want {
				t.Errorf("flood level = %s, want %s (reasons: %v)", risk.Level.Level, tc.want, risk.Reasons)
			}
		})
	}
}

func TestFloodRiskHazardZoneEscalation(t *testing.T) {
	c := testClassifier()

	// High hazard zone escalates any raining assessment by one level.
	risk := c.FloodRisk(wx(60, 0.3, 0), hazard(1, 0, domain.HazardHigh, domain.HazardLow))
	if risk.Level.Level != "ORANGE" {
		t.Errorf("high zone escalation: level = %s, want ORANGE", risk.Level.Level)
	}
	if !strings.Contains(strings.Join(risk.Reasons, " "), "high flood hazard zone") {
		t.Errorf("missing escalation reason: %v", risk.Reasons)
	}

	// Already RED stays RED.
	risk = c.FloodRisk(wx(160, 0.90, 0), hazard(1, 0, domain.HazardHigh, domain.HazardLow))
	if risk.Level.Level != "RED" {
		t.Errorf("RED must not change: got %s", risk.Level.Level)
	}

	// Moderate zone escalates only below ORANGE and only with 50mm+.
	risk = c.FloodRisk(wx(60, 0.3, 0), hazard(1, 0, domain.HazardModerate, domain.HazardLow))
	if risk.Level.Level != "ORANGE" {
		t.Errorf("moderate zone escalation: level = %s, want ORANGE", risk.Level.Level)
	}
	risk = c.FloodRisk(wx(30, 0.3, 0), hazard(1, 0, domain.HazardModerate, domain.HazardLow))
	if risk.Level.Level != "GREEN" {
		t.Errorf("moderate zone below 50mm: level = %s, want GREEN", risk.Level.Level)
	}

	// No rain at all: high zone does not escalate.
	risk = c.FloodRisk(wx(0, 0.3, 0), hazard(1, 0, domain.HazardHigh, domain.HazardLow))
	if risk.Level.Level != "GREEN" {
		t.Errorf("dry high zone: level = %s, want GREEN", risk.Level.Level)
	}
}

func TestLandslideRiskBands(t *testing.T) {
	c := testClassifier()
	cases := []struct {
		name           string
		slope          float64
		rain, moisture float64
		want           string
	}{
		{"near flat", 3, 200, 0.95, "GREEN"},
		{"moderate quiet", 10, 40, 0.5, "GREEN"},
		{"moderate mid band", 10, 80, 0.70, "YELLOW"},
		{"moderate heavy wet", 10, 120, 0.80, "ORANGE"},
		{"moderate heavy rain only", 10, 120, 0.5, "ORANGE"},
		{"moderate elevated rain only", 10, 80, 0.5, "YELLOW"},
		{"steep baseline", 20, 80, 0.70, "YELLOW"},
		{"steep heavy wet", 20, 120, 0.80, "ORANGE"},
		{"steep extreme wet", 20, 160, 0.90, "RED"},
		{"steep extreme rain only", 20, 160, 0.5, "RED"},
		{"steep heavy rain only", 20, 120, 0.5, "ORANGE"},
		{"very steep baseline", 30, 80, 0.70, "ORANGE"},
		{"very steep heavy wet", 30, 120, 0.80, "RED"},
		{"very steep extreme wet", 30, 160, 0.90, "RED"},
		{"very steep heavy rain only", 30, 120, 0.5, "RED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			risk := c.LandslideRisk(wx(tc.rain, tc.moisture, 0), hazard(0, tc.slope, domain.HazardLow, domain.HazardLow))
			if risk.Level.Level != tc.want {
				t.Errorf("landslide level = %s, want %s (reasons: %v)", risk.Level.Level, tc.want, risk.Reasons)
			}
		})
	}
}

func TestLandslideRiskSteepHeavyWet(t *testing.T) {
	c := testClassifier()
	risk := c.LandslideRisk(wx(120, 0.80, 0), hazard(0, 20, domain.HazardLow, domain.HazardModerate))
	if risk.Level.Level != "ORANGE" {
		t.Fatalf("level = %s, want ORANGE", risk.Level.Level)
	}
}

func TestWindRiskBands(t *testing.T) {
	c := testClassifier()
	cases := []struct {
		wind float64
		want string
	}{
		{10, "GREEN"},
		{15, "YELLOW"},
		{24.9, "YELLOW"},
		{25, "ORANGE"},
		{34.9, "ORANGE"},
		{35, "RED"},
		{40, "RED"},
	}
	for _, tc := range cases {
		risk := c.WindRisk(wx(0, 0, tc.wind))
		if risk.Level.Level != tc.want {
			t.Errorf("WindRisk(%.1f) = %s, want %s", tc.wind, risk.Level.Level, tc.want)
		}
	}
	if got := c.WindRisk(wx(0, 0, 10)); len(got.Reasons) != 0 {
		t.Errorf("GREEN wind should carry no reasons, got %v", got.Reasons)
	}
}

func TestAssessAreaQuietReturnsNil(t *testing.T) {
	c := testClassifier()
	area := &domain.AreaProfile{
		ID:     1,
		Name:   "Poblacion",
		Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow),
	}
	if alert := c.AssessArea(area, wx(5, 0.3, 5)); alert != nil {
		t.Fatalf("expected nil alert for quiet area, got level %s", alert.Level.Level)
	}
}

func TestAssessAreaOverallLevelIsMax(t *testing.T) {
	c := testClassifier()
	area := &domain.AreaProfile{
		ID:     2,
		Name:   "Bislig",
		Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow),
		Shelters: []domain.Shelter{
			{ID: 1, Name: "Bislig Elementary", Venue: "school"},
		},
	}
	alert := c.AssessArea(area, wx(160, 0.90, 16))
	if alert == nil {
		t.Fatal("expected alert")
	}
	if alert.Level.Level != "RED" {
		t.Errorf("overall level = %s, want RED", alert.Level.Level)
	}
	if alert.Risks.Wind.Level.Level != "YELLOW" {
		t.Errorf("wind level = %s, want YELLOW", alert.Risks.Wind.Level.Level)
	}
	if len(alert.Shelters) != 1 || alert.Shelters[0].Name != "Bislig Elementary" {
		t.Errorf("shelters not carried: %+v", alert.Shelters)
	}
	if len(alert.Recommendations) == 0 {
		t.Error("expected recommendations for RED alert")
	}
	for _, r := range alert.Recommendations {
		if r.Priority != domain.RecommendationImmediate {
			t.Errorf("RED alert recommendation priority = %s, want IMMEDIATE", r.Priority)
		}
	}
	if alert.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not stamped")
	}
}

func TestGenerateAlertsSortsAndSkips(t *testing.T) {
	c := testClassifier()
	areas := []*domain.AreaProfile{
		{ID: 1, Name: "Calm", Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow)},
		{ID: 2, Name: "Windy", Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow)},
		{ID: 3, Name: "Flooded", Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow)},
		{ID: 4, Name: "NoData", Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow)},
	}
	weather := domain.WeatherByArea{
		1: wx(5, 0.3, 5),
		2: wx(5, 0.3, 16),
		3: wx(160, 0.90, 5),
	}

	alerts := c.GenerateAlerts(areas, weather)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].AreaName != "Flooded" || alerts[1].AreaName != "Windy" {
		t.Errorf("alerts not sorted by severity: %s, %s", alerts[0].AreaName, alerts[1].AreaName)
	}
}

func TestEscalationMonotonicity(t *testing.T) {
	// Raising rainfall with everything else fixed must never lower the
	// flood level.
	c := testClassifier()
	for _, slope := range []float64{1, 3, 7} {
		prev := -1
		for rain := 0.0; rain <= 200; rain += 5 {
			risk := c.FloodRisk(wx(rain, 0.80, 0), hazard(slope, 0, domain.HazardLow, domain.HazardLow))
			if risk.Level.Priority < prev {
				t.Fatalf("slope %.0f: flood priority dropped from %d to %d at %.0fmm", slope, prev, risk.Level.Priority, rain)
			}
			prev = risk.Level.Priority
		}
	}
}

func TestSaturationMonotonicity(t *testing.T) {
	// Raising soil moisture with slope and rainfall fixed must never
	// lower the landslide level.
	c := testClassifier()
	for _, slope := range []float64{10, 20, 30} {
		for _, rain := range []float64{40, 80, 120, 160} {
			prev := -1
			for moisture := 0.0; moisture <= 1.0; moisture += 0.05 {
				risk := c.LandslideRisk(wx(rain, moisture, 0), hazard(0, slope, domain.HazardLow, domain.HazardLow))
				if risk.Level.Priority < prev {
					t.Fatalf("slope %.0f rain %.0fmm: landslide priority dropped from %d to %d at moisture %.2f",
						slope, rain, prev, risk.Level.Priority, moisture)
				}
				prev = risk.Level.Priority
			}
		}
	}
}

func TestStatistics(t *testing.T) {
	c := testClassifier()
	areas := []*domain.AreaProfile{
		{ID: 1, Name: "Red Area", Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow)},
		{ID: 2, Name: "Wind Area", Hazard: hazard(1, 3, domain.HazardLow, domain.HazardLow)},
	}
	weather := domain.WeatherByArea{
		1: wx(160, 0.90, 5),
		2: wx(5, 0.3, 26),
	}
	alerts := c.GenerateAlerts(areas, weather)
	stats := Statistics(alerts)

	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.ByLevel.Red != 1 || stats.ByLevel.Orange != 1 {
		t.Errorf("byLevel = %+v", stats.ByLevel)
	}
	if stats.ByRiskType.Flood != 1 || stats.ByRiskType.Wind != 1 {
		t.Errorf("byRiskType = %+v", stats.ByRiskType)
	}
	if len(stats.CriticalAreas) != 1 || stats.CriticalAreas[0] != "Red Area" {
		t.Errorf("criticalAreas = %v", stats.CriticalAreas)
	}
}
