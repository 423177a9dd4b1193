// Package scoring computes weighted multi-criteria risk scores per
// area. Six independent subscores in [0,100] are combined with a
// caller-supplied or default weight set.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/catalog"
	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// Scorer computes area risk scores.
type Scorer struct {
	clock clockwork.Clock
}

// New creates a Scorer. A nil clock falls back to the real clock.
func New(clock clockwork.Clock) *Scorer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scorer{clock: clock}
}

// ScoreArea computes the weighted score for a single area. A nil
// weather aggregate zeroes the current-weather criterion; the static
// criteria still score.
func (s *Scorer) ScoreArea(area *domain.AreaProfile, wx *domain.WeatherAggregate, weights domain.Weights) domain.RiskScoreResult {
	criteria := domain.CriteriaScores{
		FloodHazard:       scoreFloodHazard(area.Hazard),
		LandslideHazard:   scoreLandslideHazard(area.Hazard),
		CurrentWeather:    scoreCurrentWeather(wx),
		PopulationDensity: scorePopulationDensity(area),
		Vulnerability:     scoreVulnerability(area),
		Infrastructure:    scoreInfrastructure(area),
	}

	// Categorize on the exact total; round only the reported score.
	total := criteria.WeightedTotal(weights)

	return domain.RiskScoreResult{
		AreaID:          area.ID,
		AreaName:        area.Name,
		TotalScore:      math.Round(total*100) / 100,
		Category:        catalog.RiskCategoryFor(total),
		Criteria:        criteria,
		Weights:         weights,
		Recommendations: recommendations(total, criteria),
	}
}

// ScoreAll scores every area and returns the report sorted by
// descending total score. A nil weights pointer selects the default
// set; a supplied set must sum to 1.0.
func (s *Scorer) ScoreAll(areas []*domain.AreaProfile, weather domain.WeatherByArea, weights *domain.Weights) (*domain.RiskScoreReport, error) {
	w := catalog.DefaultWeights()
	if weights != nil {
		if err := weights.Validate(); err != nil {
			return nil, err
		}
		w = *weights
	}

	scores := make([]domain.RiskScoreResult, 0, len(areas))
	for _, area := range areas {
		scores = append(scores, s.ScoreArea(area, weather[area.ID], w))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	return &domain.RiskScoreReport{
		Scores:      scores,
		Weights:     w,
		Summary:     summarize(scores),
		GeneratedAt: s.clock.Now(),
	}, nil
}

// CompareScenarios runs the full scoring computation once per named
// weight set. Runs share no mutable state; a bad weight set fails the
// whole comparison.
func (s *Scorer) CompareScenarios(areas []*domain.AreaProfile, weather domain.WeatherByArea, scenarios []domain.Scenario) ([]domain.ScenarioResult, error) {
	results := make([]domain.ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		weights := sc.Weights
		report, err := s.ScoreAll(areas, weather, &weights)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.ScenarioResult{
			ScenarioName:    sc.Name,
			RiskScoreReport: *report,
		})
	}
	return results, nil
}

func levelScore(level domain.HazardLevel) float64 {
	switch level {
	case domain.HazardHigh:
		return 100
	case domain.HazardModerate:
		return 50
	case domain.HazardLow:
		return 25
	default:
		return 25
	}
}

func scoreFloodHazard(hazard *domain.HazardProfile) float64 {
	if hazard == nil {
		return 25
	}
	if hazard.FloodRiskScore != nil {
		return *hazard.FloodRiskScore
	}
	return levelScore(hazard.FloodLevel)
}

// scoreLandslideHazard maps the historical rating and bumps it for
// steep mean slopes.
func scoreLandslideHazard(hazard *domain.HazardProfile) float64 {
	score := 25.0
	if hazard != nil {
		if hazard.LandslideRiskScore != nil {
			score = *hazard.LandslideRiskScore
		} else {
			score = levelScore(hazard.LandslideLevel)
		}
		switch {
		case hazard.MeanSlopeDeg >= 30:
			score = math.Min(100, score*1.3)
		case hazard.MeanSlopeDeg >= 20:
			score = math.Min(100, score*1.1)
		}
	}
	return score
}

// scoreCurrentWeather combines rainfall (up to 40 points), soil
// moisture (up to 35), and wind (up to 25).
func scoreCurrentWeather(wx *domain.WeatherAggregate) float64 {
	if wx == nil {
		return 0
	}
	var score float64

	switch {
	case wx.RainfallMm >= 150:
		score += 40
	case wx.RainfallMm >= 100:
		score += 30
	case wx.RainfallMm >= 50:
		score += 20
	case wx.RainfallMm >= 25:
		score += 10
	}

	switch {
	case wx.SoilMoisture >= 0.85:
		score += 35
	case wx.SoilMoisture >= 0.75:
		score += 25
	case wx.SoilMoisture >= 0.60:
		score += 15
	case wx.SoilMoisture >= 0.40:
		score += 5
	}

	switch {
	case wx.WindSpeedMs >= 35:
		score += 25
	case wx.WindSpeedMs >= 25:
		score += 15
	case wx.WindSpeedMs >= 15:
		score += 8
	}

	return math.Min(100, score)
}

func scorePopulationDensity(area *domain.AreaProfile) float64 {
	if area.PopulationDensity <= 0 {
		return 50
	}
	switch {
	case area.PopulationDensity >= 3000:
		return 100
	case area.PopulationDensity >= 2000:
		return 75
	case area.PopulationDensity >= 1000:
		return 50
	case area.PopulationDensity >= 500:
		return 30
	default:
		return 15
	}
}

// scoreVulnerability rates socioeconomic exposure from the area's
// dominant livelihood and land size.
func scoreVulnerability(area *domain.AreaProfile) float64 {
	score := 50.0
	livelihood := strings.ToLower(area.Livelihood)

	if strings.Contains(livelihood, "agriculture") || strings.Contains(livelihood, "farming") {
		score += 20
	}
	if strings.Contains(livelihood, "fishery") || strings.Contains(livelihood, "fishing") {
		score += 15
	}
	if strings.Contains(livelihood, "informal") || strings.Contains(livelihood, "labor") {
		score += 10
	}

	sqkm := area.AreaSqKm
	if sqkm <= 0 {
		sqkm = 1
	}
	if sqkm < 1 {
		score += 10
	}

	return math.Min(100, score)
}

// scoreInfrastructure is a proxy rating from shelter coverage: areas
// without any registered shelter score as most vulnerable.
func scoreInfrastructure(area *domain.AreaProfile) float64 {
	switch {
	case len(area.Shelters) >= 3:
		return 30
	case len(area.Shelters) >= 2:
		return 40
	case len(area.Shelters) >= 1:
		return 60
	default:
		return 80
	}
}

func recommendations(total float64, criteria domain.CriteriaScores) []string {
	var recs []string
	switch {
	case total >= 75:
		recs = append(recs,
			"IMMEDIATE ACTION REQUIRED: Initiate emergency response protocols",
			"Activate evacuation procedures for high-risk populations",
			"Deploy emergency response teams and resources",
		)
	case total >= 60:
		recs = append(recs,
			"HIGH PRIORITY: Prepare for potential evacuation",
			"Activate early warning systems and alert residents",
			"Position emergency resources at strategic locations",
		)
	case total >= 40:
		recs = append(recs,
			"Monitor situation closely for any escalation",
			"Ensure evacuation centers are ready for activation",
			"Conduct information campaigns for preparedness",
		)
	default:
		recs = append(recs,
			"Maintain routine monitoring of conditions",
			"Continue public education on disaster preparedness",
		)
	}

	if criteria.FloodHazard >= 75 {
		recs = append(recs, "FLOOD FOCUS: Clear drainage systems and waterways")
	}
	if criteria.LandslideHazard >= 75 {
		recs = append(recs, "LANDSLIDE FOCUS: Inspect slopes and restrict access to vulnerable areas")
	}
	if criteria.CurrentWeather >= 75 {
		recs = append(recs, "WEATHER FOCUS: Severe conditions detected - immediate protective actions needed")
	}
	if criteria.PopulationDensity >= 75 {
		recs = append(recs, "HIGH DENSITY: Plan for large-scale evacuation logistics")
	}
	return recs
}

func summarize(scores []domain.RiskScoreResult) domain.ScoreSummary {
	summary := domain.ScoreSummary{
		Total: len(scores),
		ByCategory: map[string]int{
			domain.RiskCritical: 0,
			domain.RiskHigh:     0,
			domain.RiskModerate: 0,
			domain.RiskLow:      0,
			domain.RiskMinimal:  0,
		},
	}
	if len(scores) == 0 {
		return summary
	}

	var sum float64
	for _, sc := range scores {
		summary.ByCategory[sc.Category.Level]++
		sum += sc.TotalScore
	}
	summary.AverageScore = sum / float64(len(scores))
	summary.HighestRisk = &domain.AreaScoreRef{AreaName: scores[0].AreaName, Score: scores[0].TotalScore}
	last := scores[len(scores)-1]
	summary.LowestRisk = &domain.AreaScoreRef{AreaName: last.AreaName, Score: last.TotalScore}
	return summary
}
