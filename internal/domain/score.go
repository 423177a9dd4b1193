package domain

import (
	"math"
	"time"
)

// Weights holds the MCDA criterion weights. Callers are expected to
// supply sets summing to 1.0; Validate enforces this.
type Weights struct {
	FloodHazard       float64 `json:"floodHazard"`
	LandslideHazard   float64 `json:"landslideHazard"`
	CurrentWeather    float64 `json:"currentWeather"`
	PopulationDensity float64 `json:"populationDensity"`
	Vulnerability     float64 `json:"vulnerability"`
	Infrastructure    float64 `json:"infrastructure"`
}

// Sum returns the total of all six weights.
func (w Weights) Sum() float64 {
	return w.FloodHazard + w.LandslideHazard + w.CurrentWeather +
		w.PopulationDensity + w.Vulnerability + w.Infrastructure
}

// Validate rejects weight sets that do not sum to 1.0 within tolerance.
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.01 {
		return ErrInvalidWeights
	}
	return nil
}

// CriteriaScores holds the six independent subscores, each in [0,100].
type CriteriaScores struct {
	FloodHazard       float64 `json:"floodHazard"`
	LandslideHazard   float64 `json:"landslideHazard"`
	CurrentWeather    float64 `json:"currentWeather"`
	PopulationDensity float64 `json:"populationDensity"`
	Vulnerability     float64 `json:"vulnerability"`
	Infrastructure    float64 `json:"infrastructure"`
}

// WeightedTotal computes the dot product of the criteria and weights.
func (c CriteriaScores) WeightedTotal(w Weights) float64 {
	return c.FloodHazard*w.FloodHazard +
		c.LandslideHazard*w.LandslideHazard +
		c.CurrentWeather*w.CurrentWeather +
		c.PopulationDensity*w.PopulationDensity +
		c.Vulnerability*w.Vulnerability +
		c.Infrastructure*w.Infrastructure
}

// RiskCategory names the bucket a total score falls into.
type RiskCategory struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Risk category levels, most severe first.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskModerate = "MODERATE"
	RiskLow      = "LOW"
	RiskMinimal  = "MINIMAL"
)

// RiskScoreResult is the weighted multi-criteria score for one area.
type RiskScoreResult struct {
	AreaID          int64          `json:"areaId"`
	AreaName        string         `json:"areaName"`
	TotalScore      float64        `json:"totalScore"`
	Category        RiskCategory   `json:"riskCategory"`
	Criteria        CriteriaScores `json:"criteria"`
	Weights         Weights        `json:"weights"`
	Recommendations []string       `json:"recommendations"`
}

// AreaScoreRef names an area together with its score.
type AreaScoreRef struct {
	AreaName string  `json:"areaName"`
	Score    float64 `json:"score"`
}

// ScoreSummary aggregates a batch of risk scores.
type ScoreSummary struct {
	Total        int            `json:"total"`
	ByCategory   map[string]int `json:"byCategory"`
	AverageScore float64        `json:"averageScore"`
	HighestRisk  *AreaScoreRef  `json:"highestRisk,omitempty"`
	LowestRisk   *AreaScoreRef  `json:"lowestRisk,omitempty"`
}

// RiskScoreReport is the full batch scoring output, sorted by descending
// total score.
type RiskScoreReport struct {
	Scores      []RiskScoreResult `json:"scores"`
	Weights     Weights           `json:"weights"`
	Summary     ScoreSummary      `json:"summary"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Scenario names a weight set for side-by-side comparison.
type Scenario struct {
	Name    string  `json:"name"`
	Weights Weights `json:"weights"`
}

// ScenarioResult tags one full scoring run with its scenario name.
type ScenarioResult struct {
	ScenarioName string `json:"scenarioName"`
	RiskScoreReport
}
