// Package catalog holds the fixed planning configuration: hazard
// thresholds, criterion weights, evacuation rates, and venue
// capacities. Values are calibrated for PAGASA rainfall advisories and
// municipal contingency planning figures.
package catalog

import (
	"strings"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// Rainfall bands (mm over the forecast window).
const (
	RainfallModerateMm = 50.0
	RainfallHighMm     = 100.0
	RainfallExtremeMm  = 150.0
)

// Soil moisture bands (volumetric fraction).
const (
	SoilMoistFrac     = 0.60
	SoilSaturatedFrac = 0.75
)

// Wind speed bands (m/s).
const (
	WindYellowMs = 15.0
	WindOrangeMs = 25.0
	WindRedMs    = 35.0
)

// Slope band edges (degrees) for flood susceptibility, by mean slope.
const (
	SlopeFlatMaxDeg     = 2.0
	SlopeGentleMaxDeg   = 5.0
	SlopeModerateMaxDeg = 10.0
	SlopeSteepMaxDeg    = 15.0
)

// Slope band edges (degrees) for landslide susceptibility, by max slope.
const (
	LandslideLowMaxDeg      = 5.0
	LandslideModerateMaxDeg = 15.0
	LandslideHighMaxDeg     = 25.0
)

// DefaultWeights returns the standard criterion weight set.
func DefaultWeights() domain.Weights {
	return domain.Weights{
		FloodHazard:       0.25,
		LandslideHazard:   0.25,
		CurrentWeather:    0.20,
		PopulationDensity: 0.15,
		Vulnerability:     0.10,
		Infrastructure:    0.05,
	}
}

// RiskCategoryFor buckets a weighted total score.
func RiskCategoryFor(score float64) domain.RiskCategory {
	switch {
	case score >= 75:
		return domain.RiskCategory{Level: domain.RiskCritical, Label: "Critical Risk", Color: "#DC2626"}
	case score >= 60:
		return domain.RiskCategory{Level: domain.RiskHigh, Label: "High Risk", Color: "#EA580C"}
	case score >= 40:
		return domain.RiskCategory{Level: domain.RiskModerate, Label: "Moderate Risk", Color: "#F59E0B"}
	case score >= 25:
		return domain.RiskCategory{Level: domain.RiskLow, Label: "Low Risk", Color: "#10B981"}
	default:
		return domain.RiskCategory{Level: domain.RiskMinimal, Label: "Minimal Risk", Color: "#059669"}
	}
}

// EvacuationRate returns the fraction of an area's population expected
// to evacuate at the given alert level.
func EvacuationRate(level domain.AlertLevel) float64 {
	switch level.Level {
	case domain.LevelRed.Level:
		return 0.60
	case domain.LevelOrange.Level:
		return 0.35
	case domain.LevelYellow.Level:
		return 0.15
	default:
		return 0
	}
}

// VenueCapacity infers a shelter's capacity by keyword match on its
// venue label. Real head counts are rarely on file for these venues.
func VenueCapacity(label string) int {
	name := strings.ToLower(label)
	switch {
	case strings.Contains(name, "school") || strings.Contains(name, "elementary"):
		return 200
	case strings.Contains(name, "chapel") || strings.Contains(name, "church") || strings.Contains(name, "catholic"):
		return 100
	case strings.Contains(name, "gym") || strings.Contains(name, "covered court") || strings.Contains(name, "sports"):
		return 300
	case strings.Contains(name, "hall"):
		return 80
	default:
		return 150
	}
}

// Vulnerable population fractions used for special needs estimates.
const (
	FracMedical  = 0.10
	FracMobility = 0.05
	FracInfants  = 0.03
	FracDietary  = 0.08
)
