// Package domain defines the core interfaces and types for the GSMAP
// decision support system.
package domain

import "time"

// AlertLevel is an ordinal severity classification for an area.
type AlertLevel struct {
	Level    string `json:"level"`
	Priority int    `json:"priority"`
	Label    string `json:"label"`
	Color    string `json:"color"`
}

// Alert levels in ascending severity. Priority is strictly increasing.
var (
	LevelGreen  = AlertLevel{Level: "GREEN", Priority: 0, Label: "Low", Color: "#10B981"}
	LevelYellow = AlertLevel{Level: "YELLOW", Priority: 1, Label: "Moderate", Color: "#F59E0B"}
	LevelOrange = AlertLevel{Level: "ORANGE", Priority: 2, Label: "High", Color: "#F97316"}
	LevelRed    = AlertLevel{Level: "RED", Priority: 3, Label: "Very High", Color: "#EF4444"}
)

// LevelForPriority returns the alert level with the given priority,
// clamped to the GREEN..RED range.
func LevelForPriority(priority int) AlertLevel {
	switch {
	case priority <= 0:
		return LevelGreen
	case priority == 1:
		return LevelYellow
	case priority == 2:
		return LevelOrange
	default:
		return LevelRed
	}
}

// Escalate returns the next higher alert level, capped at RED.
func (l AlertLevel) Escalate() AlertLevel {
	return LevelForPriority(l.Priority + 1)
}

// HazardType identifies one of the three assessed hazards.
type HazardType string

const (
	HazardFlood     HazardType = "FLOOD"
	HazardLandslide HazardType = "LANDSLIDE"
	HazardWind      HazardType = "WIND"
)

// RiskAssessment is the per-hazard outcome of classifying one area.
// Reasons quote the triggering numeric values and are order-stable.
type RiskAssessment struct {
	Type         HazardType `json:"type"`
	Level        AlertLevel `json:"alertLevel"`
	Rainfall     float64    `json:"rainfall,omitempty"`
	SoilMoisture float64    `json:"soilMoisture,omitempty"`
	Slope        float64    `json:"slope,omitempty"`
	WindSpeed    float64    `json:"windSpeed,omitempty"`
	Reasons      []string   `json:"reasons"`
}

// RiskSet groups the three hazard assessments for an area.
type RiskSet struct {
	Flood     RiskAssessment `json:"flood"`
	Landslide RiskAssessment `json:"landslide"`
	Wind      RiskAssessment `json:"wind"`
}

// MaxPriority returns the highest priority among the three assessments.
func (r RiskSet) MaxPriority() int {
	max := r.Flood.Level.Priority
	if r.Landslide.Level.Priority > max {
		max = r.Landslide.Level.Priority
	}
	if r.Wind.Level.Priority > max {
		max = r.Wind.Level.Priority
	}
	return max
}

// Recommendation is a single recommended action attached to an alert.
type Recommendation struct {
	Priority string `json:"priority"` // IMMEDIATE, HIGH, ADVISORY
	Action   string `json:"action"`
	Target   string `json:"target"`
}

// Recommendation priorities.
const (
	RecommendationImmediate = "IMMEDIATE"
	RecommendationHigh      = "HIGH"
	RecommendationAdvisory  = "ADVISORY"
)

// WeatherSummary carries the aggregates the alert was derived from.
type WeatherSummary struct {
	Rainfall     float64 `json:"rainfall"`
	WindSpeed    float64 `json:"windSpeed"`
	SoilMoisture float64 `json:"soilMoisture"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// ShelterRef is the shelter summary embedded in an alert.
type ShelterRef struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Venue     string  `json:"venue"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Alert is the aggregate classification result for one area. Areas whose
// three assessments all resolve GREEN produce no Alert at all.
type Alert struct {
	AreaID          int64            `json:"areaId"`
	AreaName        string           `json:"areaName"`
	Level           AlertLevel       `json:"alertLevel"`
	Risks           RiskSet          `json:"risks"`
	Recommendations []Recommendation `json:"recommendations"`
	Shelters        []ShelterRef     `json:"evacuationCenters"`
	WeatherSummary  WeatherSummary   `json:"weatherSummary"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// AlertStatistics summarizes a batch of alerts for the dashboard.
type AlertStatistics struct {
	Total   int `json:"total"`
	ByLevel struct {
		Red    int `json:"RED"`
		Orange int `json:"ORANGE"`
		Yellow int `json:"YELLOW"`
		Green  int `json:"GREEN"`
	} `json:"byLevel"`
	ByRiskType struct {
		Flood     int `json:"flood"`
		Landslide int `json:"landslide"`
		Wind      int `json:"wind"`
	} `json:"byRiskType"`
	CriticalAreas []string `json:"criticalAreas"`
}
