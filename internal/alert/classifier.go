// Package alert classifies areas into flood, landslide, and wind alert
// levels from current weather aggregates and static hazard profiles.
package alert

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/catalog"
	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// Classifier derives per-area alerts from weather and hazard data.
type Classifier struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a Classifier. A nil clock falls back to the real clock.
func New(clock clockwork.Clock) *Classifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Classifier{
		clock:  clock,
		logger: slog.Default().With("component", "alert"),
	}
}

// conditions is the banded view of one area's inputs that the decision
// ladders match against.
type conditions struct {
	rainfall     float64
	soilMoisture float64
	slope        float64

	moderateRain bool // [50,100)
	highRain     bool // [100,150)
	extremeRain  bool // >=150
	moist        bool // (0.60,0.75]
	saturated    bool // >0.75
}

func bandConditions(rainfall, soilMoisture, slope float64) conditions {
	return conditions{
		rainfall:     rainfall,
		soilMoisture: soilMoisture,
		slope:        slope,
		moderateRain: rainfall >= catalog.RainfallModerateMm && rainfall < catalog.RainfallHighMm,
		highRain:     rainfall >= catalog.RainfallHighMm && rainfall < catalog.RainfallExtremeMm,
		extremeRain:  rainfall >= catalog.RainfallExtremeMm,
		moist:        soilMoisture > catalog.SoilMoistFrac && soilMoisture <= catalog.SoilSaturatedFrac,
		saturated:    soilMoisture > catalog.SoilSaturatedFrac,
	}
}

// rung is one row of a decision ladder. The first rung whose predicate
// holds decides the level; every ladder ends in a catch-all.
type rung struct {
	when   func(c conditions) bool
	level  domain.AlertLevel
	reason func(c conditions) string
}

func evaluate(ladder []rung, c conditions) (domain.AlertLevel, []string) {
	for _, r := range ladder {
		if r.when(c) {
			return r.level, []string{r.reason(c)}
		}
	}
	return domain.LevelGreen, nil
}

func always(conditions) bool { return true }

func pct(moisture float64) float64 { return moisture * 100 }

// floodLadder returns the decision ladder for the area's mean slope
// band. Flat terrain floods under less rain; above 15 degrees runoff
// dominates and only extreme rainfall matters, as a flash flood hazard
// for areas downstream.
func floodLadder(slope float64) []rung {
	switch {
	case slope < catalog.SlopeFlatMaxDeg:
		return []rung{
			{func(c conditions) bool { return c.moderateRain && c.moist }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Low slope (%.1f°) with moderate rainfall (%.1fmm) and moist soil (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.highRain && c.saturated }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Low slope (%.1f°) with high rainfall (%.1fmm) and saturated soil (%.1f%%) - Critical flood risk", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.extremeRain && c.saturated }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Low slope (%.1f°) with extreme rainfall (%.1fmm) and saturated soil (%.1f%%) - Very High/Critical flood risk", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.extremeRain || (c.highRain && c.saturated) }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Low slope (%.1f°) with high/extreme rainfall (%.1fmm) and/or saturated conditions", c.slope, c.rainfall)
			}},
			{func(c conditions) bool { return c.highRain || (c.moderateRain && c.saturated) }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Low slope (%.1f°) with elevated rainfall (%.1fmm) and/or saturated soil", c.slope, c.rainfall)
			}},
			{func(c conditions) bool { return c.moderateRain || c.moist }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Low slope (%.1f°) with moderate rainfall (%.1fmm) and/or moist soil", c.slope, c.rainfall)
			}},
			{always, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Low slope (%.1f°) with low flood risk conditions", c.slope)
			}},
		}
	case slope < catalog.SlopeGentleMaxDeg:
		return []rung{
			{func(c conditions) bool { return c.highRain && c.saturated }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with high rainfall (%.1fmm) and saturated soil (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.moderateRain && c.moist }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with moderate rainfall (%.1fmm) and moist soil (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.extremeRain }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with high/extreme rainfall (%.1fmm) and/or saturated conditions", c.slope, c.rainfall)
			}},
			{func(c conditions) bool { return c.highRain || (c.moderateRain && c.saturated) }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with elevated rainfall (%.1fmm) and/or saturated soil", c.slope, c.rainfall)
			}},
			{func(c conditions) bool { return c.moderateRain || c.moist }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with moderate rainfall (%.1fmm) and/or moist soil", c.slope, c.rainfall)
			}},
			{always, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with low flood risk conditions", c.slope)
			}},
		}
	case slope <= catalog.SlopeModerateMaxDeg:
		return []rung{
			{func(c conditions) bool { return c.highRain && c.saturated }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Steeper slope (%.1f°) with high rainfall (%.1fmm) and saturated soil (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.extremeRain }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Steeper slope (%.1f°) with extreme rainfall (%.1fmm)", c.slope, c.rainfall)
			}},
			{func(c conditions) bool { return c.highRain || c.saturated }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Steeper slope (%.1f°) with elevated rainfall (%.1fmm) and/or saturated soil", c.slope, c.rainfall)
			}},
			{always, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Steeper slope (%.1f°) with low flood risk conditions", c.slope)
			}},
		}
	case slope <= catalog.SlopeSteepMaxDeg:
		return []rung{
			{always, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Steep slope (%.1f°) - low flood risk (local flooding only)", c.slope)
			}},
		}
	default:
		return []rung{
			{func(c conditions) bool { return c.extremeRain }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Very steep slope (%.1f°) with extreme rainfall (%.1fmm) - Flash flood downstream risk", c.slope, c.rainfall)
			}},
			{always, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Very steep slope (%.1f°) - low flood risk (local flooding only)", c.slope)
			}},
		}
	}
}

// landslideLadder returns the decision ladder for the area's max slope
// band.
func landslideLadder(slope float64) []rung {
	switch {
	case slope < catalog.LandslideLowMaxDeg:
		return []rung{
			{always, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Low slope angle: %.1f° (minimal landslide risk)", c.slope)
			}},
		}
	case slope < catalog.LandslideModerateMaxDeg:
		return []rung{
			{func(c conditions) bool { return c.rainfall <= 50 && c.soilMoisture <= 0.60 }, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with low rainfall (%.1fmm) and low soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool {
				return c.rainfall > 50 && c.rainfall <= 100 && c.soilMoisture > 0.60 && c.soilMoisture <= 0.75
			}, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with moderate rainfall (%.1fmm) and elevated soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 100 && c.soilMoisture > 0.75 }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with heavy rainfall (%.1fmm) and high soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 100 || c.soilMoisture > 0.75 }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with heavy rainfall (%.1fmm) and/or high soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 50 || c.soilMoisture > 0.60 }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with elevated rainfall (%.1fmm) and/or elevated soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{always, domain.LevelGreen, func(c conditions) string {
				return fmt.Sprintf("Moderate slope (%.1f°) with low risk conditions", c.slope)
			}},
		}
	case slope <= catalog.LandslideHighMaxDeg:
		return []rung{
			{func(c conditions) bool { return c.rainfall <= 100 && c.soilMoisture <= 0.75 }, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Steep slope (%.1f°) with moderate rainfall (%.1fmm) and moderate soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool {
				return c.rainfall > 100 && c.rainfall <= 150 && c.soilMoisture > 0.75 && c.soilMoisture <= 0.85
			}, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Steep slope (%.1f°) with heavy rainfall (%.1fmm) and high soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 150 && c.soilMoisture > 0.85 }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Steep slope (%.1f°) with very heavy rainfall (%.1fmm) and critical soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 150 || c.soilMoisture > 0.85 }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Steep slope (%.1f°) with very heavy rainfall (%.1fmm) and/or critical soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 100 || c.soilMoisture > 0.75 }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Steep slope (%.1f°) with heavy rainfall (%.1fmm) and/or high soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{always, domain.LevelYellow, func(c conditions) string {
				return fmt.Sprintf("Steep slope (%.1f°) with moderate risk conditions", c.slope)
			}},
		}
	default:
		return []rung{
			{func(c conditions) bool { return c.rainfall <= 100 && c.soilMoisture <= 0.75 }, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Very steep slope (%.1f°) with moderate rainfall (%.1fmm) and moderate soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool {
				return c.rainfall > 100 && c.rainfall <= 150 && c.soilMoisture > 0.75 && c.soilMoisture <= 0.85
			}, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Very steep slope (%.1f°) with heavy rainfall (%.1fmm) and high soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 150 && c.soilMoisture > 0.85 }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Very steep slope (%.1f°) with very heavy rainfall (%.1fmm) and critical soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{func(c conditions) bool { return c.rainfall > 100 || c.soilMoisture > 0.75 }, domain.LevelRed, func(c conditions) string {
				return fmt.Sprintf("Very steep slope (%.1f°) with heavy rainfall (%.1fmm) and/or high soil moisture (%.1f%%)", c.slope, c.rainfall, pct(c.soilMoisture))
			}},
			{always, domain.LevelOrange, func(c conditions) string {
				return fmt.Sprintf("Very steep slope (%.1f°) with moderate risk conditions", c.slope)
			}},
		}
	}
}

// FloodRisk classifies an area's flood risk from the mean slope band,
// then escalates by one level when the area sits in a mapped flood
// hazard zone and rain is falling.
func (c *Classifier) FloodRisk(wx *domain.WeatherAggregate, hazard *domain.HazardProfile) domain.RiskAssessment {
	var meanSlope float64
	if hazard != nil {
		meanSlope = hazard.MeanSlopeDeg
	}
	cond := bandConditions(wx.RainfallMm, wx.SoilMoisture, meanSlope)
	level, reasons := evaluate(floodLadder(meanSlope), cond)

	if hazard != nil {
		switch {
		case hazard.FloodLevel == domain.HazardHigh && wx.RainfallMm > 0 && level.Priority < domain.LevelRed.Priority:
			level = level.Escalate()
			reasons = append(reasons, "Area is in high flood hazard zone")
		case hazard.FloodLevel == domain.HazardModerate && wx.RainfallMm >= catalog.RainfallModerateMm && level.Priority < domain.LevelOrange.Priority:
			level = level.Escalate()
			reasons = append(reasons, "Area is in moderate flood hazard zone")
		}
	}

	return domain.RiskAssessment{
		Type:         domain.HazardFlood,
		Level:        level,
		Rainfall:     wx.RainfallMm,
		SoilMoisture: wx.SoilMoisture,
		Slope:        meanSlope,
		Reasons:      reasons,
	}
}

// LandslideRisk classifies an area's landslide risk from the max slope
// band.
func (c *Classifier) LandslideRisk(wx *domain.WeatherAggregate, hazard *domain.HazardProfile) domain.RiskAssessment {
	var maxSlope float64
	if hazard != nil {
		maxSlope = hazard.MaxSlopeDeg
	}
	cond := bandConditions(wx.RainfallMm, wx.SoilMoisture, maxSlope)
	level, reasons := evaluate(landslideLadder(maxSlope), cond)

	return domain.RiskAssessment{
		Type:         domain.HazardLandslide,
		Level:        level,
		Rainfall:     wx.RainfallMm,
		SoilMoisture: wx.SoilMoisture,
		Slope:        maxSlope,
		Reasons:      reasons,
	}
}

// WindRisk classifies wind severity on fixed speed bands.
func (c *Classifier) WindRisk(wx *domain.WeatherAggregate) domain.RiskAssessment {
	level := domain.LevelGreen
	var reasons []string
	switch {
	case wx.WindSpeedMs >= catalog.WindRedMs:
		level = domain.LevelRed
		reasons = []string{fmt.Sprintf("Severe winds: %.1f m/s", wx.WindSpeedMs)}
	case wx.WindSpeedMs >= catalog.WindOrangeMs:
		level = domain.LevelOrange
		reasons = []string{fmt.Sprintf("Strong winds: %.1f m/s", wx.WindSpeedMs)}
	case wx.WindSpeedMs >= catalog.WindYellowMs:
		level = domain.LevelYellow
		reasons = []string{fmt.Sprintf("Moderate winds: %.1f m/s", wx.WindSpeedMs)}
	}
	return domain.RiskAssessment{
		Type:      domain.HazardWind,
		Level:     level,
		WindSpeed: wx.WindSpeedMs,
		Reasons:   reasons,
	}
}

// AssessArea classifies one area across all three hazards. Returns nil
// when every assessment is GREEN: quiet areas produce no alert.
func (c *Classifier) AssessArea(area *domain.AreaProfile, wx *domain.WeatherAggregate) *domain.Alert {
	risks := domain.RiskSet{
		Flood:     c.FloodRisk(wx, area.Hazard),
		Landslide: c.LandslideRisk(wx, area.Hazard),
		Wind:      c.WindRisk(wx),
	}

	maxPriority := risks.MaxPriority()
	if maxPriority == 0 {
		return nil
	}

	shelters := make([]domain.ShelterRef, 0, len(area.Shelters))
	for _, s := range area.Shelters {
		shelters = append(shelters, domain.ShelterRef{
			ID:        s.ID,
			Name:      s.Name,
			Venue:     s.Venue,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		})
	}

	return &domain.Alert{
		AreaID:          area.ID,
		AreaName:        area.Name,
		Level:           domain.LevelForPriority(maxPriority),
		Risks:           risks,
		Recommendations: c.recommendations(risks, len(area.Shelters)),
		Shelters:        shelters,
		WeatherSummary: domain.WeatherSummary{
			Rainfall:     wx.RainfallMm,
			WindSpeed:    wx.WindSpeedMs,
			SoilMoisture: wx.SoilMoisture,
			Temperature:  wx.TemperatureC,
		},
		GeneratedAt: c.clock.Now(),
	}
}

// GenerateAlerts classifies every area that has weather data, sorted
// most severe first. Areas without weather are skipped, not defaulted.
func (c *Classifier) GenerateAlerts(areas []*domain.AreaProfile, weather domain.WeatherByArea) []*domain.Alert {
	alerts := make([]*domain.Alert, 0, len(areas))
	for _, area := range areas {
		wx, ok := weather[area.ID]
		if !ok || wx == nil {
			c.logger.Debug("no weather data for area, skipping", "area", area.Name)
			continue
		}
		if alert := c.AssessArea(area, wx); alert != nil {
			alerts = append(alerts, alert)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Level.Priority > alerts[j].Level.Priority
	})
	return alerts
}

func (c *Classifier) recommendations(risks domain.RiskSet, shelterCount int) []domain.Recommendation {
	var recs []domain.Recommendation
	switch risks.MaxPriority() {
	case domain.LevelRed.Priority:
		recs = append(recs, domain.Recommendation{
			Priority: domain.RecommendationImmediate,
			Action:   "Initiate mandatory evacuation procedures",
			Target:   "All vulnerable residents",
		})
		if risks.Flood.Level.Priority == domain.LevelRed.Priority {
			recs = append(recs,
				domain.Recommendation{Priority: domain.RecommendationImmediate, Action: "Close roads in flood-prone areas", Target: "Local authorities"},
				domain.Recommendation{Priority: domain.RecommendationImmediate, Action: "Position rescue boats and equipment", Target: "Emergency responders"},
			)
		}
		if risks.Landslide.Level.Priority == domain.LevelRed.Priority {
			recs = append(recs,
				domain.Recommendation{Priority: domain.RecommendationImmediate, Action: "Evacuate residents near slopes and cliffs", Target: "High-risk zones"},
				domain.Recommendation{Priority: domain.RecommendationImmediate, Action: "Block access to landslide-prone roads", Target: "Transportation authority"},
			)
		}
		if risks.Wind.Level.Priority == domain.LevelRed.Priority {
			recs = append(recs, domain.Recommendation{
				Priority: domain.RecommendationImmediate,
				Action:   "Secure loose objects and outdoor equipment",
				Target:   "All residents",
			})
		}
		recs = append(recs, domain.Recommendation{
			Priority: domain.RecommendationImmediate,
			Action:   fmt.Sprintf("Activate evacuation centers (%d available)", shelterCount),
			Target:   "Barangay officials",
		})
	case domain.LevelOrange.Priority:
		recs = append(recs,
			domain.Recommendation{Priority: domain.RecommendationHigh, Action: "Prepare evacuation centers and supplies", Target: "Barangay officials"},
			domain.Recommendation{Priority: domain.RecommendationHigh, Action: "Alert vulnerable populations to prepare", Target: "Elderly, disabled, children"},
			domain.Recommendation{Priority: domain.RecommendationHigh, Action: "Position emergency response teams", Target: "MDRRMO"},
			domain.Recommendation{Priority: domain.RecommendationHigh, Action: "Monitor conditions closely - situation may escalate", Target: "All officials"},
		)
	case domain.LevelYellow.Priority:
		recs = append(recs,
			domain.Recommendation{Priority: domain.RecommendationAdvisory, Action: "Monitor weather updates regularly", Target: "All residents"},
			domain.Recommendation{Priority: domain.RecommendationAdvisory, Action: "Review evacuation plans and routes", Target: "Families"},
			domain.Recommendation{Priority: domain.RecommendationAdvisory, Action: "Prepare emergency kits and supplies", Target: "All households"},
			domain.Recommendation{Priority: domain.RecommendationAdvisory, Action: "Conduct situation assessment", Target: "Barangay officials"},
		)
	}
	return recs
}

// Statistics summarizes a batch of alerts for the dashboard.
func Statistics(alerts []*domain.Alert) domain.AlertStatistics {
	var stats domain.AlertStatistics
	stats.Total = len(alerts)
	for _, a := range alerts {
		switch a.Level.Level {
		case domain.LevelRed.Level:
			stats.ByLevel.Red++
			stats.CriticalAreas = append(stats.CriticalAreas, a.AreaName)
		case domain.LevelOrange.Level:
			stats.ByLevel.Orange++
		case domain.LevelYellow.Level:
			stats.ByLevel.Yellow++
		case domain.LevelGreen.Level:
			stats.ByLevel.Green++
		}
		if a.Risks.Flood.Level.Priority > 0 {
			stats.ByRiskType.Flood++
		}
		if a.Risks.Landslide.Level.Priority > 0 {
			stats.ByRiskType.Landslide++
		}
		if a.Risks.Wind.Level.Priority > 0 {
			stats.ByRiskType.Wind++
		}
	}
	if stats.CriticalAreas == nil {
		stats.CriticalAreas = []string{}
	}
	return stats
}
