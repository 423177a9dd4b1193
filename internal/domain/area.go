package domain

// HazardLevel is the historical susceptibility rating of an area.
type HazardLevel string

const (
	HazardLow      HazardLevel = "Low"
	HazardModerate HazardLevel = "Moderate"
	HazardHigh     HazardLevel = "High"
)

// HazardProfile holds the static susceptibility data for an area: slope
// statistics and historical flood/landslide hazard ratings. The optional
// numeric scores, when present, override the level-to-number mapping used
// by the risk scorer.
type HazardProfile struct {
	AreaID             int64       `json:"areaId"`
	MeanSlopeDeg       float64     `json:"meanSlopeDeg"`
	MaxSlopeDeg        float64     `json:"maxSlopeDeg"`
	FloodLevel         HazardLevel `json:"floodLevel"`
	LandslideLevel     HazardLevel `json:"landslideLevel"`
	FloodRiskScore     *float64    `json:"floodRiskScore,omitempty"`
	LandslideRiskScore *float64    `json:"landslideRiskScore,omitempty"`
}

// Shelter is a designated capacity-limited refuge location. Capacity is
// not stored; it is inferred from the venue label at planning time.
type Shelter struct {
	ID          int64   `json:"id"`
	AreaID      int64   `json:"areaId"`
	Name        string  `json:"name"`
	Venue       string  `json:"venue"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ContactName string  `json:"contactName,omitempty"`
}

// AreaProfile describes one barangay, the smallest administrative unit
// the engines assess independently.
type AreaProfile struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Slug              string         `json:"slug,omitempty"`
	Population        *int           `json:"population,omitempty"`
	PopulationDensity float64        `json:"populationDensity"`
	Livelihood        string         `json:"livelihood,omitempty"`
	AreaSqKm          float64        `json:"areaSqKm"`
	Hazard            *HazardProfile `json:"hazard,omitempty"`
	Shelters          []Shelter      `json:"shelters,omitempty"`
}

// EffectivePopulation returns the population figure used for evacuation
// planning: the recorded population when known, otherwise the density
// figure, otherwise a 1000-person default.
func (a *AreaProfile) EffectivePopulation() int {
	if a.Population != nil && *a.Population > 0 {
		return *a.Population
	}
	if a.PopulationDensity > 0 {
		return int(a.PopulationDensity)
	}
	return 1000
}
