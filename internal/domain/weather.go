package domain

import (
	"context"
	"time"
)

// WeatherAggregate is the per-area weather input to an assessment: maxima
// over the forecast window, with soil moisture already reduced across the
// depth bands. Supplied fresh on every call, never persisted by the core.
type WeatherAggregate struct {
	AreaID       int64     `json:"areaId"`
	RainfallMm   float64   `json:"rainfallMm"`
	SoilMoisture float64   `json:"soilMoisture"` // fraction in [0,1]
	WindSpeedMs  float64   `json:"windSpeedMs"`
	TemperatureC float64   `json:"temperatureC"`
	ObservedAt   time.Time `json:"observedAt"`
}

// WeatherSource supplies the freshest weather aggregate for an area.
// Implementations return ErrMissingWeather when no usable data exists;
// the engines skip such areas rather than fabricate defaults.
type WeatherSource interface {
	Latest(ctx context.Context, areaID int64) (*WeatherAggregate, error)
}

// WeatherByArea maps area ID to its current weather aggregate, the batch
// input shape for full-collection assessments.
type WeatherByArea map[int64]*WeatherAggregate
