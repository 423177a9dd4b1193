// Package weather serves the freshest usable weather aggregate per
// area, fronting the snapshot store with the cache.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// Service reads weather through the cache and falls back to the
// repository. Snapshots older than the staleness window are treated
// the same as missing data: the engines must not alert on dead inputs.
type Service struct {
	repo       domain.Repository
	cache      domain.Cache
	clock      clockwork.Clock
	staleAfter time.Duration
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// New builds the weather source. A nil cache disables caching.
func New(repo domain.Repository, cache domain.Cache, cfg domain.WeatherConfig, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 3 * time.Hour
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		clock:      clock,
		staleAfter: staleAfter,
		cacheTTL:   cacheTTL,
		logger:     slog.Default().With("component", "weather"),
	}
}

// Latest returns the freshest aggregate for an area, or
// ErrMissingWeather when there is none or the newest one is stale.
func (s *Service) Latest(ctx context.Context, areaID int64) (*domain.WeatherAggregate, error) {
	if s.cache != nil {
		if wx, err := s.cache.GetWeather(ctx, areaID); err == nil && wx != nil {
			if s.fresh(wx) {
				return wx, nil
			}
		} else if err != nil {
			s.logger.Debug("weather cache read failed", "area", areaID, "error", err)
		}
	}

	wx, err := s.repo.LatestWeatherSnapshot(ctx, areaID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMissingWeather) {
			return nil, fmt.Errorf("area %d: %w", areaID, domain.ErrMissingWeather)
		}
		return nil, fmt.Errorf("reading weather snapshot for area %d: %w", areaID, err)
	}
	if !s.fresh(wx) {
		return nil, fmt.Errorf("area %d: snapshot from %s is stale: %w",
			areaID, wx.ObservedAt.Format(time.RFC3339), domain.ErrMissingWeather)
	}

	if s.cache != nil {
		if err := s.cache.SetWeather(ctx, areaID, wx, s.cacheTTL); err != nil {
			s.logger.Debug("weather cache write failed", "area", areaID, "error", err)
		}
	}
	return wx, nil
}

// Ingest stores a new snapshot and refreshes the cache entry. A zero
// observation time is stamped with the current clock.
func (s *Service) Ingest(ctx context.Context, wx *domain.WeatherAggregate) error {
	if wx == nil || wx.AreaID == 0 {
		return fmt.Errorf("%w: snapshot with area id is required", domain.ErrInvalidInput)
	}
	if wx.RainfallMm < 0 || wx.SoilMoisture < 0 || wx.SoilMoisture > 1 || wx.WindSpeedMs < 0 {
		return fmt.Errorf("%w: readings out of range", domain.ErrInvalidInput)
	}
	if wx.ObservedAt.IsZero() {
		wx.ObservedAt = s.clock.Now()
	}

	if err := s.repo.SaveWeatherSnapshot(ctx, wx); err != nil {
		return fmt.Errorf("saving weather snapshot for area %d: %w", wx.AreaID, err)
	}
	if s.cache != nil {
		if err := s.cache.SetWeather(ctx, wx.AreaID, wx, s.cacheTTL); err != nil {
			s.logger.Debug("weather cache write failed", "area", wx.AreaID, "error", err)
		}
	}
	return nil
}

func (s *Service) fresh(wx *domain.WeatherAggregate) bool {
	if wx.ObservedAt.IsZero() {
		return false
	}
	return s.clock.Since(wx.ObservedAt) <= s.staleAfter
}
