// Package domain defines the core interfaces and types for the
// disaster decision-support service.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Area catalog
	SaveArea(ctx context.Context, area *AreaProfile) error
	GetArea(ctx context.Context, areaID int64) (*AreaProfile, error)
	GetAreaBySlug(ctx context.Context, slug string) (*AreaProfile, error)
	ListAreas(ctx context.Context) ([]*AreaProfile, error)

	// Hazard profiles and shelters
	SaveHazardProfile(ctx context.Context, profile *HazardProfile) error
	SaveShelter(ctx context.Context, shelter *Shelter) error

	// Weather snapshots
	SaveWeatherSnapshot(ctx context.Context, snapshot *WeatherAggregate) error
	LatestWeatherSnapshot(ctx context.Context, areaID int64) (*WeatherAggregate, error)

	// Operator-defined decision rules
	SaveCustomRule(ctx context.Context, rule *DecisionRule) error
	ListCustomRules(ctx context.Context) ([]*DecisionRule, error)
	DeleteCustomRule(ctx context.Context, ruleID string) error

	// Generated report archive
	SaveReport(ctx context.Context, report *Report) error
	ListReports(ctx context.Context, kind string, since time.Time) ([]*Report, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// Report is an archived output of a recompute cycle, stored as the
// serialized payload plus enough columns to query by kind and time.
type Report struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // "alerts", "evacuation", "risk_scores"
	Payload     []byte    `json:"payload"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Report kinds.
const (
	ReportKindAlerts     = "alerts"
	ReportKindEvacuation = "evacuation"
	ReportKindRiskScores = "risk_scores"
)

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
