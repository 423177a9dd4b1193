package domain

import "time"

// Config holds the complete service configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines which backing services are expected
	Tier Tier `json:"tier"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
	Weather    WeatherConfig    `json:"weather"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// SchedulerConfig holds the periodic recompute settings.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// RecomputeSpec is a cron expression for the full alert/plan
	// recompute cycle.
	RecomputeSpec string `json:"recomputeSpec"`
}

// WeatherConfig holds weather ingestion settings.
type WeatherConfig struct {
	// StaleAfter is how old a snapshot may be before an area is
	// treated as having no usable weather data.
	StaleAfter time.Duration `json:"staleAfter"`

	// CacheTTL is how long aggregates stay in the cache.
	CacheTTL time.Duration `json:"cacheTTL"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp
	Endpoint     string `json:"endpoint"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierStandalone runs on SQLite + in-process channels. Suitable
	// for a single municipal LGU server.
	TierStandalone Tier = "standalone"

	// TierProvincial runs on PostgreSQL + NATS + Redis for
	// multi-municipality deployments.
	TierProvincial Tier = "provincial"
)

// DefaultConfig returns a default standalone configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierStandalone,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./gsmap.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     300 * time.Second,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			RecomputeSpec: "*/15 * * * *",
		},
		Weather: WeatherConfig{
			StaleAfter: 3 * time.Hour,
			CacheTTL:   5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "gsmap-api",
		},
	}
}

// ProvincialConfig returns a configuration for provincial deployments.
func ProvincialConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierProvincial
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "gsmap",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
