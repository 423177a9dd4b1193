// GSMAP DSS - disaster decision support for Philippine barangays.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rjrmendiola/gsmap-api/internal/api"
	"github.com/rjrmendiola/gsmap-api/internal/bus"
	"github.com/rjrmendiola/gsmap-api/internal/cache"
	"github.com/rjrmendiola/gsmap-api/internal/domain"
	"github.com/rjrmendiola/gsmap-api/internal/dss"
	"github.com/rjrmendiola/gsmap-api/internal/observability"
	"github.com/rjrmendiola/gsmap-api/internal/repository"
	"github.com/rjrmendiola/gsmap-api/internal/rules"
	"github.com/rjrmendiola/gsmap-api/internal/weather"
	"github.com/rjrmendiola/gsmap-api/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// .env is optional; real deployments set environment directly
	_ = godotenv.Load()

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("GSMAP_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting gsmap-api",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()
	if os.Getenv("GSMAP_TIER") == string(domain.TierProvincial) {
		cfg = domain.ProvincialConfig()
		slog.Info("running in provincial tier mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Optional area catalog seeding
	if seedFile := os.Getenv("GSMAP_SEED_FILE"); seedFile != "" {
		if err := seedAreas(ctx, repo, seedFile); err != nil {
			slog.Error("failed to seed area catalog", "file", seedFile, "error", err)
			os.Exit(1)
		}
	}

	// Initialize Rule Engine with the builtin decision table
	engine, err := rules.NewEngine(nil)
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized", "rules_count", engine.RulesCount())

	// Initialize Weather Service
	weatherSvc := weather.New(repo, cacheImpl, cfg.Weather, nil)
	slog.Info("weather service initialized", "stale_after", cfg.Weather.StaleAfter)

	// Initialize DSS Orchestrator
	svc := dss.NewService(repo, weatherSvc, engine, nil)

	// Load operator-defined rules from the database
	if err := svc.ReloadCustomRules(ctx); err != nil {
		slog.Warn("failed to load custom rules, continuing with builtins", "error", err)
	}
	slog.Info("orchestrator initialized", "rules_count", engine.RulesCount())

	// Initialize Prometheus metrics
	metrics := observability.NewMetrics()

	// Initialize recompute Worker
	recomputeWorker := worker.NewWorker(busImpl, svc, metrics)
	if err := recomputeWorker.Start(cfg.Scheduler); err != nil {
		slog.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, svc, weatherSvc, metrics, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("gsmap-api is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop worker first so no recompute is mid-flight during shutdown
	if err := recomputeWorker.Stop(); err != nil {
		slog.Error("failed to stop worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("gsmap-api shutdown complete")
}

// applyEnvOverrides lets individual settings be tuned without a full
// tier switch.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("GSMAP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GSMAP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GSMAP_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("GSMAP_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("GSMAP_POSTGRES_DB"); v != "" {
		cfg.Repository.PostgresDB = v
	}
	if v := os.Getenv("GSMAP_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("GSMAP_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("GSMAP_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("GSMAP_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("GSMAP_RECOMPUTE_SPEC"); v != "" {
		cfg.Scheduler.RecomputeSpec = v
	}
	if os.Getenv("GSMAP_SCHEDULER_DISABLED") == "true" {
		cfg.Scheduler.Enabled = false
	}
}

// seedAreas loads the barangay catalog from a JSON file into the
// repository. Existing areas are upserted, so re-seeding is safe.
func seedAreas(ctx context.Context, repo domain.Repository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var areas []*domain.AreaProfile
	if err := json.Unmarshal(data, &areas); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, area := range areas {
		if err := repo.SaveArea(ctx, area); err != nil {
			return fmt.Errorf("save area %q: %w", area.Name, err)
		}
	}

	slog.Info("area catalog seeded", "count", len(areas), "file", path)
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  GSMAP DSS - barangay disaster decision support")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /dss/alerts                 - Current alerts with statistics")
	fmt.Println("    GET  /dss/alerts/statistics      - Alert summary only")
	fmt.Println("    GET  /dss/rules                  - Decision matrix")
	fmt.Println("    POST /dss/rules                  - Create a custom rule")
	fmt.Println("    GET  /dss/rules/triggered        - Recommended actions per area")
	fmt.Println("    GET  /dss/evacuation/plan        - Region-wide evacuation plan")
	fmt.Println("    GET  /dss/evacuation/status      - Shelter capacity summary")
	fmt.Println("    POST /dss/risk-scores            - MCDA scores (optional weights)")
	fmt.Println("    POST /dss/scenarios/compare      - Compare weight scenarios")
	fmt.Println("    GET  /dss/dashboard              - Combined overview")
	fmt.Println("    POST /dss/recompute              - Run a recompute cycle now")
	fmt.Println("    POST /weather                    - Ingest a weather snapshot")
	fmt.Println("    GET  /health                     - Health check")
	fmt.Println()
}
