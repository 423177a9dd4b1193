// Package worker drives recompute cycles from bus events and the
// cron schedule.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
	"github.com/rjrmendiola/gsmap-api/internal/dss"
	"github.com/rjrmendiola/gsmap-api/internal/observability"
)

// Worker recomputes alerts, plans, and risk scores whenever fresh
// weather arrives, and on a fixed cron schedule as a fallback.
type Worker struct {
	bus     domain.EventBus
	svc     *dss.Service
	metrics *observability.Metrics

	cron          *cron.Cron
	subscriptions []domain.Subscription
	running       sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
	logger        *slog.Logger
}

// NewWorker creates a recompute worker.
func NewWorker(bus domain.EventBus, svc *dss.Service, metrics *observability.Metrics) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     bus,
		svc:     svc,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
		logger:  slog.Default().With("component", "worker"),
	}
}

// Start subscribes to weather updates and, when enabled, schedules
// periodic recomputes.
func (w *Worker) Start(cfg domain.SchedulerConfig) error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicWeatherUpdated, w.handleWeatherUpdate)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	if cfg.Enabled && cfg.RecomputeSpec != "" {
		w.cron = cron.New()
		_, err := w.cron.AddFunc(cfg.RecomputeSpec, func() {
			w.recompute(w.ctx, "schedule")
		})
		if err != nil {
			return err
		}
		w.cron.Start()
		w.logger.Info("scheduled recompute enabled", "spec", cfg.RecomputeSpec)
	}

	w.logger.Info("worker started", "topic", domain.TopicWeatherUpdated)
	return nil
}

// handleWeatherUpdate reacts to a fresh snapshot announcement.
func (w *Worker) handleWeatherUpdate(ctx context.Context, msg *domain.Message) error {
	var wx domain.WeatherAggregate
	if err := json.Unmarshal(msg.Payload, &wx); err != nil {
		w.logger.Error("failed to parse weather update",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	w.logger.Debug("weather update received",
		"area_id", wx.AreaID,
		"rainfall_mm", wx.RainfallMm,
	)

	w.recompute(ctx, "weather_update")
	return nil
}

// recompute runs one full cycle and announces the fresh artifacts.
// Failures are logged but never propagate; the next trigger retries.
func (w *Worker) recompute(ctx context.Context, reason string) {
	w.running.Lock()
	defer w.running.Unlock()

	start := time.Now()
	result, err := w.svc.Recompute(ctx)
	if err != nil {
		if w.metrics != nil {
			w.metrics.RecomputeErrors.Inc()
		}
		w.logger.Error("recompute failed", "reason", reason, "error", err)
		return
	}

	if w.metrics != nil {
		w.metrics.RecomputeRuns.Inc()
		w.metrics.RecomputeTime.Observe(time.Since(start).Seconds())
		w.metrics.AreasAssessed.Set(float64(result.Alerts.Statistics.Total))
		w.metrics.ObserveAlertLevels(
			result.Alerts.Statistics.ByLevel.Red,
			result.Alerts.Statistics.ByLevel.Orange,
			result.Alerts.Statistics.ByLevel.Yellow,
		)
	}

	if payload, err := json.Marshal(result.Alerts.Statistics); err == nil {
		if err := w.bus.Publish(ctx, domain.TopicAlertsRecomputed, payload); err != nil {
			w.logger.Warn("failed to publish alert recompute", "error", err)
		}
	}
	if payload, err := json.Marshal(map[string]any{"status": result.Plan.Status}); err == nil {
		if err := w.bus.Publish(ctx, domain.TopicPlanUpdated, payload); err != nil {
			w.logger.Warn("failed to publish plan update", "error", err)
		}
	}

	w.logger.Info("recompute completed",
		"reason", reason,
		"alerts", result.Alerts.Statistics.Total,
		"plan_status", result.Plan.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	if w.cron != nil {
		<-w.cron.Stop().Done()
	}

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			w.logger.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.logger.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
	SchedulerActive   bool     `json:"schedulerActive"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
		SchedulerActive:   w.cron != nil,
	}
}
