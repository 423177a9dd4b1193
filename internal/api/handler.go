package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
	"github.com/rjrmendiola/gsmap-api/internal/dss"
	"github.com/rjrmendiola/gsmap-api/internal/observability"
	"github.com/rjrmendiola/gsmap-api/internal/weather"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo    domain.Repository
	cache   domain.Cache
	bus     domain.EventBus
	svc     *dss.Service
	weather *weather.Service
	metrics *observability.Metrics
	version string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, svc *dss.Service, weatherSvc *weather.Service, metrics *observability.Metrics, version string) *Handler {
	return &Handler{
		repo:    repo,
		cache:   cache,
		bus:     bus,
		svc:     svc,
		weather: weatherSvc,
		metrics: metrics,
		version: version,
	}
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GetAlerts returns the current alert listing with statistics.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Alerts(r.Context())
	if err != nil {
		writeError(w, "failed to generate alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetAlertStatistics returns only the summary block of the alert listing.
func (h *Handler) GetAlertStatistics(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Alerts(r.Context())
	if err != nil {
		writeError(w, "failed to generate alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statistics": report.Statistics,
		"timestamp":  report.GeneratedAt,
	})
}

// GetAlertForArea returns the active alert for one area.
func (h *Handler) GetAlertForArea(w http.ResponseWriter, r *http.Request) {
	areaID, ok := areaIDParam(w, r)
	if !ok {
		return
	}

	alert, err := h.svc.AlertForArea(r.Context(), areaID)
	if err != nil {
		writeError(w, "no active alert for area", err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// GetDecisionMatrix returns the full rule table with grouped counts.
func (h *Handler) GetDecisionMatrix(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Matrix())
}

// GetTriggeredRules returns recommended actions per alerted area.
func (h *Handler) GetTriggeredRules(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.TriggeredRules(r.Context())
	if err != nil {
		writeError(w, "failed to evaluate decision rules", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreateRule validates and persists an operator decision rule, then
// hot-reloads the engine.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.DecisionRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := h.svc.SaveCustomRule(r.Context(), &rule); err != nil {
		writeError(w, "failed to save rule", err)
		return
	}

	slog.Info("custom rule created", "id", rule.ID, "category", rule.Category)
	writeJSON(w, http.StatusCreated, map[string]any{
		"rule": rule,
	})
}

// DeleteRule removes an operator decision rule and reloads the engine.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")
	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	if err := h.svc.DeleteCustomRule(r.Context(), ruleID); err != nil {
		writeError(w, "failed to delete rule", err)
		return
	}

	slog.Info("custom rule deleted", "id", ruleID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "rule deleted",
	})
}

// GetEvacuationPlan returns the region-wide evacuation plan.
func (h *Handler) GetEvacuationPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.EvacuationPlan(r.Context())
	if err != nil {
		writeError(w, "failed to build evacuation plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// GetEvacuationPlanForArea returns one area's evacuation plan entry.
func (h *Handler) GetEvacuationPlanForArea(w http.ResponseWriter, r *http.Request) {
	areaID, ok := areaIDParam(w, r)
	if !ok {
		return
	}

	entry, err := h.svc.EvacuationPlanForArea(r.Context(), areaID)
	if err != nil {
		writeError(w, "failed to build evacuation plan for area", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// GetEvacuationStatus summarizes registered shelters.
func (h *Handler) GetEvacuationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.EvacuationStatus(r.Context())
	if err != nil {
		writeError(w, "failed to summarize shelters", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// riskScoreRequest carries optional custom weights.
type riskScoreRequest struct {
	Weights *domain.Weights `json:"weights,omitempty"`
}

// GetRiskScores returns the score report under default weights.
func (h *Handler) GetRiskScores(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RiskScores(r.Context(), nil)
	if err != nil {
		writeError(w, "failed to compute risk scores", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// PostRiskScores returns the score report under caller-supplied weights.
func (h *Handler) PostRiskScores(w http.ResponseWriter, r *http.Request) {
	var req riskScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	report, err := h.svc.RiskScores(r.Context(), req.Weights)
	if err != nil {
		writeError(w, "failed to compute risk scores", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetRiskScoreForArea returns one area's score under default weights.
func (h *Handler) GetRiskScoreForArea(w http.ResponseWriter, r *http.Request) {
	areaID, ok := areaIDParam(w, r)
	if !ok {
		return
	}

	score, err := h.svc.RiskScoreForArea(r.Context(), areaID, nil)
	if err != nil {
		writeError(w, "failed to compute risk score for area", err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// compareRequest names the weight sets to compare.
type compareRequest struct {
	Scenarios []domain.Scenario `json:"scenarios"`
}

// CompareScenarios runs the scorer once per named weight set.
func (h *Handler) CompareScenarios(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	results, err := h.svc.CompareScenarios(r.Context(), req.Scenarios)
	if err != nil {
		writeError(w, "failed to compare scenarios", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"comparison": results,
	})
}

// GetDashboard returns the combined situational overview.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, "failed to assemble dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// Recompute runs a full cycle on demand, archives the reports, and
// announces the fresh artifacts on the bus.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	result, err := h.svc.Recompute(ctx)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecomputeErrors.Inc()
		}
		writeError(w, "recompute failed", err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecomputeRuns.Inc()
		h.metrics.RecomputeTime.Observe(time.Since(start).Seconds())
		h.metrics.AreasAssessed.Set(float64(result.Alerts.Statistics.Total))
		h.metrics.ObserveAlertLevels(
			result.Alerts.Statistics.ByLevel.Red,
			result.Alerts.Statistics.ByLevel.Orange,
			result.Alerts.Statistics.ByLevel.Yellow,
		)
	}

	if h.bus != nil {
		if payload, err := json.Marshal(result.Alerts.Statistics); err == nil {
			if err := h.bus.Publish(ctx, domain.TopicAlertsRecomputed, payload); err != nil {
				slog.Warn("failed to publish alert recompute", "error", err)
			}
		}
		if payload, err := json.Marshal(map[string]any{"status": result.Plan.Status}); err == nil {
			if err := h.bus.Publish(ctx, domain.TopicPlanUpdated, payload); err != nil {
				slog.Warn("failed to publish plan update", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts":     result.Alerts.Statistics,
		"planStatus": result.Plan.Status,
	})
}

// IngestWeather accepts one weather snapshot and announces it.
func (h *Handler) IngestWeather(w http.ResponseWriter, r *http.Request) {
	var wx domain.WeatherAggregate
	if err := json.NewDecoder(r.Body).Decode(&wx); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := h.weather.Ingest(r.Context(), &wx); err != nil {
		writeError(w, "failed to ingest weather snapshot", err)
		return
	}

	if h.metrics != nil {
		h.metrics.WeatherIngested.Inc()
	}

	if h.bus != nil {
		payload, _ := json.Marshal(wx)
		if err := h.bus.Publish(r.Context(), domain.TopicWeatherUpdated, payload); err != nil {
			slog.Warn("failed to publish weather update", "error", err)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"areaId":     wx.AreaID,
		"observedAt": wx.ObservedAt,
	})
}

// ListAreas returns the area catalog.
func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.repo.ListAreas(r.Context())
	if err != nil {
		writeError(w, "failed to list areas", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"areas": areas,
		"count": len(areas),
	})
}

// GetArea returns one area with its hazard profile and shelters.
func (h *Handler) GetArea(w http.ResponseWriter, r *http.Request) {
	areaID, ok := areaIDParam(w, r)
	if !ok {
		return
	}

	area, err := h.repo.GetArea(r.Context(), areaID)
	if err != nil {
		writeError(w, "area not found", err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

// SaveArea upserts an area with its hazard profile and shelters.
func (h *Handler) SaveArea(w http.ResponseWriter, r *http.Request) {
	var area domain.AreaProfile
	if err := json.NewDecoder(r.Body).Decode(&area); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := h.repo.SaveArea(r.Context(), &area); err != nil {
		writeError(w, "failed to save area", err)
		return
	}

	slog.Info("area saved", "id", area.ID, "name", area.Name)
	writeJSON(w, http.StatusCreated, area)
}

func areaIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "areaID")
	areaID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || areaID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "area id must be a positive integer",
		})
		return 0, false
	}
	return areaID, true
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMissingWeather):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidWeights),
		errors.Is(err, domain.ErrBadRuleConfig):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err)
	}

	writeJSON(w, status, map[string]string{
		"error": msg + ": " + err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
