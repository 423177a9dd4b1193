// Package dss orchestrates the decision support pipeline: it gathers
// area and weather inputs, runs the four engines, and assembles the
// composite reports the API serves.
package dss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/alert"
	"github.com/rjrmendiola/gsmap-api/internal/domain"
	"github.com/rjrmendiola/gsmap-api/internal/evacuation"
	"github.com/rjrmendiola/gsmap-api/internal/rules"
	"github.com/rjrmendiola/gsmap-api/internal/scoring"
)

// Service ties the engines to the repository and weather source.
type Service struct {
	repo       domain.Repository
	weather    domain.WeatherSource
	classifier *alert.Classifier
	engine     *rules.Engine
	scorer     *scoring.Scorer
	planner    *evacuation.Planner
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewService wires the orchestrator. A nil clock falls back to the
// real clock.
func NewService(repo domain.Repository, weather domain.WeatherSource, engine *rules.Engine, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:       repo,
		weather:    weather,
		classifier: alert.New(clock),
		engine:     engine,
		scorer:     scoring.New(clock),
		planner:    evacuation.New(clock),
		clock:      clock,
		logger:     slog.Default().With("component", "dss"),
	}
}

// AlertsReport is the alert listing plus its statistics.
type AlertsReport struct {
	Alerts      []*domain.Alert        `json:"alerts"`
	Statistics  domain.AlertStatistics `json:"statistics"`
	GeneratedAt time.Time              `json:"timestamp"`
}

// TriggeredReport groups per-area recommended actions.
type TriggeredReport struct {
	Triggered []domain.RecommendedActions `json:"triggeredRules"`
	Summary   struct {
		AreasWithRules int `json:"totalAreasWithRules"`
		RulesTriggered int `json:"totalRulesTriggered"`
	} `json:"summary"`
	GeneratedAt time.Time `json:"timestamp"`
}

// Dashboard is the combined situational overview.
type Dashboard struct {
	Alerts           *AlertsReport               `json:"alerts"`
	RiskScores       *domain.RiskScoreReport     `json:"riskScores"`
	DecisionMatrix   domain.DecisionMatrix       `json:"decisionMatrix"`
	EvacuationPlan   *domain.EvacuationPlan      `json:"evacuationPlan"`
	EvacuationStatus domain.EvacuationStatus     `json:"evacuationStatus"`
	TriggeredRules   []domain.RecommendedActions `json:"triggeredRules"`
	GeneratedAt      time.Time                   `json:"generatedAt"`
}

// Dashboard list caps keep the overview payload bounded.
const (
	dashboardMaxScores    = 10
	dashboardMaxTriggered = 5
)

// RecomputeResult carries one full recompute cycle's artifacts.
type RecomputeResult struct {
	Alerts     *AlertsReport
	Plan       *domain.EvacuationPlan
	RiskScores *domain.RiskScoreReport
}

// gatherInputs loads every area with its hazard profile and shelters,
// plus the freshest weather per area. Areas without usable weather are
// left out of the weather map; per-area failures never abort the batch.
func (s *Service) gatherInputs(ctx context.Context) ([]*domain.AreaProfile, domain.WeatherByArea, error) {
	areas, err := s.repo.ListAreas(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing areas: %w", err)
	}

	weather := make(domain.WeatherByArea, len(areas))
	for _, area := range areas {
		wx, err := s.weather.Latest(ctx, area.ID)
		if err != nil {
			if errors.Is(err, domain.ErrMissingWeather) {
				s.logger.Debug("no weather for area", "area", area.Name)
			} else {
				s.logger.Warn("weather fetch failed, skipping area", "area", area.Name, "error", err)
			}
			continue
		}
		weather[area.ID] = wx
	}
	return areas, weather, nil
}

// Alerts generates the current alert listing with statistics.
// When areas exist but none has usable weather, classification cannot
// run and ErrMissingWeather is returned.
func (s *Service) Alerts(ctx context.Context) (*AlertsReport, error) {
	areas, weather, err := s.gatherInputs(ctx)
	if err != nil {
		return nil, err
	}
	if len(areas) > 0 && len(weather) == 0 {
		return nil, domain.ErrMissingWeather
	}
	alerts := s.classifier.GenerateAlerts(areas, weather)
	return &AlertsReport{
		Alerts:      alerts,
		Statistics:  alert.Statistics(alerts),
		GeneratedAt: s.clock.Now(),
	}, nil
}

// AlertForArea returns the current alert for one area.
// Returns ErrNotFound when the area has no active alert.
func (s *Service) AlertForArea(ctx context.Context, areaID int64) (*domain.Alert, error) {
	report, err := s.Alerts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range report.Alerts {
		if a.AreaID == areaID {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no active alert for area %d: %w", areaID, domain.ErrNotFound)
}

// Matrix returns the full decision rule table.
func (s *Service) Matrix() domain.DecisionMatrix {
	return s.engine.Matrix()
}

// ReloadCustomRules loads operator rules from the repository into the
// engine, replacing the previous custom set.
func (s *Service) ReloadCustomRules(ctx context.Context) error {
	custom, err := s.repo.ListCustomRules(ctx)
	if err != nil {
		return fmt.Errorf("loading custom rules: %w", err)
	}
	if err := s.engine.LoadCustomRules(custom); err != nil {
		return fmt.Errorf("compiling custom rules: %w", err)
	}
	s.logger.Info("custom rules reloaded", "count", len(custom))
	return nil
}

// SaveCustomRule validates, persists, and hot-loads an operator rule.
// A missing ID is assigned.
func (s *Service) SaveCustomRule(ctx context.Context, rule *domain.DecisionRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is required", domain.ErrInvalidInput)
	}
	if rule.ID == "" {
		rule.ID = "CR-" + uuid.NewString()[:8]
	}
	if err := s.engine.ValidateRule(rule); err != nil {
		return err
	}
	if err := s.repo.SaveCustomRule(ctx, rule); err != nil {
		return fmt.Errorf("saving rule %s: %w", rule.ID, err)
	}
	return s.ReloadCustomRules(ctx)
}

// DeleteCustomRule removes an operator rule and reloads the engine.
func (s *Service) DeleteCustomRule(ctx context.Context, ruleID string) error {
	if err := s.repo.DeleteCustomRule(ctx, ruleID); err != nil {
		return err
	}
	return s.ReloadCustomRules(ctx)
}

// TriggeredRules evaluates the rule table against every alerted area's
// conditions and returns only areas with at least one triggered rule.
func (s *Service) TriggeredRules(ctx context.Context) (*TriggeredReport, error) {
	report, err := s.Alerts(ctx)
	if err != nil {
		return nil, err
	}

	out := &TriggeredReport{
		Triggered:   []domain.RecommendedActions{},
		GeneratedAt: s.clock.Now(),
	}
	for _, a := range report.Alerts {
		actions := s.engine.RecommendedActions(domain.ConditionsFromAlert(a))
		if len(actions.TriggeredRules) == 0 {
			continue
		}
		out.Triggered = append(out.Triggered, actions)
		out.Summary.AreasWithRules++
		out.Summary.RulesTriggered += len(actions.TriggeredRules)
	}
	return out, nil
}

// EvacuationPlan builds the region-wide plan from current alerts.
func (s *Service) EvacuationPlan(ctx context.Context) (*domain.EvacuationPlan, error) {
	areas, weather, err := s.gatherInputs(ctx)
	if err != nil {
		return nil, err
	}
	alerts := s.classifier.GenerateAlerts(areas, weather)
	return s.planner.Plan(alerts, areasByID(areas)), nil
}

// EvacuationPlanForArea builds the plan entry for one area.
func (s *Service) EvacuationPlanForArea(ctx context.Context, areaID int64) (*domain.EvacuationPlanEntry, error) {
	area, err := s.repo.GetArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	a, err := s.AlertForArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	entry := s.planner.PlanForArea(area, a)
	return &entry, nil
}

// EvacuationStatus summarizes registered shelters.
func (s *Service) EvacuationStatus(ctx context.Context) (domain.EvacuationStatus, error) {
	areas, err := s.repo.ListAreas(ctx)
	if err != nil {
		return domain.EvacuationStatus{}, fmt.Errorf("listing areas: %w", err)
	}
	return s.planner.Status(areas), nil
}

// RiskScores computes the weighted score report. A nil weights pointer
// selects the default set.
func (s *Service) RiskScores(ctx context.Context, weights *domain.Weights) (*domain.RiskScoreReport, error) {
	areas, weather, err := s.gatherInputs(ctx)
	if err != nil {
		return nil, err
	}
	return s.scorer.ScoreAll(areas, weather, weights)
}

// RiskScoreForArea computes one area's score under the given weights.
func (s *Service) RiskScoreForArea(ctx context.Context, areaID int64, weights *domain.Weights) (*domain.RiskScoreResult, error) {
	report, err := s.RiskScores(ctx, weights)
	if err != nil {
		return nil, err
	}
	for i := range report.Scores {
		if report.Scores[i].AreaID == areaID {
			return &report.Scores[i], nil
		}
	}
	return nil, fmt.Errorf("no risk score for area %d: %w", areaID, domain.ErrNotFound)
}

// CompareScenarios runs the scorer once per named weight set.
func (s *Service) CompareScenarios(ctx context.Context, scenarios []domain.Scenario) ([]domain.ScenarioResult, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: at least one scenario is required", domain.ErrInvalidInput)
	}
	areas, weather, err := s.gatherInputs(ctx)
	if err != nil {
		return nil, err
	}
	return s.scorer.CompareScenarios(areas, weather, scenarios)
}

// Dashboard assembles the combined overview served to the situation
// room display.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	areas, weather, err := s.gatherInputs(ctx)
	if err != nil {
		return nil, err
	}

	alerts := s.classifier.GenerateAlerts(areas, weather)
	scores, err := s.scorer.ScoreAll(areas, weather, nil)
	if err != nil {
		return nil, err
	}
	if len(scores.Scores) > dashboardMaxScores {
		scores.Scores = scores.Scores[:dashboardMaxScores]
	}

	triggered := []domain.RecommendedActions{}
	for _, a := range alerts {
		if len(triggered) == dashboardMaxTriggered {
			break
		}
		actions := s.engine.RecommendedActions(domain.ConditionsFromAlert(a))
		if len(actions.TriggeredRules) == 0 {
			continue
		}
		triggered = append(triggered, actions)
	}

	return &Dashboard{
		Alerts: &AlertsReport{
			Alerts:      alerts,
			Statistics:  alert.Statistics(alerts),
			GeneratedAt: s.clock.Now(),
		},
		RiskScores:       scores,
		DecisionMatrix:   s.engine.Matrix(),
		EvacuationPlan:   s.planner.Plan(alerts, areasByID(areas)),
		EvacuationStatus: s.planner.Status(areas),
		TriggeredRules:   triggered,
		GeneratedAt:      s.clock.Now(),
	}, nil
}

// Recompute runs one full cycle and archives the artifacts. The worker
// calls this on weather updates and on the schedule.
func (s *Service) Recompute(ctx context.Context) (*RecomputeResult, error) {
	areas, weather, err := s.gatherInputs(ctx)
	if err != nil {
		return nil, err
	}

	alerts := s.classifier.GenerateAlerts(areas, weather)
	result := &RecomputeResult{
		Alerts: &AlertsReport{
			Alerts:      alerts,
			Statistics:  alert.Statistics(alerts),
			GeneratedAt: s.clock.Now(),
		},
		Plan: s.planner.Plan(alerts, areasByID(areas)),
	}
	result.RiskScores, err = s.scorer.ScoreAll(areas, weather, nil)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, domain.ReportKindAlerts, result.Alerts)
	s.archive(ctx, domain.ReportKindEvacuation, result.Plan)
	s.archive(ctx, domain.ReportKindRiskScores, result.RiskScores)

	s.logger.Info("recompute cycle complete",
		"areas", len(areas),
		"alerts", len(alerts),
		"status", result.Plan.Status)
	return result, nil
}

// archive best-effort persists a report snapshot. Failures are logged,
// not propagated: archival must never block alerting.
func (s *Service) archive(ctx context.Context, kind string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("report marshal failed", "kind", kind, "error", err)
		return
	}
	report := &domain.Report{
		ID:          uuid.NewString(),
		Kind:        kind,
		Payload:     data,
		GeneratedAt: s.clock.Now(),
	}
	if err := s.repo.SaveReport(ctx, report); err != nil {
		s.logger.Warn("report archive failed", "kind", kind, "error", err)
	}
}

func areasByID(areas []*domain.AreaProfile) map[int64]*domain.AreaProfile {
	byID := make(map[int64]*domain.AreaProfile, len(areas))
	for _, area := range areas {
		byID[area.ID] = area
	}
	return byID
}
