// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveArea upserts an area with its hazard profile and shelters.
func (r *SQLRepository) SaveArea(ctx context.Context, area *domain.AreaProfile) error {
	if area == nil || area.ID == 0 {
		return fmt.Errorf("%w: area with id is required", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO areas (id, name, slug, population, population_density, livelihood, area_sqkm)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			population = excluded.population,
			population_density = excluded.population_density,
			livelihood = excluded.livelihood,
			area_sqkm = excluded.area_sqkm
	`

	var population sql.NullInt64
	if area.Population != nil {
		population = sql.NullInt64{Int64: int64(*area.Population), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		area.ID, area.Name, area.Slug, population,
		area.PopulationDensity, area.Livelihood, area.AreaSqKm,
	)
	if err != nil {
		return err
	}

	if area.Hazard != nil {
		if err := r.SaveHazardProfile(ctx, area.Hazard); err != nil {
			return err
		}
	}
	for i := range area.Shelters {
		if err := r.SaveShelter(ctx, &area.Shelters[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetArea retrieves an area by ID with its hazard profile and shelters.
func (r *SQLRepository) GetArea(ctx context.Context, areaID int64) (*domain.AreaProfile, error) {
	query := `
		SELECT id, name, slug, population, population_density, livelihood, area_sqkm
		FROM areas
		WHERE id = ?
	`
	return r.scanArea(ctx, r.db.QueryRowContext(ctx, r.rebind(query), areaID))
}

// GetAreaBySlug retrieves an area by its URL slug.
func (r *SQLRepository) GetAreaBySlug(ctx context.Context, slug string) (*domain.AreaProfile, error) {
	query := `
		SELECT id, name, slug, population, population_density, livelihood, area_sqkm
		FROM areas
		WHERE slug = ?
	`
	return r.scanArea(ctx, r.db.QueryRowContext(ctx, r.rebind(query), slug))
}

func (r *SQLRepository) scanArea(ctx context.Context, row *sql.Row) (*domain.AreaProfile, error) {
	var area domain.AreaProfile
	var population sql.NullInt64
	var livelihood sql.NullString

	err := row.Scan(
		&area.ID, &area.Name, &area.Slug, &population,
		&area.PopulationDensity, &livelihood, &area.AreaSqKm,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if population.Valid {
		p := int(population.Int64)
		area.Population = &p
	}
	area.Livelihood = livelihood.String

	if err := r.attachHazard(ctx, &area); err != nil {
		return nil, err
	}
	if err := r.attachShelters(ctx, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// ListAreas retrieves every area with hazard profiles and shelters.
func (r *SQLRepository) ListAreas(ctx context.Context) ([]*domain.AreaProfile, error) {
	query := `
		SELECT id, name, slug, population, population_density, livelihood, area_sqkm
		FROM areas
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []*domain.AreaProfile
	for rows.Next() {
		var area domain.AreaProfile
		var population sql.NullInt64
		var livelihood sql.NullString

		if err := rows.Scan(
			&area.ID, &area.Name, &area.Slug, &population,
			&area.PopulationDensity, &livelihood, &area.AreaSqKm,
		); err != nil {
			return nil, err
		}

		if population.Valid {
			p := int(population.Int64)
			area.Population = &p
		}
		area.Livelihood = livelihood.String
		areas = append(areas, &area)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, area := range areas {
		if err := r.attachHazard(ctx, area); err != nil {
			return nil, err
		}
		if err := r.attachShelters(ctx, area); err != nil {
			return nil, err
		}
	}
	return areas, nil
}

func (r *SQLRepository) attachHazard(ctx context.Context, area *domain.AreaProfile) error {
	query := `
		SELECT area_id, mean_slope_deg, max_slope_deg, flood_level, landslide_level,
			   flood_risk_score, landslide_risk_score
		FROM hazard_profiles
		WHERE area_id = ?
	`

	var h domain.HazardProfile
	var floodScore, slideScore sql.NullFloat64

	err := r.db.QueryRowContext(ctx, r.rebind(query), area.ID).Scan(
		&h.AreaID, &h.MeanSlopeDeg, &h.MaxSlopeDeg,
		&h.FloodLevel, &h.LandslideLevel,
		&floodScore, &slideScore,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if floodScore.Valid {
		h.FloodRiskScore = &floodScore.Float64
	}
	if slideScore.Valid {
		h.LandslideRiskScore = &slideScore.Float64
	}
	area.Hazard = &h
	return nil
}

func (r *SQLRepository) attachShelters(ctx context.Context, area *domain.AreaProfile) error {
	query := `
		SELECT id, area_id, name, venue, latitude, longitude, contact_name
		FROM shelters
		WHERE area_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), area.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Shelter
		var venue, contact sql.NullString

		if err := rows.Scan(
			&s.ID, &s.AreaID, &s.Name, &venue,
			&s.Latitude, &s.Longitude, &contact,
		); err != nil {
			return err
		}
		s.Venue = venue.String
		s.ContactName = contact.String
		area.Shelters = append(area.Shelters, s)
	}
	return rows.Err()
}

// SaveHazardProfile upserts an area's hazard profile.
func (r *SQLRepository) SaveHazardProfile(ctx context.Context, profile *domain.HazardProfile) error {
	if profile == nil || profile.AreaID == 0 {
		return fmt.Errorf("%w: hazard profile with area id is required", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO hazard_profiles (
			area_id, mean_slope_deg, max_slope_deg, flood_level, landslide_level,
			flood_risk_score, landslide_risk_score
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(area_id) DO UPDATE SET
			mean_slope_deg = excluded.mean_slope_deg,
			max_slope_deg = excluded.max_slope_deg,
			flood_level = excluded.flood_level,
			landslide_level = excluded.landslide_level,
			flood_risk_score = excluded.flood_risk_score,
			landslide_risk_score = excluded.landslide_risk_score
	`

	var floodScore, slideScore sql.NullFloat64
	if profile.FloodRiskScore != nil {
		floodScore = sql.NullFloat64{Float64: *profile.FloodRiskScore, Valid: true}
	}
	if profile.LandslideRiskScore != nil {
		slideScore = sql.NullFloat64{Float64: *profile.LandslideRiskScore, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		profile.AreaID, profile.MeanSlopeDeg, profile.MaxSlopeDeg,
		profile.FloodLevel, profile.LandslideLevel,
		floodScore, slideScore,
	)
	return err
}

// SaveShelter upserts a shelter.
func (r *SQLRepository) SaveShelter(ctx context.Context, shelter *domain.Shelter) error {
	if shelter == nil || shelter.ID == 0 {
		return fmt.Errorf("%w: shelter with id is required", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO shelters (id, area_id, name, venue, latitude, longitude, contact_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			area_id = excluded.area_id,
			name = excluded.name,
			venue = excluded.venue,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			contact_name = excluded.contact_name
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		shelter.ID, shelter.AreaID, shelter.Name, shelter.Venue,
		shelter.Latitude, shelter.Longitude, shelter.ContactName,
	)
	return err
}

// SaveWeatherSnapshot stores one weather observation for an area.
func (r *SQLRepository) SaveWeatherSnapshot(ctx context.Context, snapshot *domain.WeatherAggregate) error {
	if snapshot == nil || snapshot.AreaID == 0 {
		return fmt.Errorf("%w: snapshot with area id is required", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO weather_snapshots (
			area_id, rainfall_mm, soil_moisture, wind_speed_ms, temperature_c, observed_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(area_id, observed_at) DO UPDATE SET
			rainfall_mm = excluded.rainfall_mm,
			soil_moisture = excluded.soil_moisture,
			wind_speed_ms = excluded.wind_speed_ms,
			temperature_c = excluded.temperature_c
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		snapshot.AreaID, snapshot.RainfallMm, snapshot.SoilMoisture,
		snapshot.WindSpeedMs, snapshot.TemperatureC, snapshot.ObservedAt,
	)
	return err
}

// LatestWeatherSnapshot retrieves the newest observation for an area.
func (r *SQLRepository) LatestWeatherSnapshot(ctx context.Context, areaID int64) (*domain.WeatherAggregate, error) {
	query := `
		SELECT area_id, rainfall_mm, soil_moisture, wind_speed_ms, temperature_c, observed_at
		FROM weather_snapshots
		WHERE area_id = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`

	var wx domain.WeatherAggregate
	err := r.db.QueryRowContext(ctx, r.rebind(query), areaID).Scan(
		&wx.AreaID, &wx.RainfallMm, &wx.SoilMoisture,
		&wx.WindSpeedMs, &wx.TemperatureC, &wx.ObservedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wx, nil
}

// SaveCustomRule upserts an operator-defined decision rule.
func (r *SQLRepository) SaveCustomRule(ctx context.Context, rule *domain.DecisionRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule with id is required", domain.ErrInvalidInput)
	}

	conditions, _ := json.Marshal(rule.Condition)
	responsible, _ := json.Marshal(rule.Responsible)
	resources, _ := json.Marshal(rule.Resources)

	now := time.Now().UTC()

	query := `
		INSERT INTO decision_rules (
			id, category, priority, conditions, expression, action,
			responsible, timeline, resources, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			priority = excluded.priority,
			conditions = excluded.conditions,
			expression = excluded.expression,
			action = excluded.action,
			responsible = excluded.responsible,
			timeline = excluded.timeline,
			resources = excluded.resources,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Category, rule.Priority,
		string(conditions), rule.Expression, rule.Action,
		string(responsible), rule.Timeline, string(resources),
		now, now,
	)
	return err
}

// ListCustomRules retrieves all operator-defined decision rules.
func (r *SQLRepository) ListCustomRules(ctx context.Context) ([]*domain.DecisionRule, error) {
	query := `
		SELECT id, category, priority, conditions, expression, action,
			   responsible, timeline, resources
		FROM decision_rules
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.DecisionRule
	for rows.Next() {
		var rule domain.DecisionRule
		var conditions, responsible, resources sql.NullString
		var expression, timeline sql.NullString

		if err := rows.Scan(
			&rule.ID, &rule.Category, &rule.Priority,
			&conditions, &expression, &rule.Action,
			&responsible, &timeline, &resources,
		); err != nil {
			return nil, err
		}

		rule.Expression = expression.String
		rule.Timeline = timeline.String
		if conditions.String != "" {
			if err := json.Unmarshal([]byte(conditions.String), &rule.Condition); err != nil {
				return nil, fmt.Errorf("failed to parse conditions for rule %s: %w", rule.ID, err)
			}
		}
		if responsible.String != "" {
			json.Unmarshal([]byte(responsible.String), &rule.Responsible)
		}
		if resources.String != "" {
			json.Unmarshal([]byte(resources.String), &rule.Resources)
		}
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

// DeleteCustomRule removes an operator-defined decision rule.
func (r *SQLRepository) DeleteCustomRule(ctx context.Context, ruleID string) error {
	query := `DELETE FROM decision_rules WHERE id = ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveReport archives a generated report snapshot.
func (r *SQLRepository) SaveReport(ctx context.Context, report *domain.Report) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("%w: report with id is required", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO dss_reports (id, kind, payload, generated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		report.ID, report.Kind, string(report.Payload), report.GeneratedAt,
	)
	return err
}

// ListReports retrieves archived reports of a kind since a time,
// newest first.
func (r *SQLRepository) ListReports(ctx context.Context, kind string, since time.Time) ([]*domain.Report, error) {
	query := `
		SELECT id, kind, payload, generated_at
		FROM dss_reports
		WHERE kind = ? AND generated_at >= ?
		ORDER BY generated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), kind, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		var report domain.Report
		var payload string

		if err := rows.Scan(&report.ID, &report.Kind, &payload, &report.GeneratedAt); err != nil {
			return nil, err
		}
		report.Payload = []byte(payload)
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
