package repository

// Schema definitions for the service database.
// Compatible with both SQLite and PostgreSQL.

const schemaAreas = `
CREATE TABLE IF NOT EXISTS areas (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL,
    population BIGINT,
    population_density REAL NOT NULL DEFAULT 0,
    livelihood TEXT,
    area_sqkm REAL NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_areas_slug ON areas(slug);
`

const schemaHazardProfiles = `
CREATE TABLE IF NOT EXISTS hazard_profiles (
    area_id BIGINT PRIMARY KEY,
    mean_slope_deg REAL NOT NULL DEFAULT 0,
    max_slope_deg REAL NOT NULL DEFAULT 0,
    flood_level TEXT NOT NULL DEFAULT 'Low',
    landslide_level TEXT NOT NULL DEFAULT 'Low',
    flood_risk_score REAL,
    landslide_risk_score REAL
);
`

const schemaShelters = `
CREATE TABLE IF NOT EXISTS shelters (
    id BIGINT PRIMARY KEY,
    area_id BIGINT NOT NULL,
    name TEXT NOT NULL,
    venue TEXT,
    latitude REAL NOT NULL DEFAULT 0,
    longitude REAL NOT NULL DEFAULT 0,
    contact_name TEXT
);

CREATE INDEX IF NOT EXISTS idx_shelters_area ON shelters(area_id);
`

const schemaWeatherSnapshots = `
CREATE TABLE IF NOT EXISTS weather_snapshots (
    area_id BIGINT NOT NULL,
    rainfall_mm REAL NOT NULL DEFAULT 0,
    soil_moisture REAL NOT NULL DEFAULT 0,
    wind_speed_ms REAL NOT NULL DEFAULT 0,
    temperature_c REAL NOT NULL DEFAULT 0,
    observed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (area_id, observed_at)
);

CREATE INDEX IF NOT EXISTS idx_weather_area_time ON weather_snapshots(area_id, observed_at);
`

const schemaDecisionRules = `
CREATE TABLE IF NOT EXISTS decision_rules (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    priority TEXT NOT NULL,
    conditions TEXT,
    expression TEXT,
    action TEXT NOT NULL,
    responsible TEXT,
    timeline TEXT,
    resources TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_rules_category ON decision_rules(category);
`

const schemaReports = `
CREATE TABLE IF NOT EXISTS dss_reports (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    payload TEXT NOT NULL,
    generated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_kind_time ON dss_reports(kind, generated_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaAreas,
		schemaHazardProfiles,
		schemaShelters,
		schemaWeatherSnapshots,
		schemaDecisionRules,
		schemaReports,
	}
}
