package domain

import "errors"

// Sentinel errors shared across packages.
var (
	// ErrNotFound indicates a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates a malformed argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingWeather indicates no usable weather data exists for an
	// area. The engines skip such areas; they never fabricate defaults.
	ErrMissingWeather = errors.New("weather data not available")

	// ErrInvalidWeights indicates a caller-supplied weight set does not
	// sum to 1.0 within tolerance.
	ErrInvalidWeights = errors.New("criterion weights must sum to 1.0")

	// ErrBadRuleConfig indicates the decision rule table failed
	// load-time validation. Fatal at startup.
	ErrBadRuleConfig = errors.New("invalid decision rule configuration")
)
