package domain

import "time"

// RulePriority orders decision rules by severity.
type RulePriority string

const (
	PriorityCritical RulePriority = "CRITICAL"
	PriorityHigh     RulePriority = "HIGH"
	PriorityMedium   RulePriority = "MEDIUM"
	PriorityLow      RulePriority = "LOW"
)

// PriorityRank returns the sort rank of a priority, most severe first.
// Unknown priorities sort last.
func PriorityRank(p RulePriority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// FieldPredicate constrains one named condition field. A predicate with a
// non-empty OneOf is a membership test over the field's label value; one
// with Min/Max set is an inclusive range test over the numeric value; Flag
// requires the boolean field to be set.
type FieldPredicate struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	OneOf []string `json:"oneOf,omitempty"`
	Flag  bool     `json:"flag,omitempty"`
}

// RuleCondition maps field names to predicates. All predicates must hold
// for the rule to trigger.
type RuleCondition map[string]FieldPredicate

// DecisionRule is one entry of the response rule table. The static table
// is fixed configuration; operator-authored rules loaded from the
// repository may additionally carry a CEL expression evaluated against
// the same named conditions.
type DecisionRule struct {
	ID          string        `json:"id"`
	Category    string        `json:"category"`
	Priority    RulePriority  `json:"priority"`
	Condition   RuleCondition `json:"condition"`
	Expression  string        `json:"expression,omitempty"`
	Action      string        `json:"action"`
	Responsible []string      `json:"responsible"`
	Timeline    string        `json:"timeline"`
	Resources   []string      `json:"resources"`
}

// TriggeredRule is a decision rule whose predicates all held, stamped
// with the evaluation time.
type TriggeredRule struct {
	DecisionRule
	TriggeredAt time.Time `json:"triggeredAt"`
}

// Conditions is the flat named-field view of an area's current situation
// that rules are evaluated against. Absent numeric fields read as zero;
// absent label fields fail membership predicates; absent flags read false.
type Conditions struct {
	AreaName string             `json:"areaName,omitempty"`
	Numbers  map[string]float64 `json:"numbers"`
	Labels   map[string]string  `json:"labels"`
	Flags    map[string]bool    `json:"flags,omitempty"`
}

// Well-known condition field names.
const (
	FieldRainfall       = "rainfall"
	FieldSoilMoisture   = "soilMoisture"
	FieldWindSpeed      = "windSpeed"
	FieldSlope          = "slope"
	FieldEvacuees       = "evacuees"
	FieldAlertLevel     = "alertLevel"
	FieldFloodLevel     = "floodLevel"
	FieldLandslideLevel = "landslideLevel"
	FieldPostEvent      = "postEvent"
)

// ConditionsFromAlert flattens an alert into rule-engine conditions.
func ConditionsFromAlert(a *Alert) Conditions {
	return Conditions{
		AreaName: a.AreaName,
		Numbers: map[string]float64{
			FieldRainfall:     a.WeatherSummary.Rainfall,
			FieldSoilMoisture: a.WeatherSummary.SoilMoisture,
			FieldWindSpeed:    a.WeatherSummary.WindSpeed,
		},
		Labels: map[string]string{
			FieldAlertLevel:     a.Level.Level,
			FieldFloodLevel:     a.Risks.Flood.Level.Level,
			FieldLandslideLevel: a.Risks.Landslide.Level.Level,
		},
	}
}

// DecisionMatrix is the full rule table plus grouped counts for display.
type DecisionMatrix struct {
	Categories []string       `json:"categories"`
	Priorities []RulePriority `json:"priorities"`
	Rules      []DecisionRule `json:"rules"`
	Summary    struct {
		Total      int                  `json:"total"`
		ByCategory map[string]int       `json:"byCategory"`
		ByPriority map[RulePriority]int `json:"byPriority"`
	} `json:"summary"`
}

// RecommendedActions buckets an area's triggered rules by urgency.
type RecommendedActions struct {
	AreaName        string          `json:"areaName,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	Conditions      Conditions      `json:"conditions"`
	TriggeredRules  []TriggeredRule `json:"triggeredRules"`
	ImmediateAction []TriggeredRule `json:"immediateActions"`
	PriorityActions []TriggeredRule `json:"priorityActions"`
	AdvisoryActions []TriggeredRule `json:"advisoryActions"`
}
