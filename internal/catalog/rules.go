package catalog

import (
	"fmt"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// RuleCategories lists the response rule categories in display order.
var RuleCategories = []string{
	"FLOOD", "LANDSLIDE", "WIND", "COMPOUND", "EVACUATION",
	"COMMUNICATION", "MEDICAL", "INFRASTRUCTURE", "RECOVERY",
}

func minOf(v float64) domain.FieldPredicate {
	return domain.FieldPredicate{Min: &v}
}

func between(lo, hi float64) domain.FieldPredicate {
	return domain.FieldPredicate{Min: &lo, Max: &hi}
}

func oneOf(labels ...string) domain.FieldPredicate {
	return domain.FieldPredicate{OneOf: labels}
}

// DefaultRules returns the built-in response rule table. The slice is
// freshly allocated on each call so callers may append operator rules.
func DefaultRules() []domain.DecisionRule {
	return []domain.DecisionRule{
		{
			ID:       "DR-001",
			Category: "FLOOD",
			Priority: domain.PriorityCritical,
			Condition: domain.RuleCondition{
				domain.FieldRainfall:   minOf(RainfallExtremeMm),
				domain.FieldFloodLevel: oneOf("High"),
			},
			Action:      "Mandatory evacuation of all residents in flood zones",
			Responsible: []string{"Barangay Captain", "MDRRMO"},
			Timeline:    "Immediate (within 2 hours)",
			Resources:   []string{"Evacuation vehicles", "Rescue boats", "Emergency personnel"},
		},
		{
			ID:       "DR-002",
			Category: "FLOOD",
			Priority: domain.PriorityHigh,
			Condition: domain.RuleCondition{
				domain.FieldRainfall:   between(RainfallHighMm, 149),
				domain.FieldFloodLevel: oneOf("High", "Moderate"),
			},
			Action:      "Pre-emptive evacuation of vulnerable populations",
			Responsible: []string{"Barangay Officials", "Health Workers"},
			Timeline:    "Within 4 hours",
			Resources:   []string{"Evacuation centers", "Medical supplies", "Food packs"},
		},
		{
			ID:       "DR-003",
			Category: "FLOOD",
			Priority: domain.PriorityMedium,
			Condition: domain.RuleCondition{
				domain.FieldRainfall: between(RainfallModerateMm, 99),
			},
			Action:      "Activate flood monitoring team and prepare evacuation centers",
			Responsible: []string{"Barangay Disaster Team"},
			Timeline:    "Within 6 hours",
			Resources:   []string{"Communication equipment", "Supplies inventory"},
		},
		{
			ID:       "DR-004",
			Category: "LANDSLIDE",
			Priority: domain.PriorityCritical,
			Condition: domain.RuleCondition{
				domain.FieldSoilMoisture:   minOf(0.85),
				domain.FieldSlope:          minOf(30),
				domain.FieldLandslideLevel: oneOf("High"),
			},
			Action:      "Immediate evacuation of residents near slopes and road closures",
			Responsible: []string{"Barangay Captain", "PNP", "DPWH"},
			Timeline:    "Immediate (within 1 hour)",
			Resources:   []string{"Barriers", "Warning signs", "Evacuation vehicles"},
		},
		{
			ID:       "DR-005",
			Category: "LANDSLIDE",
			Priority: domain.PriorityHigh,
			Condition: domain.RuleCondition{
				domain.FieldSoilMoisture: minOf(SoilSaturatedFrac),
				domain.FieldSlope:        minOf(30),
			},
			Action:      "Landslide watch - inspect vulnerable areas and restrict access",
			Responsible: []string{"Engineering Office", "Barangay Officials"},
			Timeline:    "Within 3 hours",
			Resources:   []string{"Inspection team", "Safety equipment", "Signage"},
		},
		{
			ID:       "DR-006",
			Category: "LANDSLIDE",
			Priority: domain.PriorityMedium,
			Condition: domain.RuleCondition{
				domain.FieldSoilMoisture: minOf(SoilMoistFrac),
				domain.FieldSlope:        minOf(25),
			},
			Action:      "Monitor soil conditions and issue advisory to hillside residents",
			Responsible: []string{"Barangay Officials"},
			Timeline:    "Within 6 hours",
			Resources:   []string{"Monitoring equipment", "Communication tools"},
		},
		{
			ID:       "DR-007",
			Category: "WIND",
			Priority: domain.PriorityCritical,
			Condition: domain.RuleCondition{
				domain.FieldWindSpeed: minOf(WindRedMs),
			},
			Action:      "Evacuate light structures and suspend all outdoor activities",
			Responsible: []string{"Barangay Captain", "MDRRMO"},
			Timeline:    "Immediate",
			Resources:   []string{"Evacuation centers", "Emergency personnel"},
		},
		{
			ID:       "DR-008",
			Category: "WIND",
			Priority: domain.PriorityHigh,
			Condition: domain.RuleCondition{
				domain.FieldWindSpeed: between(WindOrangeMs, 34),
			},
			Action:      "Secure loose objects and issue strong wind warning",
			Responsible: []string{"Barangay Officials", "Residents"},
			Timeline:    "Within 2 hours",
			Resources:   []string{"Public address system", "SMS alerts"},
		},
		{
			ID:       "DR-009",
			Category: "COMPOUND",
			Priority: domain.PriorityCritical,
			Condition: domain.RuleCondition{
				domain.FieldRainfall:   minOf(RainfallHighMm),
				domain.FieldWindSpeed:  minOf(WindOrangeMs),
				domain.FieldFloodLevel: oneOf("High"),
			},
			Action:      "Activate full emergency response - multiple hazard scenario",
			Responsible: []string{"Municipal Disaster Risk Reduction Office", "All Barangay Officials"},
			Timeline:    "Immediate",
			Resources:   []string{"All available emergency resources", "Coordinate with provincial DRRM"},
		},
		{
			ID:       "DR-010",
			Category: "EVACUATION",
			Priority: domain.PriorityHigh,
			Condition: domain.RuleCondition{
				domain.FieldAlertLevel: oneOf("RED", "ORANGE"),
			},
			Action:      "Activate evacuation centers and prepare relief supplies",
			Responsible: []string{"MSWDO", "Barangay Officials", "DSWD"},
			Timeline:    "Within 2 hours",
			Resources:   []string{"Food packs", "Water", "Hygiene kits", "Bedding", "Medical supplies"},
		},
		{
			ID:       "DR-011",
			Category: "EVACUATION",
			Priority: domain.PriorityMedium,
			Condition: domain.RuleCondition{
				domain.FieldEvacuees: minOf(100),
			},
			Action:      "Request additional supplies and support from municipal level",
			Responsible: []string{"Barangay Captain", "MSWDO"},
			Timeline:    "Within 4 hours",
			Resources:   []string{"Additional relief goods", "Medical team", "Security personnel"},
		},
		{
			ID:       "DR-012",
			Category: "COMMUNICATION",
			Priority: domain.PriorityHigh,
			Condition: domain.RuleCondition{
				domain.FieldAlertLevel: oneOf("RED", "ORANGE", "YELLOW"),
			},
			Action:      "Disseminate alerts through all available channels",
			Responsible: []string{"Public Information Office", "Barangay Officials"},
			Timeline:    "Immediate",
			Resources:   []string{"SMS system", "Social media", "Radio", "Barangay PA system"},
		},
		{
			ID:       "DR-013",
			Category: "MEDICAL",
			Priority: domain.PriorityHigh,
			Condition: domain.RuleCondition{
				domain.FieldEvacuees: minOf(50),
			},
			Action:      "Deploy medical team to evacuation centers",
			Responsible: []string{"Rural Health Unit", "Barangay Health Workers"},
			Timeline:    "Within 3 hours",
			Resources:   []string{"Medical supplies", "Health personnel", "First aid kits"},
		},
		{
			ID:       "DR-014",
			Category: "INFRASTRUCTURE",
			Priority: domain.PriorityHigh,
			Condition: domain.RuleCondition{
				domain.FieldRainfall: minOf(RainfallExtremeMm),
			},
			Action:      "Inspect critical infrastructure (bridges, roads, drainage)",
			Responsible: []string{"Engineering Office", "DPWH"},
			Timeline:    "After weather subsides",
			Resources:   []string{"Engineering team", "Assessment tools", "Safety equipment"},
		},
		{
			ID:       "DR-015",
			Category: "RECOVERY",
			Priority: domain.PriorityMedium,
			Condition: domain.RuleCondition{
				domain.FieldAlertLevel: oneOf("GREEN"),
				domain.FieldPostEvent:  {Flag: true},
			},
			Action:      "Conduct damage assessment and needs analysis",
			Responsible: []string{"MDRRMO", "Barangay Officials", "MSWD"},
			Timeline:    "Within 24 hours after event",
			Resources:   []string{"Assessment forms", "Documentation equipment", "Survey team"},
		},
	}
}

// ValidateRule checks that a rule is well formed: it must have an ID,
// an action, and at least one predicate or a CEL expression. Range
// predicates must not be inverted.
func ValidateRule(rule *domain.DecisionRule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: missing rule id", domain.ErrBadRuleConfig)
	}
	if rule.Action == "" {
		return fmt.Errorf("%w: rule %s has no action", domain.ErrBadRuleConfig, rule.ID)
	}
	if len(rule.Condition) == 0 && rule.Expression == "" {
		return fmt.Errorf("%w: rule %s has no conditions", domain.ErrBadRuleConfig, rule.ID)
	}
	for field, pred := range rule.Condition {
		if pred.Min == nil && pred.Max == nil && len(pred.OneOf) == 0 && !pred.Flag {
			return fmt.Errorf("%w: rule %s has an empty predicate for %q", domain.ErrBadRuleConfig, rule.ID, field)
		}
		if pred.Min != nil && pred.Max != nil && *pred.Min > *pred.Max {
			return fmt.Errorf("%w: rule %s has an inverted range for %q", domain.ErrBadRuleConfig, rule.ID, field)
		}
	}
	return nil
}
