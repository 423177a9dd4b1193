// Package rules evaluates the disaster response rule table against an
// area's current conditions. The built-in table uses structured
// predicates; operator-authored rules from the repository may carry a
// CEL expression compiled at load time.
package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/catalog"
	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// Engine evaluates decision rules against named conditions.
type Engine struct {
	mu      sync.RWMutex
	env     *cel.Env
	builtin []domain.DecisionRule
	custom  []*compiledRule
	clock   clockwork.Clock
}

// compiledRule pairs an operator rule with its pre-compiled CEL
// program. Program is nil when the rule has no expression.
type compiledRule struct {
	rule    domain.DecisionRule
	program cel.Program
}

// NewEngine creates an engine preloaded with the built-in rule table.
// A nil clock falls back to the real clock.
func NewEngine(clock clockwork.Clock) (*Engine, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	env, err := cel.NewEnv(
		cel.Variable("rainfall", cel.DoubleType),
		cel.Variable("soilMoisture", cel.DoubleType),
		cel.Variable("windSpeed", cel.DoubleType),
		cel.Variable("slope", cel.DoubleType),
		cel.Variable("evacuees", cel.DoubleType),
		cel.Variable("alertLevel", cel.StringType),
		cel.Variable("floodLevel", cel.StringType),
		cel.Variable("landslideLevel", cel.StringType),
		cel.Variable("postEvent", cel.BoolType),
		cel.Variable("areaName", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	builtin := catalog.DefaultRules()
	for i := range builtin {
		if err := catalog.ValidateRule(&builtin[i]); err != nil {
			return nil, err
		}
	}

	return &Engine{
		env:     env,
		builtin: builtin,
		clock:   clock,
	}, nil
}

// ValidateRule checks a rule and compiles its expression without
// mutating the loaded rule set.
func (e *Engine) ValidateRule(rule *domain.DecisionRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is required", domain.ErrInvalidInput)
	}
	if err := catalog.ValidateRule(rule); err != nil {
		return err
	}
	if rule.Expression != "" {
		if _, err := e.compileExpression(rule); err != nil {
			return err
		}
	}
	return nil
}

// LoadCustomRules replaces the operator rule set. Used at startup and
// for hot-reloading after a rule is saved or deleted.
func (e *Engine) LoadCustomRules(rules []*domain.DecisionRule) error {
	compiled := make([]*compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if err := catalog.ValidateRule(rule); err != nil {
			return err
		}
		cr := &compiledRule{rule: *rule}
		if rule.Expression != "" {
			program, err := e.compileExpression(rule)
			if err != nil {
				return err
			}
			cr.program = program
		}
		compiled = append(compiled, cr)
	}

	e.mu.Lock()
	e.custom = compiled
	e.mu.Unlock()
	return nil
}

// AllRules returns the built-in table followed by operator rules.
func (e *Engine) AllRules() []domain.DecisionRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.DecisionRule, 0, len(e.builtin)+len(e.custom))
	out = append(out, e.builtin...)
	for _, cr := range e.custom {
		out = append(out, cr.rule)
	}
	return out
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.builtin) + len(e.custom)
}

// Triggered evaluates every rule against the conditions and returns the
// ones that fire, most severe priority first. Ties keep table order.
func (e *Engine) Triggered(cond domain.Conditions) []domain.TriggeredRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.clock.Now()
	triggered := make([]domain.TriggeredRule, 0)

	for i := range e.builtin {
		if conditionHolds(e.builtin[i].Condition, cond) {
			triggered = append(triggered, domain.TriggeredRule{DecisionRule: e.builtin[i], TriggeredAt: now})
		}
	}
	for _, cr := range e.custom {
		if !conditionHolds(cr.rule.Condition, cond) {
			continue
		}
		if cr.program != nil && !e.expressionHolds(cr.program, cond) {
			continue
		}
		triggered = append(triggered, domain.TriggeredRule{DecisionRule: cr.rule, TriggeredAt: now})
	}

	sort.SliceStable(triggered, func(i, j int) bool {
		return domain.PriorityRank(triggered[i].Priority) < domain.PriorityRank(triggered[j].Priority)
	})
	return triggered
}

// RecommendedActions evaluates the rules for one area and buckets the
// triggered set by urgency.
func (e *Engine) RecommendedActions(cond domain.Conditions) domain.RecommendedActions {
	triggered := e.Triggered(cond)

	actions := domain.RecommendedActions{
		AreaName:        cond.AreaName,
		Timestamp:       e.clock.Now(),
		Conditions:      cond,
		TriggeredRules:  triggered,
		ImmediateAction: []domain.TriggeredRule{},
		PriorityActions: []domain.TriggeredRule{},
		AdvisoryActions: []domain.TriggeredRule{},
	}
	for _, tr := range triggered {
		switch tr.Priority {
		case domain.PriorityCritical:
			actions.ImmediateAction = append(actions.ImmediateAction, tr)
		case domain.PriorityHigh:
			actions.PriorityActions = append(actions.PriorityActions, tr)
		default:
			actions.AdvisoryActions = append(actions.AdvisoryActions, tr)
		}
	}
	return actions
}

// Matrix returns the full rule table with grouped counts for display.
func (e *Engine) Matrix() domain.DecisionMatrix {
	rules := e.AllRules()

	matrix := domain.DecisionMatrix{
		Categories: append([]string(nil), catalog.RuleCategories...),
		Priorities: []domain.RulePriority{
			domain.PriorityCritical, domain.PriorityHigh,
			domain.PriorityMedium, domain.PriorityLow,
		},
		Rules: rules,
	}
	matrix.Summary.Total = len(rules)
	matrix.Summary.ByCategory = make(map[string]int, len(matrix.Categories))
	matrix.Summary.ByPriority = make(map[domain.RulePriority]int, len(matrix.Priorities))
	for _, cat := range matrix.Categories {
		matrix.Summary.ByCategory[cat] = 0
	}
	for _, pri := range matrix.Priorities {
		matrix.Summary.ByPriority[pri] = 0
	}
	for _, rule := range rules {
		matrix.Summary.ByCategory[rule.Category]++
		matrix.Summary.ByPriority[rule.Priority]++
	}
	return matrix
}

// conditionHolds reports whether every predicate in the rule condition
// matches. Absent numeric fields read as zero; absent labels fail
// membership tests; absent flags read false.
func conditionHolds(rc domain.RuleCondition, cond domain.Conditions) bool {
	for field, pred := range rc {
		if len(pred.OneOf) > 0 {
			label := cond.Labels[field]
			if label == "" || !contains(pred.OneOf, label) {
				return false
			}
			continue
		}
		if pred.Flag {
			if !cond.Flags[field] {
				return false
			}
			continue
		}
		value := cond.Numbers[field]
		if pred.Min != nil && value < *pred.Min {
			return false
		}
		if pred.Max != nil && value > *pred.Max {
			return false
		}
	}
	return true
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// expressionHolds evaluates a compiled CEL program against the
// conditions. Evaluation errors count as not triggered.
func (e *Engine) expressionHolds(program cel.Program, cond domain.Conditions) bool {
	out, _, err := program.Eval(activation(cond))
	if err != nil {
		return false
	}
	b, ok := out.(types.Bool)
	return ok && bool(b)
}

func activation(cond domain.Conditions) map[string]any {
	act := map[string]any{
		"rainfall":       0.0,
		"soilMoisture":   0.0,
		"windSpeed":      0.0,
		"slope":          0.0,
		"evacuees":       0.0,
		"alertLevel":     "",
		"floodLevel":     "",
		"landslideLevel": "",
		"postEvent":      false,
		"areaName":       cond.AreaName,
	}
	for k, v := range cond.Numbers {
		act[k] = v
	}
	for k, v := range cond.Labels {
		act[k] = v
	}
	for k, v := range cond.Flags {
		act[k] = v
	}
	return act
}

func (e *Engine) compileExpression(rule *domain.DecisionRule) (cel.Program, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: rule %s does not compile: %v", domain.ErrBadRuleConfig, rule.ID, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("%w: rule %s expression must return bool, got %s", domain.ErrBadRuleConfig, rule.ID, ast.OutputType())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}
	return program, nil
}
