package rules

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// Operator is a comparison applied to one resource field.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpContains    Operator = "contains"
	OpExists      Operator = "exists"
)

// RiskLevel grades how disruptive acting on a match would be.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Action is the remediation a matched rule recommends.
type Action string

const (
	ActionStop   Action = "stop"
	ActionDelete Action = "delete"
	ActionResize Action = "resize"
	ActionReview Action = "review"
)

// Condition is one field/operator/value triple. A rule's conditions are
// conjunctive: all must hold for the rule to match.
type Condition struct {
	Field    string      `yaml:"field" json:"field"`
	Operator Operator    `yaml:"operator" json:"operator"`
	Value    interface{} `yaml:"value" json:"value"`
}

// Rule is one waste-detection check scoped to a resource type. A rule may
// carry plain conditions, a CEL expression, or both; both must match when
// both are present.
type Rule struct {
	ID           string        `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	Description  string        `yaml:"description" json:"description"`
	ResourceType resource.Type `yaml:"resourceType" json:"resourceType"`
	Conditions   []Condition   `yaml:"conditions" json:"conditions"`
	Expression   string        `yaml:"expression,omitempty" json:"expression,omitempty"`
	RiskLevel    RiskLevel     `yaml:"riskLevel" json:"riskLevel"`
	Action       Action        `yaml:"action" json:"action"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
}

// Match pairs a triggered rule with the resource that triggered it.
type Match struct {
	Rule     *Rule
	Resource resource.Resource
}

// Engine evaluates an ordered rule set against collected resources.
// Evaluation is pure: the same rules and resources always yield the same
// matches in the same order.
type Engine struct {
	rules  []*Rule
	cel    *CELEvaluator
	logger *slog.Logger
}

// NewEngine builds an engine over the given rules. Rules carrying CEL
// expressions are compiled up front; a compilation failure rejects the
// whole set so a bad custom rule surfaces before any scan runs.
func NewEngine(ruleSet []*Rule, logger *slog.Logger) (*Engine, error) {
	e := &Engine{rules: ruleSet, logger: logger}

	var exprRules []*Rule
	for _, r := range ruleSet {
		if r.Expression != "" {
			exprRules = append(exprRules, r)
		}
	}
	if len(exprRules) > 0 {
		cel, err := NewCELEvaluator()
		if err != nil {
			return nil, err
		}
		if err := cel.Compile(exprRules); err != nil {
			return nil, err
		}
		e.cel = cel
	}

	return e, nil
}

// Rules returns the engine's rule set in evaluation order.
func (e *Engine) Rules() []*Rule { return e.rules }

// Evaluate runs every enabled rule against every type-compatible resource.
// Output order follows rule order, then input resource order, so repeated
// evaluations of the same inputs are byte-for-byte identical.
func (e *Engine) Evaluate(resources []resource.Resource) []Match {
	var matches []Match
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		for _, res := range resources {
			if r.ResourceType != resource.TypeAny && r.ResourceType != res.Kind() {
				continue
			}
			if e.ruleMatches(r, res) {
				matches = append(matches, Match{Rule: r, Resource: res})
			}
		}
	}
	return matches
}

func (e *Engine) ruleMatches(r *Rule, res resource.Resource) bool {
	for _, cond := range r.Conditions {
		if !evalCondition(cond, res) {
			return false
		}
	}
	if r.Expression != "" {
		if e.cel == nil {
			return false
		}
		ok, err := e.cel.Match(r.ID, res)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("expression evaluation failed", "rule", r.ID, "resource", res.ID(), "error", err)
			}
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// evalCondition applies one condition to one resource. A missing field
// fails every operator except exists, which it answers directly.
func evalCondition(cond Condition, res resource.Resource) bool {
	val, ok := res.Field(cond.Field)
	if cond.Operator == OpExists {
		want := true
		if b, isBool := cond.Value.(bool); isBool {
			want = b
		}
		return ok == want
	}
	if !ok {
		return false
	}

	switch cond.Operator {
	case OpEquals:
		return compareEqual(val, cond.Value)
	case OpNotEquals:
		return !compareEqual(val, cond.Value)
	case OpGreaterThan:
		a, aok := toFloat(val)
		b, bok := toFloat(cond.Value)
		return aok && bok && a > b
	case OpLessThan:
		a, aok := toFloat(val)
		b, bok := toFloat(cond.Value)
		return aok && bok && a < b
	case OpContains:
		return strings.Contains(toString(val), toString(cond.Value))
	default:
		return false
	}
}

// compareEqual prefers numeric comparison when both sides coerce, so that
// YAML-sourced ints match float fields. Otherwise it falls back to string
// equality.
func compareEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return toString(a) == toString(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
