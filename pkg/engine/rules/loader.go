package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a custom rule set.
type ruleFile struct {
	Rules []*Rule `yaml:"rules"`
}

// LoadFile reads custom rules from a YAML file and appends them after the
// built-in set. Custom rules may override a built-in by reusing its ID; the
// later definition wins.
func LoadFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	for i, r := range file.Rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rules file %s, rule %d: %w", path, i, err)
		}
	}

	return file.Rules, nil
}

// Merge layers custom rules over the base set. A custom rule whose ID
// matches a base rule replaces it in place, keeping the base evaluation
// order; new IDs append in file order.
func Merge(base, custom []*Rule) []*Rule {
	merged := make([]*Rule, len(base))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.ID] = i
	}

	for _, r := range custom {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			continue
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}

	return merged
}

func validateRule(r *Rule) error {
	if r == nil {
		return fmt.Errorf("rule is empty")
	}
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if r.ResourceType == "" {
		return fmt.Errorf("rule %s: resourceType is required", r.ID)
	}
	if len(r.Conditions) == 0 && r.Expression == "" {
		return fmt.Errorf("rule %s: at least one condition or an expression is required", r.ID)
	}
	for _, c := range r.Conditions {
		switch c.Operator {
		case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains, OpExists:
		default:
			return fmt.Errorf("rule %s: unknown operator %q", r.ID, c.Operator)
		}
		if c.Field == "" {
			return fmt.Errorf("rule %s: condition field is required", r.ID)
		}
	}
	return nil
}
