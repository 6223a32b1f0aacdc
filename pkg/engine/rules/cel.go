package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// CELEvaluator compiles and runs expression-based rules. Expressions see
// the resource id, kind, region, tags, and a props map of the kind's
// normalized fields, e.g. "props.sizeGB > 100 && tags.env != 'prod'".
type CELEvaluator struct {
	env      *cel.Env
	programs map[string]cel.Program
}

func NewCELEvaluator() (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("id", decls.String),
			decls.NewVar("kind", decls.String),
			decls.NewVar("region", decls.String),
			decls.NewVar("tags", decls.NewMapType(decls.String, decls.String)),
			decls.NewVar("props", decls.NewMapType(decls.String, decls.Dyn)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL env: %w", err)
	}

	return &CELEvaluator{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile builds programs for every rule carrying an expression.
func (e *CELEvaluator) Compile(ruleSet []*Rule) error {
	for _, r := range ruleSet {
		if r.Expression == "" {
			continue
		}
		ast, issues := e.env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s: compile expression: %w", r.ID, issues.Err())
		}
		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s: build program: %w", r.ID, err)
		}
		e.programs[r.ID] = prg
	}
	return nil
}

// Match runs one rule's compiled program against a resource. A non-boolean
// result counts as no match.
func (e *CELEvaluator) Match(ruleID string, res resource.Resource) (bool, error) {
	prg, ok := e.programs[ruleID]
	if !ok {
		return false, fmt.Errorf("rule %s: expression not compiled", ruleID)
	}

	out, _, err := prg.Eval(celVars(res))
	if err != nil {
		return false, err
	}

	match, ok := out.Value().(bool)
	return ok && match, nil
}

// propFields lists the per-kind paths exposed under props.
var propFields = map[resource.Type][]string{
	resource.TypeInstance: {
		"instanceType", "state", "cpuUtilization.average",
	},
	resource.TypeVolume: {
		"sizeGB", "volumeType", "state", "attached", "attachedInstanceId", "encrypted",
	},
	resource.TypeSnapshot: {
		"sourceVolumeId", "volumeSizeGB", "state", "ageInDays", "encrypted", "description",
	},
}

func celVars(res resource.Resource) map[string]interface{} {
	tags := map[string]string{}
	if v, ok := res.Field("tags"); ok {
		if m, isMap := v.(map[string]string); isMap {
			tags = m
		}
	}

	region := ""
	if v, ok := res.Field("region"); ok {
		region, _ = v.(string)
	}

	props := map[string]interface{}{}
	for _, path := range propFields[res.Kind()] {
		if v, ok := res.Field(path); ok {
			props[path] = v
		}
	}

	return map[string]interface{}{
		"id":     res.ID(),
		"kind":   string(res.Kind()),
		"region": region,
		"tags":   tags,
		"props":  props,
	}
}
