package rules

import (
	"fmt"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// Issue is the externalized form of a match, carried into the scan result.
type Issue struct {
	RuleID       string        `json:"ruleId"`
	RuleName     string        `json:"ruleName"`
	ResourceID   string        `json:"resourceId"`
	ResourceType resource.Type `json:"resourceType"`
	Region       string        `json:"region"`
	Description  string        `json:"description"`
	RiskLevel    RiskLevel     `json:"riskLevel"`
	Action       Action        `json:"action"`
}

// Issue renders the match for the scan result.
func (m Match) Issue() Issue {
	region := ""
	if v, ok := m.Resource.Field("region"); ok {
		region, _ = v.(string)
	}
	return Issue{
		RuleID:       m.Rule.ID,
		RuleName:     m.Rule.Name,
		ResourceID:   m.Resource.ID(),
		ResourceType: m.Resource.Kind(),
		Region:       region,
		Description:  fmt.Sprintf("%s: %s", m.Rule.Name, m.Resource.ID()),
		RiskLevel:    m.Rule.RiskLevel,
		Action:       m.Rule.Action,
	}
}
