package rules

import "github.com/aqkprogrammer/finops-saas/pkg/resource"

// DefaultRules returns the built-in detection set. Order here is evaluation
// order and is part of the output contract.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			ID:           "idle_ec2",
			Name:         "Idle EC2 Instance",
			Description:  "Running instance averaging under 5% CPU over the trailing week",
			ResourceType: resource.TypeInstance,
			Conditions: []Condition{
				{Field: "state", Operator: OpEquals, Value: "running"},
				{Field: "cpuUtilization.average", Operator: OpLessThan, Value: 5.0},
			},
			RiskLevel: RiskMedium,
			Action:    ActionStop,
			Enabled:   true,
		},
		{
			ID:           "unattached_ebs",
			Name:         "Unattached EBS Volume",
			Description:  "Volume in available state with no instance attachment",
			ResourceType: resource.TypeVolume,
			Conditions: []Condition{
				{Field: "state", Operator: OpEquals, Value: "available"},
				{Field: "attached", Operator: OpEquals, Value: false},
			},
			RiskLevel: RiskHigh,
			Action:    ActionDelete,
			Enabled:   true,
		},
		{
			ID:           "old_snapshot",
			Name:         "Aged EBS Snapshot",
			Description:  "Completed snapshot older than 30 days",
			ResourceType: resource.TypeSnapshot,
			Conditions: []Condition{
				{Field: "state", Operator: OpEquals, Value: "completed"},
				{Field: "ageInDays", Operator: OpGreaterThan, Value: 30},
			},
			RiskLevel: RiskLow,
			Action:    ActionDelete,
			Enabled:   true,
		},
	}
}
