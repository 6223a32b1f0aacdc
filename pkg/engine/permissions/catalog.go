package permissions

// Catalog maps each scan capability to the read-only IAM actions it
// exercises. This is the full surface a scan role needs; nothing here
// mutates account state.
var Catalog = map[string][]string{
	"EC2": {
		"ec2:DescribeInstances",
		"ec2:DescribeVolumes",
		"ec2:DescribeSnapshots",
	},
	"CloudWatch": {
		"cloudwatch:GetMetricStatistics",
	},
	"CostExplorer": {
		"ce:GetCostAndUsage",
	},
}

// CorePermissions returns the actions needed before any collector runs:
// assuming the scan role and confirming the resulting identity.
func CorePermissions() []string {
	return []string{
		"sts:AssumeRole",
		"sts:GetCallerIdentity",
	}
}

// AllActions flattens the catalog plus core permissions into one sorted-by-
// capability list, suitable for rendering a policy document.
func AllActions() []string {
	actions := CorePermissions()
	for _, capability := range []string{"EC2", "CloudWatch", "CostExplorer"} {
		actions = append(actions, Catalog[capability]...)
	}
	return actions
}
