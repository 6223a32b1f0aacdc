package permissions

import (
	"encoding/json"
	"sort"
)

type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

type Statement struct {
	Sid      string   `json:"Sid"`
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource string   `json:"Resource"`
}

// GeneratePolicy creates the least-privilege IAM policy for the requested
// capabilities. An empty capability list yields the full scan policy.
func GeneratePolicy(capabilities []string) ([]byte, error) {
	desired := make(map[string]bool)

	for _, perm := range CorePermissions() {
		desired[perm] = true
	}

	if len(capabilities) == 0 {
		for _, perms := range Catalog {
			for _, p := range perms {
				desired[p] = true
			}
		}
	} else {
		for _, capability := range capabilities {
			if perms, ok := Catalog[capability]; ok {
				for _, p := range perms {
					desired[p] = true
				}
			}
		}
	}

	var actions []string
	for a := range desired {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	policy := PolicyDocument{
		Version: "2012-10-17",
		Statement: []Statement{
			{
				Sid:      "FinopsScanReadOnly",
				Effect:   "Allow",
				Action:   actions,
				Resource: "*",
			},
		},
	}

	return json.MarshalIndent(policy, "", "  ")
}
