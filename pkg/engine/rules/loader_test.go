package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeRules(t, `
rules:
  - id: big_volume
    name: Oversized Volume
    resourceType: ebs_volume
    conditions:
      - field: sizeGB
        operator: greaterThan
        value: 500
    riskLevel: medium
    action: review
    enabled: true
`)

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(loaded))
	}

	r := loaded[0]
	if r.ID != "big_volume" || r.ResourceType != "ebs_volume" {
		t.Errorf("rule = %+v", r)
	}
	if r.Conditions[0].Operator != OpGreaterThan {
		t.Errorf("operator = %s", r.Conditions[0].Operator)
	}
	if v, ok := r.Conditions[0].Value.(int); !ok || v != 500 {
		t.Errorf("value = %v (%T)", r.Conditions[0].Value, r.Conditions[0].Value)
	}
}

func TestLoadFileRejectsUnknownOperator(t *testing.T) {
	path := writeRules(t, `
rules:
  - id: broken
    resourceType: ebs_volume
    conditions:
      - field: state
        operator: like
        value: avail
`)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error for an unknown operator")
	}
}

func TestLoadFileRejectsEmptyRule(t *testing.T) {
	path := writeRules(t, `
rules:
  - id: empty
    resourceType: ebs_volume
`)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error for a rule with no conditions or expression")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/rules.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestMergeOverridesByID(t *testing.T) {
	base := DefaultRules()
	custom := []*Rule{
		{
			ID:           "old_snapshot",
			Name:         "Aged EBS Snapshot (strict)",
			ResourceType: "ebs_snapshot",
			Conditions: []Condition{
				{Field: "ageInDays", Operator: OpGreaterThan, Value: 7},
			},
			RiskLevel: RiskMedium,
			Action:    ActionDelete,
			Enabled:   true,
		},
		{
			ID:           "custom_extra",
			Name:         "Extra",
			ResourceType: "ebs_volume",
			Conditions: []Condition{
				{Field: "encrypted", Operator: OpEquals, Value: false},
			},
			RiskLevel: RiskLow,
			Action:    ActionReview,
			Enabled:   true,
		},
	}

	merged := Merge(base, custom)
	if len(merged) != len(base)+1 {
		t.Fatalf("merged length = %d, want %d", len(merged), len(base)+1)
	}

	// Override keeps the base rule's evaluation slot.
	for i, r := range base {
		if r.ID == "old_snapshot" {
			if merged[i].Name != "Aged EBS Snapshot (strict)" {
				t.Errorf("override did not replace in place: %s", merged[i].Name)
			}
		}
	}
	if merged[len(merged)-1].ID != "custom_extra" {
		t.Errorf("new rule should append, got %s", merged[len(merged)-1].ID)
	}
}
