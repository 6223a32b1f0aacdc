package resource

import (
	"testing"
	"time"
)

func TestInstanceFieldPaths(t *testing.T) {
	inst := &Instance{
		Common: Common{
			Region:    "us-east-1",
			AccountID: "123456789012",
			Tags:      map[string]string{"Environment": "prod"},
		},
		InstanceID:   "i-abc",
		InstanceType: "t3.medium",
		State:        "running",
		CPU:          &CPUUtilization{Average: 3.2, Window: "7d"},
	}

	tests := []struct {
		path   string
		want   interface{}
		wantOK bool
	}{
		{"instanceId", "i-abc", true},
		{"instanceType", "t3.medium", true},
		{"state", "running", true},
		{"cpuUtilization.average", 3.2, true},
		{"region", "us-east-1", true},
		{"tags.Environment", "prod", true},
		{"tags.Missing", nil, false},
		{"volumeId", nil, false},
		{"nonsense", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := inst.Field(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Field(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Field(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestInstanceFieldWithoutCPU(t *testing.T) {
	inst := &Instance{InstanceID: "i-abc", State: "stopped"}
	if _, ok := inst.Field("cpuUtilization.average"); ok {
		t.Error("cpuUtilization.average should be absent without enrichment")
	}
}

func TestVolumeFieldPaths(t *testing.T) {
	vol := &Volume{
		VolumeID: "vol-1",
		SizeGB:   200,
		State:    "available",
	}

	if v, ok := vol.Field("sizeGB"); !ok || v != int32(200) {
		t.Errorf("sizeGB = %v (%v), want 200", v, ok)
	}
	if v, ok := vol.Field("attached"); !ok || v != false {
		t.Errorf("attached = %v (%v), want false", v, ok)
	}
	if _, ok := vol.Field("attachedInstanceId"); ok {
		t.Error("attachedInstanceId should be absent on a detached volume")
	}
}

func TestSnapshotFieldPaths(t *testing.T) {
	snap := &Snapshot{
		SnapshotID: "snap-1",
		AgeDays:    90,
		State:      "completed",
	}

	if v, ok := snap.Field("ageInDays"); !ok || v != 90 {
		t.Errorf("ageInDays = %v (%v), want 90", v, ok)
	}
	if _, ok := snap.Field("description"); ok {
		t.Error("empty description should report absent")
	}
}

func TestAgeInDays(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		want  int
	}{
		{"same instant", now, 0},
		{"under one day", now.Add(-23 * time.Hour), 0},
		{"exactly 30 days", now.Add(-30 * 24 * time.Hour), 30},
		{"partial day floors", now.Add(-30*24*time.Hour - 12*time.Hour), 30},
		{"future start clamps", now.Add(24 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeInDays(tt.start, now); got != tt.want {
				t.Errorf("AgeInDays = %d, want %d", got, tt.want)
			}
		})
	}
}
