// Package resource defines the normalized, provider-agnostic resource shapes
// the rule engine evaluates.
package resource

import (
	"strings"
	"time"
)

// Type identifies a normalized resource variant.
type Type string

const (
	TypeInstance Type = "ec2_instance"
	TypeVolume   Type = "ebs_volume"
	TypeSnapshot Type = "ebs_snapshot"

	// TypeAny matches every variant in rule definitions.
	TypeAny Type = "*"
)

// Resource is the tagged union over the three collected variants.
// Field resolves a dotted path (e.g. "tags.Environment",
// "cpuUtilization.average") without reflection; the second return is false
// when the path does not exist on this variant.
type Resource interface {
	Kind() Type
	ID() string
	Field(path string) (interface{}, bool)
}

// Common holds the fields shared by all variants.
type Common struct {
	Region    string            `json:"region"`
	AccountID string            `json:"accountId"`
	Tags      map[string]string `json:"tags,omitempty"`
}

func (c Common) commonField(path string) (interface{}, bool) {
	switch path {
	case "region":
		return c.Region, true
	case "accountId":
		return c.AccountID, true
	case "tags":
		if c.Tags == nil {
			return nil, false
		}
		return c.Tags, true
	}
	if key, ok := strings.CutPrefix(path, "tags."); ok {
		v, exists := c.Tags[key]
		if !exists {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// CPUUtilization is the optional metric enrichment on a running instance.
type CPUUtilization struct {
	Average float64 `json:"average"`
	Window  string  `json:"windowLabel"`
}

// Instance is a normalized EC2 instance.
type Instance struct {
	Common
	InstanceID   string          `json:"instanceId"`
	InstanceType string          `json:"instanceType"`
	State        string          `json:"state"`
	LaunchTime   time.Time       `json:"launchTime"`
	CPU          *CPUUtilization `json:"cpuUtilization,omitempty"`
}

func (i *Instance) Kind() Type { return TypeInstance }
func (i *Instance) ID() string { return i.InstanceID }

func (i *Instance) Field(path string) (interface{}, bool) {
	switch path {
	case "instanceId":
		return i.InstanceID, true
	case "instanceType":
		return i.InstanceType, true
	case "state":
		return i.State, true
	case "launchTime":
		return i.LaunchTime, true
	case "cpuUtilization":
		if i.CPU == nil {
			return nil, false
		}
		return *i.CPU, true
	case "cpuUtilization.average":
		if i.CPU == nil {
			return nil, false
		}
		return i.CPU.Average, true
	case "cpuUtilization.windowLabel":
		if i.CPU == nil {
			return nil, false
		}
		return i.CPU.Window, true
	}
	return i.commonField(path)
}

// Volume is a normalized EBS volume.
type Volume struct {
	Common
	VolumeID           string    `json:"volumeId"`
	SizeGB             int32     `json:"sizeGB"`
	VolumeType         string    `json:"volumeType"`
	State              string    `json:"state"`
	Attached           bool      `json:"attached"`
	AttachedInstanceID string    `json:"attachedInstanceId,omitempty"`
	CreateTime         time.Time `json:"createTime"`
	Encrypted          bool      `json:"encrypted"`
}

func (v *Volume) Kind() Type { return TypeVolume }
func (v *Volume) ID() string { return v.VolumeID }

func (v *Volume) Field(path string) (interface{}, bool) {
	switch path {
	case "volumeId":
		return v.VolumeID, true
	case "sizeGB":
		return v.SizeGB, true
	case "volumeType":
		return v.VolumeType, true
	case "state":
		return v.State, true
	case "attached":
		return v.Attached, true
	case "attachedInstanceId":
		if v.AttachedInstanceID == "" {
			return nil, false
		}
		return v.AttachedInstanceID, true
	case "createTime":
		return v.CreateTime, true
	case "encrypted":
		return v.Encrypted, true
	}
	return v.commonField(path)
}

// Snapshot is a normalized EBS snapshot.
type Snapshot struct {
	Common
	SnapshotID     string    `json:"snapshotId"`
	SourceVolumeID string    `json:"sourceVolumeId,omitempty"`
	VolumeSizeGB   int32     `json:"volumeSizeGB"`
	State          string    `json:"state"`
	StartTime      time.Time `json:"startTime"`
	AgeDays        int       `json:"ageInDays"`
	Encrypted      bool      `json:"encrypted"`
	Description    string    `json:"description,omitempty"`
}

func (s *Snapshot) Kind() Type { return TypeSnapshot }
func (s *Snapshot) ID() string { return s.SnapshotID }

func (s *Snapshot) Field(path string) (interface{}, bool) {
	switch path {
	case "snapshotId":
		return s.SnapshotID, true
	case "sourceVolumeId":
		if s.SourceVolumeID == "" {
			return nil, false
		}
		return s.SourceVolumeID, true
	case "volumeSizeGB":
		return s.VolumeSizeGB, true
	case "state":
		return s.State, true
	case "startTime":
		return s.StartTime, true
	case "ageInDays":
		return s.AgeDays, true
	case "encrypted":
		return s.Encrypted, true
	case "description":
		if s.Description == "" {
			return nil, false
		}
		return s.Description, true
	}
	return s.commonField(path)
}

// AgeInDays derives the whole-day age of a snapshot at the given instant.
func AgeInDays(startTime, now time.Time) int {
	if startTime.After(now) {
		return 0
	}
	return int(now.Sub(startTime).Hours() / 24)
}
