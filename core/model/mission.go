package model

import "fmt"

// Priority orders missions for assignment. Higher values dispatch first.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the priority as its wire string.
func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// ParsePriority converts the wire representation back to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "HIGH", "high":
		return PriorityHigh, nil
	case "MEDIUM", "medium":
		return PriorityMedium, nil
	case "LOW", "low":
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

// MissionStatus enumerates mission lifecycle states.
type MissionStatus int

const (
	MissionPending MissionStatus = iota
	MissionInProgress
	MissionCompleted
)

func (s MissionStatus) String() string {
	switch s {
	case MissionPending:
		return "PENDING"
	case MissionInProgress:
		return "IN_PROGRESS"
	case MissionCompleted:
		return "COMPLETED"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its wire string.
func (s MissionStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Mission is a delivery/rescue task targeting a single grid cell.
type Mission struct {
	ID            string        `json:"id"`
	Priority      Priority      `json:"priority"`
	Target        Cell          `json:"target"`
	Status        MissionStatus `json:"status"`
	AssignedRobot string        `json:"assigned_robot,omitempty"`
	CreatedTick   uint64        `json:"created_tick"`
	CompletedTick uint64        `json:"completed_tick,omitempty"`
}

// DurationTicks returns the completion time in ticks. Only meaningful for
// completed missions.
func (m Mission) DurationTicks() uint64 {
	if m.Status != MissionCompleted || m.CompletedTick < m.CreatedTick {
		return 0
	}
	return m.CompletedTick - m.CreatedTick
}
