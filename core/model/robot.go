package model

import "fmt"

// RobotStatus enumerates the robot state machine states.
type RobotStatus int

const (
	RobotIdle RobotStatus = iota
	RobotMoving
	RobotCharging
	RobotDead
)

// String returns the wire representation of the status.
func (s RobotStatus) String() string {
	switch s {
	case RobotIdle:
		return "IDLE"
	case RobotMoving:
		return "MOVING"
	case RobotCharging:
		return "CHARGING"
	case RobotDead:
		return "DEAD"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its wire string.
func (s RobotStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// robotTransitions is the legal transition table. Self transitions are always
// allowed for non-terminal states; DEAD is absorbing.
var robotTransitions = map[RobotStatus][]RobotStatus{
	RobotIdle:     {RobotMoving, RobotCharging, RobotDead},
	RobotMoving:   {RobotIdle, RobotDead},
	RobotCharging: {RobotIdle, RobotDead},
	RobotDead:     {},
}

// CanTransition reports whether the state machine permits moving from s to to.
func (s RobotStatus) CanTransition(to RobotStatus) bool {
	if s == to {
		return s != RobotDead
	}
	for _, t := range robotTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Robot is the mutable per-robot state owned by the simulation clock.
// The mission reference is weak: the registry owns mission lifecycle.
type Robot struct {
	ID      string      `json:"id"`
	Pos     Cell        `json:"position"`
	Battery float64     `json:"battery"` // percent, 0-100
	Status  RobotStatus `json:"status"`

	// MissionID is the bound mission while MOVING, empty otherwise.
	MissionID string `json:"mission_id,omitempty"`

	// ChargeTarget is set once the robot commits to a charging run and stays
	// set until charging completes. A committed robot is not dispatchable.
	ChargeTarget *Cell `json:"charge_target,omitempty"`

	// Cumulative counters, monotonically non-decreasing.
	DistanceTraveled float64 `json:"distance_traveled"`
	BatteryConsumed  float64 `json:"battery_consumed"`

	// StallTicks counts consecutive ticks the robot could not advance toward
	// its target. Reset on every successful step.
	StallTicks int `json:"stall_ticks,omitempty"`
}

// Transition moves the robot to the given status, enforcing the transition
// table. An illegal transition is a logic defect surfaced to the caller.
func (r *Robot) Transition(to RobotStatus) error {
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("robot %s: illegal transition %s -> %s", r.ID, r.Status, to)
	}
	r.Status = to
	return nil
}

// Clone returns an independently owned copy of the robot.
func (r Robot) Clone() Robot {
	c := r
	if r.ChargeTarget != nil {
		t := *r.ChargeTarget
		c.ChargeTarget = &t
	}
	return c
}
