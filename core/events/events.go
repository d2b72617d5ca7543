// Package events defines the structs published on the internal event bus as
// the simulation advances.
package events

import (
	"github.com/rescueroute/fleetsim/core/metrics"
	"github.com/rescueroute/fleetsim/core/model"
)

// MissionAssigned is published when the dispatcher binds a robot to a mission.
type MissionAssigned struct {
	RobotID   string
	MissionID string
	Priority  model.Priority
	Tick      uint64
}

// MissionCompleted is published when a robot reaches a mission target.
type MissionCompleted struct {
	MissionID     string
	RobotID       string
	Priority      model.Priority
	DurationTicks uint64
	Tick          uint64
}

// MissionReleased is published when an in-progress mission returns to PENDING.
type MissionReleased struct {
	MissionID string
	RobotID   string
	Reason    string // "robot_dead", "charging", "reassigned"
	Tick      uint64
}

// RobotDead is published when a robot depletes its battery.
type RobotDead struct {
	RobotID string
	Pos     model.Cell
	Tick    uint64
}

// RobotStalled is published when a robot cannot advance toward its target.
type RobotStalled struct {
	RobotID    string
	MissionID  string
	Pos        model.Cell
	StallTicks int
	Tick       uint64
}

// DecisionApplied is published after an external decision is processed,
// whether accepted or rejected.
type DecisionApplied struct {
	DecisionID string
	Accepted   bool
	Bindings   int
	Rejected   int
	Tick       uint64
}

// TickCompleted is published once per tick after the snapshot is frozen.
type TickCompleted struct {
	Stats metrics.TickStats
}
