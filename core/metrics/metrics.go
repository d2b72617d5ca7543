// Package metrics defines the sink interfaces the engine records into and the
// pure aggregations derived from snapshots. Sink implementations live under
// infra/metrics.
package metrics

import "github.com/rescueroute/fleetsim/core/model"

// TickStats is the per-tick fleet reduction recorded after every completed
// tick.
type TickStats struct {
	Tick                 uint64
	DurationSeconds      float64 // wall time spent inside the tick
	ActiveRobots         int     // robots not DEAD
	DeadRobots           int
	ChargingRobots       int
	PendingMissions      int
	InProgressMissions   int
	CompletedMissions    int // total since reset
	FleetAvgBattery      float64
	TotalDistance        float64
	TotalBatteryConsumed float64
}

// MissionCompletion records a single mission reaching COMPLETED.
type MissionCompletion struct {
	MissionID     string
	RobotID       string
	Priority      model.Priority
	DurationTicks uint64
	Tick          uint64
}

// RobotDeath records a robot battery depletion.
type RobotDeath struct {
	RobotID string
	Pos     model.Cell
	Tick    uint64
}

// DecisionOutcome records the result of applying an external decision.
type DecisionOutcome struct {
	DecisionID string
	Accepted   bool
	Bindings   int
	Rejected   int
	Tick       uint64
}

// Sink records per-tick fleet statistics for observability purposes.
type Sink interface {
	RecordTick(stats TickStats) error
}

// MissionRecorder is implemented by sinks interested in mission completions.
type MissionRecorder interface {
	RecordMissionCompleted(ev MissionCompletion) error
}

// DeathRecorder is implemented by sinks interested in robot deaths.
type DeathRecorder interface {
	RecordRobotDeath(ev RobotDeath) error
}

// DecisionRecorder is implemented by sinks interested in external decision
// outcomes.
type DecisionRecorder interface {
	RecordDecision(ev DecisionOutcome) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordTick(TickStats) error { return nil }
