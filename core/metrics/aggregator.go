package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/rescueroute/fleetsim/core/model"
)

// Snapshot is the derived statistics view exposed alongside the simulation
// snapshot. All values are pure reductions over already-recorded robot and
// mission fields.
type Snapshot struct {
	Tick                   uint64  `json:"tick"`
	ActiveRobots           int     `json:"active_robots"`
	DeadRobots             int     `json:"dead_robots"`
	ChargingRobots         int     `json:"charging_robots"`
	PendingMissions        int     `json:"pending_missions"`
	InProgressMissions     int     `json:"in_progress_missions"`
	CompletedMissions      int     `json:"completed_missions"`
	AvgDeliverySeconds     float64 `json:"avg_delivery_seconds"`
	DeliveryStdDevSeconds  float64 `json:"delivery_stddev_seconds"`
	FleetAvgBattery        float64 `json:"fleet_avg_battery"`
	TotalBatteryConsumed   float64 `json:"total_battery_consumed"`
	AvgBatteryConsumed     float64 `json:"avg_battery_consumed"`
	TotalDistanceTraveled  float64 `json:"total_distance_traveled"`
	PendingHighPriority    int     `json:"pending_high_priority"`
	PendingMediumPriority  int     `json:"pending_medium_priority"`
	PendingLowPriority     int     `json:"pending_low_priority"`
}

// Compute derives a metrics Snapshot from a simulation snapshot.
// secondsPerTick converts tick durations to wall time at the configured tick
// rate; it must be positive.
func Compute(s model.Snapshot, secondsPerTick float64) Snapshot {
	out := Snapshot{Tick: s.Tick, CompletedMissions: s.CompletedTotal}

	var batterySum float64
	for _, r := range s.Robots {
		switch r.Status {
		case model.RobotDead:
			out.DeadRobots++
		case model.RobotCharging:
			out.ChargingRobots++
			out.ActiveRobots++
		default:
			out.ActiveRobots++
		}
		batterySum += r.Battery
		out.TotalBatteryConsumed += r.BatteryConsumed
		out.TotalDistanceTraveled += r.DistanceTraveled
	}
	if n := len(s.Robots); n > 0 {
		out.FleetAvgBattery = batterySum / float64(n)
		out.AvgBatteryConsumed = out.TotalBatteryConsumed / float64(n)
	}

	for _, m := range s.ActiveMissions {
		switch m.Status {
		case model.MissionPending:
			out.PendingMissions++
			switch m.Priority {
			case model.PriorityHigh:
				out.PendingHighPriority++
			case model.PriorityMedium:
				out.PendingMediumPriority++
			case model.PriorityLow:
				out.PendingLowPriority++
			}
		case model.MissionInProgress:
			out.InProgressMissions++
		}
	}

	if len(s.CompletedMissions) > 0 {
		durations := make([]float64, 0, len(s.CompletedMissions))
		for _, m := range s.CompletedMissions {
			durations = append(durations, float64(m.DurationTicks())*secondsPerTick)
		}
		out.AvgDeliverySeconds = stat.Mean(durations, nil)
		if len(durations) > 1 {
			out.DeliveryStdDevSeconds = stat.StdDev(durations, nil)
		}
	}
	return out
}

// TickStatsFrom reduces a snapshot to the per-tick record sinks consume.
func TickStatsFrom(s model.Snapshot, durationSeconds float64) TickStats {
	agg := Compute(s, 1)
	return TickStats{
		Tick:                 s.Tick,
		DurationSeconds:      durationSeconds,
		ActiveRobots:         agg.ActiveRobots,
		DeadRobots:           agg.DeadRobots,
		ChargingRobots:       agg.ChargingRobots,
		PendingMissions:      agg.PendingMissions,
		InProgressMissions:   agg.InProgressMissions,
		CompletedMissions:    agg.CompletedMissions,
		FleetAvgBattery:      agg.FleetAvgBattery,
		TotalDistance:        agg.TotalDistanceTraveled,
		TotalBatteryConsumed: agg.TotalBatteryConsumed,
	}
}
