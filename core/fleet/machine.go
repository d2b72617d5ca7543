// Package fleet implements the per-robot state machine: movement, battery
// drain, charging commitment and death. The machine mutates robots in place
// and is driven exactly once per robot per tick by the simulation clock.
package fleet

import (
	"github.com/rescueroute/fleetsim/core/events"
	"github.com/rescueroute/fleetsim/core/grid"
	"github.com/rescueroute/fleetsim/core/logger"
	"github.com/rescueroute/fleetsim/core/mission"
	"github.com/rescueroute/fleetsim/core/model"
	"github.com/rescueroute/fleetsim/core/path"
)

// Machine advances robots through the state machine.
type Machine struct {
	cfg    Config
	world  *grid.World
	finder *path.Finder
	log    logger.Logger
}

// NewMachine builds a Machine over the given world.
func NewMachine(cfg Config, world *grid.World, finder *path.Finder, log logger.Logger) *Machine {
	return &Machine{cfg: cfg, world: world, finder: finder, log: log}
}

// Config returns the active policy constants.
func (m *Machine) Config() Config { return m.cfg }

// Advance runs one tick of the state machine for a single robot. occupied
// holds the cells of all other robots this tick (advisory collision
// avoidance). Registry mutations keep the robot/mission binding consistent in
// the same tick. The returned events are published by the caller.
func (m *Machine) Advance(r *model.Robot, reg *mission.Registry, occupied map[model.Cell]struct{}, tick uint64) []any {
	var evs []any
	switch r.Status {
	case model.RobotDead:
		// Absorbing.
	case model.RobotCharging:
		m.charge(r)
	case model.RobotMoving:
		evs = m.advanceMission(r, reg, occupied, tick, evs)
	case model.RobotIdle:
		evs = m.advanceIdle(r, reg, occupied, tick, evs)
	}
	return evs
}

func (m *Machine) charge(r *model.Robot) {
	r.Battery += m.cfg.ChargePerTick
	if r.Battery > 100 {
		r.Battery = 100
	}
	if r.Battery >= m.cfg.ResumeBattery {
		if err := r.Transition(model.RobotIdle); err != nil {
			m.log.Errorf("charge resume: %v", err)
			return
		}
		r.ChargeTarget = nil
	}
}

func (m *Machine) advanceMission(r *model.Robot, reg *mission.Registry, occupied map[model.Cell]struct{}, tick uint64, evs []any) []any {
	mi, ok := reg.Get(r.MissionID)
	if !ok {
		// Logic defect: MOVING without a live mission. Recover to IDLE.
		m.log.Errorf("robot %s moving with unknown mission %s", r.ID, r.MissionID)
		r.MissionID = ""
		if err := r.Transition(model.RobotIdle); err != nil {
			m.log.Errorf("recover to idle: %v", err)
		}
		return evs
	}

	// Low battery takes absolute priority unless the robot is past the point
	// where finishing is closer than the nearest station.
	if r.Battery < m.cfg.LowBattery {
		if st, found := m.world.NearestStation(r.Pos); found && r.Pos.Manhattan(st) < r.Pos.Manhattan(mi.Target) {
			return m.divertToCharge(r, reg, st, tick, evs)
		}
	}

	if r.Pos == mi.Target {
		return m.completeMission(r, reg, mi, tick, evs)
	}

	step := m.finder.NextStep(r.Pos, mi.Target, occupied)
	if step == r.Pos {
		r.StallTicks++
		m.log.Debugw("robot stalled", map[string]any{
			"robot": r.ID, "mission": r.MissionID, "pos": r.Pos.String(), "ticks": r.StallTicks,
		})
		return append(evs, events.RobotStalled{
			RobotID: r.ID, MissionID: r.MissionID, Pos: r.Pos, StallTicks: r.StallTicks, Tick: tick,
		})
	}

	m.moveTo(r, step)
	if r.Pos == mi.Target {
		evs = m.completeMission(r, reg, mi, tick, evs)
	}
	if r.Battery <= 0 && r.Status != model.RobotDead {
		evs = m.kill(r, reg, tick, evs)
	}
	return evs
}

func (m *Machine) advanceIdle(r *model.Robot, reg *mission.Registry, occupied map[model.Cell]struct{}, tick uint64, evs []any) []any {
	if r.ChargeTarget != nil {
		target := *r.ChargeTarget
		if r.Pos == target {
			if err := r.Transition(model.RobotCharging); err != nil {
				m.log.Errorf("begin charging: %v", err)
			}
			return evs
		}
		step := m.finder.NextStep(r.Pos, target, occupied)
		if step == r.Pos {
			r.StallTicks++
			return append(evs, events.RobotStalled{
				RobotID: r.ID, Pos: r.Pos, StallTicks: r.StallTicks, Tick: tick,
			})
		}
		m.moveTo(r, step)
		if r.Battery <= 0 {
			return m.kill(r, reg, tick, evs)
		}
		if r.Pos == target {
			if err := r.Transition(model.RobotCharging); err != nil {
				m.log.Errorf("begin charging: %v", err)
			}
		}
		return evs
	}

	if r.Battery < m.cfg.LowBattery {
		st, found := m.world.NearestStation(r.Pos)
		if !found || !m.finder.Reachable(r.Pos, st) {
			// A robot that cannot reach any charger will inevitably drain out.
			m.log.Errorf("robot %s cannot reach a charging station from %s", r.ID, r.Pos)
			return m.kill(r, reg, tick, evs)
		}
		if r.Pos == st {
			if err := r.Transition(model.RobotCharging); err != nil {
				m.log.Errorf("begin charging: %v", err)
				return evs
			}
			t := st
			r.ChargeTarget = &t
			return evs
		}
		t := st
		r.ChargeTarget = &t
		m.log.Infof("robot %s low battery (%.1f%%), heading to station %s", r.ID, r.Battery, st)
	}
	return evs
}

// divertToCharge releases the robot's mission and commits it to the nearest
// station. The commitment holds until charging completes so the robot never
// oscillates between charging and mission pursuit.
func (m *Machine) divertToCharge(r *model.Robot, reg *mission.Registry, st model.Cell, tick uint64, evs []any) []any {
	missionID := r.MissionID
	if err := reg.Release(missionID); err != nil {
		m.log.Errorf("release mission %s: %v", missionID, err)
	} else {
		evs = append(evs, events.MissionReleased{MissionID: missionID, RobotID: r.ID, Reason: "charging", Tick: tick})
	}
	r.MissionID = ""
	if err := r.Transition(model.RobotIdle); err != nil {
		m.log.Errorf("divert to charge: %v", err)
		return evs
	}
	if !m.finder.Reachable(r.Pos, st) {
		m.log.Errorf("robot %s cannot reach a charging station from %s", r.ID, r.Pos)
		return m.kill(r, reg, tick, evs)
	}
	t := st
	r.ChargeTarget = &t
	m.log.Infof("robot %s low battery (%.1f%%), released mission %s, heading to station %s", r.ID, r.Battery, missionID, st)
	return evs
}

func (m *Machine) completeMission(r *model.Robot, reg *mission.Registry, mi model.Mission, tick uint64, evs []any) []any {
	if err := reg.MarkCompleted(mi.ID, tick); err != nil {
		m.log.Errorf("complete mission %s: %v", mi.ID, err)
		return evs
	}
	r.MissionID = ""
	if err := r.Transition(model.RobotIdle); err != nil {
		m.log.Errorf("arrival: %v", err)
	}
	m.log.Infof("mission %s completed by robot %s at tick %d", mi.ID, r.ID, tick)
	return append(evs, events.MissionCompleted{
		MissionID: mi.ID, RobotID: r.ID, Priority: mi.Priority,
		DurationTicks: tick - mi.CreatedTick, Tick: tick,
	})
}

// kill marks the robot DEAD, releasing any bound mission first. DEAD implies
// battery zero, so residual charge of a stranded robot is written off as
// consumed.
func (m *Machine) kill(r *model.Robot, reg *mission.Registry, tick uint64, evs []any) []any {
	if r.MissionID != "" {
		if err := reg.Release(r.MissionID); err != nil {
			m.log.Errorf("release mission %s on death: %v", r.MissionID, err)
		} else {
			evs = append(evs, events.MissionReleased{MissionID: r.MissionID, RobotID: r.ID, Reason: "robot_dead", Tick: tick})
		}
		r.MissionID = ""
	}
	if r.Battery > 0 {
		r.BatteryConsumed += r.Battery
		r.Battery = 0
	}
	r.ChargeTarget = nil
	if err := r.Transition(model.RobotDead); err != nil {
		m.log.Errorf("mark dead: %v", err)
		return evs
	}
	m.log.Warnf("robot %s battery depleted at %s, marked dead", r.ID, r.Pos)
	return append(evs, events.RobotDead{RobotID: r.ID, Pos: r.Pos, Tick: tick})
}

func (m *Machine) moveTo(r *model.Robot, step model.Cell) {
	r.Pos = step
	drain := m.cfg.DrainPerMove
	if drain > r.Battery {
		drain = r.Battery
	}
	r.Battery -= drain
	r.BatteryConsumed += drain
	r.DistanceTraveled++
	r.StallTicks = 0
}
