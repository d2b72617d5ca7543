// Package dispatch binds idle robots to pending missions and applies
// externally computed reassignment decisions. Assignment is greedy and
// non-backtracking: missions and robots enter and leave continuously, and
// completion time is what is measured, not assignment optimality.
package dispatch

import (
	"github.com/rescueroute/fleetsim/core/events"
	"github.com/rescueroute/fleetsim/core/fleet"
	"github.com/rescueroute/fleetsim/core/logger"
	"github.com/rescueroute/fleetsim/core/mission"
	"github.com/rescueroute/fleetsim/core/model"
	"github.com/rescueroute/fleetsim/core/path"
)

// Dispatcher implements the assignment policy.
type Dispatcher struct {
	cfg      Config
	fleetCfg fleet.Config
	finder   *path.Finder
	log      logger.Logger
}

// NewDispatcher builds a Dispatcher sharing the clock's pathfinder.
func NewDispatcher(cfg Config, fleetCfg fleet.Config, finder *path.Finder, log logger.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, fleetCfg: fleetCfg, finder: finder, log: log}
}

// AutoAssign greedily binds eligible idle robots to pending missions in
// priority order, nearest robot first. priorityMissionID, when pending, is
// offered before everything else. Both the robot and registry sides of each
// binding are mutated here so the bidirectional invariant holds within the
// tick. The returned events are published by the caller.
func (d *Dispatcher) AutoAssign(robots []*model.Robot, reg *mission.Registry, priorityMissionID string, tick uint64) ([]Binding, []any) {
	pending := reg.PendingByPriority()
	if len(pending) == 0 {
		return nil, nil
	}
	if priorityMissionID != "" {
		for i, m := range pending {
			if m.ID == priorityMissionID && i > 0 {
				pending = append([]model.Mission{m}, append(pending[:i:i], pending[i+1:]...)...)
				break
			}
		}
	}

	var bindings []Binding
	var evs []any
	assigned := make(map[string]bool)
	for _, mi := range pending {
		robot := d.pickRobot(robots, assigned, mi)
		if robot == nil {
			continue
		}
		if err := reg.MarkInProgress(mi.ID, robot.ID); err != nil {
			d.log.Errorf("assign mission %s: %v", mi.ID, err)
			continue
		}
		robot.MissionID = mi.ID
		if err := robot.Transition(model.RobotMoving); err != nil {
			// Roll the registry side back rather than leave a half binding.
			d.log.Errorf("assign robot %s: %v", robot.ID, err)
			_ = reg.Release(mi.ID)
			robot.MissionID = ""
			continue
		}
		assigned[robot.ID] = true
		bindings = append(bindings, Binding{RobotID: robot.ID, MissionID: mi.ID})
		evs = append(evs, events.MissionAssigned{RobotID: robot.ID, MissionID: mi.ID, Priority: mi.Priority, Tick: tick})
		d.log.Infof("mission %s (%s) assigned to robot %s", mi.ID, mi.Priority, robot.ID)
	}
	return bindings, evs
}

// pickRobot selects the nearest eligible idle robot for the mission, ties
// broken by ascending robot id. Unreachable targets are skipped and left
// pending; this is a reported stall condition, not an error.
func (d *Dispatcher) pickRobot(robots []*model.Robot, assigned map[string]bool, mi model.Mission) *model.Robot {
	var best *model.Robot
	bestDist := -1
	for _, r := range robots {
		if !d.eligible(r, assigned, mi) {
			continue
		}
		dist := r.Pos.Manhattan(mi.Target)
		if bestDist < 0 || dist < bestDist || (dist == bestDist && r.ID < best.ID) {
			best, bestDist = r, dist
		}
	}
	if best == nil {
		return nil
	}
	if !d.finder.Reachable(best.Pos, mi.Target) {
		d.log.Warnf("mission %s target %s currently unreachable", mi.ID, mi.Target)
		return nil
	}
	return best
}

// eligible reports whether the robot may take the mission: idle, not
// committed to charging, above the mission battery floor, and holding enough
// charge to plausibly reach the target.
func (d *Dispatcher) eligible(r *model.Robot, assigned map[string]bool, mi model.Mission) bool {
	if r.Status != model.RobotIdle || assigned[r.ID] || r.ChargeTarget != nil {
		return false
	}
	if r.Battery < d.fleetCfg.MinMissionBattery {
		return false
	}
	need := float64(r.Pos.Manhattan(mi.Target)) * d.fleetCfg.DrainPerMove * d.cfg.ReachMargin
	return r.Battery >= need
}
