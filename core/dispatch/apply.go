package dispatch

import (
	"fmt"

	"github.com/rescueroute/fleetsim/core/events"
	"github.com/rescueroute/fleetsim/core/mission"
	"github.com/rescueroute/fleetsim/core/model"
)

// ApplyDecision validates and applies an external reassignment decision.
// Validation runs in full before any mutation; if any item is structurally
// inconsistent the whole decision is rejected and no state changes. On
// success every reassignment is applied, releasing missions from previous
// robots as needed.
func (d *Dispatcher) ApplyDecision(dec model.Decision, robots map[string]*model.Robot, reg *mission.Registry, tick uint64) (ApplyResult, []any) {
	res := ApplyResult{DecisionID: dec.ID, Items: make([]ItemResult, len(dec.Reassignments))}

	ok := d.validate(dec, robots, reg, &res)
	// The priority flag is advisory metadata. A stale or unknown id is
	// reported but never vetoes the reassignments.
	if dec.PriorityMissionID != "" {
		if _, found := reg.Get(dec.PriorityMissionID); !found {
			d.log.Warnf("decision %s: priority mission %s unknown or already completed, ignoring flag",
				dec.ID, dec.PriorityMissionID)
			res.Items = append(res.Items, ItemResult{
				MissionID: dec.PriorityMissionID,
				Reason:    "priority mission unknown or already completed, flag ignored",
			})
		}
	}
	if !ok {
		d.log.Warnf("decision %s rejected: %d invalid items", dec.ID, res.Rejected())
		return res, []any{events.DecisionApplied{
			DecisionID: dec.ID, Accepted: false, Rejected: res.Rejected(), Tick: tick,
		}}
	}

	evs := d.apply(dec, robots, reg, tick, &res)
	res.Accepted = true
	d.log.Infof("decision %s applied: %d reassignments", dec.ID, len(dec.Reassignments))
	return res, append(evs, events.DecisionApplied{
		DecisionID: dec.ID, Accepted: true, Bindings: len(dec.Reassignments), Tick: tick,
	})
}

// validate fills res.Items and reports whether every item passed.
func (d *Dispatcher) validate(dec model.Decision, robots map[string]*model.Robot, reg *mission.Registry, res *ApplyResult) bool {
	ok := true
	seenRobot := make(map[string]bool)
	seenMission := make(map[string]bool)
	for i, ra := range dec.Reassignments {
		item := ItemResult{RobotID: ra.RobotID, MissionID: ra.MissionID, Applied: true}
		if reason := d.validateItem(ra, robots, reg, seenRobot, seenMission); reason != "" {
			item.Applied = false
			item.Reason = reason
			ok = false
		}
		seenRobot[ra.RobotID] = true
		seenMission[ra.MissionID] = true
		res.Items[i] = item
	}
	if !ok {
		// Nothing was applied; flip the optimistic marks.
		for i := range res.Items {
			res.Items[i].Applied = false
			if res.Items[i].Reason == "" {
				res.Items[i].Reason = "rejected: decision contains invalid items"
			}
		}
	}
	return ok
}

func (d *Dispatcher) validateItem(ra model.Reassignment, robots map[string]*model.Robot, reg *mission.Registry, seenRobot, seenMission map[string]bool) string {
	if ra.RobotID == "" || ra.MissionID == "" {
		return "empty robot or mission id"
	}
	if seenRobot[ra.RobotID] {
		return fmt.Sprintf("robot %s appears twice in decision", ra.RobotID)
	}
	if seenMission[ra.MissionID] {
		return fmt.Sprintf("mission %s appears twice in decision", ra.MissionID)
	}
	r, ok := robots[ra.RobotID]
	if !ok {
		return fmt.Sprintf("unknown robot %s", ra.RobotID)
	}
	if r.Status == model.RobotDead {
		return fmt.Sprintf("robot %s is dead", ra.RobotID)
	}
	if r.Status == model.RobotCharging || r.ChargeTarget != nil {
		return fmt.Sprintf("robot %s is committed to charging", ra.RobotID)
	}
	mi, ok := reg.Get(ra.MissionID)
	if !ok {
		return fmt.Sprintf("unknown mission %s", ra.MissionID)
	}
	if mi.Status != model.MissionPending && mi.Status != model.MissionInProgress {
		return fmt.Sprintf("mission %s is %s", ra.MissionID, mi.Status)
	}
	return ""
}

// apply performs the validated reassignments. Release-then-bind per item; a
// robot losing its mission to a rebind goes back to IDLE.
func (d *Dispatcher) apply(dec model.Decision, robots map[string]*model.Robot, reg *mission.Registry, tick uint64, res *ApplyResult) []any {
	var evs []any
	for _, ra := range dec.Reassignments {
		robot := robots[ra.RobotID]

		// Restating the current binding is a no-op, not a rebind.
		if robot.MissionID == ra.MissionID {
			continue
		}

		// Release the robot's current mission, if different.
		if robot.MissionID != "" && robot.MissionID != ra.MissionID {
			if err := reg.Release(robot.MissionID); err != nil {
				d.log.Errorf("decision %s: release %s: %v", dec.ID, robot.MissionID, err)
			} else {
				evs = append(evs, events.MissionReleased{
					MissionID: robot.MissionID, RobotID: robot.ID, Reason: "reassigned", Tick: tick,
				})
			}
			robot.MissionID = ""
			if err := robot.Transition(model.RobotIdle); err != nil {
				d.log.Errorf("decision %s: %v", dec.ID, err)
			}
		}

		// Release the target mission from its previous robot, if any.
		if mi, _ := reg.Get(ra.MissionID); mi.Status == model.MissionInProgress {
			if prev, ok := robots[mi.AssignedRobot]; ok {
				prev.MissionID = ""
				if err := prev.Transition(model.RobotIdle); err != nil {
					d.log.Errorf("decision %s: %v", dec.ID, err)
				}
				evs = append(evs, events.MissionReleased{
					MissionID: ra.MissionID, RobotID: prev.ID, Reason: "reassigned", Tick: tick,
				})
			}
			if err := reg.Release(ra.MissionID); err != nil {
				d.log.Errorf("decision %s: release %s: %v", dec.ID, ra.MissionID, err)
				continue
			}
		}

		if err := reg.MarkInProgress(ra.MissionID, robot.ID); err != nil {
			d.log.Errorf("decision %s: bind %s: %v", dec.ID, ra.MissionID, err)
			continue
		}
		robot.MissionID = ra.MissionID
		if err := robot.Transition(model.RobotMoving); err != nil {
			d.log.Errorf("decision %s: %v", dec.ID, err)
			_ = reg.Release(ra.MissionID)
			robot.MissionID = ""
			continue
		}
		mi, _ := reg.Get(ra.MissionID)
		evs = append(evs, events.MissionAssigned{
			RobotID: robot.ID, MissionID: ra.MissionID, Priority: mi.Priority, Tick: tick,
		})
	}
	return evs
}
