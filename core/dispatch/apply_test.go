package dispatch

import (
	"testing"

	"github.com/rescueroute/fleetsim/core/events"
	"github.com/rescueroute/fleetsim/core/mission"
	"github.com/rescueroute/fleetsim/core/model"
)

func applyFixture(t *testing.T) (*Dispatcher, map[string]*model.Robot, *mission.Registry) {
	t.Helper()
	d := testDispatcher(t, openLayout(10, 10))
	robots := map[string]*model.Robot{
		"R01": idleRobot("R01", model.Cell{X: 1, Y: 1}),
		"R02": idleRobot("R02", model.Cell{X: 8, Y: 8}),
	}
	reg := mission.NewRegistry(0)
	for _, m := range []model.Mission{
		{ID: "M0001", Priority: model.PriorityHigh, Target: model.Cell{X: 0, Y: 0}},
		{ID: "M0002", Priority: model.PriorityLow, Target: model.Cell{X: 9, Y: 9}},
	} {
		if err := reg.Enqueue(m); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	return d, robots, reg
}

func TestApplyDecisionBindsRobots(t *testing.T) {
	d, robots, reg := applyFixture(t)
	dec := model.Decision{ID: "d1", Reassignments: []model.Reassignment{
		{RobotID: "R01", MissionID: "M0002"},
		{RobotID: "R02", MissionID: "M0001"},
	}}

	res, _ := d.ApplyDecision(dec, robots, reg, 4)

	if !res.Accepted || res.Rejected() != 0 {
		t.Fatalf("result = %+v, want accepted", res)
	}
	if robots["R01"].MissionID != "M0002" || robots["R01"].Status != model.RobotMoving {
		t.Fatalf("R01 not bound: %+v", robots["R01"])
	}
	if robots["R02"].MissionID != "M0001" || robots["R02"].Status != model.RobotMoving {
		t.Fatalf("R02 not bound: %+v", robots["R02"])
	}
	for id, robotID := range map[string]string{"M0001": "R02", "M0002": "R01"} {
		m, _ := reg.Get(id)
		if m.Status != model.MissionInProgress || m.AssignedRobot != robotID {
			t.Fatalf("mission %s = %+v, want in progress on %s", id, m, robotID)
		}
	}
}

func TestApplyDecisionIsAtomic(t *testing.T) {
	d, robots, reg := applyFixture(t)
	dec := model.Decision{ID: "d1", Reassignments: []model.Reassignment{
		{RobotID: "R01", MissionID: "M0001"},
		{RobotID: "R99", MissionID: "M0002"}, // unknown robot
	}}

	res, _ := d.ApplyDecision(dec, robots, reg, 4)

	if res.Accepted {
		t.Fatal("decision with an unknown robot must be rejected")
	}
	if res.Rejected() != 2 {
		t.Fatalf("rejected = %d, want every item marked unapplied", res.Rejected())
	}
	if robots["R01"].MissionID != "" || robots["R01"].Status != model.RobotIdle {
		t.Fatalf("R01 mutated by rejected decision: %+v", robots["R01"])
	}
	m, _ := reg.Get("M0001")
	if m.Status != model.MissionPending {
		t.Fatalf("mission mutated by rejected decision: %+v", m)
	}
}

func TestApplyDecisionRejectsChargingAndDeadRobots(t *testing.T) {
	d, robots, reg := applyFixture(t)
	robots["R01"].ChargeTarget = &model.Cell{X: 0, Y: 0}
	robots["R02"].Status = model.RobotDead
	robots["R02"].Battery = 0

	for _, ra := range []model.Reassignment{
		{RobotID: "R01", MissionID: "M0001"},
		{RobotID: "R02", MissionID: "M0001"},
	} {
		res, _ := d.ApplyDecision(model.Decision{ID: "d1", Reassignments: []model.Reassignment{ra}}, robots, reg, 4)
		if res.Accepted {
			t.Fatalf("reassignment %+v must be rejected", ra)
		}
		if res.Items[0].Reason == "" {
			t.Fatalf("rejected item %+v carries no reason", res.Items[0])
		}
	}
}

func TestApplyDecisionRejectsDuplicates(t *testing.T) {
	d, robots, reg := applyFixture(t)
	dec := model.Decision{ID: "d1", Reassignments: []model.Reassignment{
		{RobotID: "R01", MissionID: "M0001"},
		{RobotID: "R01", MissionID: "M0002"},
	}}

	res, _ := d.ApplyDecision(dec, robots, reg, 4)

	if res.Accepted {
		t.Fatal("duplicate robot within one decision must be rejected")
	}
}

func TestApplyDecisionReleasesPreviousBindings(t *testing.T) {
	d, robots, reg := applyFixture(t)
	// R01 holds M0001; the decision hands M0001 to R02.
	if err := reg.MarkInProgress("M0001", "R01"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	robots["R01"].MissionID = "M0001"
	if err := robots["R01"].Transition(model.RobotMoving); err != nil {
		t.Fatalf("transition: %v", err)
	}

	dec := model.Decision{ID: "d1", Reassignments: []model.Reassignment{
		{RobotID: "R02", MissionID: "M0001"},
	}}
	res, evs := d.ApplyDecision(dec, robots, reg, 4)

	if !res.Accepted {
		t.Fatalf("result = %+v, want accepted", res)
	}
	if robots["R01"].Status != model.RobotIdle || robots["R01"].MissionID != "" {
		t.Fatalf("previous holder not released: %+v", robots["R01"])
	}
	if robots["R02"].MissionID != "M0001" || robots["R02"].Status != model.RobotMoving {
		t.Fatalf("new holder not bound: %+v", robots["R02"])
	}
	m, _ := reg.Get("M0001")
	if m.AssignedRobot != "R02" {
		t.Fatalf("mission = %+v, want reassigned to R02", m)
	}
	if len(evs) == 0 {
		t.Fatal("reassignment should emit release and assignment events")
	}
}

func TestApplyDecisionRedundantBindingIsNoOp(t *testing.T) {
	d, robots, reg := applyFixture(t)
	// R01 already holds M0001; the decision restates that binding alongside
	// a genuinely new one for R02.
	if err := reg.MarkInProgress("M0001", "R01"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	robots["R01"].MissionID = "M0001"
	if err := robots["R01"].Transition(model.RobotMoving); err != nil {
		t.Fatalf("transition: %v", err)
	}

	dec := model.Decision{ID: "d1", Reassignments: []model.Reassignment{
		{RobotID: "R01", MissionID: "M0001"},
		{RobotID: "R02", MissionID: "M0002"},
	}}
	res, evs := d.ApplyDecision(dec, robots, reg, 4)

	if !res.Accepted || res.Rejected() != 0 {
		t.Fatalf("result = %+v, want accepted", res)
	}
	if robots["R01"].MissionID != "M0001" || robots["R01"].Status != model.RobotMoving {
		t.Fatalf("restated binding disturbed R01: %+v", robots["R01"])
	}
	if robots["R02"].MissionID != "M0002" || robots["R02"].Status != model.RobotMoving {
		t.Fatalf("R02 not bound: %+v", robots["R02"])
	}
	m, _ := reg.Get("M0001")
	if m.Status != model.MissionInProgress || m.AssignedRobot != "R01" {
		t.Fatalf("mission M0001 = %+v, want untouched", m)
	}
	for _, ev := range evs {
		if rel, ok := ev.(events.MissionReleased); ok && rel.MissionID == "M0001" {
			t.Fatalf("restated binding must not release M0001: %+v", rel)
		}
	}
}

func TestApplyDecisionIgnoresStalePriorityFlag(t *testing.T) {
	d, robots, reg := applyFixture(t)
	dec := model.Decision{ID: "d1", PriorityMissionID: "M9999", Reassignments: []model.Reassignment{
		{RobotID: "R01", MissionID: "M0001"},
	}}

	res, _ := d.ApplyDecision(dec, robots, reg, 4)

	if !res.Accepted {
		t.Fatalf("result = %+v, want accepted with the flag ignored", res)
	}
	if robots["R01"].MissionID != "M0001" {
		t.Fatalf("R01 not bound: %+v", robots["R01"])
	}
	flagged := false
	for _, it := range res.Items {
		if it.MissionID == "M9999" && !it.Applied && it.Reason != "" {
			flagged = true
		}
	}
	if !flagged {
		t.Fatal("stale priority flag should be reported as an unapplied item")
	}
}
