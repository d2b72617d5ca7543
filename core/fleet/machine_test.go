package fleet

import (
	"testing"

	"github.com/rescueroute/fleetsim/core/grid"
	"github.com/rescueroute/fleetsim/core/mission"
	"github.com/rescueroute/fleetsim/core/model"
	"github.com/rescueroute/fleetsim/core/path"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

func testMachine(t *testing.T, layout model.GridLayout) *Machine {
	t.Helper()
	w, err := grid.New(layout)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	cfg := Config{}
	cfg.SetDefaults()
	return NewMachine(cfg, w, path.NewFinder(w), nopLogger{})
}

func assignedRobot(t *testing.T, reg *mission.Registry, m model.Mission, r *model.Robot) {
	t.Helper()
	if err := reg.Enqueue(m); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := reg.MarkInProgress(m.ID, r.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	r.MissionID = m.ID
	if err := r.Transition(model.RobotMoving); err != nil {
		t.Fatalf("transition: %v", err)
	}
}

func TestMovingDrainsBatteryAndTracksDistance(t *testing.T) {
	m := testMachine(t, model.GridLayout{Width: 10, Height: 10, ChargingStations: []model.Cell{{X: 0, Y: 0}}})
	reg := mission.NewRegistry(0)
	r := &model.Robot{ID: "R01", Pos: model.Cell{X: 5, Y: 5}, Battery: 100}
	assignedRobot(t, reg, model.Mission{ID: "m1", Priority: model.PriorityHigh, Target: model.Cell{X: 5, Y: 0}}, r)

	m.Advance(r, reg, nil, 1)
	if r.Battery != 98 || r.DistanceTraveled != 1 || r.BatteryConsumed != 2 {
		t.Fatalf("after one step: battery=%f distance=%f consumed=%f", r.Battery, r.DistanceTraveled, r.BatteryConsumed)
	}
	if r.Status != model.RobotMoving {
		t.Fatalf("status = %s, want MOVING", r.Status)
	}
}

func TestArrivalCompletesMissionSameTick(t *testing.T) {
	m := testMachine(t, model.GridLayout{Width: 10, Height: 10, ChargingStations: []model.Cell{{X: 0, Y: 0}}})
	reg := mission.NewRegistry(0)
	r := &model.Robot{ID: "R01", Pos: model.Cell{X: 5, Y: 1}, Battery: 100}
	assignedRobot(t, reg, model.Mission{ID: "m1", Priority: model.PriorityHigh, Target: model.Cell{X: 5, Y: 0}, CreatedTick: 1}, r)

	evs := m.Advance(r, reg, nil, 4)
	if r.Pos != (model.Cell{X: 5, Y: 0}) {
		t.Fatalf("robot did not arrive: %s", r.Pos)
	}
	if r.Status != model.RobotIdle || r.MissionID != "" {
		t.Fatalf("arrival should leave robot IDLE and unbound: %s %q", r.Status, r.MissionID)
	}
	if _, active := reg.Get("m1"); active {
		t.Fatal("mission must be completed")
	}
	if len(evs) != 1 {
		t.Fatalf("expected one completion event, got %d", len(evs))
	}
}

func TestChargingIncreasesBatteryAndResumes(t *testing.T) {
	st := model.Cell{X: 2, Y: 2}
	m := testMachine(t, model.GridLayout{Width: 5, Height: 5, ChargingStations: []model.Cell{st}})
	reg := mission.NewRegistry(0)
	target := st
	r := &model.Robot{ID: "R01", Pos: st, Battery: 85, Status: model.RobotCharging, ChargeTarget: &target}

	m.Advance(r, reg, nil, 1)
	if r.Battery != 95 || r.Status != model.RobotCharging {
		t.Fatalf("after charge tick: battery=%f status=%s", r.Battery, r.Status)
	}
	m.Advance(r, reg, nil, 2)
	if r.Battery != 100 {
		t.Fatalf("battery must cap at 100, got %f", r.Battery)
	}
	if r.Status != model.RobotIdle || r.ChargeTarget != nil {
		t.Fatalf("full robot should resume IDLE with commitment cleared: %s", r.Status)
	}
}

func TestLowBatteryDivertReleasesMission(t *testing.T) {
	st := model.Cell{X: 0, Y: 0}
	m := testMachine(t, model.GridLayout{Width: 10, Height: 10, ChargingStations: []model.Cell{st}})
	reg := mission.NewRegistry(0)
	r := &model.Robot{ID: "R01", Pos: model.Cell{X: 1, Y: 1}, Battery: 10}
	assignedRobot(t, reg, model.Mission{ID: "m1", Priority: model.PriorityHigh, Target: model.Cell{X: 9, Y: 9}}, r)

	m.Advance(r, reg, nil, 1)
	if r.Status != model.RobotIdle || r.MissionID != "" {
		t.Fatalf("divert should release mission: %s %q", r.Status, r.MissionID)
	}
	if r.ChargeTarget == nil || *r.ChargeTarget != st {
		t.Fatalf("robot should commit to station %s", st)
	}
	mi, ok := reg.Get("m1")
	if !ok || mi.Status != model.MissionPending || mi.AssignedRobot != "" {
		t.Fatalf("mission must return to PENDING: %+v", mi)
	}

	// Commitment holds: the robot walks to the station and starts charging,
	// it never picks the mission back up on the way.
	for i := 0; i < 3; i++ {
		m.Advance(r, reg, nil, uint64(2+i))
	}
	if r.Status != model.RobotCharging {
		t.Fatalf("expected CHARGING at station, got %s at %s", r.Status, r.Pos)
	}
	if !m.world.IsChargingStation(r.Pos) {
		t.Fatalf("CHARGING robot must sit on a station, at %s", r.Pos)
	}
}

func TestPastMidpointFinishesMissionFirst(t *testing.T) {
	st := model.Cell{X: 0, Y: 0}
	m := testMachine(t, model.GridLayout{Width: 12, Height: 12, ChargingStations: []model.Cell{st}})
	reg := mission.NewRegistry(0)
	// Target is one step away, the station is far: finish the run.
	r := &model.Robot{ID: "R01", Pos: model.Cell{X: 9, Y: 1}, Battery: 10}
	assignedRobot(t, reg, model.Mission{ID: "m1", Priority: model.PriorityHigh, Target: model.Cell{X: 9, Y: 0}}, r)

	m.Advance(r, reg, nil, 1)
	if _, active := reg.Get("m1"); active {
		t.Fatal("mission should have completed, not been released")
	}
	if r.Status != model.RobotIdle {
		t.Fatalf("status = %s", r.Status)
	}
}

func TestBatteryDepletionKillsAndReleases(t *testing.T) {
	m := testMachine(t, model.GridLayout{Width: 50, Height: 50, ChargingStations: []model.Cell{{X: 49, Y: 49}}})
	reg := mission.NewRegistry(0)
	r := &model.Robot{ID: "R01", Pos: model.Cell{X: 10, Y: 30}, Battery: 2}
	assignedRobot(t, reg, model.Mission{ID: "m1", Priority: model.PriorityLow, Target: model.Cell{X: 10, Y: 0}}, r)

	m.Advance(r, reg, nil, 1)
	if r.Status != model.RobotDead || r.Battery != 0 {
		t.Fatalf("expected DEAD at 0%%, got %s %f", r.Status, r.Battery)
	}
	mi, ok := reg.Get("m1")
	if !ok || mi.Status != model.MissionPending {
		t.Fatalf("mission must be released on death: %+v", mi)
	}

	// DEAD is absorbing.
	for i := 0; i < 5; i++ {
		m.Advance(r, reg, nil, uint64(2+i))
		if r.Status != model.RobotDead {
			t.Fatalf("DEAD must be terminal, got %s", r.Status)
		}
	}
}

func TestIdleUnreachableStationIsFatal(t *testing.T) {
	// Station walled off entirely.
	wall := []model.Cell{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	m := testMachine(t, model.GridLayout{Width: 6, Height: 6, Obstacles: wall, ChargingStations: []model.Cell{{X: 0, Y: 0}}})
	reg := mission.NewRegistry(0)
	r := &model.Robot{ID: "R01", Pos: model.Cell{X: 4, Y: 4}, Battery: 10, Status: model.RobotIdle}

	evs := m.Advance(r, reg, nil, 1)
	if r.Status != model.RobotDead || r.Battery != 0 {
		t.Fatalf("stranded robot must die: %s %f", r.Status, r.Battery)
	}
	if len(evs) != 1 {
		t.Fatalf("expected a death event, got %d", len(evs))
	}
}

func TestStalledRobotHoldsPosition(t *testing.T) {
	m := testMachine(t, model.GridLayout{Width: 3, Height: 1, ChargingStations: []model.Cell{{X: 0, Y: 0}}})
	reg := mission.NewRegistry(0)
	r := &model.Robot{ID: "R01", Pos: model.Cell{X: 0, Y: 0}, Battery: 100}
	assignedRobot(t, reg, model.Mission{ID: "m1", Priority: model.PriorityHigh, Target: model.Cell{X: 2, Y: 0}}, r)

	blocked := map[model.Cell]struct{}{{X: 1, Y: 0}: {}}
	before := r.Battery
	evs := m.Advance(r, reg, blocked, 1)
	if r.Pos != (model.Cell{X: 0, Y: 0}) || r.Battery != before {
		t.Fatalf("stalled robot must hold position without drain: %s %f", r.Pos, r.Battery)
	}
	if r.StallTicks != 1 || len(evs) != 1 {
		t.Fatalf("expected stall to be reported: ticks=%d events=%d", r.StallTicks, len(evs))
	}
	if r.Status != model.RobotMoving {
		t.Fatalf("stall must not change status, got %s", r.Status)
	}
}
