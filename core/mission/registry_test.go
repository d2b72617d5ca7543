package mission

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rescueroute/fleetsim/core/model"
)

func TestPendingByPriorityOrdering(t *testing.T) {
	r := NewRegistry(0)
	missions := []model.Mission{
		{ID: "m-high-5", Priority: model.PriorityHigh, CreatedTick: 5},
		{ID: "m-med-1", Priority: model.PriorityMedium, CreatedTick: 1},
		{ID: "m-high-3", Priority: model.PriorityHigh, CreatedTick: 3},
	}
	for _, m := range missions {
		if err := r.Enqueue(m); err != nil {
			t.Fatalf("enqueue %s: %v", m.ID, err)
		}
	}

	got := r.PendingByPriority()
	want := []string{"m-high-3", "m-high-5", "m-med-1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, got[i].ID, id)
		}
	}
}

func TestPendingFIFOWithinSameTick(t *testing.T) {
	r := NewRegistry(0)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("m%d", i)
		if err := r.Enqueue(model.Mission{ID: id, Priority: model.PriorityLow, CreatedTick: 7}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	got := r.PendingByPriority()
	for i := range got {
		if got[i].ID != fmt.Sprintf("m%d", i) {
			t.Fatalf("position %d: got %s, want strict arrival order", i, got[i].ID)
		}
	}
}

func TestLifecycleTransitions(t *testing.T) {
	r := NewRegistry(0)
	if err := r.Enqueue(model.Mission{ID: "m1", Priority: model.PriorityHigh, CreatedTick: 1}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := r.MarkInProgress("m1", "R01"); err != nil {
		t.Fatalf("mark in progress: %v", err)
	}
	m, _ := r.Get("m1")
	if m.Status != model.MissionInProgress || m.AssignedRobot != "R01" {
		t.Fatalf("unexpected state after assignment: %+v", m)
	}

	if err := r.Release("m1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	m, _ = r.Get("m1")
	if m.Status != model.MissionPending || m.AssignedRobot != "" {
		t.Fatalf("release should return mission to PENDING: %+v", m)
	}

	if err := r.MarkInProgress("m1", "R02"); err != nil {
		t.Fatalf("re-assign: %v", err)
	}
	if err := r.MarkCompleted("m1", 9); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, ok := r.Get("m1"); ok {
		t.Fatal("completed mission must leave the active set")
	}
	done := r.Completed()
	if len(done) != 1 || done[0].CompletedTick != 9 || done[0].DurationTicks() != 8 {
		t.Fatalf("unexpected completed history: %+v", done)
	}
	if r.CompletedTotal() != 1 {
		t.Fatalf("completed total = %d", r.CompletedTotal())
	}
}

func TestInvariantViolationsAreErrors(t *testing.T) {
	r := NewRegistry(0)
	if err := r.MarkInProgress("missing", "R01"); !errors.Is(err, ErrUnknownMission) {
		t.Fatalf("want ErrUnknownMission, got %v", err)
	}
	if err := r.Release("missing"); !errors.Is(err, ErrUnknownMission) {
		t.Fatalf("want ErrUnknownMission, got %v", err)
	}
	if err := r.Enqueue(model.Mission{Priority: model.PriorityLow}); !errors.Is(err, ErrInvalidMission) {
		t.Fatalf("want ErrInvalidMission for empty id, got %v", err)
	}

	if err := r.Enqueue(model.Mission{ID: "m1", Priority: model.PriorityLow}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := r.Enqueue(model.Mission{ID: "m1", Priority: model.PriorityLow}); !errors.Is(err, ErrDuplicateMission) {
		t.Fatalf("want ErrDuplicateMission, got %v", err)
	}
	if err := r.MarkCompleted("m1", 2); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completing a PENDING mission must fail, got %v", err)
	}
	if err := r.Release("m1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("releasing a PENDING mission must fail, got %v", err)
	}
	if err := r.MarkInProgress("m1", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("empty robot id must fail, got %v", err)
	}
	if err := r.MarkInProgress("m1", "R01"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := r.MarkInProgress("m1", "R02"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double assignment must fail, got %v", err)
	}
}

func TestCompletedHistoryWindowBound(t *testing.T) {
	r := NewRegistry(3)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("m%d", i)
		if err := r.Enqueue(model.Mission{ID: id, Priority: model.PriorityLow, CreatedTick: uint64(i)}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if err := r.MarkInProgress(id, "R01"); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if err := r.MarkCompleted(id, uint64(i+1)); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	done := r.Completed()
	if len(done) != 3 {
		t.Fatalf("history window not enforced: %d entries", len(done))
	}
	if done[0].ID != "m7" || done[2].ID != "m9" {
		t.Fatalf("expected newest three completions, got %+v", done)
	}
	if r.CompletedTotal() != 10 {
		t.Fatalf("completed total = %d, want 10", r.CompletedTotal())
	}
}
