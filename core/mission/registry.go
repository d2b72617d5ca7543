// Package mission tracks mission lifecycle: pending -> assigned/in-progress
// -> completed. The registry is owned by the simulation clock and is not safe
// for concurrent use.
package mission

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rescueroute/fleetsim/core/model"
)

var (
	// ErrUnknownMission is returned when a mutation references an id the
	// registry has never seen or has already evicted.
	ErrUnknownMission = errors.New("unknown mission id")
	// ErrInvalidTransition is returned when a mutation is incompatible with
	// the mission's current status.
	ErrInvalidTransition = errors.New("invalid mission transition")
	// ErrDuplicateMission is returned when enqueueing an id twice.
	ErrDuplicateMission = errors.New("duplicate mission id")
	// ErrInvalidMission is returned when a mission fails validation before
	// it ever enters the registry.
	ErrInvalidMission = errors.New("invalid mission")
)

// DefaultHistoryWindow bounds the completed-mission history kept in snapshots.
const DefaultHistoryWindow = 256

// Registry holds active missions and a bounded completed history.
type Registry struct {
	active    map[string]*model.Mission
	arrival   map[string]uint64 // FIFO tie-break within a priority tier
	completed []model.Mission
	seq       uint64
	window    int
	total     int
}

// NewRegistry creates an empty registry keeping at most window completed
// missions; window <= 0 selects DefaultHistoryWindow.
func NewRegistry(window int) *Registry {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Registry{
		active:  make(map[string]*model.Mission),
		arrival: make(map[string]uint64),
		window:  window,
	}
}

// Enqueue registers a new pending mission.
func (r *Registry) Enqueue(m model.Mission) error {
	if m.ID == "" {
		return fmt.Errorf("mission: empty id: %w", ErrInvalidMission)
	}
	if _, ok := r.active[m.ID]; ok {
		return fmt.Errorf("mission %s: %w", m.ID, ErrDuplicateMission)
	}
	m.Status = model.MissionPending
	m.AssignedRobot = ""
	r.seq++
	r.arrival[m.ID] = r.seq
	r.active[m.ID] = &m
	return nil
}

// Get returns a copy of an active mission.
func (r *Registry) Get(id string) (model.Mission, bool) {
	m, ok := r.active[id]
	if !ok {
		return model.Mission{}, false
	}
	return *m, true
}

// PendingByPriority returns pending missions ordered HIGH, MEDIUM, LOW; within
// a tier earlier created-at tick first, then strict arrival order. The result
// is a copy and safe to retain.
func (r *Registry) PendingByPriority() []model.Mission {
	var out []model.Mission
	for _, m := range r.active {
		if m.Status == model.MissionPending {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].CreatedTick != out[j].CreatedTick {
			return out[i].CreatedTick < out[j].CreatedTick
		}
		return r.arrival[out[i].ID] < r.arrival[out[j].ID]
	})
	return out
}

// MarkInProgress binds a pending mission to a robot.
func (r *Registry) MarkInProgress(missionID, robotID string) error {
	m, ok := r.active[missionID]
	if !ok {
		return fmt.Errorf("mission %s: %w", missionID, ErrUnknownMission)
	}
	if m.Status != model.MissionPending {
		return fmt.Errorf("mission %s is %s, want PENDING: %w", missionID, m.Status, ErrInvalidTransition)
	}
	if robotID == "" {
		return fmt.Errorf("mission %s: empty robot id: %w", missionID, ErrInvalidTransition)
	}
	m.Status = model.MissionInProgress
	m.AssignedRobot = robotID
	return nil
}

// MarkCompleted finishes an in-progress mission at the given tick and moves it
// to the completed history. Completed missions are immutable and never
// re-opened.
func (r *Registry) MarkCompleted(missionID string, tick uint64) error {
	m, ok := r.active[missionID]
	if !ok {
		return fmt.Errorf("mission %s: %w", missionID, ErrUnknownMission)
	}
	if m.Status != model.MissionInProgress {
		return fmt.Errorf("mission %s is %s, want IN_PROGRESS: %w", missionID, m.Status, ErrInvalidTransition)
	}
	m.Status = model.MissionCompleted
	m.CompletedTick = tick
	delete(r.active, missionID)
	delete(r.arrival, missionID)
	r.completed = append(r.completed, *m)
	if len(r.completed) > r.window {
		r.completed = r.completed[len(r.completed)-r.window:]
	}
	r.total++
	return nil
}

// Release returns an in-progress mission to PENDING. Used when its robot dies,
// commits to charging, or is reassigned away.
func (r *Registry) Release(missionID string) error {
	m, ok := r.active[missionID]
	if !ok {
		return fmt.Errorf("mission %s: %w", missionID, ErrUnknownMission)
	}
	if m.Status != model.MissionInProgress {
		return fmt.Errorf("mission %s is %s, want IN_PROGRESS: %w", missionID, m.Status, ErrInvalidTransition)
	}
	m.Status = model.MissionPending
	m.AssignedRobot = ""
	return nil
}

// Active returns copies of all pending and in-progress missions, ordered by
// arrival for stable iteration.
func (r *Registry) Active() []model.Mission {
	out := make([]model.Mission, 0, len(r.active))
	for _, m := range r.active {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.arrival[out[i].ID] < r.arrival[out[j].ID]
	})
	return out
}

// Completed returns a copy of the bounded completed history, oldest first.
func (r *Registry) Completed() []model.Mission {
	return append([]model.Mission(nil), r.completed...)
}

// CompletedTotal counts every completion since construction, including
// missions evicted from the history window.
func (r *Registry) CompletedTotal() int { return r.total }

// ActiveCount returns the number of pending plus in-progress missions.
func (r *Registry) ActiveCount() int { return len(r.active) }
