// Package sim owns the simulation clock: the single goroutine allowed to
// mutate world state. Everything external talks to the clock through
// snapshots and the decision inbox, so readers never observe a tick halfway
// through.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rescueroute/fleetsim/core/dispatch"
	"github.com/rescueroute/fleetsim/core/events"
	"github.com/rescueroute/fleetsim/core/fleet"
	"github.com/rescueroute/fleetsim/core/grid"
	"github.com/rescueroute/fleetsim/core/logger"
	"github.com/rescueroute/fleetsim/core/metrics"
	"github.com/rescueroute/fleetsim/core/mission"
	"github.com/rescueroute/fleetsim/core/model"
	"github.com/rescueroute/fleetsim/core/path"
	"github.com/rescueroute/fleetsim/internal/eventbus"
)

// inboxSize bounds pending external decisions between ticks.
const inboxSize = 16

// ErrInboxFull is returned when the decision inbox cannot take another
// decision before the next tick.
var ErrInboxFull = errors.New("decision inbox full")

type decisionRequest struct {
	dec model.Decision
	res chan dispatch.ApplyResult
}

// Clock advances the simulation one tick at a time. All mutable state is
// owned by the goroutine calling Step; concurrent callers reach it through
// Snapshot, Metrics, SubmitDecision and Reset only.
type Clock struct {
	cfg Config
	log logger.Logger
	bus eventbus.EventBus

	mu         sync.Mutex // serializes Step and Reset
	world      *grid.World
	finder     *path.Finder
	machine    *fleet.Machine
	dispatcher *dispatch.Dispatcher
	rng        *rand.Rand
	tick       uint64
	robots     map[string]*model.Robot
	reg        *mission.Registry
	missionSeq int
	priorityID string

	inbox chan decisionRequest

	snapMu sync.RWMutex
	snap   model.Snapshot
}

// New builds a Clock, populates the world from cfg and freezes the tick-0
// snapshot. bus may be nil for headless runs.
func New(cfg Config, bus eventbus.EventBus, log logger.Logger) (*Clock, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Clock{
		cfg:   cfg,
		log:   log,
		bus:   bus,
		inbox: make(chan decisionRequest, inboxSize),
	}
	if err := c.rebuild(cfg.Seed); err != nil {
		return nil, err
	}
	return c, nil
}

// Config returns the active configuration.
func (c *Clock) Config() Config { return c.cfg }

// rebuild constructs the world, fleet and initial missions from a seed.
// Callers hold c.mu (or are the constructor).
func (c *Clock) rebuild(seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	layout, err := generateLayout(c.cfg.World, rng)
	if err != nil {
		return err
	}
	world, err := grid.New(layout)
	if err != nil {
		return err
	}
	finder := path.NewFinder(world)

	robots, err := placeRobots(c.cfg.World, world, rng)
	if err != nil {
		return err
	}

	c.world = world
	c.finder = finder
	c.machine = fleet.NewMachine(c.cfg.Fleet, world, finder, c.log)
	c.dispatcher = dispatch.NewDispatcher(c.cfg.Dispatch, c.cfg.Fleet, finder, c.log)
	c.rng = rng
	c.tick = 0
	c.robots = robots
	c.reg = mission.NewRegistry(c.cfg.HistoryWindow)
	c.missionSeq = 0
	c.priorityID = ""

	for _, sm := range c.cfg.Missions.Scripted {
		p, err := model.ParsePriority(sm.Priority)
		if err != nil {
			return err
		}
		if !world.InBounds(sm.Target) || world.IsObstacle(sm.Target) {
			return fmt.Errorf("sim: scripted mission target %s is not a free cell", sm.Target)
		}
		c.missionSeq++
		if err := c.reg.Enqueue(model.Mission{
			ID:       fmt.Sprintf("M%04d", c.missionSeq),
			Priority: p,
			Target:   sm.Target,
		}); err != nil {
			return err
		}
	}
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		for i := 0; i < c.cfg.Missions.InitialPerPriority; i++ {
			if err := c.spawnMission(p); err != nil {
				return err
			}
		}
	}

	c.snapMu.Lock()
	c.snap = c.freeze()
	c.snapMu.Unlock()
	return nil
}

// generateLayout resolves explicit placements or draws random ones.
func generateLayout(wc WorldConfig, rng *rand.Rand) (model.GridLayout, error) {
	layout := model.GridLayout{Width: wc.Width, Height: wc.Height}

	taken := make(map[model.Cell]struct{})
	draw := func() (model.Cell, error) {
		for attempt := 0; attempt < wc.Width*wc.Height*4; attempt++ {
			cell := model.Cell{X: rng.Intn(wc.Width), Y: rng.Intn(wc.Height)}
			if _, ok := taken[cell]; !ok {
				taken[cell] = struct{}{}
				return cell, nil
			}
		}
		return model.Cell{}, fmt.Errorf("sim: grid too crowded to place world features")
	}

	if len(wc.StationAt) > 0 {
		layout.ChargingStations = wc.StationAt
		for _, cell := range wc.StationAt {
			taken[cell] = struct{}{}
		}
	} else {
		for i := 0; i < wc.ChargingStations; i++ {
			cell, err := draw()
			if err != nil {
				return layout, err
			}
			layout.ChargingStations = append(layout.ChargingStations, cell)
		}
	}

	if len(wc.ObstacleAt) > 0 {
		layout.Obstacles = wc.ObstacleAt
	} else {
		for i := 0; i < wc.Obstacles; i++ {
			cell, err := draw()
			if err != nil {
				return layout, err
			}
			layout.Obstacles = append(layout.Obstacles, cell)
		}
	}
	return layout, nil
}

// placeRobots spawns the fleet on free cells, ids ascending.
func placeRobots(wc WorldConfig, world *grid.World, rng *rand.Rand) (map[string]*model.Robot, error) {
	starts := wc.RobotStarts
	if len(starts) == 0 {
		for i := 0; i < wc.Robots; i++ {
			cell, err := world.RandomFreeCell(rng)
			if err != nil {
				return nil, err
			}
			starts = append(starts, cell)
		}
	}
	robots := make(map[string]*model.Robot, len(starts))
	for i, pos := range starts {
		if !world.InBounds(pos) || world.IsObstacle(pos) {
			return nil, fmt.Errorf("sim: robot start %s is not a free cell", pos)
		}
		battery := wc.RobotBattery
		if i < len(wc.RobotBatteries) {
			battery = wc.RobotBatteries[i]
		}
		id := fmt.Sprintf("R%02d", i+1)
		robots[id] = &model.Robot{ID: id, Pos: pos, Battery: battery, Status: model.RobotIdle}
	}
	return robots, nil
}

// spawnMission enqueues a mission with a random free target.
func (c *Clock) spawnMission(p model.Priority) error {
	target, err := c.world.RandomFreeCell(c.rng)
	if err != nil {
		return err
	}
	c.missionSeq++
	return c.reg.Enqueue(model.Mission{
		ID:          fmt.Sprintf("M%04d", c.missionSeq),
		Priority:    p,
		Target:      target,
		CreatedTick: c.tick,
	})
}

// randomPriority draws uniformly across the three priorities.
func (c *Clock) randomPriority() model.Priority {
	switch c.rng.Intn(3) {
	case 0:
		return model.PriorityLow
	case 1:
		return model.PriorityMedium
	default:
		return model.PriorityHigh
	}
}

// Step advances the simulation by exactly one tick and returns the frozen
// snapshot. Order within the tick: apply queued decisions, spawn missions,
// auto-assign, advance robots in ascending id order, freeze, publish.
func (c *Clock) Step() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	c.tick++
	var evs []any

	evs = c.drainInbox(evs)
	evs = c.generateMissions(evs)

	_, assignEvs := c.dispatcher.AutoAssign(c.robotsAscending(), c.reg, c.priorityID, c.tick)
	evs = append(evs, assignEvs...)
	c.expirePriority()

	for _, r := range c.robotsAscending() {
		occupied := c.occupiedExcept(r.ID)
		evs = append(evs, c.machine.Advance(r, c.reg, occupied, c.tick)...)
	}

	snap := c.freeze()
	c.snapMu.Lock()
	c.snap = snap
	c.snapMu.Unlock()

	stats := metrics.TickStatsFrom(snap, time.Since(start).Seconds())
	c.publish(evs...)
	c.publish(events.TickCompleted{Stats: stats})
	return snap
}

// drainInbox applies every queued decision in arrival order.
func (c *Clock) drainInbox(evs []any) []any {
	for {
		select {
		case req := <-c.inbox:
			res, decEvs := c.dispatcher.ApplyDecision(req.dec, c.robots, c.reg, c.tick)
			if res.Accepted && req.dec.PriorityMissionID != "" {
				if _, ok := c.reg.Get(req.dec.PriorityMissionID); ok {
					c.priorityID = req.dec.PriorityMissionID
				}
			}
			evs = append(evs, decEvs...)
			req.res <- res
		default:
			return evs
		}
	}
}

// generateMissions runs the spawn policy for this tick.
func (c *Clock) generateMissions(evs []any) []any {
	if c.reg.ActiveCount() >= c.cfg.Missions.MaxActive {
		return evs
	}
	if c.rng.Float64() >= c.cfg.Missions.SpawnProbability {
		return evs
	}
	if err := c.spawnMission(c.randomPriority()); err != nil {
		c.log.Errorf("spawn mission: %v", err)
	}
	return evs
}

// expirePriority clears the standing priority flag once its mission left the
// pending queue.
func (c *Clock) expirePriority() {
	if c.priorityID == "" {
		return
	}
	if m, ok := c.reg.Get(c.priorityID); !ok || m.Status != model.MissionPending {
		c.priorityID = ""
	}
}

// robotsAscending returns live robot pointers sorted by id so every tick
// visits the fleet in the same order.
func (c *Clock) robotsAscending() []*model.Robot {
	out := make([]*model.Robot, 0, len(c.robots))
	for _, r := range c.robots {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// occupiedExcept returns the cells held by every robot other than id.
func (c *Clock) occupiedExcept(id string) map[model.Cell]struct{} {
	occ := make(map[model.Cell]struct{}, len(c.robots))
	for _, r := range c.robots {
		if r.ID != id {
			occ[r.Pos] = struct{}{}
		}
	}
	return occ
}

// freeze deep-copies the live state into an immutable snapshot. Callers hold
// c.mu.
func (c *Clock) freeze() model.Snapshot {
	robots := make([]model.Robot, 0, len(c.robots))
	for _, r := range c.robots {
		robots = append(robots, r.Clone())
	}
	sort.Slice(robots, func(i, j int) bool { return robots[i].ID < robots[j].ID })
	return model.Snapshot{
		Tick:              c.tick,
		Robots:            robots,
		Grid:              c.world.Layout(),
		ActiveMissions:    c.reg.Active(),
		CompletedMissions: c.reg.Completed(),
		CompletedTotal:    c.reg.CompletedTotal(),
	}
}

func (c *Clock) publish(evs ...any) {
	if c.bus == nil {
		return
	}
	for _, e := range evs {
		c.bus.Publish(e)
	}
}

// Snapshot returns the latest frozen snapshot. Safe for any goroutine.
func (c *Clock) Snapshot() model.Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Metrics computes derived fleet statistics from the latest snapshot.
func (c *Clock) Metrics() metrics.Snapshot {
	return metrics.Compute(c.Snapshot(), c.cfg.TickIntervalSeconds)
}

// EnqueueDecision queues an external decision for the next tick boundary
// without blocking. The returned channel delivers the result once a Step
// drained the inbox. The decision id is assigned here; ids supplied by the
// caller are ignored.
func (c *Clock) EnqueueDecision(dec model.Decision) (<-chan dispatch.ApplyResult, error) {
	dec.ID = uuid.NewString()
	req := decisionRequest{dec: dec, res: make(chan dispatch.ApplyResult, 1)}
	select {
	case c.inbox <- req:
		return req.res, nil
	default:
		return nil, ErrInboxFull
	}
}

// SubmitDecision queues an external decision and blocks until it was applied
// or rejected at a tick boundary.
func (c *Clock) SubmitDecision(ctx context.Context, dec model.Decision) (dispatch.ApplyResult, error) {
	res, err := c.EnqueueDecision(dec)
	if err != nil {
		return dispatch.ApplyResult{}, err
	}
	select {
	case r := <-res:
		return r, nil
	case <-ctx.Done():
		return dispatch.ApplyResult{}, ctx.Err()
	}
}

// SubmitDecisionPayload validates a raw decision document against the schema
// before queueing it.
func (c *Clock) SubmitDecisionPayload(ctx context.Context, raw []byte) (dispatch.ApplyResult, error) {
	dec, err := dispatch.ParseDecision(raw)
	if err != nil {
		return dispatch.ApplyResult{}, err
	}
	return c.SubmitDecision(ctx, dec)
}

// Reset rebuilds the world from seed at a tick boundary. Queued decisions
// are rejected rather than silently dropped.
func (c *Clock) Reset(seed int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		select {
		case req := <-c.inbox:
			res := dispatch.ApplyResult{DecisionID: req.dec.ID}
			for _, ra := range req.dec.Reassignments {
				res.Items = append(res.Items, dispatch.ItemResult{
					RobotID: ra.RobotID, MissionID: ra.MissionID, Reason: "simulation reset",
				})
			}
			req.res <- res
		default:
			if err := c.rebuild(seed); err != nil {
				return err
			}
			c.log.Infof("simulation reset with seed %d", seed)
			return nil
		}
	}
}

// Run drives Step on the configured interval until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) error {
	interval := time.Duration(c.cfg.TickIntervalSeconds * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	c.log.Infof("clock running, tick interval %s", interval)
	for {
		select {
		case <-ctx.Done():
			c.log.Infof("clock stopped at tick %d", c.tick)
			return ctx.Err()
		case <-ticker.C:
			c.Step()
		}
	}
}
