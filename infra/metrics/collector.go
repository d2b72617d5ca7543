package metrics

import (
	"context"

	"github.com/rescueroute/fleetsim/core/events"
	coremetrics "github.com/rescueroute/fleetsim/core/metrics"
	"github.com/rescueroute/fleetsim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records simulation
// events into the sink. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	// One event per robot plus mission traffic can arrive within a tick.
	sub := bus.SubscribeBuffered(256)
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.Sink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.TickCompleted:
		_ = sink.RecordTick(e.Stats)
	case events.MissionCompleted:
		if r, ok := sink.(coremetrics.MissionRecorder); ok {
			_ = r.RecordMissionCompleted(coremetrics.MissionCompletion{
				MissionID:     e.MissionID,
				RobotID:       e.RobotID,
				Priority:      e.Priority,
				DurationTicks: e.DurationTicks,
				Tick:          e.Tick,
			})
		}
	case events.RobotDead:
		if r, ok := sink.(coremetrics.DeathRecorder); ok {
			_ = r.RecordRobotDeath(coremetrics.RobotDeath{
				RobotID: e.RobotID,
				Pos:     e.Pos,
				Tick:    e.Tick,
			})
		}
	case events.DecisionApplied:
		if r, ok := sink.(coremetrics.DecisionRecorder); ok {
			_ = r.RecordDecision(coremetrics.DecisionOutcome{
				DecisionID: e.DecisionID,
				Accepted:   e.Accepted,
				Bindings:   e.Bindings,
				Rejected:   e.Rejected,
				Tick:       e.Tick,
			})
		}
	}
}
