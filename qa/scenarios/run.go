package scenarios

import (
	"fmt"

	"github.com/rescueroute/fleetsim/core/dispatch"
	"github.com/rescueroute/fleetsim/core/model"
	"github.com/rescueroute/fleetsim/core/sim"
	"github.com/rescueroute/fleetsim/infra/logger"
)

// Result summarizes a scenario run against its expectations.
type Result struct {
	Scenario *Scenario
	Final    model.Snapshot
	Failures []string
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes the scenario headless and checks the expected outcome.
func Run(sc *Scenario) (Result, error) {
	clock, err := sim.New(sc.SimConfig(), nil, logger.NopLogger{})
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	pending := make(map[uint64][]DecisionDef)
	for _, d := range sc.Decisions {
		pending[d.AtTick] = append(pending[d.AtTick], d)
	}

	res := Result{Scenario: sc}
	var snap model.Snapshot
	for tick := 1; tick <= sc.Ticks; tick++ {
		var results []<-chan dispatch.ApplyResult
		var defs []DecisionDef
		for _, d := range pending[uint64(tick)] {
			ch, err := clock.EnqueueDecision(d.Decision())
			if err != nil {
				return Result{}, fmt.Errorf("scenario %s tick %d: %w", sc.Name, tick, err)
			}
			results = append(results, ch)
			defs = append(defs, d)
		}
		snap = clock.Step()
		for i, ch := range results {
			outcome := <-ch
			if outcome.Accepted != defs[i].ExpectAccepted {
				res.Failures = append(res.Failures, fmt.Sprintf(
					"tick %d: decision accepted=%v, expected %v", tick, outcome.Accepted, defs[i].ExpectAccepted))
			}
		}
	}
	res.Final = snap

	if snap.CompletedTotal != sc.Expected.CompletedTotal {
		res.Failures = append(res.Failures, fmt.Sprintf(
			"completed = %d, expected %d", snap.CompletedTotal, sc.Expected.CompletedTotal))
	}
	dead := 0
	for _, r := range snap.Robots {
		if r.Status == model.RobotDead {
			dead++
		}
	}
	if dead != sc.Expected.DeadRobots {
		res.Failures = append(res.Failures, fmt.Sprintf(
			"dead robots = %d, expected %d", dead, sc.Expected.DeadRobots))
	}
	for id, want := range sc.Expected.Robots {
		found := false
		for _, r := range snap.Robots {
			if r.ID == id {
				found = true
				if r.Pos != want {
					res.Failures = append(res.Failures, fmt.Sprintf(
						"robot %s at %s, expected %s", id, r.Pos, want))
				}
			}
		}
		if !found {
			res.Failures = append(res.Failures, fmt.Sprintf("robot %s missing from snapshot", id))
		}
	}
	return res, nil
}
