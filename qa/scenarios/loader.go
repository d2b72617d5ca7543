// Package scenarios runs YAML-defined deterministic simulations and checks
// their outcomes. The same runner backs the qa tests and the scenario CLI
// subcommand.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rescueroute/fleetsim/core/model"
	"github.com/rescueroute/fleetsim/core/sim"
)

type RobotDef struct {
	Pos     model.Cell `yaml:"pos"`
	Battery float64    `yaml:"battery"`
}

type MissionDef struct {
	Priority string     `yaml:"priority"`
	Target   model.Cell `yaml:"target"`
}

type WorldDef struct {
	Width     int          `yaml:"width"`
	Height    int          `yaml:"height"`
	Stations  []model.Cell `yaml:"stations"`
	Obstacles []model.Cell `yaml:"obstacles,omitempty"`
}

// ReassignDef pairs a robot with a mission inside an injected decision.
type ReassignDef struct {
	RobotID   string `yaml:"robot_id"`
	MissionID string `yaml:"mission_id"`
}

// DecisionDef is an external decision injected before the given tick runs.
type DecisionDef struct {
	AtTick            uint64        `yaml:"at_tick"`
	PriorityMissionID string        `yaml:"priority_mission_id,omitempty"`
	Reassignments     []ReassignDef `yaml:"reassignments,omitempty"`
	ExpectAccepted    bool          `yaml:"expect_accepted"`
}

// Decision converts the definition into the engine's decision type.
func (d DecisionDef) Decision() model.Decision {
	dec := model.Decision{PriorityMissionID: d.PriorityMissionID}
	for _, r := range d.Reassignments {
		dec.Reassignments = append(dec.Reassignments, model.Reassignment{
			RobotID:   r.RobotID,
			MissionID: r.MissionID,
		})
	}
	return dec
}

type Expected struct {
	CompletedTotal int `yaml:"completed_total"`
	DeadRobots     int `yaml:"dead_robots"`
	// Robots pins final positions by robot id.
	Robots map[string]model.Cell `yaml:"robots,omitempty"`
}

type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Ticks       int           `yaml:"ticks"`
	World       WorldDef      `yaml:"world"`
	Robots      []RobotDef    `yaml:"robots"`
	Missions    []MissionDef  `yaml:"missions"`
	Decisions   []DecisionDef `yaml:"decisions,omitempty"`
	Expected    Expected      `yaml:"expected"`
}

// Load reads a scenario definition from path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// SimConfig translates the scenario into a pinned simulation configuration.
func (sc *Scenario) SimConfig() sim.Config {
	cfg := sim.Config{
		Seed: 1,
		World: sim.WorldConfig{
			Width:      sc.World.Width,
			Height:     sc.World.Height,
			StationAt:  sc.World.Stations,
			ObstacleAt: sc.World.Obstacles,
		},
	}
	for _, r := range sc.Robots {
		cfg.World.RobotStarts = append(cfg.World.RobotStarts, r.Pos)
		battery := r.Battery
		if battery == 0 {
			battery = 100
		}
		cfg.World.RobotBatteries = append(cfg.World.RobotBatteries, battery)
	}
	for _, m := range sc.Missions {
		cfg.Missions.Scripted = append(cfg.Missions.Scripted, sim.ScriptedMission{
			Priority: m.Priority,
			Target:   m.Target,
		})
	}
	return cfg
}
