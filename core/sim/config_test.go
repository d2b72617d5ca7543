package sim

import (
	"testing"

	"github.com/rescueroute/fleetsim/core/model"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.World.Width != 50 || cfg.World.Height != 50 {
		t.Fatalf("grid = %dx%d, want 50x50", cfg.World.Width, cfg.World.Height)
	}
	if cfg.World.Robots != 5 || cfg.World.ChargingStations != 3 || cfg.World.Obstacles != 10 {
		t.Fatalf("world population = %+v", cfg.World)
	}
	if cfg.Fleet.DrainPerMove != 2.0 || cfg.Fleet.ChargePerTick != 10.0 {
		t.Fatalf("fleet policy = %+v", cfg.Fleet)
	}
	if cfg.TickIntervalSeconds != 1.0 {
		t.Fatalf("tick interval = %v, want 1s", cfg.TickIntervalSeconds)
	}
}

func TestConfigPinnedWorldSkipsPopulationDefaults(t *testing.T) {
	cfg := Config{World: WorldConfig{
		Width: 10, Height: 10,
		StationAt:   []model.Cell{{X: 0, Y: 0}},
		RobotStarts: []model.Cell{{X: 5, Y: 5}},
	}}
	cfg.SetDefaults()
	if cfg.World.Obstacles != 0 || cfg.World.Robots != 0 {
		t.Fatalf("pinned world grew random population: %+v", cfg.World)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("pinned world must validate: %v", err)
	}
}

func TestConfigScriptedMissionsDisableGenerator(t *testing.T) {
	cfg := Config{
		World:    WorldConfig{StationAt: []model.Cell{{X: 0, Y: 0}}},
		Missions: MissionsConfig{Scripted: []ScriptedMission{{Priority: "HIGH", Target: model.Cell{X: 1, Y: 1}}}},
	}
	cfg.SetDefaults()
	if cfg.Missions.InitialPerPriority != 0 || cfg.Missions.SpawnProbability != 0 {
		t.Fatalf("scripted config grew random policy: %+v", cfg.Missions)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero tick interval":   func(c *Config) { c.TickIntervalSeconds = -1 },
		"no stations":          func(c *Config) { c.World.ChargingStations = 0; c.World.StationAt = nil },
		"battery out of range": func(c *Config) { c.World.RobotBattery = 150 },
		"bad spawn probability": func(c *Config) {
			c.Missions.SpawnProbability = 1.5
		},
	}
	for name, mutate := range cases {
		var cfg Config
		cfg.SetDefaults()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
