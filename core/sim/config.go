package sim

import (
	"fmt"

	"github.com/rescueroute/fleetsim/core/dispatch"
	"github.com/rescueroute/fleetsim/core/fleet"
	"github.com/rescueroute/fleetsim/core/mission"
	"github.com/rescueroute/fleetsim/core/model"
)

// WorldConfig describes the grid and its initial population. When the
// explicit cell lists are set they take precedence over the generated
// counts; scenarios use them to pin deterministic layouts.
type WorldConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Robots           int `json:"robots"`
	Obstacles        int `json:"obstacles"`
	ChargingStations int `json:"charging_stations"`

	RobotStarts []model.Cell `json:"robot_starts,omitempty"`
	ObstacleAt  []model.Cell `json:"obstacle_at,omitempty"`
	StationAt   []model.Cell `json:"station_at,omitempty"`

	// RobotBattery is the uniform starting charge; RobotBatteries overrides
	// it per robot, parallel to RobotStarts.
	RobotBattery   float64   `json:"robot_battery"`
	RobotBatteries []float64 `json:"robot_batteries,omitempty"`
}

// ScriptedMission pins a mission enqueued on reset; scenarios use these
// instead of the random generator.
type ScriptedMission struct {
	Priority string     `json:"priority"`
	Target   model.Cell `json:"target"`
}

// MissionsConfig drives the mission generator.
type MissionsConfig struct {
	// InitialPerPriority missions of each priority are enqueued on reset.
	InitialPerPriority int `json:"initial_per_priority"`
	// SpawnProbability is the per-tick chance of a new random mission.
	SpawnProbability float64 `json:"spawn_probability"`
	// MaxActive caps pending plus in-progress missions; at the cap the
	// generator stays silent.
	MaxActive int `json:"max_active"`
	// Scripted missions are enqueued verbatim on reset, before any random
	// seeding. When set, the random policy defaults stay off.
	Scripted []ScriptedMission `json:"scripted,omitempty"`
}

// Config is the complete simulation configuration.
type Config struct {
	TickIntervalSeconds float64         `json:"tick_interval_seconds"`
	Seed                int64           `json:"seed"`
	HistoryWindow       int             `json:"history_window"`
	World               WorldConfig     `json:"world"`
	Missions            MissionsConfig  `json:"missions"`
	Fleet               fleet.Config    `json:"fleet"`
	Dispatch            dispatch.Config `json:"dispatch"`
}

// SetDefaults applies the default policy values.
func (c *Config) SetDefaults() {
	if c.TickIntervalSeconds == 0 {
		c.TickIntervalSeconds = 1.0
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = mission.DefaultHistoryWindow
	}
	if c.World.Width == 0 {
		c.World.Width = 50
	}
	if c.World.Height == 0 {
		c.World.Height = 50
	}
	// Population defaults apply only to a fully unspecified world; a config
	// that pins any placement or count is taken literally.
	if c.World.Robots == 0 && len(c.World.RobotStarts) == 0 &&
		c.World.ChargingStations == 0 && len(c.World.StationAt) == 0 &&
		c.World.Obstacles == 0 && len(c.World.ObstacleAt) == 0 {
		c.World.Robots = 5
		c.World.ChargingStations = 3
		c.World.Obstacles = 10
	}
	if c.World.RobotBattery == 0 {
		c.World.RobotBattery = 100
	}
	// Random mission policy defaults stay off for scripted scenarios.
	if len(c.Missions.Scripted) == 0 &&
		c.Missions.InitialPerPriority == 0 && c.Missions.SpawnProbability == 0 {
		c.Missions.InitialPerPriority = 5
		c.Missions.SpawnProbability = 0.2
	}
	if c.Missions.MaxActive == 0 {
		c.Missions.MaxActive = 30
	}
	c.Fleet.SetDefaults()
	c.Dispatch.SetDefaults()
}

// Validate checks the configuration for values the clock cannot run with.
func (c Config) Validate() error {
	if c.TickIntervalSeconds <= 0 {
		return fmt.Errorf("sim: tick_interval_seconds must be positive")
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("sim: grid dimensions must be positive")
	}
	if c.World.Robots < 0 || c.World.Obstacles < 0 || c.World.ChargingStations < 0 {
		return fmt.Errorf("sim: world counts must be non-negative")
	}
	if len(c.World.StationAt) == 0 && c.World.ChargingStations == 0 {
		return fmt.Errorf("sim: at least one charging station is required")
	}
	if c.World.RobotBattery < 0 || c.World.RobotBattery > 100 {
		return fmt.Errorf("sim: robot_battery must be within [0, 100]")
	}
	if n := len(c.World.RobotBatteries); n > 0 && n != len(c.World.RobotStarts) {
		return fmt.Errorf("sim: robot_batteries must match robot_starts")
	}
	if c.Missions.SpawnProbability < 0 || c.Missions.SpawnProbability > 1 {
		return fmt.Errorf("sim: spawn_probability must be within [0, 1]")
	}
	if c.Missions.InitialPerPriority < 0 || c.Missions.MaxActive < 0 {
		return fmt.Errorf("sim: mission counts must be non-negative")
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("sim: history_window must be positive")
	}
	if err := c.Fleet.Validate(); err != nil {
		return err
	}
	return c.Dispatch.Validate()
}
