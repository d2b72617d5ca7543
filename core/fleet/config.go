package fleet

import "fmt"

// Config holds the battery and charging policy constants. Defaults mirror the
// production policy: 2% drain per move, 10% charge per tick, divert below 20%,
// accept missions above 50%, resume work only when full.
type Config struct {
	// DrainPerMove is the battery percentage consumed by one grid step.
	DrainPerMove float64 `json:"drain_per_move"`
	// ChargePerTick is the battery percentage restored per tick on a station.
	ChargePerTick float64 `json:"charge_per_tick"`
	// LowBattery is the threshold below which a robot commits to charging.
	LowBattery float64 `json:"low_battery_threshold"`
	// MinMissionBattery is the minimum battery to accept a new mission.
	MinMissionBattery float64 `json:"min_mission_battery"`
	// ResumeBattery is the level at which a charging robot returns to IDLE.
	ResumeBattery float64 `json:"resume_battery"`
}

// SetDefaults applies the documented policy defaults to zero fields.
func (c *Config) SetDefaults() {
	if c.DrainPerMove == 0 {
		c.DrainPerMove = 2.0
	}
	if c.ChargePerTick == 0 {
		c.ChargePerTick = 10.0
	}
	if c.LowBattery == 0 {
		c.LowBattery = 20.0
	}
	if c.MinMissionBattery == 0 {
		c.MinMissionBattery = 50.0
	}
	if c.ResumeBattery == 0 {
		c.ResumeBattery = 100.0
	}
}

// Validate checks the policy constants for consistency.
func (c Config) Validate() error {
	if c.DrainPerMove <= 0 {
		return fmt.Errorf("fleet: drain_per_move must be positive")
	}
	if c.ChargePerTick <= 0 {
		return fmt.Errorf("fleet: charge_per_tick must be positive")
	}
	if c.LowBattery < 0 || c.LowBattery > 100 {
		return fmt.Errorf("fleet: low_battery_threshold out of range")
	}
	if c.MinMissionBattery < 0 || c.MinMissionBattery > 100 {
		return fmt.Errorf("fleet: min_mission_battery out of range")
	}
	if c.ResumeBattery <= c.LowBattery || c.ResumeBattery > 100 {
		return fmt.Errorf("fleet: resume_battery must be in (low_battery_threshold, 100]")
	}
	return nil
}
