package model

// GridLayout describes the static world: dimensions, obstacle cells and
// charging station cells. It is fixed at world creation and shared freely
// between snapshots because it never mutates.
type GridLayout struct {
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	Obstacles        []Cell `json:"obstacles"`
	ChargingStations []Cell `json:"charging_stations"`
}

// Snapshot is an immutable, deeply copied view of simulation state frozen at
// a tick boundary. External readers receive snapshots only and never alias
// live engine memory.
type Snapshot struct {
	Tick              uint64     `json:"tick"`
	Robots            []Robot    `json:"robots"`
	Grid              GridLayout `json:"grid"`
	ActiveMissions    []Mission  `json:"active_missions"`
	CompletedMissions []Mission  `json:"completed_missions"`

	// CompletedTotal counts all completions since the last reset, including
	// missions already evicted from the bounded history window.
	CompletedTotal int `json:"completed_total"`
}
