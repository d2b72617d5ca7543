package dispatch

import "fmt"

// Binding pairs a robot with the mission it was just assigned.
type Binding struct {
	RobotID   string `json:"robot_id"`
	MissionID string `json:"mission_id"`
}

// ItemResult reports the outcome of a single reassignment within an external
// decision.
type ItemResult struct {
	RobotID   string `json:"robot_id"`
	MissionID string `json:"mission_id"`
	Applied   bool   `json:"applied"`
	Reason    string `json:"reason,omitempty"`
}

// ApplyResult is the structured outcome of applying an external decision.
// Decisions are all-or-nothing: Accepted is false when any item failed
// validation, and in that case no state was mutated.
type ApplyResult struct {
	DecisionID string       `json:"decision_id"`
	Accepted   bool         `json:"accepted"`
	Items      []ItemResult `json:"items"`
}

// Rejected counts the items that failed validation.
func (r ApplyResult) Rejected() int {
	n := 0
	for _, it := range r.Items {
		if !it.Applied {
			n++
		}
	}
	return n
}

// Config holds dispatcher policy knobs.
type Config struct {
	// ReachMargin scales the battery required to plausibly reach a target:
	// a robot is eligible when battery >= distance * drain * ReachMargin.
	ReachMargin float64 `json:"reach_margin"`
}

// SetDefaults applies default policy values.
func (c *Config) SetDefaults() {
	if c.ReachMargin == 0 {
		c.ReachMargin = 1.0
	}
}

// Validate checks the dispatcher configuration.
func (c Config) Validate() error {
	if c.ReachMargin < 0 {
		return fmt.Errorf("dispatch: reach_margin must be non-negative")
	}
	return nil
}
