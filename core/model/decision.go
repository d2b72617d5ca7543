package model

// Reassignment pairs a robot with the mission it should take over.
type Reassignment struct {
	RobotID   string `json:"robot_id"`
	MissionID string `json:"mission_id"`
}

// Decision is an externally computed fleet recommendation. The engine
// validates and applies it atomically at the next tick boundary; Reasoning is
// display metadata and never influences assignment.
type Decision struct {
	ID                string         `json:"id,omitempty"` // assigned on submission
	PriorityMissionID string         `json:"priority_mission_id,omitempty"`
	Reassignments     []Reassignment `json:"reassignments"`
	Reasoning         string         `json:"reasoning,omitempty"`
}
