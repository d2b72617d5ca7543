package model

import "fmt"

// Cell is a discrete coordinate on the simulation grid.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the L1 distance between two cells. All robot moves are
// cardinal with unit cost, so this is also the minimum number of steps on an
// obstacle-free grid.
func (c Cell) Manhattan(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// StepOrder lists the four cardinal offsets in the fixed order used to break
// ties everywhere in the engine: up, right, down, left. Changing this order
// changes every replay.
var StepOrder = [4]Cell{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
