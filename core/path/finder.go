// Package path computes shortest routes on the grid. All moves cost one, so
// breadth-first search is optimal; routes are recomputed every tick instead
// of cached, trading CPU for determinism and simplicity.
package path

import (
	"github.com/rescueroute/fleetsim/core/grid"
	"github.com/rescueroute/fleetsim/core/model"
)

// Finder computes next steps and full routes over a fixed world.
type Finder struct {
	world *grid.World
}

// NewFinder returns a Finder bound to the given world.
func NewFinder(w *grid.World) *Finder {
	return &Finder{world: w}
}

// NextStep returns the first cell of a shortest route from from to to,
// avoiding obstacles and the advisory blocked set (cells occupied by other
// robots this tick). It returns from unchanged when from == to, when to is
// unreachable, or when every route is currently blocked; holding position is
// a reported stall, never an error.
func (f *Finder) NextStep(from, to model.Cell, blocked map[model.Cell]struct{}) model.Cell {
	route := f.Route(from, to, blocked)
	if len(route) < 2 {
		return from
	}
	return route[1]
}

// Route returns a full shortest route [from .. to] inclusive, or nil when to
// is unreachable. Neighbor expansion follows the fixed up, right, down, left
// order so identical inputs always produce the identical route.
func (f *Finder) Route(from, to model.Cell, blocked map[model.Cell]struct{}) []model.Cell {
	if !f.world.Walkable(from) || !f.world.Walkable(to) {
		return nil
	}
	if from == to {
		return []model.Cell{from}
	}
	if _, occ := blocked[to]; occ {
		return nil
	}

	prev := map[model.Cell]model.Cell{from: from}
	queue := []model.Cell{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range model.StepOrder {
			next := model.Cell{X: cur.X + d.X, Y: cur.Y + d.Y}
			if !f.world.Walkable(next) {
				continue
			}
			if _, occ := blocked[next]; occ {
				continue
			}
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				return reconstruct(prev, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// Reachable reports whether to can be reached from from ignoring robot
// occupancy, i.e. considering static obstacles only.
func (f *Finder) Reachable(from, to model.Cell) bool {
	return f.Route(from, to, nil) != nil
}

func reconstruct(prev map[model.Cell]model.Cell, from, to model.Cell) []model.Cell {
	var rev []model.Cell
	for c := to; c != from; c = prev[c] {
		rev = append(rev, c)
	}
	rev = append(rev, from)
	route := make([]model.Cell, len(rev))
	for i := range rev {
		route[i] = rev[len(rev)-1-i]
	}
	return route
}
