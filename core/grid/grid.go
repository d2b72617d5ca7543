// Package grid implements the static world map: bounds, obstacles and
// charging stations. A World is immutable after construction and therefore
// safe for concurrent reads.
package grid

import (
	"fmt"
	"math/rand"

	"github.com/rescueroute/fleetsim/core/model"
)

// World is the static obstacle and charging-station map.
type World struct {
	width     int
	height    int
	obstacles map[model.Cell]struct{}
	stations  map[model.Cell]struct{}
	layout    model.GridLayout
}

// New validates the layout and builds a World. Construction fails on invalid
// dimensions, out-of-bounds cells, duplicates, or obstacle/station overlap;
// per the error taxonomy these are fatal before any tick runs.
func New(layout model.GridLayout) (*World, error) {
	if layout.Width <= 0 || layout.Height <= 0 {
		return nil, fmt.Errorf("grid: invalid dimensions %dx%d", layout.Width, layout.Height)
	}
	w := &World{
		width:     layout.Width,
		height:    layout.Height,
		obstacles: make(map[model.Cell]struct{}, len(layout.Obstacles)),
		stations:  make(map[model.Cell]struct{}, len(layout.ChargingStations)),
	}
	for _, c := range layout.Obstacles {
		if !w.InBounds(c) {
			return nil, fmt.Errorf("grid: obstacle %s out of bounds", c)
		}
		if _, dup := w.obstacles[c]; dup {
			return nil, fmt.Errorf("grid: duplicate obstacle %s", c)
		}
		w.obstacles[c] = struct{}{}
	}
	for _, c := range layout.ChargingStations {
		if !w.InBounds(c) {
			return nil, fmt.Errorf("grid: charging station %s out of bounds", c)
		}
		if _, dup := w.stations[c]; dup {
			return nil, fmt.Errorf("grid: duplicate charging station %s", c)
		}
		if _, clash := w.obstacles[c]; clash {
			return nil, fmt.Errorf("grid: charging station %s overlaps an obstacle", c)
		}
		w.stations[c] = struct{}{}
	}
	w.layout = model.GridLayout{
		Width:            layout.Width,
		Height:           layout.Height,
		Obstacles:        append([]model.Cell(nil), layout.Obstacles...),
		ChargingStations: append([]model.Cell(nil), layout.ChargingStations...),
	}
	return w, nil
}

// Width returns the grid width.
func (w *World) Width() int { return w.width }

// Height returns the grid height.
func (w *World) Height() int { return w.height }

// InBounds reports whether the cell lies on the grid.
func (w *World) InBounds(c model.Cell) bool {
	return c.X >= 0 && c.X < w.width && c.Y >= 0 && c.Y < w.height
}

// IsObstacle reports whether the cell is blocked by a static obstacle.
func (w *World) IsObstacle(c model.Cell) bool {
	_, ok := w.obstacles[c]
	return ok
}

// IsChargingStation reports whether the cell hosts a charging station.
func (w *World) IsChargingStation(c model.Cell) bool {
	_, ok := w.stations[c]
	return ok
}

// Walkable reports whether a robot may occupy the cell.
func (w *World) Walkable(c model.Cell) bool {
	return w.InBounds(c) && !w.IsObstacle(c)
}

// Neighbors returns the in-bounds cardinal neighbors of c in the fixed
// up, right, down, left order. Obstacle filtering is the caller's concern.
func (w *World) Neighbors(c model.Cell) []model.Cell {
	out := make([]model.Cell, 0, 4)
	for _, d := range model.StepOrder {
		n := model.Cell{X: c.X + d.X, Y: c.Y + d.Y}
		if w.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Stations returns the charging station cells in layout order.
func (w *World) Stations() []model.Cell {
	return w.layout.ChargingStations
}

// NearestStation returns the charging station closest to from by Manhattan
// distance, breaking ties by layout order so lookups are deterministic.
func (w *World) NearestStation(from model.Cell) (model.Cell, bool) {
	var best model.Cell
	bestDist := -1
	for _, s := range w.layout.ChargingStations {
		d := from.Manhattan(s)
		if bestDist < 0 || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, bestDist >= 0
}

// Layout returns the static layout. The returned slices are shared and must
// be treated as read-only.
func (w *World) Layout() model.GridLayout { return w.layout }

// RandomFreeCell draws a uniformly random cell that is neither an obstacle
// nor a charging station. It fails when the grid has no free cell.
func (w *World) RandomFreeCell(rng *rand.Rand) (model.Cell, error) {
	free := w.width*w.height - len(w.obstacles) - len(w.stations)
	if free <= 0 {
		return model.Cell{}, fmt.Errorf("grid: no free cell available")
	}
	for {
		c := model.Cell{X: rng.Intn(w.width), Y: rng.Intn(w.height)}
		if !w.IsObstacle(c) && !w.IsChargingStation(c) {
			return c, nil
		}
	}
}
