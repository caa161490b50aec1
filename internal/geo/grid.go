package geo

import "math"

// DefaultGridSize is the hotspot cell size in degrees
const DefaultGridSize = 0.1

// Cell identifies a snapped grid cell by its center
type Cell struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Grid snaps coordinates to cells of Size degrees on both axes
type Grid struct {
	Size float64
}

// NewGrid returns a grid, falling back to DefaultGridSize for non-positive sizes
func NewGrid(size float64) Grid {
	if size <= 0 || math.IsNaN(size) {
		size = DefaultGridSize
	}
	return Grid{Size: size}
}

// Snap computes round(v/size)*size per axis. math.Round rounds half away
// from zero on both axes so cells are symmetric around the origin.
func (g Grid) Snap(c Coordinate) Cell {
	return Cell{
		Latitude:  g.snap(c.Latitude),
		Longitude: g.snap(c.Longitude),
	}
}

func (g Grid) snap(v float64) float64 {
	steps := math.Round(v / g.Size)
	// trim binary noise such as 40.7000000001 so equal cells compare equal
	return RoundTo(steps*g.Size, decimals(g.Size)+2)
}

func decimals(size float64) int {
	n := 0
	for size < 1 && n < 10 {
		size *= 10
		n++
	}
	return n
}
