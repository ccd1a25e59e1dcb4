package hazardmap

import (
	"sort"

	"github.com/golang/geo/s2"
)

// DefaultGridLevel is the S2 cell level used when none is requested. Level 6
// cells are roughly 150 km across.
const DefaultGridLevel = 6

const maxGridLevel = 30

// GridCell is one bin of the density grid.
type GridCell struct {
	Token  string  `json:"token"`
	Level  int     `json:"level"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Weight float64 `json:"weight"` // Sum normalized by the heaviest cell
}

// Grid bins the current heat layer into S2 cells at level and normalizes the
// summed intensity of each cell to [0,1]. Cells are ordered by token. Levels
// outside 0..30 fall back to DefaultGridLevel.
func (c *Controller) Grid(level int) []GridCell {
	if level < 0 || level > maxGridLevel {
		level = DefaultGridLevel
	}

	c.mu.Lock()
	points := c.points
	c.mu.Unlock()

	bins := make(map[s2.CellID]*GridCell)
	maxSum := 0.0
	for _, p := range points {
		id := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng)).Parent(level)
		cell, ok := bins[id]
		if !ok {
			center := id.LatLng()
			cell = &GridCell{
				Token: id.ToToken(),
				Level: level,
				Lat:   center.Lat.Degrees(),
				Lng:   center.Lng.Degrees(),
			}
			bins[id] = cell
		}
		cell.Count++
		cell.Sum += p.Intensity
		if cell.Sum > maxSum {
			maxSum = cell.Sum
		}
	}

	cells := make([]GridCell, 0, len(bins))
	for _, cell := range bins {
		if maxSum > 0 {
			cell.Weight = cell.Sum / maxSum
		}
		cells = append(cells, *cell)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Token < cells[j].Token })
	return cells
}
