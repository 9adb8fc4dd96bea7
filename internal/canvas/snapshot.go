package canvas

import (
	"errors"
	"fmt"
)

// Run is a run-length encoded span of equal cells in row-major order.
type Run struct {
	Color Color `json:"c"`
	Count int   `json:"n"`
}

// Snapshot is the full grid state sent to joining clients.
type Snapshot struct {
	Width   int   `json:"width"`
	Height  int   `json:"height"`
	Strokes int   `json:"strokes"`
	Runs    []Run `json:"runs"`
}

var ErrCorruptSnapshot = errors.New("snapshot runs do not cover the grid")

func (c *Canvas) Snapshot() Snapshot {
	snap := Snapshot{Width: c.width, Height: c.height, Strokes: len(c.strokes)}
	for _, cell := range c.cells {
		if n := len(snap.Runs); n > 0 && snap.Runs[n-1].Color == cell {
			snap.Runs[n-1].Count++
			continue
		}
		snap.Runs = append(snap.Runs, Run{Color: cell, Count: 1})
	}
	return snap
}

// Cells expands the runs into a row-major grid.
func (s Snapshot) Cells() ([]Color, error) {
	total := s.Width * s.Height
	cells := make([]Color, 0, total)
	for _, run := range s.Runs {
		if run.Count <= 0 || len(cells)+run.Count > total {
			return nil, ErrCorruptSnapshot
		}
		for i := 0; i < run.Count; i++ {
			cells = append(cells, run.Color)
		}
	}
	if len(cells) != total {
		return nil, fmt.Errorf("%w: %d of %d cells", ErrCorruptSnapshot, len(cells), total)
	}
	return cells, nil
}

// Grid returns a copy of the cells in row-major order.
func (c *Canvas) Grid() []Color {
	out := make([]Color, len(c.cells))
	copy(out, c.cells)
	return out
}
