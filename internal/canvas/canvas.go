package canvas

import (
	"errors"
	"fmt"
)

// Color is a palette index. Empty marks a cell nobody has painted.
type Color uint8

const (
	Empty       Color = 0
	PaletteSize       = 16
)

// Valid reports whether c is empty or a palette index.
func (c Color) Valid() bool {
	return c <= PaletteSize
}

type Tool string

const (
	ToolDraw  Tool = "draw"
	ToolErase Tool = "erase"
)

func (t Tool) Valid() bool {
	return t == ToolDraw || t == ToolErase
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Stroke is one atomic drawing operation. From == To paints a single cell.
type Stroke struct {
	From  Point `json:"from"`
	To    Point `json:"to"`
	Color Color `json:"color"`
	Tool  Tool  `json:"tool"`
}

// Cell is a changed grid position carried by a Diff.
type Cell struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Color Color `json:"color"`
}

// Diff describes the effect of one applied stroke.
type Diff struct {
	Stroke  Stroke
	Changed []Cell
}

func (d Diff) Empty() bool {
	return len(d.Changed) == 0
}

var (
	ErrOutOfBounds  = errors.New("stroke outside canvas")
	ErrInvalidColor = errors.New("color not in palette")
	ErrInvalidTool  = errors.New("unknown tool")
	ErrDimensions   = errors.New("canvas dimensions must be positive")
)

// Canvas is a fixed-size grid. It is not safe for concurrent use; the session
// loop is its only owner.
type Canvas struct {
	width   int
	height  int
	cells   []Color
	strokes []Stroke
}

func New(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	return &Canvas{
		width:  width,
		height: height,
		cells:  make([]Color, width*height),
	}, nil
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

func (c *Canvas) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < c.width && p.Y < c.height
}

// At returns the color at p, or Empty when p is outside the grid.
func (c *Canvas) At(p Point) Color {
	if !c.Contains(p) {
		return Empty
	}
	return c.cells[p.Y*c.width+p.X]
}

// Validate checks a stroke without touching the grid.
func (c *Canvas) Validate(stroke Stroke) error {
	if !stroke.Tool.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTool, stroke.Tool)
	}
	if !stroke.Color.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidColor, stroke.Color)
	}
	if !c.Contains(stroke.From) || !c.Contains(stroke.To) {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d) on %dx%d", ErrOutOfBounds,
			stroke.From.X, stroke.From.Y, stroke.To.X, stroke.To.Y, c.width, c.height)
	}
	return nil
}

// ApplyStroke rasterises the stroke onto the grid. A stroke that changes no
// cell is accepted but not recorded.
func (c *Canvas) ApplyStroke(stroke Stroke) (Diff, error) {
	if err := c.Validate(stroke); err != nil {
		return Diff{}, err
	}
	color := stroke.Color
	if stroke.Tool == ToolErase {
		color = Empty
	}
	diff := Diff{Stroke: stroke}
	for _, p := range Line(stroke.From, stroke.To) {
		idx := p.Y*c.width + p.X
		if c.cells[idx] == color {
			continue
		}
		c.cells[idx] = color
		diff.Changed = append(diff.Changed, Cell{X: p.X, Y: p.Y, Color: color})
	}
	if !diff.Empty() {
		c.strokes = append(c.strokes, stroke)
	}
	return diff, nil
}

// Clear empties the grid and forgets the stroke history.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Empty
	}
	c.strokes = c.strokes[:0]
}

// Strokes returns a copy of the strokes applied since the last clear.
func (c *Canvas) Strokes() []Stroke {
	out := make([]Stroke, len(c.strokes))
	copy(out, c.strokes)
	return out
}

// Replay builds a canvas by applying strokes in order to an empty grid.
func Replay(width, height int, strokes []Stroke) (*Canvas, error) {
	c, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for i, stroke := range strokes {
		if _, err := c.ApplyStroke(stroke); err != nil {
			return nil, fmt.Errorf("replay stroke %d: %w", i, err)
		}
	}
	return c, nil
}

// Line returns the cells of the segment from a to b (Bresenham), endpoints included.
func Line(a, b Point) []Point {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	points := make([]Point, 0, max(dx, -dy)+1)
	err := dx + dy
	x, y := a.X, a.Y
	for {
		points = append(points, Point{X: x, Y: y})
		if x == b.X && y == b.Y {
			return points
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
