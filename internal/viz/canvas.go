package viz

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
// starting at code point 0x2800.
const blank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in dots. It is
// Width*2 dots wide and Height*4 dots tall.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	return row, col, col < c.Width && row < c.Height
}

// Set lights the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= pixelMap[y%4][x%2]
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps the xy plane of a frame onto a canvas. The origin sits at the
// center and extent meters reach the closest border. y points up.
type Viewport struct {
	canvas *Canvas
	scale  float64
	cx, cy float64
}

func NewViewport(c *Canvas, extent float64) *Viewport {
	w, h := float64(c.Width*2), float64(c.Height*4)
	if extent <= 0 {
		extent = 1
	}
	return &Viewport{
		canvas: c,
		scale:  (math.Min(w, h) / 2) / extent,
		cx:     w / 2,
		cy:     h / 2,
	}
}

// Project returns the dot of p. The z component is ignored.
func (v *Viewport) Project(p r3.Vector) (int, int) {
	return int(math.Round(v.cx + p.X*v.scale)), int(math.Round(v.cy - p.Y*v.scale))
}

func (v *Viewport) Point(p r3.Vector) {
	x, y := v.Project(p)
	v.canvas.Set(x, y)
}

func (v *Viewport) Line(a, b r3.Vector) {
	x0, y0 := v.Project(a)
	x1, y1 := v.Project(b)
	v.canvas.DrawLine(x0, y0, x1, y1)
}

// Cross marks p with a diagonal cross of half size dots.
func (v *Viewport) Cross(p r3.Vector, size int) {
	x, y := v.Project(p)
	v.canvas.DrawLine(x-size, y-size, x+size, y+size)
	v.canvas.DrawLine(x-size, y+size, x+size, y-size)
}
