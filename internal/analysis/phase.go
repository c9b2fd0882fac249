package analysis

import (
	"fmt"
	"strings"
)

// Point is one sample of a phase portrait.
type Point struct{ X, Y float64 }

// PhasePortrait pairs two series, typically the position and velocity of
// one joint.
type PhasePortrait struct {
	XLabel, YLabel string
	Points         []Point
}

func NewPhasePortrait(xLabel string, xs []float64, yLabel string, ys []float64) (*PhasePortrait, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("analysis: %s has %d samples, %s has %d", xLabel, len(xs), yLabel, len(ys))
	}
	p := &PhasePortrait{XLabel: xLabel, YLabel: yLabel, Points: make([]Point, len(xs))}
	for i := range xs {
		p.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return p, nil
}

func (p *PhasePortrait) bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	return
}

// ASCII draws the portrait on a width x height grid with 10% padding, the
// axes are drawn when they cross the visible area. The last sample is marked
// with 'o'.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := p.bounds()
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	cell := func(x, y float64) (int, int) {
		col := int((x - minX) / rangeX * float64(width-1))
		row := height - 1 - int((y-minY)/rangeY*float64(height-1))
		return row, col
	}

	if minX <= 0 && maxX >= 0 {
		_, col := cell(0, 0)
		for row := range canvas {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row, _ := cell(0, 0)
		for col := range canvas[row] {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	for _, pt := range p.Points {
		row, col := cell(pt.X, pt.Y)
		canvas[row][col] = '•'
	}
	last := p.Points[len(p.Points)-1]
	row, col := cell(last.X, last.Y)
	canvas[row][col] = 'o'

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (vertical) vs %s (horizontal)\n", p.YLabel, p.XLabel)
	for _, r := range canvas {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}
