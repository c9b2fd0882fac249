package export

import (
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"

	"github.com/san-kum/ctrlib/internal/viz"
)

func TestCanvasSVG(t *testing.T) {
	assert.Empty(t, CanvasSVG(nil, 2, "#fff"))

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasSVG(c, 2, "#00ff00")

	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="8" height="8"`)
	assert.Contains(t, svg, `fill="#00ff00"`)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `<circle cx="1.0" cy="1.0" r="0.8"/>`)
	assert.Contains(t, svg, `<circle cx="7.0" cy="7.0" r="0.8"/>`)
}

func TestPathSVG(t *testing.T) {
	assert.Empty(t, PathSVG([]r3.Vector{{X: 1}}, 100, 100, "#fff"))

	svg := PathSVG([]r3.Vector{{X: 0, Y: 0}, {X: 1, Y: 1}}, 120, 120, "#ff00ff")
	assert.Contains(t, svg, `stroke="#ff00ff"`)
	assert.Contains(t, svg, "M10.0,110.0")
	assert.Contains(t, svg, "L110.0,10.0")
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
}
