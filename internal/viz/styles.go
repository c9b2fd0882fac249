package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles of one theme.
type Styles struct {
	Theme   Theme
	Canvas  lipgloss.Style
	Panel   lipgloss.Style
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Active  lipgloss.Style
	Muted   lipgloss.Style
	Graph   lipgloss.Style
	Running lipgloss.Style
	Paused  lipgloss.Style
	Failed  lipgloss.Style
	High    lipgloss.Style
	Mid     lipgloss.Style
	Low     lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Theme:   t,
		Canvas:  lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 2),
		Panel:   lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(48),
		Header:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		Value:   lipgloss.NewStyle().Foreground(t.Text),
		Active:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		Graph:   lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 0),
		Running: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Paused:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		Failed:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		High:    lipgloss.NewStyle().Foreground(t.Error),
		Mid:     lipgloss.NewStyle().Foreground(t.Warning),
		Low:     lipgloss.NewStyle().Foreground(t.Success),
	}
}

// Bar renders |value|/limit as a bar of width cells, signed values grow from
// the middle.
func (s Styles) Bar(value, limit float64, width int) string {
	if width < 2 {
		return ""
	}
	half := width / 2
	ratio := 0.0
	if limit > 0 {
		ratio = min(1, max(-1, value/limit))
	}
	filled := int(ratio * float64(half))
	cells := []rune(strings.Repeat("·", width))
	if filled >= 0 {
		for i := half; i < half+filled; i++ {
			cells[i] = '█'
		}
	} else {
		for i := half + filled; i < half; i++ {
			cells[i] = '█'
		}
	}
	bar := string(cells)
	switch a := max(ratio, -ratio); {
	case a > 0.8:
		return s.High.Render(bar)
	case a > 0.4:
		return s.Mid.Render(bar)
	}
	return s.Low.Render(bar)
}

// Sparkline renders the last width values with block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return b.String()
}
