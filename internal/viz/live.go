package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r3"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ctrlib/internal/experiment"
	"github.com/san-kum/ctrlib/internal/impedance"
	"github.com/san-kum/ctrlib/internal/metrics"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	frameRate       = 30
	trailCapacity   = 300
)

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	State sim.State
	Time  float64
	Error float64
}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// tunable is implemented by the impedance controllers.
type tunable interface {
	Impedance() *impedance.Dissipative
}

// resettable is implemented by controllers with internal memory.
type resettable interface {
	Reset()
}

// Live steps an experiment in real time and draws the arm, its target and
// the tracking error.
type Live struct {
	exp      *experiment.Experiment
	tracking sim.Metric
	styles   Styles

	x   sim.State
	u   sim.Control
	t   float64
	dt  float64
	err error

	stepsPerFrame int
	running       bool
	showHelp      bool

	canvas   *Canvas
	viewport *Viewport
	target   []r3.Vector
	trail    []r3.Vector

	errorHistory []float64
	history      []Snapshot
	playHead     int
}

func NewLive(exp *experiment.Experiment, theme Theme) (*Live, error) {
	cfg := exp.Config()
	canvas := NewCanvas(width, height)
	l := &Live{
		exp:           exp,
		styles:        NewStyles(theme),
		dt:            cfg.Dt,
		stepsPerFrame: max(1, int(1/(frameRate*cfg.Dt)+0.5)),
		running:       true,
		canvas:        canvas,
		viewport:      NewViewport(canvas, exp.Model().Reach()*1.1),
		playHead:      -1,
	}

	target := exp.Target()
	if target.IsTask() {
		l.target = []r3.Vector{target.Pose.Position()}
		l.tracking = metrics.NewTaskTracking(exp.Model(), target.Pose)
	} else {
		points, err := Links(exp.Model(), target.Joint)
		if err != nil {
			return nil, err
		}
		l.target = points
		l.tracking = metrics.NewJointTracking(target.Joint)
	}
	l.reset()
	return l, nil
}

func (l *Live) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (l *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return l, tea.Quit
		case " ":
			l.running = !l.running
		case "r":
			l.reset()
		case "[":
			l.scrub(-1)
		case "]":
			l.scrub(1)
		case "up", "k":
			l.tune(1.1)
		case "down", "j":
			l.tune(1 / 1.1)
		case "+", "=":
			l.stepsPerFrame *= 2
		case "-", "_":
			l.stepsPerFrame = max(1, l.stepsPerFrame/2)
		case "t":
			l.styles = NewStyles(NextTheme(l.styles.Theme))
		case "?":
			l.showHelp = !l.showHelp
		}
	case TickMsg:
		if l.running && l.err == nil {
			if l.playHead == -1 {
				for i := 0; i < l.stepsPerFrame && l.err == nil; i++ {
					l.step()
				}
			} else {
				l.scrub(1)
			}
		}
		return l, tick()
	}
	return l, nil
}

// step advances the closed loop by one integration step.
func (l *Live) step() {
	exp := l.exp
	u, err := exp.Controller().Compute(l.x, l.t)
	if err != nil {
		l.err = fmt.Errorf("t=%.3f: %w", l.t, err)
		return
	}
	next := exp.Integrator().Step(exp.Plant(), l.x, u, l.t, l.dt)
	if !next.IsValid() {
		l.err = fmt.Errorf("t=%.3f: %w", l.t, sim.ErrInvalidState)
		return
	}
	l.x, l.u = next, u
	l.t += l.dt
	l.record()
}

func (l *Live) record() {
	l.tracking.Observe(l.x, l.u, l.t)
	trackingError := l.tracking.Value()
	l.errorHistory = appendBounded(l.errorHistory, trackingError, historyCapacity)
	l.history = appendBounded(l.history, Snapshot{State: l.x.Clone(), Time: l.t, Error: trackingError}, historyCapacity)

	if q, err := l.positions(l.x); err == nil {
		if ee, err := l.exp.Model().ForwardGeometry(q, ""); err == nil {
			l.trail = appendBounded(l.trail, ee.Position(), trailCapacity)
		}
	}
}

func appendBounded[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[len(s)-capacity:]
	}
	return s
}

func (l *Live) positions(x sim.State) (state.JointPositions, error) {
	m := l.exp.Model()
	return state.JointPositionsFrom(m.Name(), m.JointNames(), x[:m.NbJoints()])
}

// scrub changes the playback position in history.
func (l *Live) scrub(dir int) {
	if l.playHead == -1 {
		if len(l.history) == 0 || dir > 0 {
			return
		}
		l.playHead = len(l.history) - 1
		l.running = false
	}
	l.playHead += dir
	if l.playHead < 0 {
		l.playHead = 0
	}
	if l.playHead >= len(l.history) {
		l.playHead = -1
	}
}

// tune scales the damping eigenvalues of impedance controllers.
func (l *Live) tune(factor float64) {
	c, ok := l.exp.Controller().(tunable)
	if !ok {
		return
	}
	values := c.Impedance().DampingEigenvalues()
	for i := range values {
		values[i] *= factor
	}
	_ = c.Impedance().SetDampingEigenvalues(values)
}

// reset restores the initial state.
func (l *Live) reset() {
	l.x = l.exp.InitialState()
	l.u = make(sim.Control, l.exp.Plant().ControlDim())
	l.t = 0
	l.err = nil
	l.playHead = -1
	l.trail = l.trail[:0]
	l.errorHistory = l.errorHistory[:0]
	l.history = l.history[:0]
	if c, ok := l.exp.Controller().(resettable); ok {
		c.Reset()
	}
	l.tracking.Reset()
	l.record()
}

func (l *Live) shown() Snapshot {
	if l.playHead >= 0 && l.playHead < len(l.history) {
		return l.history[l.playHead]
	}
	return Snapshot{State: l.x, Time: l.t, Error: lastOr(l.errorHistory, 0)}
}

func lastOr(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	return values[len(values)-1]
}

func (l *Live) draw(x sim.State) {
	l.canvas.Clear()
	for _, p := range l.trail {
		l.viewport.Point(p)
	}
	if len(l.target) == 1 {
		l.viewport.Cross(l.target[0], 3)
	} else if len(l.target) > 1 {
		for _, p := range l.target[1:] {
			l.viewport.Cross(p, 2)
		}
	}
	q, err := l.positions(x)
	if err != nil {
		return
	}
	if points, err := Links(l.exp.Model(), q); err == nil {
		DrawArm(l.viewport, points)
	}
}

func (l *Live) status(snap Snapshot) string {
	s := l.styles
	switch {
	case l.err != nil:
		return s.Failed.Render("FAILED " + l.err.Error())
	case l.playHead != -1:
		return s.Paused.Render(fmt.Sprintf("REPLAY (%.2fs)", snap.Time-l.t))
	case !l.running:
		return s.Paused.Render("PAUSED")
	}
	return s.Running.Render("RUNNING")
}

// View renders the TUI interface.
func (l *Live) View() string {
	s := l.styles
	snap := l.shown()
	l.draw(snap.State)

	cfg := l.exp.Config()
	var b strings.Builder
	b.WriteString(s.Header.Render(strings.ToUpper(cfg.Robot.Name)+" · "+cfg.Mode+" · "+cfg.Controller) + "\n")
	b.WriteString(l.status(snap) + "\n\n")

	row := func(label, value string) {
		b.WriteString(s.Label.Render(label) + s.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Error", fmt.Sprintf("%.3e", snap.Error))
	row("Speed", fmt.Sprintf("%d steps/frame", l.stepsPerFrame))
	if c, ok := l.exp.Controller().(tunable); ok {
		row("Damping", fmt.Sprintf("%.2f", c.Impedance().DampingEigenvalues()))
	}

	if len(l.errorHistory) > 1 {
		chart := asciigraph.Plot(l.errorHistory, asciigraph.Height(5), asciigraph.Width(34), asciigraph.Caption("tracking error"))
		b.WriteString(s.Graph.Render(chart) + "\n")
	}

	b.WriteString("\nJOINTS\n")
	n := l.exp.Model().NbJoints()
	for i, name := range l.exp.Model().JointNames() {
		torque := 0.0
		if i < len(l.u) && l.playHead == -1 {
			torque = l.u[i]
		}
		line := fmt.Sprintf("%-9s %+6.2f %+6.2f ", name, snap.State[i], snap.State[n+i])
		b.WriteString(s.Muted.Render(line) + s.Bar(torque, 10, 12) + "\n")
	}

	b.WriteString(s.Muted.Render("\nSP:Pause R:Reset Q:Quit ?:Help\n[ ]:Replay ↑↓:Damping +-:Speed T:Theme"))
	view := lipgloss.JoinHorizontal(lipgloss.Top, s.Canvas.Render(l.canvas.String()), s.Panel.Render(b.String()))
	if l.showHelp {
		return s.Active.Render(helpText) + "\n\n" + view
	}
	return view
}

const helpText = `
  Space    pause or resume
  R        restart from the initial state
  [ ]      step backward or forward through history
  Up/K     increase damping eigenvalues by 10%
  Down/J   decrease damping eigenvalues by 10%
  + -      double or halve the simulation speed
  T        cycle themes
  Q        quit`

// RunLive runs the live view of exp until the user quits.
func RunLive(exp *experiment.Experiment, theme Theme) error {
	l, err := NewLive(exp, theme)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(l, tea.WithAltScreen()).Run()
	return err
}

var _ tea.Model = (*Live)(nil)
