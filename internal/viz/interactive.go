package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/experiment"
)

const (
	stateMenu = iota
	stateSim
)

type entry struct {
	robot, preset string
	cfg           *config.Config
}

func (e entry) describe() string {
	cfg := e.cfg
	switch cfg.Mode {
	case config.ModeTask:
		return fmt.Sprintf("%s impedance in %s space", cfg.Mode, cfg.Impedance.Space)
	default:
		return fmt.Sprintf("%s %s", cfg.Mode, cfg.Controller)
	}
}

// app lets the user pick a preset and then runs it live.
type app struct {
	state   int
	cursor  int
	entries []entry
	reg     *experiment.Registry
	styles  Styles
	live    *Live
	err     error
}

func newApp(reg *experiment.Registry, theme Theme) *app {
	a := &app{reg: reg, styles: NewStyles(theme)}
	for _, robot := range config.Robots() {
		for _, preset := range config.ListPresets(robot) {
			a.entries = append(a.entries, entry{robot: robot, preset: preset, cfg: config.GetPreset(robot, preset)})
		}
	}
	return a
}

func (a *app) Init() tea.Cmd { return nil }

func (a *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state, a.live = stateMenu, nil
			return a, nil
		}
		_, cmd := a.live.Update(msg)
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	case "t":
		a.styles = NewStyles(NextTheme(a.styles.Theme))
	case "enter", " ":
		return a, a.start()
	}
	return a, nil
}

func (a *app) start() tea.Cmd {
	if len(a.entries) == 0 {
		return nil
	}
	exp, err := experiment.New(a.reg, a.entries[a.cursor].cfg.Clone())
	if err == nil {
		a.live, err = NewLive(exp, a.styles.Theme)
	}
	if err != nil {
		a.err = err
		return nil
	}
	a.err = nil
	a.state = stateSim
	return a.live.Init()
}

func (a *app) View() string {
	if a.state == stateSim {
		return a.live.View() + "\n" + a.styles.Muted.Render("esc: back to presets")
	}

	s := a.styles
	var b strings.Builder
	b.WriteString("\n\n    " + s.Header.Render("CTRLIB") + "\n")
	b.WriteString("    " + s.Muted.Render("impedance control lab") + "\n")
	b.WriteString("    " + s.Muted.Render("─────────────────────────") + "\n\n")
	for i, e := range a.entries {
		name := fmt.Sprintf("%-16s", e.robot+"/"+e.preset)
		if i == a.cursor {
			b.WriteString("    " + s.Active.Render("▸ "+name) + " " + s.Value.Render(e.describe()) + "\n")
		} else {
			b.WriteString("      " + s.Muted.Render(name+" "+e.describe()) + "\n")
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + s.Failed.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + s.Muted.Render("j/k navigate  enter run  t theme  q quit") + "\n")
	return b.String()
}

// RunInteractive opens the preset picker.
func RunInteractive(reg *experiment.Registry, theme Theme) error {
	_, err := tea.NewProgram(newApp(reg, theme), tea.WithAltScreen()).Run()
	return err
}
