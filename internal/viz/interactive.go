package viz

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/spinlab/internal/config"
)

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuValue  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuFaint  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

var presetInfo = map[string]string{
	"ferromagnet":     "exchange only, aligns",
	"skyrmion":        "bloch DMI + field",
	"neel_skyrmion":   "neel DMI + field",
	"helix":           "DMI spiral, no field",
	"antiferromagnet": "negative exchange",
	"easy_axis":       "anisotropy along z",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// param is one editable entry of the config screen.
type param struct {
	name string
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
	step float64
}

var params = []param{
	{"nx", func(c *config.Config) float64 { return float64(c.Lattice.NX) }, func(c *config.Config, v float64) { c.Lattice.NX = max(int(v), 1) }, 1},
	{"ny", func(c *config.Config) float64 { return float64(c.Lattice.NY) }, func(c *config.Config, v float64) { c.Lattice.NY = max(int(v), 1) }, 1},
	{"bz", func(c *config.Config) float64 { return vecZ(c.Hamiltonian.B) }, func(c *config.Config, v float64) { c.Hamiltonian.B = []float64{0, 0, v} }, 0.05},
	{"k", func(c *config.Config) float64 { return c.Hamiltonian.K }, func(c *config.Config, v float64) { c.Hamiltonian.K = v }, 0.05},
	{"j", func(c *config.Config) float64 { return c.Hamiltonian.J }, func(c *config.Config, v float64) { c.Hamiltonian.J = v }, 0.1},
	{"d", func(c *config.Config) float64 { return c.Hamiltonian.D }, func(c *config.Config, v float64) { c.Hamiltonian.D = v }, 0.05},
	{"step", func(c *config.Config) float64 { return c.Relax.StepSize }, func(c *config.Config, v float64) { c.Relax.StepSize = v }, 0.05},
	{"temp", func(c *config.Config) float64 { return c.Relax.Temperature }, func(c *config.Config, v float64) { c.Relax.Temperature = max(v, 0) }, 0.05},
}

func vecZ(v []float64) float64 {
	if len(v) != 3 {
		return 0
	}
	return v[2]
}

type app struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	liveModel     Model
}

// NewInteractiveApp starts at the preset menu.
func NewInteractiveApp() *app {
	return &app{
		state:   stateMenu,
		presets: config.ListPresets(),
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m app) handleKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	p := params[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%f", &val); err == nil {
				p.set(m.cfg, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, fmt.Sprintf("%g", p.get(m.cfg))
	case "left", "h":
		p.set(m.cfg, p.get(m.cfg)-p.step)
	case "right", "l":
		p.set(m.cfg, p.get(m.cfg)+p.step)
	case "s":
		cmd := m.start()
		return m, cmd
	}
	return m, nil
}

func (m *app) start() tea.Cmd {
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return nil
	}
	seed := m.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	field, err := m.cfg.NewField(rng)
	if err != nil {
		m.err = err
		return nil
	}
	hp, err := m.cfg.Params()
	if err != nil {
		m.err = err
		return nil
	}
	live, err := NewModel(m.selected, field, hp, m.cfg.RelaxConfig(), rng)
	if err != nil {
		m.err = err
		return nil
	}
	m.liveModel = live
	m.state = stateSim
	return m.liveModel.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

func keyHint(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuKey.Render(pairs[i]) + menuIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("SPINLAB") + "\n    " + menuSub.Render("monte carlo spin relaxation") + "\n    " + menuSub.Render("───────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-16s", name)), menuValue.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuIdle.Render(fmt.Sprintf("  %-16s", name)), menuFaint.Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHint("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m app) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(m.selected)) + "\n    " + menuSub.Render(presetInfo[m.selected]) + "\n    " + menuSub.Render("───────────────────────────") + "\n\n")
	for i, p := range params {
		valStr := fmt.Sprintf("%8.3f", p.get(m.cfg))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", p.name)), menuValue.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuIdle.Render(fmt.Sprintf("  %-10s", p.name)), menuFaint.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHint("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive opens the preset picker full screen.
func RunInteractive() error {
	_, err := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen()).Run()
	return err
}
