package viz

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/spinlab/internal/analysis"
	"github.com/san-kum/spinlab/internal/hamiltonian"
	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/relax"
)

const (
	historyCapacity = 600
	defaultChunk    = 200
	maxChunk        = 1 << 16
	// stallFactor bounds attempts per chunk at stallFactor*chunk.
	stallFactor = 1000
)

type TickMsg time.Time

// Model is a Bubble Tea view that relaxes a field a chunk of accepted moves
// per tick.
type Model struct {
	title         string
	field         *lattice.Field
	model         *hamiltonian.Model
	driver        *relax.Driver
	rng           *rand.Rand
	cfg           relax.Config
	chunk         int
	fps           int
	running       bool
	done          bool
	stalled       bool
	attempts      int
	accepted      int
	energy        float64
	energyHistory []float64
	rateHistory   []float64
	showHelp      bool
	err           error
}

// NewModel prepares a live view. cfg.Target is the total number of accepted
// moves to reach; zero runs until quit.
func NewModel(title string, field *lattice.Field, params hamiltonian.Params, cfg relax.Config, rng *rand.Rand, opts ...relax.Option) (Model, error) {
	hm, err := hamiltonian.New(field, params)
	if err != nil {
		return Model{}, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	energy := hm.TotalEnergy()
	return Model{
		title:         title,
		field:         field,
		model:         hm,
		driver:        relax.New(rng, opts...),
		rng:           rng,
		cfg:           cfg,
		chunk:         defaultChunk,
		fps:           30,
		running:       true,
		energy:        energy,
		energyHistory: append(make([]float64, 0, historyCapacity), energy),
	}, nil
}

// Field returns the field being relaxed.
func (m Model) Field() *lattice.Field { return m.field }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the relaxation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.randomize()
		case "t":
			NextTheme()
		case "+", "=":
			m.chunk = min(m.chunk*2, maxChunk)
		case "-", "_":
			m.chunk = max(m.chunk/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// step runs one chunk of the driver.
func (m *Model) step() {
	chunk := m.chunk
	if m.cfg.Target > 0 {
		chunk = min(chunk, m.cfg.Target-m.accepted)
	}

	cfg := m.cfg
	cfg.Target = chunk
	cfg.SampleEvery = 0
	cfg.MaxAttempts = chunk * stallFactor

	res, err := m.driver.Run(context.Background(), m.field, m.model, cfg)
	if res != nil {
		m.attempts += res.Attempts
		m.accepted += res.Accepted
		m.energy = res.FinalEnergy
		m.energyHistory = append(m.energyHistory, m.energy)
		if len(m.energyHistory) > historyCapacity {
			m.energyHistory = m.energyHistory[1:]
		}
		m.rateHistory = append(m.rateHistory, res.AcceptanceRate())
		if len(m.rateHistory) > historyCapacity {
			m.rateHistory = m.rateHistory[1:]
		}
	}
	switch {
	case relax.IsStopped(err):
		m.stalled = true
		m.running = false
	case err != nil:
		m.err = err
		m.running = false
	case m.cfg.Target > 0 && m.accepted >= m.cfg.Target:
		m.done = true
	}
}

// randomize scrambles the field and restarts the counters.
func (m *Model) randomize() {
	m.field.Randomize(m.rng)
	m.attempts, m.accepted = 0, 0
	m.done, m.stalled, m.err = false, false, nil
	m.energy = m.model.TotalEnergy()
	m.energyHistory = append(m.energyHistory[:0], m.energy)
	m.rateHistory = m.rateHistory[:0]
	m.running = true
}

func (m Model) status(t Theme) string {
	switch {
	case m.err != nil:
		return errorStyle.Render("ERROR: " + m.err.Error())
	case m.done:
		return badge(t.Accent, "DONE")
	case m.stalled:
		return badge(t.Muted, "STALLED (no downhill move found)")
	case !m.running:
		return badge(t.Muted, "PAUSED")
	}
	return badge(t.Primary, "RELAXING")
}

// View renders the TUI interface.
func (m Model) View() string {
	theme := CurrentTheme
	quiver := panelStyle.Render(Quiver(m.field, QuiverOptions{
		Theme:          theme,
		Color:          true,
		PlaneThreshold: DefaultQuiverOptions().PlaneThreshold,
	}))

	var s strings.Builder
	s.WriteString(headerStyle.Foreground(theme.Primary).Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status(theme) + "\n\n")

	if m.cfg.Target > 0 {
		frac := float64(m.accepted) / float64(m.cfg.Target)
		s.WriteString(ProgressBar(theme, frac, 30) + fmt.Sprintf(" %3.0f%%\n", frac*100))
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Foreground(theme.Secondary).Render(chart) + "\n")
	}

	nx, ny := m.field.Dims()
	mean := m.field.Mean()
	rate := 0.0
	if m.attempts > 0 {
		rate = float64(m.accepted) / float64(m.attempts)
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Lattice", fmt.Sprintf("%d x %d", nx, ny))
	row("Energy", fmt.Sprintf("%.4f", m.energy))
	row("Per site", fmt.Sprintf("%.4f", m.energy/float64(nx*ny)))
	row("Accepted", fmt.Sprintf("%d / %d", m.accepted, m.attempts))
	row("Rate", fmt.Sprintf("%.3f %s", rate, SparklineChart(m.rateHistory, 20)))
	row("Charge", fmt.Sprintf("%+.3f", analysis.TopologicalCharge(m.field)))
	row("<m>", fmt.Sprintf("(%+.2f, %+.2f, %+.2f)", mean.X, mean.Y, mean.Z))
	row("Chunk", fmt.Sprintf("%d", m.chunk))
	row("Theme", theme.Name)

	s.WriteString(helpStyle.Render(Separator(theme, 30) + "\nSP:Pause R:Randomise Q:Quit\nT:Theme  +/-:Speed  ?:Help"))
	body := lipgloss.JoinHorizontal(lipgloss.Top, quiver, statsStyle.Render(s.String()))

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume relaxation  ║
║  R        - Randomise the field      ║
║  T        - Cycle themes             ║
║  + / -    - Double/halve moves/tick  ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + body
	}
	return body
}

// RunLive shows m full screen until the user quits and returns the final
// model.
func RunLive(m Model) (Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}
