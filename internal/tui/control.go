// Package tui renders the interactive control screen: the active pattern,
// live band meters, a beat indicator, and key bindings for switching
// patterns while the show runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"auralight/internal/analysis"
	"auralight/internal/engine"
	"auralight/internal/pattern"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	beatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

const (
	meterWidth = 30
	tickEvery  = 100 * time.Millisecond

	// How many UI ticks the beat marker stays lit after a pulse.
	beatHold = 3
)

type keyMap struct {
	Next key.Binding
	Prev key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Next: key.NewBinding(key.WithKeys("right", "n")),
	Prev: key.NewBinding(key.WithKeys("left", "p")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

type tickMsg time.Time

// ControlModel is the Bubble Tea model for the control screen. It reads the
// analyzer cell directly for meters and talks to the scheduler only through
// RequestPattern, so quitting the UI never stalls the update loop.
type ControlModel struct {
	scheduler *engine.Scheduler
	cell      *analysis.Cell

	snap      analysis.Snapshot
	beatFlash int
	width     int
}

// NewControl builds the control screen model.
func NewControl(s *engine.Scheduler, cell *analysis.Cell) ControlModel {
	return ControlModel{scheduler: s, cell: cell}
}

// Init starts the refresh ticker.
func (m ControlModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ControlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.snap = m.cell.Latest()
		if m.snap.Beat {
			m.beatFlash = beatHold
		} else if m.beatFlash > 0 {
			m.beatFlash--
		}
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			m.cycle(1)
		case key.Matches(msg, keys.Prev):
			m.cycle(-1)
		default:
			// Digits jump straight to one of the first nine patterns.
			s := msg.String()
			if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
				m.scheduler.RequestPattern(pattern.Name(s[0] - '1'))
			}
		}
	}

	return m, nil
}

// cycle requests the pattern delta steps away from the active one, wrapping
// around the full set.
func (m ControlModel) cycle(delta int) {
	n := len(pattern.Names())
	next := (int(m.scheduler.Active()) + delta + n) % n
	m.scheduler.RequestPattern(pattern.Name(next))
}

func (m ControlModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("auralight"))
	b.WriteString("  ")
	b.WriteString(infoStyle.Render("pattern: "))
	b.WriteString(highlightStyle.Render(m.scheduler.Active().String()))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  [%s]", m.scheduler.State())))
	b.WriteString("\n\n")

	b.WriteString(meter("low ", m.snap.Low))
	b.WriteString(meter("mid ", m.snap.Mid))
	b.WriteString(meter("high", m.snap.High))
	b.WriteString(meter("all ", m.snap.Overall))

	b.WriteString("\nbeat ")
	if m.beatFlash > 0 {
		b.WriteString(beatStyle.Render("●"))
	} else {
		b.WriteString(dimStyle.Render("○"))
	}
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render("←/→ switch pattern · 1-9 jump · q quit"))
	b.WriteString("\n")

	return b.String()
}

// meter renders one horizontal band meter line.
func meter(label string, value float64) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * meterWidth)

	var b strings.Builder
	b.WriteString(infoStyle.Render(label))
	b.WriteString(" ")
	b.WriteString(highlightStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(dimStyle.Render(strings.Repeat("░", meterWidth-filled)))
	b.WriteString(fmt.Sprintf(" %4.2f\n", value))
	return b.String()
}
