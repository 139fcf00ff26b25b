// Package tui is a terminal dashboard for a running simulation. It renders
// visual frames from the event bus and turns console lines into inputs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/input"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/neural"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/sim"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

const maxLogLines = 200

// Host is the part of the simulation the dashboard drives.
type Host interface {
	SubmitInput(kind state.InputKind, p sim.Payload, intensity float64)
	Rebirth(ctx context.Context) error
}

// #region model

// Model is the bubbletea model of the dashboard.
type Model struct {
	host  Host
	sink  *Sink
	theme theme

	prompt textinput.Model
	log    viewport.Model
	bar    progress.Model

	snap      state.Snapshot
	haveFrame bool
	lines     []string
	status    string

	width  int
	height int
}

// New builds the dashboard model.
func New(host Host, sink *Sink) Model {
	prompt := textinput.New()
	prompt.Prompt = "> "
	prompt.CharLimit = 500
	prompt.Placeholder = "speak, or /touch x y, /threat, /help"
	prompt.Focus()

	return Model{
		host:   host,
		sink:   sink,
		theme:  newTheme(),
		prompt: prompt,
		log:    viewport.New(80, 10),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(24)),
		status: "waiting for the first frame",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.sink.Wait())
}

// #endregion model

// #region update

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
	case FrameMsg:
		m.snap, m.haveFrame = msg.Snapshot, true
		cmds = append(cmds, m.sink.Wait())
	case EventMsg:
		m.appendLine(m.theme.eventStyle(msg.Kind).Render(msg.Line))
		cmds = append(cmds, m.sink.Wait())
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.prompt.Value()
			m.prompt.Reset()
			if quit := m.submit(line); quit {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	cmds = append(cmds, cmd)
	if _, ok := msg.(tea.MouseMsg); ok {
		m.log, cmd = m.log.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// submit applies one console line and reports whether the program should exit.
func (m *Model) submit(line string) bool {
	cmd, err := input.ParseLine(line)
	if errors.Is(err, input.ErrEmptyLine) {
		return false
	}
	if err != nil {
		m.status = err.Error()
		return false
	}
	switch cmd.Control {
	case input.ControlQuit:
		return true
	case input.ControlHelp:
		for _, l := range strings.Split(input.Usage, "\n") {
			m.appendLine(m.theme.muted.Render(l))
		}
		m.status = "help"
	case input.ControlState:
		m.appendLine(m.theme.muted.Render(summaryLine(m.snap)))
		m.status = "state printed"
	case input.ControlRebirth:
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := m.host.Rebirth(ctx); err != nil {
			m.status = fmt.Sprintf("rebirth: %v", err)
			return false
		}
		m.status = "reborn"
	default:
		in := cmd.Input
		m.host.SubmitInput(in.Kind, sim.Payload{Text: in.Text, X: in.X, Y: in.Y}, in.Intensity)
		m.status = fmt.Sprintf("sent %s (%.2f)", in.Kind, in.Intensity)
	}
	return false
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
}

func (m *Model) resize() {
	m.prompt.Width = max(m.width-6, 10)
	m.log.Width = max(m.width-4, 20)
	// header, metrics, egos and prompt take roughly 16 rows
	m.log.Height = max(m.height-18, 3)
}

// #endregion update

// #region view

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	if m.haveFrame {
		left := m.theme.panel.Render(m.metrics())
		right := m.theme.panel.Render(m.egos())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.panelTitle.Render("Events"))
	b.WriteString("\n")
	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(m.theme.input.Render(m.prompt.View()))
	b.WriteString("\n")
	b.WriteString(m.theme.status.Render(m.status))
	return b.String()
}

func (m Model) header() string {
	if !m.haveFrame {
		return m.theme.header.Render("NeuralSeed")
	}
	phase := m.theme.phaseStyle(m.snap.Phase).Render(strings.ToUpper(string(m.snap.Phase)))
	age := m.snap.TakenAt.Sub(m.snap.BornAt).Truncate(time.Second)
	return m.theme.header.Render(fmt.Sprintf("NeuralSeed  %s  %s  age %s", phase, m.snap.PhaseReason, age))
}

func (m Model) metrics() string {
	s := m.snap
	plasticity := (s.Neural.Plasticity - neural.MinPlasticity) / (neural.MaxPlasticity - neural.MinPlasticity)
	rows := []string{
		m.gauge("fitness", s.Fitness),
		m.gauge("chaos", s.ChaosIndex),
		m.gauge("conflict", s.Conflict),
		m.gauge("plasticity", plasticity),
		fmt.Sprintf("%-10s x=%.2f y=%.2f z=%.2f", "lorenz", s.Lorenz.X, s.Lorenz.Y, s.Lorenz.Z),
		fmt.Sprintf("%-10s %d  pending %d", "memories", len(s.Memories), s.PendingInputs),
		fmt.Sprintf("%-10s %d achieved", "goals", s.GoalsAchieved),
	}
	if g, ok := s.CurrentGoalRef(); ok {
		rows = append(rows, fmt.Sprintf("%-10s %s %.0f%%", "pursuing", g.Description, g.Progress*100))
	}
	if s.Narrative != "" {
		rows = append(rows, m.theme.muted.Render(truncate(s.Narrative, 60)))
	}
	return strings.Join(rows, "\n")
}

func (m Model) gauge(label string, v float64) string {
	return fmt.Sprintf("%-10s %s %.3f", label, m.bar.ViewAs(state.Clamp01(v)), v)
}

func (m Model) egos() string {
	rows := []string{m.theme.panelTitle.Render("Egos")}
	for i, e := range m.snap.Egos {
		name := e.Name
		if i == m.snap.Dominant {
			name = m.theme.dominant.Render("* " + name)
		} else {
			name = "  " + name
		}
		rows = append(rows, fmt.Sprintf("%-24s %-9s %.2f", name, e.Type, e.Strength))
	}
	if top, v := m.snap.TopTrait(); top != "" {
		rows = append(rows, "", fmt.Sprintf("top trait %s %.2f", top, v))
	}
	return strings.Join(rows, "\n")
}

// #endregion view

// #region helpers

func summaryLine(s state.Snapshot) string {
	return fmt.Sprintf("phase=%s fitness=%.3f chaos=%.3f conflict=%.3f dominant=%s memories=%d goals=%d",
		s.Phase, s.Fitness, s.ChaosIndex, s.Conflict, s.DominantEgo().Name, len(s.Memories), len(s.Goals))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// #endregion helpers
