package tui

import (
	"fmt"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region messages

// FrameMsg carries the newest visual frame into the program.
type FrameMsg struct {
	Snapshot state.Snapshot
}

// EventMsg is one line for the event log pane.
type EventMsg struct {
	Kind events.Kind
	Line string
}

// #endregion messages

// #region sink

// Sink bridges the event bus into a bubbletea program. Frames are dropped when
// the program falls behind; other events wait until it catches up or the sink
// is closed.
type Sink struct {
	ch      chan tea.Msg
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

var _ ports.VisualSink = (*Sink)(nil)

// NewSink creates a sink with the given buffer; buffer <= 0 uses 64.
func NewSink(buffer int) *Sink {
	if buffer <= 0 {
		buffer = 64
	}
	return &Sink{ch: make(chan tea.Msg, buffer), done: make(chan struct{})}
}

// Frame implements ports.VisualSink.
func (s *Sink) Frame(snap state.Snapshot) {
	select {
	case <-s.done:
	case s.ch <- FrameMsg{Snapshot: snap}:
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many frames were discarded.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Close releases any listener blocked on a full buffer.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

// Wait returns a command that delivers the next bus message.
func (s *Sink) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.ch:
			return msg
		case <-s.done:
			return nil
		}
	}
}

func (s *Sink) send(kind events.Kind, line string) {
	select {
	case s.ch <- EventMsg{Kind: kind, Line: line}:
	case <-s.done:
	}
}

// Listener adapts the sink to the event bus.
func (s *Sink) Listener() events.Listener {
	return events.Funcs{
		PhaseTransition: func(from, to state.Phase, reason string) {
			s.send(events.KindPhaseTransition, fmt.Sprintf("phase %s -> %s (%s)", from, to, reason))
		},
		EgoShift: func(from, to state.EgoFragment) {
			s.send(events.KindEgoShift, fmt.Sprintf("%s yields to %s (%.2f)", from.Name, to.Name, to.Strength))
		},
		GoalAchieved: func(g state.Goal) {
			s.send(events.KindGoalAchieved, fmt.Sprintf("goal achieved: %s", g.Description))
		},
		IdentityEvolution: func(from, to state.Identity) {
			s.send(events.KindIdentityEvolution,
				fmt.Sprintf("identity evolved (similarity %.2f)", state.Similarity(from.Values, to.Values)))
		},
		MemoryFormed: func(m state.Memory) {
			s.send(events.KindMemoryFormed,
				fmt.Sprintf("memory: %s, %s, importance %.2f", m.Kind, m.Emotion.Dominant(), m.Importance))
		},
		RuleRewritten: func(oldRule, newRule state.Rule) {
			s.send(events.KindRuleRewritten, fmt.Sprintf("rule %q -> %q", oldRule.Condition, newRule.Condition))
		},
		VisualFrame: s.Frame,
	}
}

// #endregion sink
