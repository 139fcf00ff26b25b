package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

type theme struct {
	header     lipgloss.Style
	panel      lipgloss.Style
	panelTitle lipgloss.Style
	input      lipgloss.Style
	status     lipgloss.Style
	muted      lipgloss.Style
	dominant   lipgloss.Style
	phases     map[state.Phase]lipgloss.Style
	events     map[events.Kind]lipgloss.Style
}

func newTheme() theme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	amber := lipgloss.Color("#ffd166")
	violet := lipgloss.Color("#b967ff")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return theme{
		header: lipgloss.NewStyle().
			Foreground(text).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(violet).
			Padding(0, 1).
			MarginRight(1),
		panelTitle: lipgloss.NewStyle().Foreground(blue).Bold(true),
		input: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		status:   fg(blue).Bold(true),
		muted:    fg(muted),
		dominant: fg(mint).Bold(true),
		phases: map[state.Phase]lipgloss.Style{
			state.PhaseEmbryonic:     fg(muted).Bold(true),
			state.PhaseStable:        fg(mint).Bold(true),
			state.PhaseChaotic:       fg(pink).Bold(true),
			state.PhaseTransitioning: fg(amber).Bold(true),
			state.PhaseReorganizing:  fg(amber).Bold(true),
			state.PhaseEmergent:      fg(violet).Bold(true),
			state.PhaseCollapsing:    fg(lipgloss.Color("#ff4d4d")).Bold(true),
		},
		events: map[events.Kind]lipgloss.Style{
			events.KindPhaseTransition:   fg(amber),
			events.KindEgoShift:          fg(pink),
			events.KindGoalAchieved:      fg(mint),
			events.KindIdentityEvolution: fg(violet),
			events.KindRuleRewritten:     fg(blue),
			events.KindMemoryFormed:      fg(text),
		},
	}
}

func (t theme) phaseStyle(p state.Phase) lipgloss.Style {
	if s, ok := t.phases[p]; ok {
		return s
	}
	return t.muted
}

func (t theme) eventStyle(k events.Kind) lipgloss.Style {
	if s, ok := t.events[k]; ok {
		return s
	}
	return t.muted
}
