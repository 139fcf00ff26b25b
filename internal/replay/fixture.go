package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/sim"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region fixture-types

// Fixture is a timed input script plus the outcome it is expected to produce.
type Fixture struct {
	Description string         `json:"description"`
	Seed        int64          `json:"seed"`
	StepMs      int64          `json:"step_ms"`
	DurationMs  int64          `json:"duration_ms"`
	Inputs      []FixtureInput `json:"inputs"`
	Expected    Expected       `json:"expected"`
}

// FixtureInput is one scripted submission.
type FixtureInput struct {
	AtMs      int64   `json:"at_ms"`
	Kind      string  `json:"kind"`
	Text      string  `json:"text,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Intensity float64 `json:"intensity"`
}

// Expected holds the checks applied to a Summary. Zero values are not checked.
type Expected struct {
	FinalPhase          string   `json:"final_phase,omitempty"`
	MinMemories         int      `json:"min_memories,omitempty"`
	MinPhaseTransitions int      `json:"min_phase_transitions,omitempty"`
	MinEgoShifts        int      `json:"min_ego_shifts,omitempty"`
	Visited             []string `json:"visited,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// ErrInvalidFixture wraps every validation failure.
var ErrInvalidFixture = errors.New("invalid fixture")

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes and validates a fixture document.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks timing and input kinds.
func (f *Fixture) Validate() error {
	if f.StepMs <= 0 {
		return fmt.Errorf("%w: step_ms must be positive", ErrInvalidFixture)
	}
	if f.DurationMs < f.StepMs {
		return fmt.Errorf("%w: duration_ms %d shorter than one step", ErrInvalidFixture, f.DurationMs)
	}
	for i, in := range f.Inputs {
		if _, err := state.ParseInputKind(in.Kind); err != nil {
			return fmt.Errorf("%w: input %d: %v", ErrInvalidFixture, i, err)
		}
		if in.AtMs < 0 || in.AtMs > f.DurationMs {
			return fmt.Errorf("%w: input %d at %dms outside run", ErrInvalidFixture, i, in.AtMs)
		}
	}
	if f.Expected.FinalPhase != "" && !knownPhase(state.Phase(f.Expected.FinalPhase)) {
		return fmt.Errorf("%w: unknown final_phase %q", ErrInvalidFixture, f.Expected.FinalPhase)
	}
	for _, p := range f.Expected.Visited {
		if !knownPhase(state.Phase(p)) {
			return fmt.Errorf("%w: unknown visited phase %q", ErrInvalidFixture, p)
		}
	}
	return nil
}

// Step returns the harness step as a duration.
func (f *Fixture) Step() time.Duration { return time.Duration(f.StepMs) * time.Millisecond }

// Duration returns the scripted run length.
func (f *Fixture) Duration() time.Duration { return time.Duration(f.DurationMs) * time.Millisecond }

// Submission splits a scripted input into the simulation's submit arguments.
func (fi FixtureInput) Submission() (state.InputKind, sim.Payload, float64) {
	kind, _ := state.ParseInputKind(fi.Kind)
	return kind, sim.Payload{Text: fi.Text, X: fi.X, Y: fi.Y}, fi.Intensity
}

func knownPhase(p state.Phase) bool {
	switch p {
	case state.PhaseEmbryonic, state.PhaseChaotic, state.PhaseStable, state.PhaseTransitioning,
		state.PhaseReorganizing, state.PhaseEmergent, state.PhaseCollapsing:
		return true
	}
	return false
}

// #endregion fixture-loader
