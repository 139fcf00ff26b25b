package replay

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/clock"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/sim"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// Epoch is the fake-clock start of every replay run.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// #region types

// PhaseChange is one recorded phase transition.
type PhaseChange struct {
	From   state.Phase `json:"from"`
	To     state.Phase `json:"to"`
	Reason string      `json:"reason"`
}

// Summary aggregates one replay run.
type Summary struct {
	Ticks              int           `json:"ticks"`
	Memories           int           `json:"memories"`
	PhaseTransitions   int           `json:"phase_transitions"`
	EgoShifts          int           `json:"ego_shifts"`
	GoalsAchieved      int           `json:"goals_achieved"`
	RulesRewritten     int           `json:"rules_rewritten"`
	IdentityEvolutions int           `json:"identity_evolutions"`
	Phases             []PhaseChange `json:"phases"`

	FinalPhase state.Phase `json:"final_phase"`
	Fitness    float64     `json:"fitness"`
	Chaos      float64     `json:"chaos"`
	Conflict   float64     `json:"conflict"`
	Dominant   string      `json:"dominant_ego"`
}

// Mismatch is one failed expectation.
type Mismatch struct {
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: want %s, got %s", m.Field, m.Want, m.Got)
}

// #endregion types

// #region recorder

type recorder struct {
	mu sync.Mutex
	s  Summary
}

func (r *recorder) listener() events.Listener {
	return events.Funcs{
		PhaseTransition: func(from, to state.Phase, reason string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.s.PhaseTransitions++
			r.s.Phases = append(r.s.Phases, PhaseChange{From: from, To: to, Reason: reason})
		},
		EgoShift: func(_, _ state.EgoFragment) {
			r.mu.Lock()
			r.s.EgoShifts++
			r.mu.Unlock()
		},
		GoalAchieved: func(state.Goal) {
			r.mu.Lock()
			r.s.GoalsAchieved++
			r.mu.Unlock()
		},
		IdentityEvolution: func(_, _ state.Identity) {
			r.mu.Lock()
			r.s.IdentityEvolutions++
			r.mu.Unlock()
		},
		MemoryFormed: func(state.Memory) {
			r.mu.Lock()
			r.s.Memories++
			r.mu.Unlock()
		},
		RuleRewritten: func(_, _ state.Rule) {
			r.mu.Lock()
			r.s.RulesRewritten++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.s
	out.Phases = append([]PhaseChange(nil), r.s.Phases...)
	return out
}

// #endregion recorder

// #region run

// Run plays f against a fresh simulation on a fake clock. Every step advances
// the clock by f.StepMs, submits the inputs that became due, then ticks each
// task whose period elapsed, in scheduling order. Reflection and visual
// frames are not scheduled, so the same fixture and seed always produce the
// same Summary.
func Run(ctx context.Context, f *Fixture, config sim.Config) (Summary, error) {
	if err := f.Validate(); err != nil {
		return Summary{}, err
	}
	if f.Seed != 0 {
		config.Seed = f.Seed
	}
	config.Periods.Frame = 0

	fc := clock.NewFake(Epoch)
	s := sim.New(config, sim.WithClock(fc))
	rec := &recorder{}
	s.Subscribe(rec.listener())

	periods := config.Periods.ByName()
	due := map[string]time.Duration{}
	for _, name := range s.Tasks() {
		if p := periods[name]; p > 0 {
			due[name] = p
		}
	}

	inputs := append([]FixtureInput(nil), f.Inputs...)
	sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].AtMs < inputs[j].AtMs })

	ticks, next := 0, 0
	step, total := f.Step(), f.Duration()
	for elapsed := time.Duration(0); elapsed < total; {
		elapsed += step
		fc.Advance(step)
		for next < len(inputs) && time.Duration(inputs[next].AtMs)*time.Millisecond <= elapsed {
			s.SubmitInput(inputs[next].Submission())
			next++
		}
		for _, name := range s.Tasks() {
			d, ok := due[name]
			if !ok {
				continue
			}
			for ; d <= elapsed; d += periods[name] {
				if err := s.Step(ctx, name); err != nil {
					s.Close()
					return Summary{}, fmt.Errorf("step %s at %s: %w", name, elapsed, err)
				}
				ticks++
			}
			due[name] = d
		}
	}

	snap, err := s.GetCurrentState(ctx)
	if err != nil {
		s.Close()
		return Summary{}, fmt.Errorf("final state: %w", err)
	}
	// Close flushes the bus, so the recorder has seen every event.
	if err := s.Close(); err != nil {
		return Summary{}, fmt.Errorf("close simulation: %w", err)
	}

	out := rec.summary()
	out.Ticks = ticks
	out.FinalPhase = snap.Phase
	out.Fitness = snap.Fitness
	out.Chaos = snap.ChaosIndex
	out.Conflict = snap.Conflict
	out.Dominant = snap.DominantEgo().Name
	return out, nil
}

// #endregion run

// #region compare

// Compare checks s against e and returns every failed expectation.
func (s Summary) Compare(e Expected) []Mismatch {
	var out []Mismatch
	if e.FinalPhase != "" && string(s.FinalPhase) != e.FinalPhase {
		out = append(out, Mismatch{"final_phase", e.FinalPhase, string(s.FinalPhase)})
	}
	if s.Memories < e.MinMemories {
		out = append(out, Mismatch{"memories", fmt.Sprintf(">= %d", e.MinMemories), fmt.Sprint(s.Memories)})
	}
	if s.PhaseTransitions < e.MinPhaseTransitions {
		out = append(out, Mismatch{"phase_transitions", fmt.Sprintf(">= %d", e.MinPhaseTransitions), fmt.Sprint(s.PhaseTransitions)})
	}
	if s.EgoShifts < e.MinEgoShifts {
		out = append(out, Mismatch{"ego_shifts", fmt.Sprintf(">= %d", e.MinEgoShifts), fmt.Sprint(s.EgoShifts)})
	}
	for _, p := range e.Visited {
		if !s.visited(state.Phase(p)) {
			out = append(out, Mismatch{"visited", p, "never entered"})
		}
	}
	return out
}

func (s Summary) visited(p state.Phase) bool {
	if p == state.PhaseEmbryonic {
		return true
	}
	for _, c := range s.Phases {
		if c.To == p {
			return true
		}
	}
	return false
}

// #endregion compare
