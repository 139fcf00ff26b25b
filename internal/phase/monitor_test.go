package phase

import (
	"math/rand"
	"testing"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

var birth = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func envAt(d time.Duration) *cycle.Env {
	return &cycle.Env{Now: birth.Add(d), Rand: rand.New(rand.NewSource(7))}
}

func TestEvaluatePriority(t *testing.T) {
	c := DefaultConfig()
	cases := []struct {
		name     string
		current  state.Phase
		chaos    float64
		fitness  float64
		conflict float64
		want     state.Phase
	}{
		{"collapse beats everything", state.PhaseStable, 0.95, 0.01, 0, state.PhaseCollapsing},
		{"reorganizing", state.PhaseStable, 0.95, 0.6, 0, state.PhaseReorganizing},
		{"chaotic", state.PhaseStable, 0.8, 0.3, 0, state.PhaseChaotic},
		{"emergent", state.PhaseStable, 0.1, 0.9, 0.1, state.PhaseEmergent},
		{"emergent blocked by conflict", state.PhaseChaotic, 0.1, 0.9, 0.5, state.PhaseStable},
		{"stable", state.PhaseChaotic, 0.2, 0.6, 0, state.PhaseStable},
		{"embryonic matures", state.PhaseEmbryonic, 0.5, 0.35, 0, state.PhaseStable},
		{"non-embryonic stays", state.PhaseChaotic, 0.5, 0.35, 0, state.PhaseChaotic},
		{"embryonic stays", state.PhaseEmbryonic, 0.5, 0.2, 0, state.PhaseEmbryonic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := Evaluate(tc.current, tc.chaos, tc.fitness, tc.conflict, c)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if got != tc.current && reason == "" {
				t.Fatal("expected a reason for a transition")
			}
		})
	}
}

func TestDwellGuardBlocksEarlyTransition(t *testing.T) {
	st := state.New(birth, 0)
	st.Fitness = 0.01
	m := NewMonitor(DefaultConfig())

	env := envAt(999 * time.Millisecond)
	m.Tick(st, env)
	if st.Phase != state.PhaseEmbryonic {
		t.Fatalf("transitioned inside the dwell window: %s", st.Phase)
	}
	if evts, _ := env.Drain(); len(evts) != 0 {
		t.Fatalf("expected no events, got %d", len(evts))
	}

	env = envAt(time.Second)
	m.Tick(st, env)
	if st.Phase != state.PhaseCollapsing {
		t.Fatalf("expected collapsing, got %s", st.Phase)
	}
	evts, _ := env.Drain()
	if len(evts) != 1 || evts[0].Kind != events.KindPhaseTransition {
		t.Fatalf("expected one phase transition, got %+v", evts)
	}
	if evts[0].OldPhase != state.PhaseEmbryonic || evts[0].NewPhase != state.PhaseCollapsing || evts[0].Reason == "" {
		t.Fatalf("unexpected transition payload %+v", evts[0])
	}
	if !st.PhaseEnteredAt.Equal(birth.Add(time.Second)) {
		t.Fatalf("expected entry time to be recorded, got %v", st.PhaseEnteredAt)
	}
}

func TestTransitionsNeverCloserThanDwell(t *testing.T) {
	st := state.New(birth, 0)
	m := NewMonitor(DefaultConfig())
	rng := rand.New(rand.NewSource(42))

	var last time.Time
	transitions := 0
	for i := 1; i <= 2000; i++ {
		st.ChaosIndex = rng.Float64()
		st.Fitness = rng.Float64()
		st.Conflict = rng.Float64() * 0.5
		env := envAt(time.Duration(i) * 50 * time.Millisecond)
		m.Tick(st, env)
		evts, _ := env.Drain()
		for _, e := range evts {
			if e.Kind != events.KindPhaseTransition {
				continue
			}
			if e.NewPhase == state.PhaseTransitioning {
				t.Fatal("transitioning must never be produced")
			}
			if !last.IsZero() && e.At.Sub(last) < time.Second {
				t.Fatalf("transitions %v apart", e.At.Sub(last))
			}
			last = e.At
			transitions++
		}
	}
	if transitions == 0 {
		t.Fatal("expected at least one transition")
	}
}

func TestChaoticEntryEffects(t *testing.T) {
	st := state.New(birth, 0)
	st.ChaosIndex = 0.8
	st.Fitness = 0.3
	m := NewMonitor(DefaultConfig())
	m.Tick(st, envAt(2*time.Second))

	if st.Phase != state.PhaseChaotic {
		t.Fatalf("expected chaotic, got %s", st.Phase)
	}
	if st.Neural.Plasticity != 2 {
		t.Fatalf("expected doubled plasticity, got %f", st.Neural.Plasticity)
	}
	if !st.HasGoalType(state.GoalExploration) {
		t.Fatal("expected an exploration goal")
	}
}

func TestStableEntryConsolidates(t *testing.T) {
	st := state.New(birth, 0)
	st.Fitness = 0.6
	st.ChaosIndex = 0.1
	st.AddMemory(state.Memory{ID: "keep", Importance: 0.9})
	st.AddMemory(state.Memory{ID: "drop", Importance: 0.05})
	m := NewMonitor(DefaultConfig())
	m.Tick(st, envAt(2*time.Second))

	if st.Phase != state.PhaseStable {
		t.Fatalf("expected stable, got %s", st.Phase)
	}
	if st.Neural.Plasticity != 0.5 {
		t.Fatalf("expected halved plasticity, got %f", st.Neural.Plasticity)
	}
	if len(st.Memories) != 1 || !st.Memories[0].Consolidated {
		t.Fatalf("expected one consolidated memory, got %+v", st.Memories)
	}
}

func TestReorganizingFlagsIdentity(t *testing.T) {
	st := state.New(birth, 0)
	st.ChaosIndex = 0.95
	st.Fitness = 0.6
	m := NewMonitor(DefaultConfig())
	m.Tick(st, envAt(2*time.Second))

	if st.Phase != state.PhaseReorganizing || !st.ReevaluateIdentity {
		t.Fatalf("expected reorganizing with identity flag, got %s %v", st.Phase, st.ReevaluateIdentity)
	}
}

func TestCollapsingMaximizesSurvival(t *testing.T) {
	st := state.New(birth, 0)
	st.Fitness = 0.01
	m := NewMonitor(DefaultConfig())
	m.Tick(st, envAt(2*time.Second))

	for _, e := range st.Egos {
		if e.Type == state.EgoSurvival && e.Strength != state.MaxEgoStrength {
			t.Fatalf("expected survival ego at max strength, got %f", e.Strength)
		}
	}
}

func TestEmergentInsertsRule(t *testing.T) {
	st := state.New(birth, 2)
	st.Identity.Rules.Insert(state.Rule{ID: "a", Activations: 3})
	st.Identity.Rules.Insert(state.Rule{ID: "b"})
	st.Fitness = 0.9
	st.ChaosIndex = 0.2
	st.Conflict = 0.1
	m := NewMonitor(DefaultConfig())
	env := envAt(2 * time.Second)
	m.Tick(st, env)

	if st.Phase != state.PhaseEmergent {
		t.Fatalf("expected emergent, got %s", st.Phase)
	}
	if st.Identity.Rules.Len() != 2 {
		t.Fatalf("expected rule set to stay at capacity, got %d", st.Identity.Rules.Len())
	}
	newest := st.Identity.Rules.Rules[1]
	cond, err := state.ParseCondition(newest.Condition)
	if err != nil {
		t.Fatalf("synthesized rule does not parse: %v", err)
	}
	if cond.Threshold < 0.159 || cond.Threshold > 0.161 {
		t.Fatalf("expected threshold 0.16, got %f", cond.Threshold)
	}

	evts, _ := env.Drain()
	var rewritten bool
	for _, e := range evts {
		if e.Kind == events.KindRuleRewritten && e.OldRule.ID == "b" {
			rewritten = true
		}
	}
	if !rewritten {
		t.Fatal("expected rule_rewritten for evicted rule b")
	}
}

func TestNoEventWhenPhaseUnchanged(t *testing.T) {
	st := state.New(birth, 0)
	st.Phase = state.PhaseChaotic
	st.ChaosIndex = 0.8
	st.Fitness = 0.3
	m := NewMonitor(DefaultConfig())
	env := envAt(5 * time.Second)
	m.Tick(st, env)
	if evts, _ := env.Drain(); len(evts) != 0 {
		t.Fatalf("expected no events, got %d", len(evts))
	}
}
