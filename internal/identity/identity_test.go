package identity

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

func newEnv(now time.Time, seed int64) *cycle.Env {
	return &cycle.Env{Now: now, Rand: rand.New(rand.NewSource(seed))}
}

func TestDriftDecaysUnreinforcedTowardNeutral(t *testing.T) {
	values := map[string]float64{"a": 1.0, "b": 0.0}
	next, m := Drift(values, nil, DefaultDriftConfig(), false)
	if math.Abs(next["a"]-0.99) > 1e-12 || math.Abs(next["b"]-0.01) > 1e-12 {
		t.Fatalf("unexpected decay result %v", next)
	}
	if m.DecayNorm <= 0 || m.DeltaNorm != 0 || len(m.Reinforced) != 0 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if values["a"] != 1.0 {
		t.Fatal("Drift must not mutate its input")
	}
}

func TestDriftDeltaIsBounded(t *testing.T) {
	values := map[string]float64{"a": 0, "b": 0, "c": 0}
	signals := map[string]float64{"a": 1, "b": 1, "c": 1}
	cfg := DriftConfig{LearningRate: 1, MaxDeltaNorm: 0.3, Neutral: 0.5}
	next, m := Drift(values, signals, cfg, false)

	if math.Abs(m.DeltaNorm-0.3) > 1e-12 {
		t.Fatalf("expected delta norm clamped to 0.3, got %f", m.DeltaNorm)
	}
	want := 0.3 / math.Sqrt(3)
	for k, v := range next {
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("%s: expected %f, got %f", k, want, v)
		}
	}
	if len(m.Reinforced) != 3 || m.Reinforced[0] != "a" {
		t.Fatalf("expected sorted reinforced list, got %v", m.Reinforced)
	}
}

func TestDriftBoostAfterReorganization(t *testing.T) {
	values := map[string]float64{"a": 0}
	signals := map[string]float64{"a": 1}
	cfg := DefaultDriftConfig()
	plain, _ := Drift(values, signals, cfg, false)
	boosted, _ := Drift(values, signals, cfg, true)
	if boosted["a"] <= plain["a"] {
		t.Fatalf("expected boosted step > plain step, got %f vs %f", boosted["a"], plain["a"])
	}
}

func TestSignalsWeighting(t *testing.T) {
	mems := []state.Memory{
		{Emotion: state.Emotion{Fear: 1}, Importance: 0.9},
		{Emotion: state.Emotion{Fear: 0.5}, Importance: 0.1},
		{Emotion: state.Emotion{Joy: 1}, Importance: 0},
	}
	s := Signals(mems)
	if math.Abs(s[state.TraitCaution]-0.95) > 1e-12 {
		t.Fatalf("expected caution 0.95, got %f", s[state.TraitCaution])
	}
	if _, ok := s[state.TraitStability]; ok {
		t.Fatal("zero-importance memory must not produce a signal")
	}
}

func TestEvaluateRulesFiresAndNudges(t *testing.T) {
	st := state.New(time.Now(), 0)
	st.ChaosIndex = 0.6
	st.Identity.Rules.Insert(state.Rule{ID: "fire", Condition: "chaos > 0.5", Action: state.ActionExplore, Weight: 1})
	st.Identity.Rules.Insert(state.Rule{ID: "quiet", Condition: "chaos > 0.8", Action: state.ActionWithdraw, Weight: 1})
	st.Identity.Rules.Insert(state.Rule{ID: "bad", Condition: "fitness < 0.2", Action: state.ActionEndure, Weight: 1})

	ev := NewEvolver(DefaultConfig())
	if fired := ev.EvaluateRules(st); fired != 1 {
		t.Fatalf("expected 1 rule to fire, got %d", fired)
	}
	if st.Identity.Rules.Rules[0].Activations != 1 || st.Identity.Rules.Rules[1].Activations != 0 {
		t.Fatal("unexpected activation counters")
	}
	if math.Abs(st.Trait(state.TraitCuriosity)-0.61) > 1e-12 {
		t.Fatalf("expected curiosity 0.61, got %f", st.Trait(state.TraitCuriosity))
	}
}

func TestGeneratedRuleEvictsAndReports(t *testing.T) {
	now := time.Now()
	st := state.New(now, 1)
	st.ChaosIndex = 0.0
	st.Identity.Rules.Insert(state.Rule{ID: "old", Condition: "chaos > 0.9"})

	cfg := DefaultConfig()
	cfg.RuleProbability = 1
	env := newEnv(now, 3)
	NewEvolver(cfg).Tick(st, env)

	if st.Identity.Rules.Len() != 1 || st.Identity.Rules.Rules[0].ID == "old" {
		t.Fatalf("expected the old rule to be replaced, got %+v", st.Identity.Rules.Rules)
	}
	r := st.Identity.Rules.Rules[0]
	cond, err := state.ParseCondition(r.Condition)
	if err != nil || cond.Threshold < 0.3 || cond.Threshold > 0.9 {
		t.Fatalf("unexpected synthesized condition %q (%v)", r.Condition, err)
	}
	evts, _ := env.Drain()
	found := false
	for _, e := range evts {
		if e.Kind == events.KindRuleRewritten && e.OldRule.ID == "old" && e.NewRule.ID == r.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected rule_rewritten event")
	}
}

func TestEgoStrengthRealigned(t *testing.T) {
	now := time.Now()
	st := state.New(now, 0)
	for k := range st.Identity.Values {
		st.Identity.Values[k] = 1
	}
	cfg := DefaultConfig()
	cfg.RuleProbability = 0
	cfg.Drift.DecayRate = 0
	NewEvolver(cfg).Tick(st, newEnv(now, 1))

	// Guardian: 0.9*0.6 + 0.1*1
	if math.Abs(st.Egos[0].Strength-0.64) > 1e-12 {
		t.Fatalf("expected 0.64, got %f", st.Egos[0].Strength)
	}
	for _, e := range st.Egos {
		if e.Strength < state.MinEgoStrength || e.Strength > state.MaxEgoStrength {
			t.Fatalf("strength out of range: %f", e.Strength)
		}
	}
}

func TestIdentityEvolutionEmittedOnLargeShift(t *testing.T) {
	now := time.Now()
	st := state.New(now, 0)
	st.AddMemory(state.Memory{
		ID:         "m",
		Importance: 1,
		CreatedAt:  now,
		Emotion:    state.Emotion{Joy: 1, Sadness: 1, Fear: 1, Anger: 1, Surprise: 1, Trust: 1, Curiosity: 1},
	})

	cfg := DefaultConfig()
	cfg.RuleProbability = 0
	cfg.Drift.LearningRate = 1
	cfg.Drift.MaxDeltaNorm = 10
	env := newEnv(now, 1)
	NewEvolver(cfg).Tick(st, env)

	evts, _ := env.Drain()
	if len(evts) != 1 || evts[0].Kind != events.KindIdentityEvolution {
		t.Fatalf("expected identity_evolution, got %+v", evts)
	}
	if evts[0].OldIdentity.Values[state.TraitCaution] != 0.5 || evts[0].NewIdentity.Values[state.TraitCaution] != 1 {
		t.Fatal("event must carry pre- and post-tick identities")
	}
}

func TestSmallDriftEmitsNothing(t *testing.T) {
	now := time.Now()
	st := state.New(now, 0)
	cfg := DefaultConfig()
	cfg.RuleProbability = 0
	env := newEnv(now, 1)
	NewEvolver(cfg).Tick(st, env)
	if evts, _ := env.Drain(); len(evts) != 0 {
		t.Fatalf("expected no events, got %d", len(evts))
	}
}
