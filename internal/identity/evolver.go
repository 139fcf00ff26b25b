package identity

import (
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ego"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region config

// Config holds the evolver's knobs.
type Config struct {
	Drift DriftConfig

	RuleProbability float64
	// New rules get a threshold drawn uniformly from [MinThreshold, MaxThreshold).
	MinThreshold float64
	MaxThreshold float64
	// RuleNudge scales a firing rule's weight into its trait bump.
	RuleNudge float64

	EgoRetention        float64
	EvolutionSimilarity float64
}

// DefaultConfig returns the standard evolver configuration.
func DefaultConfig() Config {
	return Config{
		Drift:               DefaultDriftConfig(),
		RuleProbability:     0.1,
		MinThreshold:        0.3,
		MaxThreshold:        0.9,
		RuleNudge:           0.01,
		EgoRetention:        0.9,
		EvolutionSimilarity: 0.8,
	}
}

// #endregion config

// #region evolver

// Evolver drifts identity values, evaluates and synthesizes rules, and
// realigns ego strengths.
type Evolver struct {
	config Config
}

// NewEvolver creates an evolver.
func NewEvolver(config Config) *Evolver {
	return &Evolver{config: config}
}

// Name implements cycle.Task.
func (ev *Evolver) Name() string { return "identity" }

// Tick runs one identity pass.
func (ev *Evolver) Tick(st *state.State, env *cycle.Env) {
	before := st.Identity.Clone()

	signals := Signals(st.RecentMemories(env.Now))
	values, metrics := Drift(st.Identity.Values, signals, ev.config.Drift, st.ReevaluateIdentity)
	st.Identity.Values = values
	if st.ReevaluateIdentity {
		env.Printf("identity: re-evaluated, reinforced=%v delta=%.4f", metrics.Reinforced, metrics.DeltaNorm)
		st.ReevaluateIdentity = false
	}

	ev.EvaluateRules(st)

	if env.Rand.Float64() < ev.config.RuleProbability {
		ev.generateRule(st, env)
	}

	for i := range st.Egos {
		align := ego.IdentityAlignment(st.Egos[i], st.Identity.Values)
		st.Egos[i].Strength = state.ClampStrength(ev.config.EgoRetention*st.Egos[i].Strength + (1-ev.config.EgoRetention)*align)
	}

	if sim := state.Similarity(before.Values, st.Identity.Values); sim < ev.config.EvolutionSimilarity {
		env.Printf("identity: evolved, similarity %.3f", sim)
		env.Emit(events.IdentityEvolution(env.Now, before, st.Identity))
	}
}

// EvaluateRules fires every rule whose condition holds for the current chaos
// index and returns how many fired. Unsupported conditions never fire.
func (ev *Evolver) EvaluateRules(st *state.State) int {
	fired := 0
	for i := range st.Identity.Rules.Rules {
		r := &st.Identity.Rules.Rules[i]
		cond, err := state.ParseCondition(r.Condition)
		if err != nil || !cond.Holds(st.ChaosIndex) {
			continue
		}
		r.Activations++
		fired++
		if trait, ok := state.ActionTrait[r.Action]; ok {
			st.Identity.Values[trait] = state.Clamp01(st.Identity.Values[trait] + ev.config.RuleNudge*r.Weight)
		}
	}
	return fired
}

func (ev *Evolver) generateRule(st *state.State, env *cycle.Env) {
	span := ev.config.MaxThreshold - ev.config.MinThreshold
	threshold := ev.config.MinThreshold + env.Rand.Float64()*span
	rule := state.SynthesizeRule(st, threshold, env.Rand, env.Now)
	evicted, ok := st.Identity.Rules.Insert(rule)
	env.Printf("identity: new rule %q -> %s", rule.Condition, rule.Action)
	if ok {
		env.Emit(events.RuleRewritten(env.Now, evicted, rule))
	}
}

// #endregion evolver
