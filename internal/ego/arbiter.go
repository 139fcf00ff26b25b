package ego

import (
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region config

// Config holds the score weights.
type Config struct {
	StrengthWeight float64
	IdentityWeight float64
	GoalWeight     float64
	PhaseWeight    float64
	Epsilon        float64 // guards the conflict normalization
}

// DefaultConfig returns the standard 0.3/0.3/0.25/0.15 weighting.
func DefaultConfig() Config {
	return Config{
		StrengthWeight: 0.3,
		IdentityWeight: 0.3,
		GoalWeight:     0.25,
		PhaseWeight:    0.15,
		Epsilon:        1e-9,
	}
}

// #endregion config

// #region arbiter

// Arbiter picks the dominant ego fragment.
type Arbiter struct {
	config Config
}

// NewArbiter creates an arbiter with the given configuration.
func NewArbiter(config Config) *Arbiter {
	return &Arbiter{config: config}
}

// Name implements cycle.Task.
func (a *Arbiter) Name() string { return "ego" }

// Tick scores every fragment and switches dominance when the winner changes.
// Conflict is refreshed every tick; an ego-shift event is emitted only on an
// actual change.
func (a *Arbiter) Tick(st *state.State, env *cycle.Env) {
	best := a.Winner(st)
	st.Conflict = Conflict(st.Egos[:], a.config.Epsilon)
	if best == st.Dominant {
		return
	}

	prev := st.Egos[st.Dominant]
	st.Dominant = best
	next := st.Egos[best]
	if g, ok := st.CurrentGoalRef(); ok {
		g.Priority = state.Clamp01(g.Priority * next.GoalInfluence)
	}
	env.Printf("ego: %s -> %s (conflict %.3f)", prev.Name, next.Name, st.Conflict)
	env.Emit(events.EgoShift(env.Now, prev, next))
}

// Winner returns the index of the highest scoring fragment; the first maximum wins.
func (a *Arbiter) Winner(st *state.State) int {
	var goal *state.Goal
	if g, ok := st.CurrentGoalRef(); ok {
		goal = g
	}
	best, bestScore := 0, 0.0
	for i, e := range st.Egos {
		s := a.Score(e, st.Identity.Values, goal, st.Phase)
		if i == 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// Score computes the weighted arbitration score of one fragment.
func (a *Arbiter) Score(e state.EgoFragment, values map[string]float64, goal *state.Goal, phase state.Phase) float64 {
	return a.config.StrengthWeight*e.Strength +
		a.config.IdentityWeight*IdentityAlignment(e, values) +
		a.config.GoalWeight*GoalAlignment(e, goal) +
		a.config.PhaseWeight*state.PhaseBonus(phase, e.Type)
}

// #endregion arbiter

// #region alignment

// IdentityAlignment is the mean identity value over the ego's trait tags that
// the identity knows; 0 when none match.
func IdentityAlignment(e state.EgoFragment, values map[string]float64) float64 {
	var sum float64
	n := 0
	for _, t := range e.Traits {
		if v, ok := values[t]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// GoalAlignment is 1-|goalInfluence - influenceFactor|, or 0.5 without a goal.
func GoalAlignment(e state.EgoFragment, goal *state.Goal) float64 {
	if goal == nil {
		return 0.5
	}
	d := e.GoalInfluence - state.GoalInfluence[goal.Type]
	if d < 0 {
		d = -d
	}
	return state.Clamp01(1 - d)
}

// #endregion alignment

// #region conflict

// Conflict is Σ_{i<j} s_i·s_j·(1-compat(i,j)) / ((Σs)² + eps), clamped to [0,1].
func Conflict(egos []state.EgoFragment, eps float64) float64 {
	var num, total float64
	for i := range egos {
		total += egos[i].Strength
		for j := i + 1; j < len(egos); j++ {
			num += egos[i].Strength * egos[j].Strength * (1 - state.Compatibility(egos[i].Type, egos[j].Type))
		}
	}
	return state.Clamp01(num / (total*total + eps))
}

// #endregion conflict
