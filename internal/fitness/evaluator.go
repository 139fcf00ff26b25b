package fitness

import (
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region config

// Config weights the existential fitness target.
type Config struct {
	GoalWeight      float64
	StabilityWeight float64
	CoherenceWeight float64
	ConflictPenalty float64
	// Smoothing is the fraction of the gap to the target closed per tick.
	Smoothing float64
	// WeakenDrop is the relative fall of the target below current fitness
	// that triggers pathway weakening.
	WeakenDrop float64
}

// DefaultConfig returns the standard weights.
func DefaultConfig() Config {
	return Config{
		GoalWeight:      0.45,
		StabilityWeight: 0.35,
		CoherenceWeight: 0.2,
		ConflictPenalty: 0.3,
		Smoothing:       0.1,
		WeakenDrop:      0.1,
	}
}

// #endregion config

// #region evaluator

// Evaluator recomputes existential fitness and applies the fitness trend to
// the pathway store.
type Evaluator struct {
	config Config
	// last holds the identity values seen on the previous tick of owner.
	owner *state.State
	last  map[string]float64
}

// NewEvaluator creates an evaluator.
func NewEvaluator(config Config) *Evaluator {
	return &Evaluator{config: config}
}

// Name implements cycle.Task.
func (e *Evaluator) Name() string { return "fitness" }

// Tick moves fitness toward Target and reinforces or weakens pathways.
func (e *Evaluator) Tick(st *state.State, env *cycle.Env) {
	if st != e.owner {
		e.owner, e.last = st, nil
	}
	stability := 1.0
	if e.last != nil {
		stability = state.Similarity(e.last, st.Identity.Values)
	}
	e.last = st.Identity.Clone().Values

	target := e.Target(st, stability)
	prev := st.Fitness
	st.PreviousFitness = prev
	st.Fitness = state.Clamp01(prev + (target-prev)*e.config.Smoothing)

	// The trend is read from the unsmoothed target.
	switch {
	case target > prev:
		st.Neural.ReinforceSuccessfulPathways()
	case prev-target > prev*e.config.WeakenDrop:
		n := st.Neural.WeakenUnsuccessfulPathways()
		env.Printf("fitness: trending %.3f -> %.3f, weakened %d pathways", prev, target, n)
	}
}

// Target is the clamped weighted fitness target.
func (e *Evaluator) Target(st *state.State, identityStability float64) float64 {
	t := e.config.GoalWeight*GoalScore(st) +
		e.config.StabilityWeight*identityStability +
		e.config.CoherenceWeight*st.Neural.Coherence() -
		e.config.ConflictPenalty*st.Conflict
	return state.Clamp01(t)
}

// GoalScore blends mean active progress with the achieved count. It is 0.5
// when nothing has been pursued yet.
func GoalScore(st *state.State) float64 {
	if len(st.Goals) == 0 && st.GoalsAchieved == 0 {
		return 0.5
	}
	progress := 0.5
	if len(st.Goals) > 0 {
		var sum float64
		for _, g := range st.Goals {
			sum += g.Progress
		}
		progress = sum / float64(len(st.Goals))
	}
	achieved := float64(st.GoalsAchieved) / float64(st.GoalsAchieved+3)
	return state.Clamp01(0.7*progress + 0.3*achieved)
}

// #endregion evaluator
