package phase

import (
	"fmt"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	"github.com/google/uuid"
)

// #region config

// Config holds the dwell guard, transition thresholds and entry effects.
type Config struct {
	Dwell time.Duration

	CollapseFitness   float64
	ReorganizeChaos   float64
	ReorganizeFitness float64
	ChaoticChaos      float64
	EmergentFitness   float64
	EmergentChaos     float64
	EmergentConflict  float64
	StableFitness     float64
	StableChaos       float64
	EmbryonicFitness  float64

	ChaoticPlasticity float64
	StablePlasticity  float64
	// EmergentRuleRatio scales the current chaos into the new rule's threshold.
	EmergentRuleRatio float64
}

// DefaultConfig returns the standard thresholds with a one second dwell.
func DefaultConfig() Config {
	return Config{
		Dwell:             time.Second,
		CollapseFitness:   0.05,
		ReorganizeChaos:   0.9,
		ReorganizeFitness: 0.5,
		ChaoticChaos:      0.7,
		EmergentFitness:   0.85,
		EmergentChaos:     0.3,
		EmergentConflict:  0.3,
		StableFitness:     0.5,
		StableChaos:       0.4,
		EmbryonicFitness:  0.3,
		ChaoticPlasticity: 2.0,
		StablePlasticity:  0.5,
		EmergentRuleRatio: 0.8,
	}
}

// #endregion config

// #region monitor

// Monitor derives the behavioral phase and applies entry side effects.
type Monitor struct {
	config Config
}

// NewMonitor creates a monitor with the given configuration.
func NewMonitor(config Config) *Monitor {
	return &Monitor{config: config}
}

// Name implements cycle.Task.
func (m *Monitor) Name() string { return "phase" }

// Tick evaluates the transition rules unless the dwell guard is active.
func (m *Monitor) Tick(st *state.State, env *cycle.Env) {
	if env.Now.Sub(st.PhaseEnteredAt) < m.config.Dwell {
		return
	}
	next, reason := Evaluate(st.Phase, st.ChaosIndex, st.Fitness, st.Conflict, m.config)
	if next == st.Phase {
		return
	}

	prev := st.Phase
	st.Phase = next
	st.PhaseEnteredAt = env.Now
	st.PhaseReason = reason
	m.enter(st, env)

	env.Printf("phase: %s -> %s (%s)", prev, next, reason)
	env.Emit(events.PhaseTransition(env.Now, prev, next, reason))
}

// #endregion monitor

// #region rules

// Evaluate applies the transition rules in priority order. It returns the
// current phase and an empty reason when no rule matches. PhaseTransitioning
// is never produced.
func Evaluate(current state.Phase, chaos, fitness, conflict float64, c Config) (state.Phase, string) {
	switch {
	case fitness < c.CollapseFitness:
		return state.PhaseCollapsing, fmt.Sprintf("fitness %.3f fell below %.2f", fitness, c.CollapseFitness)
	case chaos > c.ReorganizeChaos && fitness > c.ReorganizeFitness:
		return state.PhaseReorganizing, fmt.Sprintf("chaos %.3f above %.2f while fitness %.3f held", chaos, c.ReorganizeChaos, fitness)
	case chaos > c.ChaoticChaos:
		return state.PhaseChaotic, fmt.Sprintf("chaos %.3f rose above %.2f", chaos, c.ChaoticChaos)
	case fitness > c.EmergentFitness && chaos < c.EmergentChaos && conflict < c.EmergentConflict:
		return state.PhaseEmergent, fmt.Sprintf("fitness %.3f with chaos %.3f and conflict %.3f", fitness, chaos, conflict)
	case fitness > c.StableFitness && chaos < c.StableChaos:
		return state.PhaseStable, fmt.Sprintf("fitness %.3f with chaos %.3f below %.2f", fitness, chaos, c.StableChaos)
	case current == state.PhaseEmbryonic && fitness > c.EmbryonicFitness:
		return state.PhaseStable, fmt.Sprintf("fitness %.3f matured past %.2f", fitness, c.EmbryonicFitness)
	}
	return current, ""
}

// #endregion rules

// #region side-effects

func (m *Monitor) enter(st *state.State, env *cycle.Env) {
	switch st.Phase {
	case state.PhaseChaotic:
		st.Neural.ScalePlasticity(m.config.ChaoticPlasticity)
		st.Goals = append(st.Goals, state.Goal{
			ID:          uuid.New().String(),
			Description: state.GoalDescription[state.GoalExploration],
			Type:        state.GoalExploration,
			Priority:    state.GoalBasePriority[state.GoalExploration],
			CreatorEgo:  st.Dominant,
			CreatedAt:   env.Now,
		})
	case state.PhaseStable:
		st.Neural.ScalePlasticity(m.config.StablePlasticity)
		consolidated, dropped := st.ConsolidateMemories()
		env.Printf("phase: consolidated %d memories, forgot %d", consolidated, dropped)
	case state.PhaseReorganizing:
		st.Neural.Reorganize(st.Trait(state.TraitAdaptability))
		st.ReevaluateIdentity = true
	case state.PhaseCollapsing:
		for i := range st.Egos {
			if st.Egos[i].Type == state.EgoSurvival {
				st.Egos[i].Strength = state.MaxEgoStrength
			}
		}
	case state.PhaseEmergent:
		rule := state.SynthesizeRule(st, st.ChaosIndex*m.config.EmergentRuleRatio, env.Rand, env.Now)
		if evicted, ok := st.Identity.Rules.Insert(rule); ok {
			env.Emit(events.RuleRewritten(env.Now, evicted, rule))
		}
	}
}

// #endregion side-effects
