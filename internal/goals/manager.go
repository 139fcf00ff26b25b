package goals

import (
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ego"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	"github.com/google/uuid"
)

// #region config

// Config tunes goal progress and generation.
type Config struct {
	MaxActive        int
	AlignmentRate    float64
	StableBonus      float64
	FitnessRate      float64
	ResolutionAbove  float64 // conflict
	StabilityAbove   float64 // chaos
	ExplorationAbove float64 // curiosity trait
	ExperienceBelow  int     // recent memories
}

// DefaultConfig returns the standard goal dynamics.
func DefaultConfig() Config {
	return Config{
		MaxActive:        3,
		AlignmentRate:    0.01,
		StableBonus:      0.1,
		FitnessRate:      0.1,
		ResolutionAbove:  0.7,
		StabilityAbove:   0.6,
		ExplorationAbove: 0.7,
		ExperienceBelow:  3,
	}
}

// #endregion config

// #region manager

// Manager advances, retires and generates goals.
type Manager struct {
	config Config
}

// NewManager creates a goal manager.
func NewManager(config Config) *Manager {
	if config.MaxActive <= 0 {
		config.MaxActive = DefaultConfig().MaxActive
	}
	return &Manager{config: config}
}

// Name implements cycle.Task.
func (m *Manager) Name() string { return "goals" }

// Tick advances progress, removes completed goals, tops the list up by at
// most one goal and reselects the current goal.
func (m *Manager) Tick(st *state.State, env *cycle.Env) {
	dominant := st.DominantEgo()

	kept := st.Goals[:0]
	for _, g := range st.Goals {
		g.Progress = state.Clamp01(g.Progress + m.progressDelta(st, dominant, g))
		if g.Progress >= 1.0 {
			st.GoalsAchieved++
			env.Printf("goals: achieved %q (%s)", g.Description, g.Type)
			env.Emit(events.GoalAchieved(env.Now, g))
			continue
		}
		kept = append(kept, g)
	}
	st.Goals = kept

	if len(st.Goals) < m.config.MaxActive {
		t := m.NextGoalType(st, env)
		st.Goals = append(st.Goals, state.Goal{
			ID:          uuid.New().String(),
			Description: state.GoalDescription[t],
			Type:        t,
			Priority:    state.GoalBasePriority[t],
			CreatorEgo:  st.Dominant,
			CreatedAt:   env.Now,
		})
	}

	st.SelectCurrentGoal()
}

func (m *Manager) progressDelta(st *state.State, dominant state.EgoFragment, g state.Goal) float64 {
	d := ego.GoalAlignment(dominant, &g)*m.config.AlignmentRate + st.Fitness*m.config.FitnessRate
	if st.Phase == state.PhaseStable {
		d += m.config.StableBonus
	}
	return d
}

// NextGoalType picks the type of the next generated goal. Growth is the
// fallback and always applies.
func (m *Manager) NextGoalType(st *state.State, env *cycle.Env) state.GoalType {
	switch {
	case st.Conflict > m.config.ResolutionAbove:
		return state.GoalResolution
	case st.ChaosIndex > m.config.StabilityAbove:
		return state.GoalStability
	case st.Trait(state.TraitCuriosity) > m.config.ExplorationAbove:
		return state.GoalExploration
	case len(st.RecentMemories(env.Now)) < m.config.ExperienceBelow:
		return state.GoalExperience
	default:
		return state.GoalGrowth
	}
}

// #endregion manager
