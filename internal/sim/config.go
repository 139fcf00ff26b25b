package sim

import (
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/chaos"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ego"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/fitness"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/goals"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/identity"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/input"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/phase"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/plasticity"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/reflection"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region periods

// Periods holds the tick interval of each steady-state task. A zero Frame
// period disables visual frames.
type Periods struct {
	Chaos      time.Duration
	Plasticity time.Duration
	Ego        time.Duration
	Phase      time.Duration
	Goals      time.Duration
	Identity   time.Duration
	Fitness    time.Duration
	Input      time.Duration
	Frame      time.Duration
}

// DefaultPeriods returns the standard cadence.
func DefaultPeriods() Periods {
	return Periods{
		Chaos:      10 * time.Millisecond,
		Plasticity: 100 * time.Millisecond,
		Ego:        100 * time.Millisecond,
		Phase:      200 * time.Millisecond,
		Goals:      300 * time.Millisecond,
		Identity:   time.Second,
		Fitness:    250 * time.Millisecond,
		Input:      50 * time.Millisecond,
		Frame:      100 * time.Millisecond,
	}
}

// ByName maps each steady-state task name to its period.
func (p Periods) ByName() map[string]time.Duration {
	return map[string]time.Duration{
		"chaos":      p.Chaos,
		"plasticity": p.Plasticity,
		"ego":        p.Ego,
		"phase":      p.Phase,
		"goals":      p.Goals,
		"identity":   p.Identity,
		"fitness":    p.Fitness,
		"input":      p.Input,
		"frame":      p.Frame,
	}
}

// #endregion periods

// #region config

// Config bundles the scheduler cadence and every component's configuration.
type Config struct {
	Seed         int64
	RuleCapacity int
	MaxMemories  int
	Periods      Periods

	Chaos           chaos.Config
	Ego             ego.Config
	Phase           phase.Config
	Goals           goals.Config
	Identity        identity.Config
	Input           input.Config
	Fitness         fitness.Config
	PlasticityRelax float64
	Reflection      reflection.Config
}

// DefaultConfig returns the standard simulation configuration.
func DefaultConfig() Config {
	return Config{
		Seed:            1,
		RuleCapacity:    state.DefaultRuleCapacity,
		MaxMemories:     state.DefaultMaxMemories,
		Periods:         DefaultPeriods(),
		Chaos:           chaos.DefaultConfig(),
		Ego:             ego.DefaultConfig(),
		Phase:           phase.DefaultConfig(),
		Goals:           goals.DefaultConfig(),
		Identity:        identity.DefaultConfig(),
		Input:           input.DefaultConfig(),
		Fitness:         fitness.DefaultConfig(),
		PlasticityRelax: plasticity.DefaultRelaxRate,
		Reflection:      reflection.DefaultConfig(),
	}
}

// #endregion config
