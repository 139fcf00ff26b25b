package chaos

import (
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region config

// Config holds the Lorenz parameters and the ego nudges applied per tick.
type Config struct {
	Sigma, Rho, Beta float64
	Dt               float64
	// NormScale maps |(x,y,z)| to the chaos index.
	NormScale   float64
	ChaoticGain float64
	StableDecay float64
	// EscapeNorm is the distance past which the trajectory is treated as
	// diverged and reseeded.
	EscapeNorm float64
}

// DefaultConfig returns the classic Lorenz parameters.
func DefaultConfig() Config {
	return Config{
		Sigma:       10,
		Rho:         28,
		Beta:        8.0 / 3.0,
		Dt:          0.01,
		NormScale:   50,
		ChaoticGain: 0.01,
		StableDecay: 0.005,
		EscapeNorm:  500,
	}
}

// #endregion config

// #region engine

// Engine advances the Lorenz attractor and perturbs downstream stores.
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given configuration.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Name implements cycle.Task.
func (e *Engine) Name() string { return "chaos" }

// Tick integrates one step, recomputes the chaos index, jitters the pathways
// and nudges chaotic and stable egos. A diverged trajectory restarts from
// state.LorenzSeed.
func (e *Engine) Tick(st *state.State, env *cycle.Env) {
	next := Step(st.Lorenz, e.config)
	if !Contained(st.Lorenz, e.config.EscapeNorm) || !Contained(next, e.config.EscapeNorm) {
		env.Printf("chaos: trajectory escaped at %+v, reseeding", st.Lorenz)
		next = state.LorenzSeed
	}
	st.Lorenz = next
	st.ChaosIndex = Index(st.Lorenz, e.config.NormScale)

	st.Neural.ApplyChaos(st.ChaosIndex, env.Rand)

	for i := range st.Egos {
		ego := &st.Egos[i]
		switch ego.Type {
		case state.EgoChaotic:
			ego.Strength = state.ClampStrength(ego.Strength + st.ChaosIndex*e.config.ChaoticGain)
		case state.EgoStable:
			ego.Strength = state.ClampStrength(ego.Strength - st.ChaosIndex*e.config.StableDecay)
		}
	}
}

// #endregion engine

// #region integrator

// Step advances p by one forward-Euler step.
func Step(p state.Vec3, c Config) state.Vec3 {
	dx := c.Sigma * (p.Y - p.X) * c.Dt
	dy := (p.X*(c.Rho-p.Z) - p.Y) * c.Dt
	dz := (p.X*p.Y - c.Beta*p.Z) * c.Dt
	return state.Vec3{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Contained reports whether p is finite and within escape of the origin.
// A non-positive escape disables the distance check.
func Contained(p state.Vec3, escape float64) bool {
	if !p.Finite() {
		return false
	}
	return escape <= 0 || p.Norm() <= escape
}

// Index normalizes the distance from the origin to [0,1].
func Index(p state.Vec3, scale float64) float64 {
	if scale <= 0 {
		scale = 50
	}
	return state.Clamp01(p.Norm() / scale)
}

// #endregion integrator
