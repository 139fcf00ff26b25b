package plasticity

import (
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// DefaultRelaxRate is the fraction of the gap to base plasticity closed per tick.
const DefaultRelaxRate = 0.02

// Adapter pulls pathways toward the dominant ego and relaxes plasticity.
type Adapter struct {
	relax float64
}

// NewAdapter creates an adapter; rate <= 0 uses DefaultRelaxRate.
func NewAdapter(rate float64) *Adapter {
	if rate <= 0 {
		rate = DefaultRelaxRate
	}
	return &Adapter{relax: rate}
}

func (a *Adapter) Name() string { return "plasticity" }

func (a *Adapter) Tick(st *state.State, _ *cycle.Env) {
	st.Neural.AdaptToEgo(st.DominantEgo().Strength)
	st.Neural.RelaxPlasticity(a.relax)
}
