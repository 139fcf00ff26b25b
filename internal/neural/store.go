package neural

import "math/rand"

// #region constants

// PathwayCount is the fixed number of pathway weights.
const PathwayCount = 100

const (
	MinPlasticity     = 0.1
	MaxPlasticity     = 3.0
	DefaultPlasticity = 1.0

	reinforceStep = 0.01
	chaosScale    = 0.1
	egoBlend      = 0.1
)

// #endregion constants

// #region store

// Store holds the pathway weights and the plasticity that scales every update.
// Weights stay in [0,1]; Plasticity stays in [MinPlasticity, MaxPlasticity].
type Store struct {
	Weights        [PathwayCount]float64 `json:"weights"`
	Plasticity     float64               `json:"plasticity"`
	BasePlasticity float64               `json:"base_plasticity"`
}

// NewStore returns a store with every weight at 0.5.
func NewStore() Store {
	s := Store{Plasticity: DefaultPlasticity, BasePlasticity: DefaultPlasticity}
	for i := range s.Weights {
		s.Weights[i] = 0.5
	}
	return s
}

// #endregion store

// #region perturbation

// ApplyChaos jitters each weight by uniform(-0.5,0.5)·c·plasticity·0.1.
func (s *Store) ApplyChaos(c float64, rng *rand.Rand) {
	c = Clamp01(c)
	for i := range s.Weights {
		noise := rng.Float64() - 0.5
		s.Weights[i] = Clamp01(s.Weights[i] + noise*c*s.Plasticity*chaosScale)
	}
}

// #endregion perturbation

// #region reinforcement

// ReinforceSuccessfulPathways strengthens weights above 0.5.
func (s *Store) ReinforceSuccessfulPathways() int {
	n := 0
	for i, w := range s.Weights {
		if w > 0.5 {
			s.Weights[i] = Clamp01(w + reinforceStep*s.Plasticity)
			n++
		}
	}
	return n
}

// WeakenUnsuccessfulPathways weakens weights below 0.5.
func (s *Store) WeakenUnsuccessfulPathways() int {
	n := 0
	for i, w := range s.Weights {
		if w < 0.5 {
			s.Weights[i] = Clamp01(w - reinforceStep*s.Plasticity)
			n++
		}
	}
	return n
}

// #endregion reinforcement

// #region reorganize

// Reorganize resets every weight to the given adaptability level.
func (s *Store) Reorganize(adaptability float64) {
	v := Clamp01(adaptability)
	for i := range s.Weights {
		s.Weights[i] = v
	}
}

// AdaptToEgo blends weights 90/10 toward the dominant ego's strength.
func (s *Store) AdaptToEgo(strength float64) {
	target := Clamp01(strength)
	for i, w := range s.Weights {
		s.Weights[i] = Clamp01(w*(1-egoBlend) + target*egoBlend)
	}
}

// #endregion reorganize

// #region plasticity

// ScalePlasticity multiplies plasticity by f and clamps it.
func (s *Store) ScalePlasticity(f float64) {
	s.Plasticity = ClampPlasticity(s.Plasticity * f)
}

// RelaxPlasticity moves plasticity a fraction rate toward BasePlasticity.
func (s *Store) RelaxPlasticity(rate float64) {
	s.Plasticity = ClampPlasticity(s.Plasticity + (s.BasePlasticity-s.Plasticity)*rate)
}

// Coherence is 1 at all-0.5 weights and 0 when every weight sits at a bound.
func (s *Store) Coherence() float64 {
	var dev float64
	for _, w := range s.Weights {
		d := w - 0.5
		if d < 0 {
			d = -d
		}
		dev += d
	}
	return Clamp01(1 - 2*dev/PathwayCount)
}

// Mean returns the average weight.
func (s *Store) Mean() float64 {
	var sum float64
	for _, w := range s.Weights {
		sum += w
	}
	return sum / PathwayCount
}

// #endregion plasticity

// #region helpers

// Clamp01 restricts v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampPlasticity restricts p to [MinPlasticity, MaxPlasticity].
func ClampPlasticity(p float64) float64 {
	if p != p || p < MinPlasticity {
		return MinPlasticity
	}
	if p > MaxPlasticity {
		return MaxPlasticity
	}
	return p
}

// #endregion helpers
