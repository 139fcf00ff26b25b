package identity

import (
	"math"
	"sort"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region config

// DriftConfig bounds how far identity values move per tick.
type DriftConfig struct {
	// DecayRate pulls unreinforced traits toward Neutral.
	DecayRate float64
	// LearningRate is the EMA step toward a reinforced trait's signal.
	LearningRate float64
	// MaxDeltaNorm caps the L2 norm of the reinforcement delta.
	MaxDeltaNorm float64
	// ReevaluateBoost multiplies LearningRate and MaxDeltaNorm after a
	// reorganization.
	ReevaluateBoost float64
	Neutral         float64
}

// DefaultDriftConfig returns the standard drift policy.
func DefaultDriftConfig() DriftConfig {
	return DriftConfig{
		DecayRate:       0.02,
		LearningRate:    0.1,
		MaxDeltaNorm:    0.15,
		ReevaluateBoost: 2.0,
		Neutral:         0.5,
	}
}

// #endregion config

// #region signals

// traitChannels maps each trait to the emotion channels that reinforce it.
var traitChannels = map[string]func(state.Emotion) float64{
	state.TraitCuriosity:    func(e state.Emotion) float64 { return e.Curiosity },
	state.TraitEmpathy:      func(e state.Emotion) float64 { return e.Trust },
	state.TraitStability:    func(e state.Emotion) float64 { return (e.Joy + e.Trust) / 2 },
	state.TraitCreativity:   func(e state.Emotion) float64 { return e.Surprise },
	state.TraitAdaptability: func(e state.Emotion) float64 { return (e.Surprise + e.Curiosity) / 2 },
	state.TraitCaution:      func(e state.Emotion) float64 { return e.Fear },
	state.TraitResilience:   func(e state.Emotion) float64 { return (e.Anger + e.Sadness) / 2 },
}

// Signals derives an importance-weighted target per trait from memories.
// A trait is absent from the result when no memory touched it.
func Signals(memories []state.Memory) map[string]float64 {
	sums := map[string]float64{}
	weights := map[string]float64{}
	for _, m := range memories {
		w := m.Importance
		if w <= 0 {
			continue
		}
		for trait, channel := range traitChannels {
			v := channel(m.Emotion)
			if v <= 0 {
				continue
			}
			sums[trait] += v * w
			weights[trait] += w
		}
	}
	out := make(map[string]float64, len(sums))
	for trait, s := range sums {
		out[trait] = state.Clamp01(s / weights[trait])
	}
	return out
}

// #endregion signals

// #region drift

// DriftMetrics describes one drift pass.
type DriftMetrics struct {
	DeltaNorm  float64
	DecayNorm  float64
	Reinforced []string
}

// Drift is a pure function: reinforced traits take a bounded EMA step toward
// their signal, every other trait decays toward Neutral.
func Drift(values, signals map[string]float64, config DriftConfig, boosted bool) (map[string]float64, DriftMetrics) {
	rate, maxNorm := config.LearningRate, config.MaxDeltaNorm
	if boosted && config.ReevaluateBoost > 0 {
		rate *= config.ReevaluateBoost
		maxNorm *= config.ReevaluateBoost
	}

	next := make(map[string]float64, len(values))
	var metrics DriftMetrics

	// 1. Decay pass
	var decaySq float64
	for _, trait := range sortedKeys(values) {
		v := values[trait]
		if _, ok := signals[trait]; ok {
			next[trait] = v
			continue
		}
		d := (config.Neutral - v) * config.DecayRate
		next[trait] = state.Clamp01(v + d)
		decaySq += d * d
	}
	metrics.DecayNorm = math.Sqrt(decaySq)

	// 2. Bounded delta pass
	delta := make(map[string]float64, len(signals))
	var sumSq float64
	for _, trait := range sortedKeys(signals) {
		target := signals[trait]
		if _, ok := values[trait]; !ok {
			continue
		}
		d := rate * (target - values[trait])
		delta[trait] = d
		sumSq += d * d
	}
	norm := math.Sqrt(sumSq)
	scale := 1.0
	if maxNorm > 0 && norm > maxNorm {
		scale = maxNorm / norm
		norm = maxNorm
	}
	metrics.Reinforced = sortedKeys(delta)
	for _, trait := range metrics.Reinforced {
		next[trait] = state.Clamp01(values[trait] + delta[trait]*scale)
	}
	metrics.DeltaNorm = norm

	return next, metrics
}

// #endregion drift

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
