package input

import (
	"context"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	"github.com/google/uuid"
)

// #region recipes

// Recipes holds the raw emotion weighting for each input kind, before
// intensity scaling and normalization.
var Recipes = map[state.InputKind]state.Emotion{
	state.InputPositive:    {Joy: 0.8, Trust: 0.4},
	state.InputNegative:    {Sadness: 0.7, Anger: 0.3},
	state.InputThreat:      {Fear: 0.9, Anger: 0.5, Surprise: 0.3},
	state.InputOpportunity: {Curiosity: 0.8, Joy: 0.5},
	state.InputTouch:       {Trust: 0.6, Joy: 0.3, Surprise: 0.2},
	state.InputSpeech:      {Curiosity: 0.5, Trust: 0.3},
	state.InputNeutral:     {Joy: 0.1, Sadness: 0.1, Fear: 0.1, Anger: 0.1, Surprise: 0.1, Trust: 0.1, Curiosity: 0.1},
}

// #endregion recipes

// #region config

// Config tunes draining and Lorenz perturbation.
type Config struct {
	// MaxPerTick caps inputs applied per tick; 0 drains everything.
	MaxPerTick int
	TouchGain  float64
	SpeechGain float64
	OtherGain  float64
	// CuriosityBoost is added to the curiosity channel per curiosity phrase.
	CuriosityBoost float64
}

// DefaultConfig returns the standard dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxPerTick:     0,
		TouchGain:      5.0,
		SpeechGain:     1.0,
		OtherGain:      1.0,
		CuriosityBoost: 0.3,
	}
}

// #endregion config

// #region dispatcher

// Dispatcher applies queued inputs to the state.
type Dispatcher struct {
	config Config
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(config Config) *Dispatcher {
	return &Dispatcher{config: config}
}

// Name implements cycle.Task.
func (d *Dispatcher) Name() string { return "input" }

// Tick drains the mailbox and applies each input in submission order.
func (d *Dispatcher) Tick(st *state.State, env *cycle.Env) {
	if st.Inputs == nil {
		return
	}
	for _, in := range st.Inputs.Drain(d.config.MaxPerTick) {
		d.Apply(st, env, in)
	}
}

// Apply forms a memory from one input, perturbs the Lorenz point and
// forwards any text to the linguistic port.
func (d *Dispatcher) Apply(st *state.State, env *cycle.Env, in state.Input) state.Memory {
	raw := d.Emotion(in)
	importance := state.Clamp01(raw.Max())

	m := state.Memory{
		ID:         uuid.New().String(),
		Kind:       in.Kind,
		Text:       in.Text,
		Emotion:    raw.Normalize(),
		Importance: importance,
		CreatedAt:  env.Now,
	}
	st.AddMemory(m)

	dx, dy, dz := d.Perturbation(in, importance)
	st.Lorenz.X += dx
	st.Lorenz.Y += dy
	st.Lorenz.Z += dz

	if in.Text != "" && env.Linguistic != nil {
		ling, text, snap := env.Linguistic, in.Text, st.Snapshot(env.Now)
		env.Async(func(ctx context.Context) {
			if err := ling.LearnSentence(ctx, text, snap); err != nil {
				env.Printf("input: learn sentence: %v", err)
			}
		})
	}

	env.Emit(events.MemoryFormed(env.Now, m))
	return m
}

// Emotion returns the intensity-scaled emotion vector before normalization.
func (d *Dispatcher) Emotion(in state.Input) state.Emotion {
	recipe, ok := Recipes[in.Kind]
	if !ok {
		recipe = Recipes[state.InputNeutral]
	}
	e := recipe
	if in.Kind == state.InputSpeech {
		e.Curiosity += d.config.CuriosityBoost * float64(len(ExtractCuriosity(in.Text)))
	}
	return e.Scale(state.Clamp01(in.Intensity))
}

// Perturbation returns the Lorenz offsets for an input: touch moves x/y by
// canvas position, speech moves z by intensity, everything else moves x.
func (d *Dispatcher) Perturbation(in state.Input, importance float64) (dx, dy, dz float64) {
	switch in.Kind {
	case state.InputTouch:
		x := state.Clamp(in.X, 0, state.CanvasSize)
		y := state.Clamp(in.Y, 0, state.CanvasSize)
		return (x/state.CanvasSize - 0.5) * d.config.TouchGain, (y/state.CanvasSize - 0.5) * d.config.TouchGain, 0
	case state.InputSpeech:
		return 0, 0, importance * d.config.SpeechGain
	case state.InputNegative, state.InputThreat:
		return -importance * d.config.OtherGain, 0, 0
	default:
		return importance * d.config.OtherGain, 0, 0
	}
}

// #endregion dispatcher
