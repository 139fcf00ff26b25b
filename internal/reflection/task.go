package reflection

import (
	"context"
	"math/rand"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region config

// Config controls when and how strongly reflection acts.
type Config struct {
	MinSleep       time.Duration
	MaxSleep       time.Duration
	ChaosTrigger   float64
	FitnessTrigger float64
	FitnessNudge   float64
	// VocabularyBonus adds FitnessNudge*VocabularyBonus per thousand known words, capped at one extra nudge.
	VocabularyBonus float64
}

// DefaultConfig sleeps 30 to 90 seconds between reflections.
func DefaultConfig() Config {
	return Config{
		MinSleep:        30 * time.Second,
		MaxSleep:        90 * time.Second,
		ChaosTrigger:    0.7,
		FitnessTrigger:  0.3,
		FitnessNudge:    0.02,
		VocabularyBonus: 0.5,
	}
}

// #endregion config

// #region journal

// Journal stores narratives produced by reflection.
type Journal interface {
	Save(ctx context.Context, e state.JournalEntry) error
}

// #endregion journal

// #region task

// Task is the opportunistic reflection pass. It runs on its own randomly
// timed loop rather than a fixed period.
type Task struct {
	config  Config
	journal Journal
}

// NewTask creates a reflection task. journal may be nil.
func NewTask(config Config, journal Journal) *Task {
	return &Task{config: config, journal: journal}
}

// Name implements cycle.Task.
func (t *Task) Name() string { return "reflection" }

// NextDelay draws the next sleep from [MinSleep, MaxSleep].
func (t *Task) NextDelay(rng *rand.Rand) time.Duration {
	span := t.config.MaxSleep - t.config.MinSleep
	if span <= 0 {
		return t.config.MinSleep
	}
	return t.config.MinSleep + time.Duration(rng.Int63n(int64(span)+1))
}

// Triggered reports whether the state warrants reflection.
func (t *Task) Triggered(st *state.State) bool {
	return st.ChaosIndex > t.config.ChaosTrigger || st.Fitness < t.config.FitnessTrigger
}

// Tick reflects when triggered: it nudges fitness, refreshes the narrative
// and reports an identity evolution.
func (t *Task) Tick(st *state.State, env *cycle.Env) {
	if !t.Triggered(st) {
		return
	}
	before := st.Identity.Clone()

	vocab := 0
	if env.Linguistic != nil {
		vocab = env.Linguistic.VocabularySize()
	}
	bonus := float64(vocab) / 1000 * t.config.VocabularyBonus
	if bonus > 1 {
		bonus = 1
	}
	st.Fitness = state.Clamp01(st.Fitness + t.config.FitnessNudge*(1+bonus))

	dominant := st.DominantEgo()
	top, _ := st.TopTrait()
	st.Narrative = Narrate(st.Phase, dominant, top)
	env.Printf("reflection: vocabulary=%d fitness=%.3f %q", vocab, st.Fitness, st.Narrative)

	if t.journal != nil {
		entry := state.JournalEntry{Phase: st.Phase, Dominant: dominant.Name, Narrative: st.Narrative, CreatedAt: env.Now}
		journal := t.journal
		env.Async(func(ctx context.Context) {
			if err := journal.Save(ctx, entry); err != nil {
				env.Printf("reflection: journal: %v", err)
			}
		})
	}

	env.Emit(events.IdentityEvolution(env.Now, before, st.Identity))
}

// #endregion task
