package state

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// #region phase

// Phase is the discrete behavioral regime of the simulation.
type Phase string

const (
	PhaseEmbryonic Phase = "embryonic"
	PhaseStable    Phase = "stable"
	PhaseChaotic   Phase = "chaotic"
	// PhaseTransitioning is never produced by the transition rules; it is kept
	// so stored snapshots and listeners can name it if a rule is added later.
	PhaseTransitioning Phase = "transitioning"
	PhaseReorganizing  Phase = "reorganizing"
	PhaseCollapsing    Phase = "collapsing"
	PhaseEmergent      Phase = "emergent"
)

// Phases lists every phase in declaration order.
var Phases = []Phase{
	PhaseEmbryonic, PhaseStable, PhaseChaotic, PhaseTransitioning,
	PhaseReorganizing, PhaseCollapsing, PhaseEmergent,
}

// #endregion phase

// #region ego

// EgoType classifies an ego fragment.
type EgoType string

const (
	EgoStable   EgoType = "stable"
	EgoChaotic  EgoType = "chaotic"
	EgoAdaptive EgoType = "adaptive"
	EgoSurvival EgoType = "survival"
)

// EgoCount is the fixed number of ego fragments.
const EgoCount = 4

const (
	MinEgoStrength = 0.1
	MaxEgoStrength = 1.0
)

// EgoFragment is one of the competing internal agents.
type EgoFragment struct {
	Name          string   `json:"name"`
	Type          EgoType  `json:"type"`
	Traits        []string `json:"traits"`
	Strength      float64  `json:"strength"`
	GoalInfluence float64  `json:"goal_influence"`
	Baseline      Emotion  `json:"baseline"`
}

// #endregion ego

// #region goal

// GoalType determines a goal's influence factor.
type GoalType string

const (
	GoalResolution  GoalType = "resolution"
	GoalStability   GoalType = "stability"
	GoalExploration GoalType = "exploration"
	GoalExperience  GoalType = "experience"
	GoalGrowth      GoalType = "growth"
)

// Goal is an active objective. Progress is in [0,1]; goals are removed at 1.
type Goal struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Type        GoalType  `json:"type"`
	Priority    float64   `json:"priority"`
	Progress    float64   `json:"progress"`
	CreatorEgo  int       `json:"creator_ego"`
	CreatedAt   time.Time `json:"created_at"`
}

// #endregion goal

// #region rule

// Rule maps a textual condition to an action tag.
type Rule struct {
	ID          string    `json:"id"`
	Condition   string    `json:"condition"`
	Action      string    `json:"action"`
	Weight      float64   `json:"weight"`
	Activations int       `json:"activations"`
	CreatedAt   time.Time `json:"created_at"`
}

// #endregion rule

// #region identity

// Trait names held in Identity.Values.
const (
	TraitCuriosity    = "curiosity"
	TraitEmpathy      = "empathy"
	TraitStability    = "stability"
	TraitCreativity   = "creativity"
	TraitAdaptability = "adaptability"
	TraitCaution      = "caution"
	TraitResilience   = "resilience"
)

// Traits lists every trait in a stable order.
var Traits = []string{
	TraitCuriosity, TraitEmpathy, TraitStability, TraitCreativity,
	TraitAdaptability, TraitCaution, TraitResilience,
}

// Identity is the trait vector plus the bounded rule set.
type Identity struct {
	Values map[string]float64 `json:"values"`
	Rules  RuleSet            `json:"rules"`
}

// Clone deep-copies the identity.
func (id Identity) Clone() Identity {
	values := make(map[string]float64, len(id.Values))
	for k, v := range id.Values {
		values[k] = v
	}
	return Identity{Values: values, Rules: id.Rules.Clone()}
}

// Similarity is the mean of per-trait complements 1-|a-b| over the union of traits.
// Two empty identities are identical.
func Similarity(a, b map[string]float64) float64 {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return 1
	}
	// Summed in key order so results are reproducible.
	sort.Strings(keys)
	var sum float64
	for _, k := range keys {
		sum += 1 - math.Abs(a[k]-b[k])
	}
	return Clamp01(sum / float64(len(keys)))
}

// #endregion identity

// #region emotion

// Emotion is a seven-channel affect vector.
type Emotion struct {
	Joy       float64 `json:"joy"`
	Sadness   float64 `json:"sadness"`
	Fear      float64 `json:"fear"`
	Anger     float64 `json:"anger"`
	Surprise  float64 `json:"surprise"`
	Trust     float64 `json:"trust"`
	Curiosity float64 `json:"curiosity"`
}

// EmotionChannels names the channels in the order Channels returns them.
var EmotionChannels = []string{"joy", "sadness", "fear", "anger", "surprise", "trust", "curiosity"}

// Channels returns the vector as a fixed-order array.
func (e Emotion) Channels() [7]float64 {
	return [7]float64{e.Joy, e.Sadness, e.Fear, e.Anger, e.Surprise, e.Trust, e.Curiosity}
}

// Max returns the largest channel.
func (e Emotion) Max() float64 {
	var m float64
	for _, v := range e.Channels() {
		if v > m {
			m = v
		}
	}
	return m
}

// Dominant names the largest channel; ties go to the earlier channel.
func (e Emotion) Dominant() string {
	best, idx := -1.0, 0
	for i, v := range e.Channels() {
		if v > best {
			best, idx = v, i
		}
	}
	return EmotionChannels[idx]
}

// Scale multiplies every channel by f.
func (e Emotion) Scale(f float64) Emotion {
	return Emotion{
		Joy: e.Joy * f, Sadness: e.Sadness * f, Fear: e.Fear * f, Anger: e.Anger * f,
		Surprise: e.Surprise * f, Trust: e.Trust * f, Curiosity: e.Curiosity * f,
	}
}

// Normalize divides by the largest channel. A zero vector is returned unchanged.
func (e Emotion) Normalize() Emotion {
	m := e.Max()
	if m <= 0 {
		return e
	}
	return Emotion{
		Joy: e.Joy / m, Sadness: e.Sadness / m, Fear: e.Fear / m, Anger: e.Anger / m,
		Surprise: e.Surprise / m, Trust: e.Trust / m, Curiosity: e.Curiosity / m,
	}
}

// #endregion emotion

// #region input

// InputKind tags externally submitted events.
type InputKind string

const (
	InputPositive    InputKind = "positive"
	InputNegative    InputKind = "negative"
	InputThreat      InputKind = "threat"
	InputOpportunity InputKind = "opportunity"
	InputNeutral     InputKind = "neutral"
	InputTouch       InputKind = "touch"
	InputSpeech      InputKind = "speech"
)

// InputKinds lists every accepted input kind.
var InputKinds = []InputKind{
	InputPositive, InputNegative, InputThreat, InputOpportunity,
	InputNeutral, InputTouch, InputSpeech,
}

// ErrUnknownInputKind is returned by ParseInputKind.
var ErrUnknownInputKind = errors.New("unknown input kind")

// ParseInputKind validates a kind name.
func ParseInputKind(name string) (InputKind, error) {
	k := InputKind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range InputKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInputKind, name)
}

// CanvasSize is the logical width and height of the touch canvas.
const CanvasSize = 500.0

// Input is one externally submitted event waiting in the mailbox.
type Input struct {
	Kind        InputKind `json:"kind"`
	Text        string    `json:"text,omitempty"`
	X           float64   `json:"x,omitempty"`
	Y           float64   `json:"y,omitempty"`
	Intensity   float64   `json:"intensity"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Memory is a stored experience formed from one input.
type Memory struct {
	ID           string    `json:"id"`
	Kind         InputKind `json:"kind"`
	Text         string    `json:"text,omitempty"`
	Emotion      Emotion   `json:"emotion"`
	Importance   float64   `json:"importance"`
	Consolidated bool      `json:"consolidated"`
	CreatedAt    time.Time `json:"created_at"`
}

// #endregion input

// #region lorenz

// Vec3 holds the Lorenz coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LorenzSeed is the starting point of every trajectory.
var LorenzSeed = Vec3{X: 1, Y: 1, Z: 1}

// Norm is the Euclidean length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Finite reports whether no coordinate is NaN or infinite.
func (v Vec3) Finite() bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// #endregion lorenz

// #region journal

// JournalEntry is one self-narrative line written during reflection.
type JournalEntry struct {
	Phase     Phase
	Dominant  string
	Narrative string
	CreatedAt time.Time
}

// #endregion journal

// #region helpers

// Clamp01 restricts v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp restricts v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampStrength restricts an ego strength to [MinEgoStrength, MaxEgoStrength].
func ClampStrength(v float64) float64 {
	return Clamp(v, MinEgoStrength, MaxEgoStrength)
}

// #endregion helpers
