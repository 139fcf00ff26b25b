package state

import (
	"sort"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/mailbox"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/neural"
)

// #region constants

const (
	// DefaultMaxMemories bounds the memory list.
	DefaultMaxMemories = 200
	// RecentMemoryWindow is how far back a memory still counts as recent.
	RecentMemoryWindow = 60 * time.Second

	initialFitness = 0.2
)

// #endregion constants

// #region state

// State is the single shared aggregate. Every field is mutated in place by the
// owning task while the simulation lock is held; readers get a Snapshot.
type State struct {
	Lorenz     Vec3    `json:"lorenz"`
	ChaosIndex float64 `json:"chaos_index"`

	Phase          Phase     `json:"phase"`
	PhaseEnteredAt time.Time `json:"phase_entered_at"`
	PhaseReason    string    `json:"phase_reason"`

	Fitness         float64 `json:"existential_fitness"`
	PreviousFitness float64 `json:"previous_fitness"`
	Conflict        float64 `json:"internal_conflict"`

	Egos     [EgoCount]EgoFragment `json:"egos"`
	Dominant int                   `json:"dominant_ego"`

	Neural neural.Store `json:"neural"`

	Goals         []Goal `json:"goals"`
	CurrentGoal   string `json:"current_goal,omitempty"`
	GoalsAchieved int    `json:"goals_achieved"`

	Identity           Identity `json:"identity"`
	ReevaluateIdentity bool     `json:"reevaluate_identity"`
	Narrative          string   `json:"narrative"`

	Memories    []Memory `json:"memories"`
	MaxMemories int      `json:"max_memories"`

	BornAt time.Time `json:"born_at"`

	Inputs *mailbox.Queue[Input] `json:"-"`
}

// New constructs the state at simulation birth.
func New(now time.Time, ruleCapacity int) *State {
	values := make(map[string]float64, len(Traits))
	for _, t := range Traits {
		values[t] = 0.5
	}
	values[TraitCuriosity] = 0.6

	return &State{
		Lorenz:          LorenzSeed,
		Phase:           PhaseEmbryonic,
		PhaseEnteredAt:  now,
		PhaseReason:     "birth",
		Fitness:         initialFitness,
		PreviousFitness: initialFitness,
		Egos:            DefaultEgos(),
		Dominant:        0,
		Neural:          neural.NewStore(),
		Identity:        Identity{Values: values, Rules: NewRuleSet(ruleCapacity)},
		Narrative:       "I am only beginning.",
		MaxMemories:     DefaultMaxMemories,
		BornAt:          now,
		Inputs:          mailbox.New[Input](),
	}
}

// DefaultEgos returns the four fragments created at birth.
func DefaultEgos() [EgoCount]EgoFragment {
	return [EgoCount]EgoFragment{
		{
			Name: "Guardian", Type: EgoStable,
			Traits:   []string{TraitStability, TraitEmpathy},
			Strength: 0.6, GoalInfluence: 0.3,
			Baseline: Emotion{Trust: 0.6, Joy: 0.3},
		},
		{
			Name: "Trickster", Type: EgoChaotic,
			Traits:   []string{TraitCuriosity, TraitCreativity},
			Strength: 0.5, GoalInfluence: 0.8,
			Baseline: Emotion{Surprise: 0.6, Curiosity: 0.5},
		},
		{
			Name: "Shaper", Type: EgoAdaptive,
			Traits:   []string{TraitAdaptability, TraitCuriosity},
			Strength: 0.5, GoalInfluence: 0.6,
			Baseline: Emotion{Curiosity: 0.5, Trust: 0.3},
		},
		{
			Name: "Sentinel", Type: EgoSurvival,
			Traits:   []string{TraitCaution, TraitResilience},
			Strength: 0.4, GoalInfluence: 0.5,
			Baseline: Emotion{Fear: 0.5, Anger: 0.3},
		},
	}
}

// #endregion state

// #region accessors

// DominantEgo returns the current dominant fragment.
func (s *State) DominantEgo() EgoFragment {
	return s.Egos[s.Dominant]
}

// CurrentGoalRef returns the current goal, if any.
func (s *State) CurrentGoalRef() (*Goal, bool) {
	if s.CurrentGoal == "" {
		return nil, false
	}
	for i := range s.Goals {
		if s.Goals[i].ID == s.CurrentGoal {
			return &s.Goals[i], true
		}
	}
	return nil, false
}

// SelectCurrentGoal points CurrentGoal at the highest-priority goal; the
// earliest goal wins ties.
func (s *State) SelectCurrentGoal() {
	s.CurrentGoal = ""
	best := -1.0
	for _, g := range s.Goals {
		if g.Priority > best {
			best = g.Priority
			s.CurrentGoal = g.ID
		}
	}
}

// HasGoalType reports whether an active goal of type t exists.
func (s *State) HasGoalType(t GoalType) bool {
	for _, g := range s.Goals {
		if g.Type == t {
			return true
		}
	}
	return false
}

// Trait returns the identity value for a trait (0 when unknown).
func (s *State) Trait(name string) float64 {
	return s.Identity.Values[name]
}

// #endregion accessors

// #region memories

// AddMemory stores m, dropping the least important unconsolidated memory
// when the list is full.
func (s *State) AddMemory(m Memory) {
	limit := s.MaxMemories
	if limit <= 0 {
		limit = DefaultMaxMemories
	}
	if len(s.Memories) >= limit {
		idx := -1
		for i, old := range s.Memories {
			if old.Consolidated {
				continue
			}
			if idx < 0 || old.Importance < s.Memories[idx].Importance {
				idx = i
			}
		}
		if idx < 0 {
			idx = 0
		}
		s.Memories = append(s.Memories[:idx], s.Memories[idx+1:]...)
	}
	s.Memories = append(s.Memories, m)
}

// RecentMemories returns memories formed within RecentMemoryWindow of now,
// oldest first.
func (s *State) RecentMemories(now time.Time) []Memory {
	cutoff := now.Add(-RecentMemoryWindow)
	var out []Memory
	for _, m := range s.Memories {
		if m.CreatedAt.After(cutoff) {
			out = append(out, m)
		}
	}
	return out
}

// ConsolidateMemories marks important memories consolidated and forgets
// trivial unconsolidated ones. It returns how many were consolidated and dropped.
func (s *State) ConsolidateMemories() (consolidated, dropped int) {
	kept := s.Memories[:0]
	for _, m := range s.Memories {
		switch {
		case m.Importance >= 0.5:
			if !m.Consolidated {
				consolidated++
			}
			m.Consolidated = true
		case !m.Consolidated && m.Importance < 0.2:
			dropped++
			continue
		}
		kept = append(kept, m)
	}
	s.Memories = kept
	return consolidated, dropped
}

// #endregion memories

// #region snapshot

// Snapshot is a deep copy of the state taken under the simulation lock.
// Mutating it never affects the running simulation.
type Snapshot struct {
	State
	PendingInputs int       `json:"pending_inputs"`
	TakenAt       time.Time `json:"taken_at"`
}

// Snapshot deep-copies the state.
func (s *State) Snapshot(now time.Time) Snapshot {
	pending := 0
	if s.Inputs != nil {
		pending = s.Inputs.Len()
	}
	return Snapshot{State: s.Clone(), PendingInputs: pending, TakenAt: now}
}

// Clone returns a deep copy with no input queue attached.
func (s *State) Clone() State {
	out := *s
	out.Inputs = nil
	for i := range out.Egos {
		traits := make([]string, len(s.Egos[i].Traits))
		copy(traits, s.Egos[i].Traits)
		out.Egos[i].Traits = traits
	}
	if s.Goals != nil {
		out.Goals = make([]Goal, len(s.Goals))
		copy(out.Goals, s.Goals)
	}
	if s.Memories != nil {
		out.Memories = make([]Memory, len(s.Memories))
		copy(out.Memories, s.Memories)
	}
	out.Identity = s.Identity.Clone()
	return out
}

// TopTrait returns the highest-valued trait; ties go to the earlier entry of Traits.
func (s *State) TopTrait() (string, float64) {
	names := make([]string, 0, len(s.Identity.Values))
	for k := range s.Identity.Values {
		names = append(names, k)
	}
	order := make(map[string]int, len(Traits))
	for i, t := range Traits {
		order[t] = i
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := order[names[i]]
		oj, jok := order[names[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return names[i] < names[j]
	})
	best, bestVal := "", -1.0
	for _, n := range names {
		if v := s.Identity.Values[n]; v > bestVal {
			best, bestVal = n, v
		}
	}
	return best, bestVal
}

// #endregion snapshot
