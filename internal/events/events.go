package events

import (
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	"github.com/google/uuid"
)

// #region kind

// Kind identifies what changed.
type Kind string

const (
	KindPhaseTransition   Kind = "phase_transition"
	KindEgoShift          Kind = "ego_shift"
	KindGoalAchieved      Kind = "goal_achieved"
	KindIdentityEvolution Kind = "identity_evolution"
	KindMemoryFormed      Kind = "memory_formed"
	KindRuleRewritten     Kind = "rule_rewritten"
	KindVisualFrame       Kind = "visual_frame"
)

// #endregion kind

// #region event

// Event is one notification. Only the fields matching Kind are set; every
// payload is a copy detached from the live state.
type Event struct {
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`

	OldPhase state.Phase `json:"old_phase,omitempty"`
	NewPhase state.Phase `json:"new_phase,omitempty"`
	Reason   string      `json:"reason,omitempty"`

	OldEgo state.EgoFragment `json:"old_ego,omitempty"`
	NewEgo state.EgoFragment `json:"new_ego,omitempty"`

	Goal state.Goal `json:"goal,omitempty"`

	OldIdentity state.Identity `json:"old_identity,omitempty"`
	NewIdentity state.Identity `json:"new_identity,omitempty"`

	Memory state.Memory `json:"memory,omitempty"`

	OldRule state.Rule `json:"old_rule,omitempty"`
	NewRule state.Rule `json:"new_rule,omitempty"`

	Frame *state.Snapshot `json:"frame,omitempty"`
}

func newEvent(kind Kind, at time.Time) Event {
	return Event{ID: uuid.New().String(), Kind: kind, At: at}
}

// PhaseTransition builds a phase transition event.
func PhaseTransition(at time.Time, from, to state.Phase, reason string) Event {
	e := newEvent(KindPhaseTransition, at)
	e.OldPhase, e.NewPhase, e.Reason = from, to, reason
	return e
}

// EgoShift builds an ego shift event.
func EgoShift(at time.Time, from, to state.EgoFragment) Event {
	e := newEvent(KindEgoShift, at)
	e.OldEgo, e.NewEgo = cloneEgo(from), cloneEgo(to)
	return e
}

// GoalAchieved builds a goal completion event.
func GoalAchieved(at time.Time, g state.Goal) Event {
	e := newEvent(KindGoalAchieved, at)
	e.Goal = g
	return e
}

// IdentityEvolution builds an identity evolution event.
func IdentityEvolution(at time.Time, from, to state.Identity) Event {
	e := newEvent(KindIdentityEvolution, at)
	e.OldIdentity, e.NewIdentity = from.Clone(), to.Clone()
	return e
}

// MemoryFormed builds a memory formation event.
func MemoryFormed(at time.Time, m state.Memory) Event {
	e := newEvent(KindMemoryFormed, at)
	e.Memory = m
	return e
}

// RuleRewritten builds a rule rewrite event: oldRule was evicted to make room for newRule.
func RuleRewritten(at time.Time, oldRule, newRule state.Rule) Event {
	e := newEvent(KindRuleRewritten, at)
	e.OldRule, e.NewRule = oldRule, newRule
	return e
}

// VisualFrame builds a rendering frame event.
func VisualFrame(snap state.Snapshot) Event {
	e := newEvent(KindVisualFrame, snap.TakenAt)
	e.Frame = &snap
	return e
}

func cloneEgo(e state.EgoFragment) state.EgoFragment {
	traits := make([]string, len(e.Traits))
	copy(traits, e.Traits)
	e.Traits = traits
	return e
}

// #endregion event

// #region listener

// Listener receives notifications on the bus delivery goroutine, never on a
// simulation task.
type Listener interface {
	OnPhaseTransition(from, to state.Phase, reason string)
	OnEgoShift(from, to state.EgoFragment)
	OnGoalAchieved(goal state.Goal)
	OnIdentityEvolution(from, to state.Identity)
	OnMemoryFormed(memory state.Memory)
	OnRuleRewritten(oldRule, newRule state.Rule)
	OnVisualFrame(snapshot state.Snapshot)
}

// Funcs adapts optional callbacks into a Listener. Nil callbacks are skipped.
type Funcs struct {
	PhaseTransition   func(from, to state.Phase, reason string)
	EgoShift          func(from, to state.EgoFragment)
	GoalAchieved      func(goal state.Goal)
	IdentityEvolution func(from, to state.Identity)
	MemoryFormed      func(memory state.Memory)
	RuleRewritten     func(oldRule, newRule state.Rule)
	VisualFrame       func(snapshot state.Snapshot)
}

func (f Funcs) OnPhaseTransition(from, to state.Phase, reason string) {
	if f.PhaseTransition != nil {
		f.PhaseTransition(from, to, reason)
	}
}

func (f Funcs) OnEgoShift(from, to state.EgoFragment) {
	if f.EgoShift != nil {
		f.EgoShift(from, to)
	}
}

func (f Funcs) OnGoalAchieved(goal state.Goal) {
	if f.GoalAchieved != nil {
		f.GoalAchieved(goal)
	}
}

func (f Funcs) OnIdentityEvolution(from, to state.Identity) {
	if f.IdentityEvolution != nil {
		f.IdentityEvolution(from, to)
	}
}

func (f Funcs) OnMemoryFormed(memory state.Memory) {
	if f.MemoryFormed != nil {
		f.MemoryFormed(memory)
	}
}

func (f Funcs) OnRuleRewritten(oldRule, newRule state.Rule) {
	if f.RuleRewritten != nil {
		f.RuleRewritten(oldRule, newRule)
	}
}

func (f Funcs) OnVisualFrame(snapshot state.Snapshot) {
	if f.VisualFrame != nil {
		f.VisualFrame(snapshot)
	}
}

// Dispatch invokes the Listener method matching e.Kind.
func Dispatch(l Listener, e Event) {
	switch e.Kind {
	case KindPhaseTransition:
		l.OnPhaseTransition(e.OldPhase, e.NewPhase, e.Reason)
	case KindEgoShift:
		l.OnEgoShift(e.OldEgo, e.NewEgo)
	case KindGoalAchieved:
		l.OnGoalAchieved(e.Goal)
	case KindIdentityEvolution:
		l.OnIdentityEvolution(e.OldIdentity, e.NewIdentity)
	case KindMemoryFormed:
		l.OnMemoryFormed(e.Memory)
	case KindRuleRewritten:
		l.OnRuleRewritten(e.OldRule, e.NewRule)
	case KindVisualFrame:
		if e.Frame != nil {
			l.OnVisualFrame(*e.Frame)
		}
	}
}

// #endregion listener
