package state

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// #region errors

// ErrUnsupportedCondition is returned for rule conditions other than "chaos > X".
var ErrUnsupportedCondition = errors.New("unsupported rule condition")

// #endregion errors

// #region condition

// Condition is a parsed rule predicate.
type Condition struct {
	Metric    string
	Threshold float64
}

// ParseCondition parses the "chaos > X" form.
func ParseCondition(text string) (Condition, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) != 3 || fields[0] != "chaos" || fields[1] != ">" {
		return Condition{}, fmt.Errorf("%w: %q", ErrUnsupportedCondition, text)
	}
	threshold, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %q: %v", ErrUnsupportedCondition, text, err)
	}
	return Condition{Metric: "chaos", Threshold: threshold}, nil
}

// ChaosCondition formats a "chaos > X" predicate.
func ChaosCondition(threshold float64) string {
	return fmt.Sprintf("chaos > %.3f", threshold)
}

// Holds reports whether the condition is satisfied by the given chaos index.
func (c Condition) Holds(chaos float64) bool {
	return chaos > c.Threshold
}

// #endregion condition

// #region rule-set

// DefaultRuleCapacity bounds the identity rule set.
const DefaultRuleCapacity = 50

// RuleSet is a bounded rule list. Inserting past capacity evicts the
// least-activated rule (the oldest among equals).
type RuleSet struct {
	Capacity int    `json:"capacity"`
	Rules    []Rule `json:"rules"`
}

// NewRuleSet creates an empty set; capacity <= 0 uses DefaultRuleCapacity.
func NewRuleSet(capacity int) RuleSet {
	if capacity <= 0 {
		capacity = DefaultRuleCapacity
	}
	return RuleSet{Capacity: capacity}
}

// Insert adds r. When the set was full the evicted rule is returned with ok=true.
func (rs *RuleSet) Insert(r Rule) (evicted Rule, ok bool) {
	if rs.Capacity <= 0 {
		rs.Capacity = DefaultRuleCapacity
	}
	if len(rs.Rules) >= rs.Capacity {
		idx := rs.leastActivated()
		evicted = rs.Rules[idx]
		rs.Rules = append(rs.Rules[:idx], rs.Rules[idx+1:]...)
		ok = true
	}
	rs.Rules = append(rs.Rules, r)
	return evicted, ok
}

func (rs *RuleSet) leastActivated() int {
	idx := 0
	for i, r := range rs.Rules {
		if r.Activations < rs.Rules[idx].Activations {
			idx = i
		}
	}
	return idx
}

// Len returns the number of rules.
func (rs RuleSet) Len() int { return len(rs.Rules) }

// Clone deep-copies the set.
func (rs RuleSet) Clone() RuleSet {
	out := RuleSet{Capacity: rs.Capacity}
	if rs.Rules != nil {
		out.Rules = make([]Rule, len(rs.Rules))
		copy(out.Rules, rs.Rules)
	}
	return out
}

// #endregion rule-set

// #region synthesis

// SynthesizeRule builds a "chaos > threshold" rule whose action is drawn from
// the dominant ego's repertoire.
func SynthesizeRule(st *State, threshold float64, rng *rand.Rand, now time.Time) Rule {
	actions := EgoActions[st.DominantEgo().Type]
	action := ActionAdapt
	if len(actions) > 0 {
		action = actions[rng.Intn(len(actions))]
	}
	return Rule{
		ID:        uuid.New().String(),
		Condition: ChaosCondition(Clamp01(threshold)),
		Action:    action,
		Weight:    0.5 + 0.5*rng.Float64(),
		CreatedAt: now,
	}
}

// #endregion synthesis
