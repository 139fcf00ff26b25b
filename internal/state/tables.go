package state

// #region goal-influence

// GoalInfluence is the fixed influence factor of each goal type.
var GoalInfluence = map[GoalType]float64{
	GoalResolution:  0.5,
	GoalStability:   0.3,
	GoalExploration: 0.8,
	GoalExperience:  0.6,
	GoalGrowth:      0.7,
}

// GoalBasePriority is the priority a freshly generated goal starts with.
var GoalBasePriority = map[GoalType]float64{
	GoalResolution:  0.9,
	GoalStability:   0.8,
	GoalExploration: 0.6,
	GoalExperience:  0.5,
	GoalGrowth:      0.4,
}

// GoalDescription is the description template for generated goals.
var GoalDescription = map[GoalType]string{
	GoalResolution:  "Resolve the conflict between inner voices",
	GoalStability:   "Find calm inside the storm",
	GoalExploration: "Explore something unfamiliar",
	GoalExperience:  "Gather new experiences",
	GoalGrowth:      "Grow a little beyond yesterday",
}

// #endregion goal-influence

// #region phase-bonus

// phaseBonus holds the arbitration bonus per phase and ego type. Missing
// entries score 0.
var phaseBonus = map[Phase]map[EgoType]float64{
	PhaseStable: {
		EgoStable:   0.3,
		EgoChaotic:  -0.2,
		EgoSurvival: -0.1,
	},
	PhaseChaotic: {
		EgoChaotic: 0.3,
		EgoStable:  -0.2,
	},
	PhaseReorganizing: {
		EgoAdaptive: 0.3,
		EgoStable:   -0.1,
	},
	PhaseCollapsing: {
		EgoSurvival: 0.5,
		EgoChaotic:  -0.2,
	},
	PhaseEmergent: {
		EgoSurvival: -0.1,
	},
}

// PhaseBonus returns the arbitration bonus for an ego type in a phase.
func PhaseBonus(p Phase, t EgoType) float64 {
	return phaseBonus[p][t]
}

// #endregion phase-bonus

// #region compatibility

// Compatibility is 0.9 for equal types, 0.1 for stable against chaotic and
// 0.5 for every other pairing.
func Compatibility(a, b EgoType) float64 {
	switch {
	case a == b:
		return 0.9
	case (a == EgoStable && b == EgoChaotic) || (a == EgoChaotic && b == EgoStable):
		return 0.1
	default:
		return 0.5
	}
}

// #endregion compatibility

// #region rule-actions

// Rule action tags.
const (
	ActionExplore   = "explore"
	ActionStabilize = "stabilize"
	ActionAdapt     = "adapt"
	ActionWithdraw  = "withdraw"
	ActionConnect   = "connect"
	ActionCreate    = "create"
	ActionEndure    = "endure"
)

// ActionTrait maps a rule action to the trait it nudges when the rule fires.
var ActionTrait = map[string]string{
	ActionExplore:   TraitCuriosity,
	ActionStabilize: TraitStability,
	ActionAdapt:     TraitAdaptability,
	ActionWithdraw:  TraitCaution,
	ActionConnect:   TraitEmpathy,
	ActionCreate:    TraitCreativity,
	ActionEndure:    TraitResilience,
}

// EgoActions lists the actions a rule synthesized under each dominant ego type may carry.
var EgoActions = map[EgoType][]string{
	EgoStable:   {ActionStabilize, ActionConnect},
	EgoChaotic:  {ActionExplore, ActionCreate},
	EgoAdaptive: {ActionAdapt, ActionExplore},
	EgoSurvival: {ActionWithdraw, ActionEndure},
}

// #endregion rule-actions
