package reflection

import (
	"fmt"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region narrative

// Narrate builds a short self-narrative from phase, dominant ego and top trait.
func Narrate(phase state.Phase, dominant state.EgoFragment, topTrait string) string {
	var mood string
	switch phase {
	case state.PhaseEmbryonic:
		mood = "I am still forming"
	case state.PhaseStable:
		mood = "I feel settled"
	case state.PhaseChaotic:
		mood = "Everything is moving too fast"
	case state.PhaseReorganizing:
		mood = "I am rearranging myself"
	case state.PhaseCollapsing:
		mood = "I am holding on"
	case state.PhaseEmergent:
		mood = "Something new is taking shape in me"
	default:
		mood = "I am between states"
	}
	return fmt.Sprintf("%s. %s speaks loudest, and %s guides me.", mood, dominant.Name, topTrait)
}

// #endregion narrative
