package reflection

import (
	"strings"
	"testing"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

func TestNarrate(t *testing.T) {
	got := Narrate(state.PhaseChaotic, state.EgoFragment{Name: "Trickster"}, state.TraitCuriosity)
	if !strings.Contains(got, "Trickster") || !strings.Contains(got, "curiosity") {
		t.Fatalf("narrative missing ego or trait: %q", got)
	}
}

func TestNarrateCoversEveryPhase(t *testing.T) {
	seen := map[string]state.Phase{}
	for _, p := range state.Phases {
		got := Narrate(p, state.EgoFragment{Name: "Guardian"}, state.TraitResilience)
		if prev, ok := seen[got]; ok && p != state.PhaseTransitioning && prev != state.PhaseTransitioning {
			t.Fatalf("phases %s and %s share narrative %q", prev, p, got)
		}
		seen[got] = p
	}
}
