package chaos

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/input"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

type mockLogger struct {
	lines []string
}

func (m *mockLogger) Printf(format string, args ...any) {
	m.lines = append(m.lines, fmt.Sprintf(format, args...))
}

func TestStepReproducible(t *testing.T) {
	cfg := DefaultConfig()
	run := func() state.Vec3 {
		p := state.Vec3{X: 1, Y: 1, Z: 1}
		for i := 0; i < 10000; i++ {
			p = Step(p, cfg)
		}
		return p
	}
	a, b := run(), run()
	if a != b {
		t.Fatalf("trajectory not reproducible: %+v vs %+v", a, b)
	}
}

func TestStepFirstIteration(t *testing.T) {
	p := Step(state.Vec3{X: 1, Y: 1, Z: 1}, DefaultConfig())
	// dx = 10*(1-1)*0.01 = 0; dy = (1*(28-1)-1)*0.01 = 0.26; dz = (1-8/3)*0.01
	if p.X != 1 {
		t.Errorf("expected x=1, got %v", p.X)
	}
	if math.Abs(p.Y-1.26) > 1e-12 {
		t.Errorf("expected y=1.26, got %v", p.Y)
	}
	if math.Abs(p.Z-(1-0.01*5.0/3.0)) > 1e-12 {
		t.Errorf("unexpected z %v", p.Z)
	}
}

func TestIndexClamped(t *testing.T) {
	if got := Index(state.Vec3{X: 1e9}, 50); got != 1 {
		t.Fatalf("expected clamp to 1, got %f", got)
	}
	if got := Index(state.Vec3{}, 50); got != 0 {
		t.Fatalf("expected 0 at origin, got %f", got)
	}
	if got := Index(state.Vec3{X: 30, Y: 40}, 100); got != 0.5 {
		t.Fatalf("expected 0.5, got %f", got)
	}
}

func TestTickKeepsInvariants(t *testing.T) {
	st := state.New(time.Now(), 0)
	env := &cycle.Env{Now: time.Now(), Rand: rand.New(rand.NewSource(3))}
	eng := NewEngine(DefaultConfig())

	for i := 0; i < 20000; i++ {
		eng.Tick(st, env)
		if st.ChaosIndex < 0 || st.ChaosIndex > 1 {
			t.Fatalf("tick %d: chaos index out of range: %f", i, st.ChaosIndex)
		}
		for _, ego := range st.Egos {
			if ego.Strength < state.MinEgoStrength || ego.Strength > state.MaxEgoStrength {
				t.Fatalf("tick %d: ego %s strength out of range: %f", i, ego.Name, ego.Strength)
			}
		}
	}
	for i, w := range st.Neural.Weights {
		if w < 0 || w > 1 {
			t.Fatalf("pathway %d out of range: %f", i, w)
		}
	}
}

func TestTickNudgesEgosByType(t *testing.T) {
	st := state.New(time.Now(), 0)
	st.Lorenz = state.Vec3{X: 10, Y: 10, Z: 10}
	env := &cycle.Env{Rand: rand.New(rand.NewSource(1))}
	before := st.Egos

	NewEngine(DefaultConfig()).Tick(st, env)

	for i, ego := range st.Egos {
		switch ego.Type {
		case state.EgoChaotic:
			if ego.Strength <= before[i].Strength {
				t.Errorf("chaotic ego should gain strength")
			}
		case state.EgoStable:
			if ego.Strength >= before[i].Strength {
				t.Errorf("stable ego should lose strength")
			}
		default:
			if ego.Strength != before[i].Strength {
				t.Errorf("%s ego should be untouched", ego.Type)
			}
		}
	}
}

func TestBurstOfInputsDoesNotKillTrajectory(t *testing.T) {
	st := state.New(time.Now(), 0)
	for i := 0; i < 100; i++ {
		st.Inputs.Push(state.Input{Kind: state.InputPositive, Intensity: 1})
	}
	log := &mockLogger{}
	env := &cycle.Env{Now: time.Now(), Rand: rand.New(rand.NewSource(9)), Logger: log}
	input.NewDispatcher(input.DefaultConfig()).Tick(st, env)

	eng := NewEngine(DefaultConfig())
	for i := 0; i < 2000; i++ {
		eng.Tick(st, env)
		if !st.Lorenz.Finite() {
			t.Fatalf("tick %d: trajectory not finite: %+v", i, st.Lorenz)
		}
		if st.ChaosIndex < 0 || st.ChaosIndex > 1 {
			t.Fatalf("tick %d: chaos index out of range: %f", i, st.ChaosIndex)
		}
	}
	if st.Lorenz.Norm() > DefaultConfig().EscapeNorm {
		t.Fatalf("trajectory left the escape radius: %+v", st.Lorenz)
	}
	if st.ChaosIndex == 0 {
		t.Fatal("chaos index collapsed to zero")
	}
	if len(log.lines) == 0 || !strings.Contains(log.lines[0], "reseeding") {
		t.Fatalf("expected a reseed log line, got %v", log.lines)
	}
}

func TestTickReseedsDivergedTrajectory(t *testing.T) {
	cases := map[string]state.Vec3{
		"nan":  {X: math.NaN(), Y: 1, Z: 1},
		"inf":  {X: 1, Y: math.Inf(-1), Z: 1},
		"huge": {X: 1e6, Y: 1e6, Z: 1e6},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			st := state.New(time.Now(), 0)
			st.Lorenz = p
			env := &cycle.Env{Rand: rand.New(rand.NewSource(1))}
			NewEngine(DefaultConfig()).Tick(st, env)
			if st.Lorenz != state.LorenzSeed {
				t.Fatalf("expected reseed to %+v, got %+v", state.LorenzSeed, st.Lorenz)
			}
			if st.ChaosIndex != Index(state.LorenzSeed, DefaultConfig().NormScale) {
				t.Fatalf("unexpected chaos index %f", st.ChaosIndex)
			}
		})
	}
}

func TestContained(t *testing.T) {
	if !Contained(state.Vec3{X: 20, Y: 20, Z: 30}, 500) {
		t.Fatal("attractor point should be contained")
	}
	if Contained(state.Vec3{X: 600}, 500) {
		t.Fatal("point beyond escape should not be contained")
	}
	if !Contained(state.Vec3{X: 600}, 0) {
		t.Fatal("zero escape should only check finiteness")
	}
	if Contained(state.Vec3{Z: math.NaN()}, 0) {
		t.Fatal("NaN should never be contained")
	}
}
