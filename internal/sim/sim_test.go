package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/clock"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

var epoch = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

type mockLinguistic struct {
	ports.Linguistic
	mu      sync.Mutex
	learned []string
}

func (m *mockLinguistic) LearnSentence(_ context.Context, text string, _ state.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learned = append(m.learned, text)
	return nil
}

func (m *mockLinguistic) VocabularySize() int { return 0 }

func (m *mockLinguistic) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.learned)
}

type shiftCounter struct {
	mu     sync.Mutex
	shifts int
	phases []string
}

func (c *shiftCounter) listener() events.Listener {
	return events.Funcs{
		EgoShift: func(_, _ state.EgoFragment) {
			c.mu.Lock()
			c.shifts++
			c.mu.Unlock()
		},
		PhaseTransition: func(_, _ state.Phase, reason string) {
			c.mu.Lock()
			c.phases = append(c.phases, reason)
			c.mu.Unlock()
		},
	}
}

func fakeSim(t *testing.T, opts ...Option) (*Simulation, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(epoch)
	s := New(DefaultConfig(), append([]Option{WithClock(fc)}, opts...)...)
	t.Cleanup(func() { s.Close() })
	return s, fc
}

func TestLifecycleErrors(t *testing.T) {
	s, _ := fakeSim(t)
	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.Running() {
		t.Fatal("expected stopped simulation")
	}
}

func TestStepUnknownTask(t *testing.T) {
	s, _ := fakeSim(t)
	if err := s.Step(context.Background(), "dreams"); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
	if len(s.Tasks()) != 10 {
		t.Fatalf("expected 10 tasks, got %v", s.Tasks())
	}
}

func TestGetCurrentStateIsDetached(t *testing.T) {
	s, _ := fakeSim(t)
	ctx := context.Background()
	snap, err := s.GetCurrentState(ctx)
	if err != nil {
		t.Fatalf("GetCurrentState: %v", err)
	}
	snap.Fitness = 0.99
	snap.Neural.Weights[0] = 0
	snap.Identity.Values[state.TraitCuriosity] = 0

	again, _ := s.GetCurrentState(ctx)
	if again.Fitness == 0.99 || again.Neural.Weights[0] == 0 || again.Identity.Values[state.TraitCuriosity] == 0 {
		t.Fatal("mutating a snapshot leaked into the simulation")
	}
}

func TestTouchAtCenterThroughStep(t *testing.T) {
	s, _ := fakeSim(t)
	ctx := context.Background()
	s.SubmitInput(state.InputTouch, Payload{X: 250, Y: 250}, 1)

	before, _ := s.GetCurrentState(ctx)
	if before.PendingInputs != 1 {
		t.Fatalf("expected 1 pending input, got %d", before.PendingInputs)
	}
	if err := s.Step(ctx, "input"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	after, _ := s.GetCurrentState(ctx)
	if after.Lorenz != before.Lorenz {
		t.Fatalf("expected unchanged Lorenz point, got %+v -> %+v", before.Lorenz, after.Lorenz)
	}
	if len(after.Memories) != 1 || after.PendingInputs != 0 {
		t.Fatalf("expected one memory and an empty mailbox, got %d / %d", len(after.Memories), after.PendingInputs)
	}
}

func TestSpeechReachesLinguisticPort(t *testing.T) {
	ling := &mockLinguistic{}
	s, _ := fakeSim(t, WithLinguistic(ling))
	ctx := context.Background()
	s.SubmitInput(state.InputSpeech, Payload{Text: "hello world"}, 0.8)
	if err := s.Step(ctx, "input"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	s.WaitAsync()
	if ling.count() != 1 {
		t.Fatalf("expected 1 learned sentence, got %d", ling.count())
	}
}

func TestOneEgoShiftPerDominanceChange(t *testing.T) {
	s, fc := fakeSim(t)
	counter := &shiftCounter{}
	s.Subscribe(counter.listener())
	ctx := context.Background()

	changes := 0
	prev := 0
	for i := 0; i < 3000; i++ {
		fc.Advance(10 * time.Millisecond)
		if i%50 == 0 {
			s.SubmitInput(state.InputThreat, Payload{}, 1)
		}
		if err := s.StepAll(ctx); err != nil {
			t.Fatalf("StepAll: %v", err)
		}
		snap, _ := s.GetCurrentState(ctx)
		if snap.Dominant != prev {
			changes++
			prev = snap.Dominant
		}
	}
	s.Close()

	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.shifts != changes {
		t.Fatalf("expected %d ego shifts, got %d", changes, counter.shifts)
	}
}

func TestRebirth(t *testing.T) {
	s, fc := fakeSim(t)
	counter := &shiftCounter{}
	s.Subscribe(counter.listener())
	ctx := context.Background()

	s.SubmitInput(state.InputPositive, Payload{}, 1)
	if err := s.Step(ctx, "input"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	fc.Advance(time.Minute)
	if err := s.Rebirth(ctx); err != nil {
		t.Fatalf("Rebirth: %v", err)
	}
	snap, _ := s.GetCurrentState(ctx)
	if len(snap.Memories) != 0 || snap.Phase != state.PhaseEmbryonic || !snap.BornAt.Equal(epoch.Add(time.Minute)) {
		t.Fatalf("expected a fresh state, got %d memories in %s born %v", len(snap.Memories), snap.Phase, snap.BornAt)
	}
	s.Close()
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if len(counter.phases) != 1 || counter.phases[0] != "rebirth" {
		t.Fatalf("expected a rebirth transition, got %v", counter.phases)
	}
}

func TestRunningFakeClockTicksTasks(t *testing.T) {
	s, fc := fakeSim(t)
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for fc.Waiters() < 10 {
		if time.Now().After(deadline) {
			t.Fatalf("tasks never started waiting, %d waiters", fc.Waiters())
		}
		time.Sleep(time.Millisecond)
	}
	fc.Advance(10 * time.Millisecond)

	for {
		snap, err := s.GetCurrentState(ctx)
		if err != nil {
			t.Fatalf("GetCurrentState: %v", err)
		}
		if snap.Lorenz != (state.Vec3{X: 1, Y: 1, Z: 1}) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("chaos task never ticked")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestConcurrentReadersSeeValidRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Periods = Periods{
		Chaos: time.Millisecond, Plasticity: time.Millisecond, Ego: time.Millisecond,
		Phase: time.Millisecond, Goals: time.Millisecond, Identity: time.Millisecond,
		Fitness: time.Millisecond, Input: time.Millisecond, Frame: 5 * time.Millisecond,
	}
	s := New(cfg)
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	stop := time.Now().Add(300 * time.Millisecond)

	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for time.Now().Before(stop) {
				s.SubmitInput(state.InputThreat, Payload{X: float64(w * 100), Y: 40, Text: "why"}, 1)
				time.Sleep(time.Millisecond)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(stop) {
				snap, err := s.GetCurrentState(ctx)
				if err != nil {
					errs <- err.Error()
					return
				}
				if msg := checkRanges(snap); msg != "" {
					errs <- msg
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestContextCancelStopsTasks(t *testing.T) {
	s, _ := fakeSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	deadline := time.Now().Add(5 * time.Second)
	for s.Running() {
		if time.Now().After(deadline) {
			t.Fatal("simulation did not stop after cancel")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func checkRanges(snap state.Snapshot) string {
	if snap.ChaosIndex < 0 || snap.ChaosIndex > 1 {
		return "chaos index out of range"
	}
	if snap.Fitness < 0 || snap.Fitness > 1 || snap.Conflict < 0 || snap.Conflict > 1 {
		return "fitness or conflict out of range"
	}
	if len(snap.Egos) != state.EgoCount {
		return "ego count changed"
	}
	for _, e := range snap.Egos {
		if e.Strength < state.MinEgoStrength || e.Strength > state.MaxEgoStrength {
			return "ego strength out of range"
		}
	}
	for _, w := range snap.Neural.Weights {
		if w < 0 || w > 1 {
			return "pathway weight out of range"
		}
	}
	return ""
}

func TestPeriodsByNameCoversSteadyTasks(t *testing.T) {
	s := New(DefaultConfig())
	defer s.Close()
	byName := DefaultPeriods().ByName()
	for _, name := range s.Tasks() {
		if name == "reflection" {
			continue
		}
		if _, ok := byName[name]; !ok {
			t.Errorf("no period for task %q", name)
		}
	}
}
