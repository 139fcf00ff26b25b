package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/chaos"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/clock"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/cycle"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ego"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/fitness"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/goals"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/identity"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/input"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/phase"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/plasticity"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/reflection"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region errors

var (
	ErrNotRunning     = errors.New("simulation not running")
	ErrAlreadyRunning = errors.New("simulation already running")
	ErrUnknownTask    = errors.New("unknown task")
)

// #endregion errors

// #region options

// Option customizes a Simulation.
type Option func(*Simulation)

// WithClock injects the clock used for ticks, hysteresis and reflection.
func WithClock(c clock.Clock) Option {
	return func(s *Simulation) { s.clock = c }
}

// WithLogger injects a diagnostic logger.
func WithLogger(l ports.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithLinguistic attaches the language collaborator.
func WithLinguistic(l ports.Linguistic) Option {
	return func(s *Simulation) { s.linguistic = l }
}

// WithJournal stores reflection narratives.
func WithJournal(j reflection.Journal) Option {
	return func(s *Simulation) { s.journal = j }
}

// #endregion options

// #region simulation

type scheduled struct {
	task   cycle.Task
	period time.Duration
}

// Simulation owns the shared State and runs every task against it. All
// mutation happens while holding a single weighted semaphore of size one;
// nothing else in the package is acquired while it is held.
type Simulation struct {
	config     Config
	clock      clock.Clock
	logger     ports.Logger
	linguistic ports.Linguistic
	journal    reflection.Journal

	lock    *semaphore.Weighted
	st      atomic.Pointer[state.State]
	rng     *rand.Rand // used only under lock
	bus     *events.Bus
	tasks   []scheduled
	byName  map[string]cycle.Task
	reflect *reflection.Task

	life    sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
	async   sync.WaitGroup
}

// New builds a simulation at birth. It does not start any task.
func New(config Config, opts ...Option) *Simulation {
	s := &Simulation{
		config: config,
		clock:  clock.Real{},
		lock:   semaphore.NewWeighted(1),
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	var busOpts []events.BusOption
	if s.logger != nil {
		busOpts = append(busOpts, events.WithLogger(s.logger))
	}
	s.bus = events.NewBus(busOpts...)
	s.st.Store(s.birth())

	p := config.Periods
	s.tasks = []scheduled{
		{chaos.NewEngine(config.Chaos), p.Chaos},
		{plasticity.NewAdapter(config.PlasticityRelax), p.Plasticity},
		{ego.NewArbiter(config.Ego), p.Ego},
		{phase.NewMonitor(config.Phase), p.Phase},
		{goals.NewManager(config.Goals), p.Goals},
		{identity.NewEvolver(config.Identity), p.Identity},
		{fitness.NewEvaluator(config.Fitness), p.Fitness},
		{input.NewDispatcher(config.Input), p.Input},
		{frameTask{}, p.Frame},
	}
	s.reflect = reflection.NewTask(config.Reflection, s.journal)
	s.byName = map[string]cycle.Task{s.reflect.Name(): s.reflect}
	for _, t := range s.tasks {
		s.byName[t.task.Name()] = t.task
	}
	return s
}

func (s *Simulation) birth() *state.State {
	st := state.New(s.clock.Now(), s.config.RuleCapacity)
	if s.config.MaxMemories > 0 {
		st.MaxMemories = s.config.MaxMemories
	}
	return st
}

// Tasks lists the task names accepted by Step.
func (s *Simulation) Tasks() []string {
	names := make([]string, 0, len(s.tasks)+1)
	for _, t := range s.tasks {
		names = append(names, t.task.Name())
	}
	return append(names, s.reflect.Name())
}

// #endregion simulation

// #region lifecycle

// Start launches one goroutine per task plus the reflection loop. The
// simulation runs until ctx is cancelled or Stop is called.
func (s *Simulation) Start(ctx context.Context) error {
	s.life.Lock()
	defer s.life.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	for _, t := range s.tasks {
		if t.period <= 0 {
			continue
		}
		g.Go(func() error { return s.loop(gctx, t.task, t.period) })
	}
	reflectRng := rand.New(rand.NewSource(s.config.Seed + 1))
	g.Go(func() error { return s.reflectLoop(gctx, reflectRng) })

	done := make(chan struct{})
	s.running, s.cancel, s.done, s.runErr = true, cancel, done, nil
	go func() {
		err := g.Wait()
		s.async.Wait()
		s.life.Lock()
		s.runErr = err
		s.running = false
		s.life.Unlock()
		close(done)
	}()

	s.printf("sim: started %d tasks", len(s.tasks))
	return nil
}

// Stop cancels every task and waits until all of them, including in-flight
// port calls, have returned.
func (s *Simulation) Stop() error {
	s.life.Lock()
	if !s.running {
		s.life.Unlock()
		return ErrNotRunning
	}
	cancel, done := s.cancel, s.done
	s.life.Unlock()

	cancel()
	<-done

	s.life.Lock()
	defer s.life.Unlock()
	s.printf("sim: stopped")
	return s.runErr
}

// Running reports whether tasks are active.
func (s *Simulation) Running() bool {
	s.life.Lock()
	defer s.life.Unlock()
	return s.running
}

// Close stops the simulation if needed and shuts the event bus down after
// flushing queued events.
func (s *Simulation) Close() error {
	err := s.Stop()
	if errors.Is(err, ErrNotRunning) {
		err = nil
	}
	s.bus.Close()
	return err
}

func (s *Simulation) loop(ctx context.Context, t cycle.Task, period time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(period):
		}
		if err := s.tick(ctx, t); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
}

func (s *Simulation) reflectLoop(ctx context.Context, rng *rand.Rand) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.reflect.NextDelay(rng)):
		}
		if err := s.tick(ctx, s.reflect); err != nil {
			return nil
		}
	}
}

// #endregion lifecycle

// #region tick

// tick runs t under the lock, then publishes its events and launches its
// async work after the lock is released.
func (s *Simulation) tick(ctx context.Context, t cycle.Task) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	env := &cycle.Env{
		Now:        s.clock.Now(),
		Rand:       s.rng,
		Logger:     s.logger,
		Linguistic: s.linguistic,
	}
	func() {
		defer s.lock.Release(1)
		t.Tick(s.st.Load(), env)
	}()

	evts, async := env.Drain()
	s.bus.Publish(evts...)
	for _, fn := range async {
		s.async.Add(1)
		go func(fn func(context.Context)) {
			defer s.async.Done()
			fn(ctx)
		}(fn)
	}
	return nil
}

// Step runs a single tick of the named task synchronously. It works whether
// or not the simulation is running.
func (s *Simulation) Step(ctx context.Context, name string) error {
	t, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	return s.tick(ctx, t)
}

// StepAll runs one tick of every steady-state task in scheduling order.
func (s *Simulation) StepAll(ctx context.Context) error {
	for _, t := range s.tasks {
		if err := s.tick(ctx, t.task); err != nil {
			return err
		}
	}
	return nil
}

// WaitAsync blocks until every queued port call has returned.
func (s *Simulation) WaitAsync() {
	s.async.Wait()
}

// #endregion tick

// #region api

// Payload carries the kind-specific part of an input.
type Payload struct {
	Text string
	X, Y float64
}

// SubmitInput enqueues an input without taking the lock. It never blocks.
func (s *Simulation) SubmitInput(kind state.InputKind, p Payload, intensity float64) {
	s.st.Load().Inputs.Push(state.Input{
		Kind:        kind,
		Text:        p.Text,
		X:           p.X,
		Y:           p.Y,
		Intensity:   intensity,
		SubmittedAt: s.clock.Now(),
	})
}

// GetCurrentState returns a deep copy taken under the lock.
func (s *Simulation) GetCurrentState(ctx context.Context) (state.Snapshot, error) {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return state.Snapshot{}, err
	}
	defer s.lock.Release(1)
	return s.st.Load().Snapshot(s.clock.Now()), nil
}

// Subscribe registers a listener on the event bus.
func (s *Simulation) Subscribe(l events.Listener) events.Subscription {
	return s.bus.Subscribe(l)
}

// Rebirth swaps in a fresh State. Inputs still queued on the old state are
// discarded.
func (s *Simulation) Rebirth(ctx context.Context) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	old := s.st.Load()
	fresh := s.birth()
	s.st.Store(fresh)
	s.lock.Release(1)

	s.printf("sim: rebirth after %s", fresh.BornAt.Sub(old.BornAt))
	s.bus.Publish(events.PhaseTransition(fresh.BornAt, old.Phase, fresh.Phase, "rebirth"))
	return nil
}

func (s *Simulation) printf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// #endregion api

// #region frame

// frameTask publishes a visual frame of the current state.
type frameTask struct{}

func (frameTask) Name() string { return "frame" }

func (frameTask) Tick(st *state.State, env *cycle.Env) {
	env.Emit(events.VisualFrame(st.Snapshot(env.Now)))
}

// #endregion frame
