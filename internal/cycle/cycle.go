package cycle

import (
	"context"
	"math/rand"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region task

// Task is one periodic component. Tick runs with the simulation lock held and
// must not block, sleep, or call into another task.
type Task interface {
	Name() string
	Tick(st *state.State, env *Env)
}

// #endregion task

// #region env

// Env carries the per-tick collaborators. Events and async work collected
// during Tick are released by the scheduler only after the lock is dropped.
type Env struct {
	Now        time.Time
	Rand       *rand.Rand
	Logger     ports.Logger
	Linguistic ports.Linguistic

	outbox []events.Event
	async  []func(ctx context.Context)
}

// Emit queues events for publication after the tick.
func (e *Env) Emit(evts ...events.Event) {
	e.outbox = append(e.outbox, evts...)
}

// Async queues fn to run on its own goroutine after the lock is released. The
// context is cancelled when the simulation stops.
func (e *Env) Async(fn func(ctx context.Context)) {
	if fn != nil {
		e.async = append(e.async, fn)
	}
}

// Printf logs through Logger when one is configured.
func (e *Env) Printf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// Drain returns and clears the collected events and async work.
func (e *Env) Drain() ([]events.Event, []func(ctx context.Context)) {
	evts, async := e.outbox, e.async
	e.outbox, e.async = nil, nil
	return evts, async
}

// #endregion env
