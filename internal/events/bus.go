package events

import (
	"sync"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
)

// #region bus

// BusOption customizes Bus construction.
type BusOption func(*Bus)

// WithLogger injects a logger for listener panics.
func WithLogger(logger ports.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// Bus fans events out to listeners. Each subscriber has its own delivery
// goroutine and unbounded queue, so Publish never blocks the caller. Visual
// frames are coalesced: a subscriber that falls behind only sees the newest one.
type Bus struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
	logger ports.Logger
	wg     sync.WaitGroup
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{subs: map[*subscriber]struct{}{}}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscription is an active listener registration.
type Subscription struct {
	cancel func()
}

// Close detaches the listener after flushing what was already queued for it.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers l. Events published before Subscribe are not replayed.
func (b *Bus) Subscribe(l Listener) Subscription {
	sub := &subscriber{
		listener: l,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   b.logger,
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Subscription{}
	}
	b.subs[sub] = struct{}{}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		sub.run()
	}()

	var once sync.Once
	return Subscription{cancel: func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			sub.stop()
		})
	}}
}

// Publish enqueues events for every subscriber.
func (b *Bus) Publish(evts ...Event) {
	if len(evts) == 0 {
		return
	}
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.enqueue(evts)
	}
}

// Close stops every subscriber after their queues are flushed and waits for them.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscriber, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = map[*subscriber]struct{}{}
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
	b.wg.Wait()
}

// #endregion bus

// #region subscriber

type subscriber struct {
	listener Listener
	logger   ports.Logger

	mu      sync.Mutex
	queue   []Event
	frame   *Event
	stopped bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func (s *subscriber) enqueue(evts []Event) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	for _, e := range evts {
		if e.Kind == KindVisualFrame {
			frame := e
			s.frame = &frame
			continue
		}
		s.queue = append(s.queue, e)
	}
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *subscriber) take() ([]Event, *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, frame := s.queue, s.frame
	s.queue, s.frame = nil, nil
	return batch, frame
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *subscriber) flush() {
	for {
		batch, frame := s.take()
		if len(batch) == 0 && frame == nil {
			return
		}
		for _, e := range batch {
			s.deliver(e)
		}
		if frame != nil {
			s.deliver(*frame)
		}
	}
}

func (s *subscriber) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Printf("events: listener panic on %s: %v", e.Kind, r)
		}
	}()
	Dispatch(s.listener, e)
}

// #endregion subscriber
