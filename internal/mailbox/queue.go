package mailbox

import "sync/atomic"

// #region queue

// Queue is an unbounded multi-producer single-consumer queue. Push never
// blocks and takes no lock; only one goroutine at a time may call Pop or Drain.
type Queue[T any] struct {
	head atomic.Pointer[node[T]]
	tail *node[T]
	size atomic.Int64
}

type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	stub := &node[T]{}
	q := &Queue[T]{tail: stub}
	q.head.Store(stub)
	return q
}

// Push appends v. Safe for concurrent producers.
func (q *Queue[T]) Push(v T) {
	n := &node[T]{value: v}
	// Counted before linking so a concurrent Pop never drives Len below zero.
	q.size.Add(1)
	prev := q.head.Swap(n)
	prev.next.Store(n)
}

// Pop removes the oldest value. ok is false when the queue is empty or a
// producer is midway through linking its node; the value shows up on a later Pop.
func (q *Queue[T]) Pop() (v T, ok bool) {
	next := q.tail.next.Load()
	if next == nil {
		return v, false
	}
	q.tail = next
	v = next.value
	var zero T
	next.value = zero
	q.size.Add(-1)
	return v, true
}

// Drain pops everything currently visible, up to max values (max <= 0 means no limit).
func (q *Queue[T]) Drain(max int) []T {
	var out []T
	for max <= 0 || len(out) < max {
		v, ok := q.Pop()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// Len is an approximate count of queued values.
func (q *Queue[T]) Len() int {
	return int(q.size.Load())
}

// #endregion queue
