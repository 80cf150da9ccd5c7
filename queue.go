package eventsubject

import (
	"sync/atomic"
)

type (
	// mpscQueue is an unbounded intrusive linked queue, safe for concurrent
	// push from any number of goroutines, with poll/isEmpty/clear restricted
	// to a single consumer at a time (the drain owner, see Subject.drain).
	//
	// It is the stub-node multi-producer single-consumer algorithm: head
	// always points at the last consumed node, and a push links a new node
	// after atomically swapping it into tail. A node is not observable by
	// the consumer until the link store, which also publishes its value.
	mpscQueue[T any] struct {
		head *queueNode[T] // consumer side, last consumed (stub)
		tail atomic.Pointer[queueNode[T]]

		// initial node allocation, sized by the capacity hint
		slab    []queueNode[T]
		slabPos atomic.Int64
	}

	queueNode[T any] struct {
		next  atomic.Pointer[queueNode[T]]
		value T
	}
)

// newMPSCQueue initializes a queue with an initial allocation of capacityHint
// nodes. The hint only sizes the initial allocation, it is never a limit.
func newMPSCQueue[T any](capacityHint int) *mpscQueue[T] {
	q := mpscQueue[T]{slab: make([]queueNode[T], capacityHint)}
	stub := &q.slab[0]
	q.slabPos.Store(1)
	q.head = stub
	q.tail.Store(stub)
	return &q
}

func (q *mpscQueue[T]) newNode() *queueNode[T] {
	if i := q.slabPos.Add(1) - 1; i < int64(len(q.slab)) {
		return &q.slab[i]
	}
	return new(queueNode[T])
}

// push appends a value. Never blocks, safe from any goroutine.
func (q *mpscQueue[T]) push(value T) {
	n := q.newNode()
	n.value = value
	prev := q.tail.Swap(n)
	// n (and its value) become visible to the consumer here
	prev.next.Store(n)
}

// poll removes and returns the next value. Single consumer only.
func (q *mpscQueue[T]) poll() (value T, ok bool) {
	next := q.head.next.Load()
	if next == nil {
		return
	}
	value = next.value
	var zero T
	next.value = zero // release the reference for GC
	q.head = next
	return value, true
}

// isEmpty reports whether there is a value ready to poll. Single consumer
// only. A concurrent push that has not yet linked its node is not counted.
func (q *mpscQueue[T]) isEmpty() bool {
	return q.head.next.Load() == nil
}

// clear discards all currently linked values. Single consumer only.
func (q *mpscQueue[T]) clear() {
	for {
		if _, ok := q.poll(); !ok {
			return
		}
	}
}
