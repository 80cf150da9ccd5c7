package eventsubject

import (
	"sync/atomic"
)

// defaultCapacityHint is the initial queue allocation used when
// Config.CapacityHint is 0.
const defaultCapacityHint = 128

type (
	// Config models optional configuration, for New. A nil Config is
	// equivalent to the zero value.
	Config struct {
		// CapacityHint sizes the initial allocation of the internal value
		// queue. It is only a hint, the queue is unbounded.
		// **Defaults to 128, if 0.**
		//
		// WARNING: New will panic if CapacityHint is negative.
		CapacityHint int

		// OnTerminate, if non-nil, is called exactly once, the first time
		// the Subject terminates (OnError / OnComplete) or the subscribed
		// observer disposes, whichever happens first.
		OnTerminate func()

		// FailFast delivers a terminal error ahead of any still-buffered
		// values, discarding them. By default (false), buffered values are
		// delivered first, and the error last.
		FailFast bool
	}

	// Subject is a single-consumer event relay. Values from OnNext are
	// buffered while no observer is subscribed, replayed in order to the
	// next observer, then relayed directly. At most one observer may be
	// subscribed at a time, but after the observer disposes another may
	// take its place.
	//
	// Subject implements Observer[T], so it may itself be subscribed to an
	// upstream producer.
	//
	// Instances must be initialized using the New factory.
	Subject[T any] struct {
		queue *mpscQueue[T]

		// the single observer, nil when none is subscribed
		downstream atomic.Pointer[subscription[T]]

		// single-shot termination callback, consumed via atomic take
		onTerminate atomic.Pointer[func()]

		failFast bool

		// terminal error, written strictly before done is set and read
		// strictly after done is observed true
		err error

		// first-terminal-wins gate, set before err is written
		terminating atomic.Bool

		// indicates the subject has terminated
		done atomic.Bool

		// set once an observer has subscribed at least once; the drain loop
		// is disabled until then, so the backlog survives until a consumer
		// exists
		subscribed atomic.Bool

		// set once, if the observer opts in to pull-based consumption
		fused atomic.Bool

		// backlog discard requested by a dispose, consumed by the drain
		// owner so the clear never races an in-flight poll
		discard atomic.Bool

		// serialization counter ("work in progress"): the 0->1 transition
		// grants drain ownership, release subtracts the amount observed
		wip atomic.Int32
	}

	// subscription is the handle for a single attachment. The slot
	// (Subject.downstream) holds the live subscription, making it both the
	// admission token and the delivery target.
	subscription[T any] struct {
		subject  *Subject[T]
		observer Observer[T]

		// set after OnSubscribe returns; the drain delivers nothing until
		// then, so the handle always arrives first
		live atomic.Bool

		disposed atomic.Bool
	}

	// rejectedSubscription is the inert handle given to observers rejected
	// due to the slot being occupied.
	rejectedSubscription[T any] struct{}
)

var (
	_ Observer[any]     = (*Subject[any])(nil)
	_ Subscription[any] = (*subscription[any])(nil)
	_ Subscription[any] = rejectedSubscription[any]{}
)

// New initializes a Subject, using the provided Config, which may be nil.
// A panic will occur if Config.CapacityHint is negative.
func New[T any](config *Config) *Subject[T] {
	capacityHint := defaultCapacityHint
	var onTerminate func()
	var failFast bool

	if config != nil {
		if config.CapacityHint < 0 {
			panic(`eventsubject: negative capacity hint`)
		}
		if config.CapacityHint != 0 {
			capacityHint = config.CapacityHint
		}
		onTerminate = config.OnTerminate
		failFast = config.FailFast
	}

	x := Subject[T]{
		queue:    newMPSCQueue[T](capacityHint),
		failFast: failFast,
	}
	if onTerminate != nil {
		x.onTerminate.Store(&onTerminate)
	}

	return &x
}

// OnNext buffers or relays a value. Never blocks, safe from any goroutine.
// No-op once the Subject has terminated.
func (x *Subject[T]) OnNext(value T) {
	if x.done.Load() {
		return
	}
	x.queue.push(value)
	x.drain()
}

// OnError terminates the Subject with err. The error is delivered to the
// observer subject to the FailFast policy. If the Subject has already
// terminated, err is forwarded to the undeliverable-error handler instead
// (see SetUndeliverableErrorHandler). A nil err panics.
func (x *Subject[T]) OnError(err error) {
	if err == nil {
		panic(`eventsubject: nil error`)
	}
	if !x.terminating.CompareAndSwap(false, true) {
		onUndeliverableError(err)
		return
	}
	x.err = err
	x.done.Store(true)

	x.doTerminate()

	x.drain()
}

// OnComplete terminates the Subject successfully. No-op if the Subject has
// already terminated.
func (x *Subject[T]) OnComplete() {
	if !x.terminating.CompareAndSwap(false, true) {
		return
	}
	x.done.Store(true)

	x.doTerminate()

	x.drain()
}

// OnSubscribe supports subscribing the Subject itself to an upstream
// producer: an upstream handle received after termination is disposed
// immediately, as no further values can be accepted.
func (x *Subject[T]) OnSubscribe(s Subscription[T]) {
	if x.done.Load() {
		s.Dispose()
	}
}

// Subscribe attaches an observer. The attempt always completes
// synchronously: on success the observer receives OnSubscribe (with its
// [Subscription]) followed by the buffered backlog, on failure (another
// observer is active) it receives OnSubscribe with an inert handle followed
// by OnError with [ErrAlreadyAttached]. A nil observer panics.
func (x *Subject[T]) Subscribe(observer Observer[T]) {
	if observer == nil {
		panic(`eventsubject: nil observer`)
	}

	s := subscription[T]{subject: x, observer: observer}
	if !x.downstream.CompareAndSwap(nil, &s) {
		observer.OnSubscribe(rejectedSubscription[T]{})
		observer.OnError(ErrAlreadyAttached)
		return
	}

	observer.OnSubscribe(&s)
	s.live.Store(true)
	x.subscribed.Store(true)
	x.drain()
}

// HasObservers reports whether an observer is currently subscribed.
func (x *Subject[T]) HasObservers() bool {
	return x.downstream.Load() != nil
}

// HasError reports whether the Subject terminated with an error.
func (x *Subject[T]) HasError() bool {
	return x.done.Load() && x.err != nil
}

// HasComplete reports whether the Subject terminated successfully.
func (x *Subject[T]) HasComplete() bool {
	return x.done.Load() && x.err == nil
}

// Err returns the terminal error, or nil if the Subject has not terminated,
// or terminated successfully.
func (x *Subject[T]) Err() error {
	if x.done.Load() {
		return x.err
	}
	return nil
}

// doTerminate consumes and runs the termination callback, at most once.
func (x *Subject[T]) doTerminate() {
	if f := x.onTerminate.Swap(nil); f != nil {
		(*f)()
	}
}

// drain requests a drain pass. Any goroutine may call it; the goroutine
// whose increment transitions the counter from 0 owns execution, everyone
// else returns immediately (the owner will observe their contribution and
// loop). Disabled until the first successful Subscribe.
func (x *Subject[T]) drain() {
	if !x.subscribed.Load() {
		return
	}
	if x.wip.Add(1) != 1 {
		return
	}

	missed := int32(1)
	for {
		if x.discard.CompareAndSwap(true, false) && !x.fused.Load() {
			// requested by a dispose that did not own a drain at the time
			x.queue.clear()
		}

		if s := x.downstream.Load(); s != nil && s.live.Load() {
			if x.fused.Load() {
				x.drainFused(s)
			} else {
				x.drainNormal(s)
			}
		}

		if missed = x.wip.Add(-missed); missed == 0 {
			return
		}
	}
}

// drainNormal moves values from the queue to the observer, push-based.
// Runs only with drain ownership held.
func (x *Subject[T]) drainNormal(s *subscription[T]) {
	canBeError := true
	for {
		if s.disposed.Load() {
			// deferred cleanup on behalf of Dispose, so the clear cannot
			// race the polls above
			x.downstream.CompareAndSwap(s, nil)
			x.queue.clear()
			return
		}

		d := x.done.Load()
		v, ok := x.queue.poll()
		empty := !ok

		if d {
			if x.failFast && canBeError {
				if x.failedFast(s) {
					return
				}
				canBeError = false
			}

			if empty {
				x.errorOrComplete(s)
				return
			}
		}

		if empty {
			return
		}

		s.observer.OnNext(v)
	}
}

// drainFused performs one pull-mode pass: the observer is notified that the
// queue may be polled, and the terminal signal is delivered once the
// termination state is observed with the queue surface handed over. Runs
// only with drain ownership held.
func (x *Subject[T]) drainFused(s *subscription[T]) {
	if s.disposed.Load() {
		x.downstream.CompareAndSwap(s, nil)
		return
	}

	d := x.done.Load()

	if x.failFast && d && x.failedFast(s) {
		return
	}

	var ready T
	s.observer.OnNext(ready)

	if d {
		x.errorOrComplete(s)
	}
}

// errorOrComplete clears the slot and delivers the terminal signal. The
// slot clear comes first, so no later drain pass can deliver a second
// terminal signal to the same observer.
func (x *Subject[T]) errorOrComplete(s *subscription[T]) {
	x.downstream.CompareAndSwap(s, nil)
	if err := x.err; err != nil {
		s.observer.OnError(err)
	} else {
		s.observer.OnComplete()
	}
}

// failedFast delivers a pending error ahead of any buffered values,
// discarding them, reporting whether an error was in fact pending.
func (x *Subject[T]) failedFast(s *subscription[T]) bool {
	err := x.err
	if err == nil {
		return false
	}
	x.downstream.CompareAndSwap(s, nil)
	x.queue.clear()
	s.observer.OnError(err)
	return true
}

// Dispose cancels the subscription, idempotently, discarding the subject's
// undelivered backlog and firing the termination callback (if it has not
// fired already). If a drain is in flight the backlog discard is deferred
// to that drain, never racing its queue access.
func (s *subscription[T]) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	x := s.subject

	x.doTerminate()

	x.downstream.CompareAndSwap(s, nil)
	x.discard.Store(true)
	x.drain()
}

// IsDisposed reports whether Dispose has been called.
func (s *subscription[T]) IsDisposed() bool {
	return s.disposed.Load()
}

// Fuse opts in to pull-based consumption. Always accepted. See
// [Subscription.Fuse] for the contract.
func (s *subscription[T]) Fuse() bool {
	s.subject.fused.Store(true)
	return true
}

// Poll removes and returns the next buffered value. Fused mode only, and
// only from within the observer's methods.
func (s *subscription[T]) Poll() (T, bool) {
	return s.subject.queue.poll()
}

// IsEmpty reports whether the buffer is empty. Fused mode only, and only
// from within the observer's methods.
func (s *subscription[T]) IsEmpty() bool {
	return s.subject.queue.isEmpty()
}

// Clear discards all buffered values. Fused mode only, and only from within
// the observer's methods.
func (s *subscription[T]) Clear() {
	s.subject.queue.clear()
}

func (rejectedSubscription[T]) Dispose()         {}
func (rejectedSubscription[T]) IsDisposed() bool { return true }
func (rejectedSubscription[T]) Fuse() bool       { return false }
func (rejectedSubscription[T]) Poll() (value T, ok bool) {
	return
}
func (rejectedSubscription[T]) IsEmpty() bool { return true }
func (rejectedSubscription[T]) Clear()        {}
