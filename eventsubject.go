package eventsubject

import (
	"errors"
)

// ErrAlreadyAttached is delivered to an [Observer] whose subscription was
// rejected because another observer was already subscribed. It is delivered
// via the rejected observer's OnError, not returned to the caller of
// [Subject.Subscribe].
var ErrAlreadyAttached = errors.New(`eventsubject: only a single observer allowed at a time`)

type (
	// Observer receives values and the terminal signal from a [Subject].
	//
	// OnSubscribe is called first, with the [Subscription] that may be used
	// to dispose the subscription, or to opt in to pull-based consumption
	// (see [Subscription.Fuse]). After OnSubscribe, zero or more OnNext calls
	// are made, followed by at most one of OnError or OnComplete.
	//
	// Calls to an observer are serialized: no two methods of the same
	// observer are ever called concurrently, though consecutive calls may be
	// made from different goroutines.
	Observer[T any] interface {
		// OnSubscribe provides the subscription handle. It is called exactly
		// once, before any other method of the observer.
		OnSubscribe(s Subscription[T])

		// OnNext delivers the next value. In fused mode (see
		// [Subscription.Fuse]) the value is always the zero value of T, and
		// acts only as a signal that the queue may be polled.
		OnNext(value T)

		// OnError delivers the terminal error. No further calls are made to
		// the observer after this.
		OnError(err error)

		// OnComplete signals successful completion. No further calls are
		// made to the observer after this.
		OnComplete()
	}

	// Subscription is the handle given to an [Observer] on subscribe. It is
	// the observer's cancellation capability, and, in fused mode, its direct
	// access to the value queue.
	Subscription[T any] interface {
		// Dispose cancels the subscription, idempotently. The subject's
		// undelivered backlog is discarded, and another observer may then
		// subscribe.
		Dispose()

		// IsDisposed reports whether Dispose has been called.
		IsDisposed() bool

		// Fuse opts in to pull-based consumption, reporting whether the
		// request was accepted. It must be called from within the observer's
		// OnSubscribe, if at all.
		//
		// In fused mode the subject never pushes values. Instead, each drain
		// pass calls OnNext with the zero value of T, as a signal that Poll
		// may return values. Poll, IsEmpty and Clear must only be called
		// from within the observer's methods (they are serialized with the
		// drain, which calls those methods).
		Fuse() bool

		// Poll removes and returns the next buffered value, if any. Fused
		// mode only.
		Poll() (T, bool)

		// IsEmpty reports whether the buffer is currently empty. Fused mode
		// only.
		IsEmpty() bool

		// Clear discards all buffered values. Fused mode only.
		Clear()
	}
)
