// Package eventsubject implements a single-consumer event relay with
// exactly-once delivery semantics.
//
// A [Subject] accepts values from any number of producer goroutines, via
// [Subject.OnNext]. At most one [Observer] may be subscribed at a time; while
// no observer is subscribed, values are buffered in an unbounded internal
// queue, and the backlog is replayed, in order, to the next observer that
// subscribes, after which new values are relayed directly. When the observer
// disposes its [Subscription], another observer may subscribe, and will
// receive any values produced after the disposal (the undelivered backlog, if
// any, is discarded at the point of disposal).
//
// This differs from "latest value" subjects, which drop intermediate values,
// and from plain broadcast, which loses values produced while nobody is
// listening. Every value is delivered to exactly one observer, exactly once.
//
// Producers never block. All synchronization is via atomic operations,
// following the standard serialized drain-loop pattern: no mutex is held on
// any path, and exactly one goroutine at a time moves values to the observer.
//
// A second observer subscribing while one is active is rejected, by way of
// [ErrAlreadyAttached] delivered to the second observer's OnError (the
// original observer is unaffected). After the Subject terminates, via
// [Subject.OnError] or [Subject.OnComplete], each subsequent subscriber
// receives the terminal signal immediately.
package eventsubject
