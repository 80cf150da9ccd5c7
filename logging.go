package eventsubject

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// package-level logging and error-sink configuration, expected to be set at
// process initialization, e.g. from main
var (
	pkgLogger            atomic.Pointer[logiface.Logger[logiface.Event]]
	undeliverableHandler atomic.Pointer[func(err error)]
)

// SetLogger configures the package-level logger, used by the default
// undeliverable-error behavior. A nil logger (the default) disables it.
//
// Generalize a concrete logiface logger using its Logger method, e.g.
// stumpy.L.New(...).Logger().
func SetLogger(logger *logiface.Logger[logiface.Event]) {
	pkgLogger.Store(logger)
}

// SetUndeliverableErrorHandler configures the process-wide handler for
// terminal errors that cannot be delivered, i.e. a [Subject.OnError] call
// made after the subject already terminated. Such errors are never silently
// dropped, and never panic the producer: they are passed to the handler, or,
// if none is set (or handler is nil), logged via the package logger.
func SetUndeliverableErrorHandler(handler func(err error)) {
	if handler == nil {
		undeliverableHandler.Store(nil)
		return
	}
	undeliverableHandler.Store(&handler)
}

func onUndeliverableError(err error) {
	if h := undeliverableHandler.Load(); h != nil {
		(*h)(err)
		return
	}
	pkgLogger.Load().Err().
		Err(err).
		Log(`eventsubject: undeliverable terminal error`)
}
