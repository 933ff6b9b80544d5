package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error returning callback to fsm.Callback. A returned
// error is stored on the event and surfaces from FSM.Event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// WrapGuard adapts a guard for use as a before_<event> callback. A returned
// error cancels the transition and is carried by the resulting
// fsm.CanceledError.
func WrapGuard(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Cancel(err)
		}
	}
}

// Cause unwraps the library's transition errors down to the error a guard
// or callback reported. Errors not produced by a callback are returned
// unchanged.
func Cause(err error) error {
	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return canceled.Err
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) && noTransition.Err != nil {
		return noTransition.Err
	}
	return err
}

// IsRejected reports whether err means the event is not allowed from the
// current state.
func IsRejected(err error) bool {
	var invalid fsm.InvalidEventError
	var unknown fsm.UnknownEventError
	return errors.As(err, &invalid) || errors.As(err, &unknown)
}
