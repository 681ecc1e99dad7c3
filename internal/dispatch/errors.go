package dispatch

import (
	"errors"
	"fmt"
	"time"
)

// ErrReleased is returned when a handle is invoked after it has been released.
// Calling through a released handle is a programming error and is always
// surfaced, never silently ignored.
var ErrReleased = errors.New("dispatch: handle already released")

// errCancelledBeforeDispatch is produced by a call worker that observes its
// cancellation signal before issuing the remote call. It prevents a
// cancelled-but-started call from silently completing after the caller has
// already received a timeout.
var errCancelledBeforeDispatch = errors.New("call cancelled by deadline before dispatch")

// RemoteError reports that the remote call itself failed: the engine raised
// an error or the native/transport layer broke while executing it.
type RemoteError struct {
	Method string
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote call %s failed: %v", e.Method, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// TimeoutError reports that a bounded call did not complete within its
// deadline. The remote outcome is unknown: the engine may still have
// executed the call, so callers must not assume it never happened.
type TimeoutError struct {
	Method  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout of %s exceeded for %s", e.Timeout, e.Method)
}

// ExecError reports a failure of the call infrastructure itself, unrelated
// to the remote call or its deadline, e.g. the caller's context being
// cancelled while waiting on the worker.
type ExecError struct {
	Method string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing call %s: %v", e.Method, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// wrapRemote normalizes an error coming back from a handle into the gateway
// taxonomy. Errors that already carry a dispatch type pass through unchanged.
func wrapRemote(method string, err error) error {
	var re *RemoteError
	var te *TimeoutError
	var ee *ExecError
	if errors.As(err, &re) || errors.As(err, &te) || errors.As(err, &ee) || errors.Is(err, ErrReleased) {
		return err
	}
	return &RemoteError{Method: method, Err: err}
}
