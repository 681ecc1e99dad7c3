package dispatch

import "context"

// Handle is an opaque reference to one object exposed by the external
// automation engine. Calls are named and parameterized; results are decoded
// values, or a further Handle when the engine returns an object reference.
//
// A handle is exclusively owned by the gateway or client that created it and
// is released exactly once. Release is internally idempotent, but invoking a
// handle after release returns ErrReleased.
type Handle interface {
	// Invoke performs one remote call synchronously. Cancelling the context
	// abandons the pending call on the client side only; the engine may still
	// execute it.
	Invoke(ctx context.Context, method string, params ...any) (any, error)

	// Release detaches from the remote object.
	Release() error
}
