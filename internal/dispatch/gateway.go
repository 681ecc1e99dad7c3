package dispatch

import (
	"context"
	"sync"
	"time"
)

// Gateway wraps a Handle and bounds each named call with a wall-clock
// deadline.
//
// A gateway constructed with a zero default timeout runs in direct mode:
// every call executes synchronously on the caller's goroutine, and the
// gateway holds the process-wide runtime affinity until Close. A gateway
// with a positive default timeout runs each bounded call on a dedicated
// worker goroutine that attaches to the runtime lazily; such a gateway never
// tears the shared runtime down.
type Gateway struct {
	handle         Handle
	useTimeout     bool
	defaultTimeout time.Duration

	closeOnce sync.Once
}

// NewGateway wraps the given handle. defaultTimeout applies to Call; zero
// selects direct mode.
func NewGateway(h Handle, defaultTimeout time.Duration) *Gateway {
	g := &Gateway{
		handle:         h,
		useTimeout:     defaultTimeout > 0,
		defaultTimeout: defaultTimeout,
	}
	if !g.useTimeout {
		affinity.attachOwner()
	}
	return g
}

// UsesTimeout reports whether this gateway bounds calls with a deadline.
func (g *Gateway) UsesTimeout() bool { return g.useTimeout }

// DefaultTimeout returns the timeout applied by Call.
func (g *Gateway) DefaultTimeout() time.Duration { return g.defaultTimeout }

// Call invokes the named method using the gateway's default timeout.
func (g *Gateway) Call(ctx context.Context, method string, params ...any) (any, error) {
	return g.CallTimeout(ctx, method, g.defaultTimeout, params...)
}

// CallTimeout invokes the named method with an explicit timeout. A zero
// timeout degenerates to CallDirect: fully synchronous, no worker involved.
//
// Otherwise the call runs on a single dedicated worker goroutine, created
// for this call only and joined before CallTimeout returns. If the deadline
// elapses first, the worker's context is cancelled and a *TimeoutError is
// returned; the remote outcome is then unknown. Cancellation of the caller's
// own context surfaces as *ExecError instead.
func (g *Gateway) CallTimeout(ctx context.Context, method string, timeout time.Duration, params ...any) (any, error) {
	if timeout <= 0 {
		return g.CallDirect(ctx, method, params...)
	}

	start := time.Now()

	type outcome struct {
		val any
		err error
	}

	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		affinity.attachCall()
		var out outcome

		// Fail fast if the deadline already fired: a cancelled-but-started
		// call must not silently complete after the caller has moved on.
		if callCtx.Err() != nil {
			out.err = &ExecError{Method: method, Err: errCancelledBeforeDispatch}
		} else {
			out.val, out.err = g.handle.Invoke(callCtx, method, params...)
			if out.err != nil {
				out.err = wrapRemote(method, out.err)
			}
		}

		// Detach before signalling completion so that a joined worker has
		// fully left the runtime by the time the caller resumes.
		affinity.detachCall()
		done <- out
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		observeCall(method, start, out.err)
		return out.val, out.err

	case <-ctx.Done():
		cancel()
		<-done // join the worker; its late outcome is discarded
		err := &ExecError{Method: method, Err: ctx.Err()}
		observeCall(method, start, err)
		return nil, err

	case <-timer.C:
		cancel()
		<-done // join the worker; its late outcome is discarded
		err := &TimeoutError{Method: method, Timeout: timeout}
		observeCall(method, start, err)
		return nil, err
	}
}

// CallDirect invokes the named method synchronously on the calling
// goroutine, with no deadline and no worker.
func (g *Gateway) CallDirect(ctx context.Context, method string, params ...any) (any, error) {
	start := time.Now()
	val, err := g.handle.Invoke(ctx, method, params...)
	if err != nil {
		err = wrapRemote(method, err)
	}
	observeCall(method, start, err)
	return val, err
}

// Close releases the wrapped handle exactly once. Release failures are
// swallowed: a failed release must never mask the outcome of the calls that
// preceded it. In direct mode Close also drops this gateway's hold on the
// shared runtime affinity, finalizing it once no owner remains; in timeout
// mode the shared state is left untouched. Close is safe to call repeatedly.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		if err := g.handle.Release(); err != nil {
			releaseFailuresTotal.Inc()
		}
		if !g.useTimeout {
			affinity.releaseOwner()
		}
	})
}
