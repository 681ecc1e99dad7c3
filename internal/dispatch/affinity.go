package dispatch

import "sync"

// runtimeAffinity models the process-wide state the native automation layer
// requires before any remote call can be issued from a given goroutine, the
// moral equivalent of a COM apartment.
//
// Ownership is asymmetric: gateways running in direct (no-timeout) mode hold
// the runtime for their whole lifetime and are the only party allowed to
// finalize it. Timeout-capable gateways attach lazily per bounded call and
// must leave the shared state alone on close, because another gateway may
// still depend on it. The rule is enforced by an explicit mode check at
// Close, never by destruction order.
type runtimeAffinity struct {
	mu     sync.Mutex
	owners int // direct-mode gateways holding the runtime
	calls  int // workers currently attached for a bounded call
	active bool
}

var affinity runtimeAffinity

// attachOwner binds a direct-mode gateway to the runtime for its lifetime.
func (a *runtimeAffinity) attachOwner() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.owners++
	a.active = true
}

// releaseOwner drops one owner and finalizes the runtime once no owner
// remains. Only the direct-mode close path calls this.
func (a *runtimeAffinity) releaseOwner() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owners > 0 {
		a.owners--
	}
	if a.owners == 0 {
		a.active = false
	}
}

// attachCall marks one bounded-call worker as attached to the runtime.
func (a *runtimeAffinity) attachCall() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.active = true
}

// detachCall undoes attachCall. It never finalizes the runtime.
func (a *runtimeAffinity) detachCall() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.calls > 0 {
		a.calls--
	}
}

func (a *runtimeAffinity) isActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *runtimeAffinity) attachedCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
