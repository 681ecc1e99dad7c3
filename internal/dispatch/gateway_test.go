package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeHandle is a configurable in-process handle for gateway tests.
type fakeHandle struct {
	mu       sync.Mutex
	calls    []string
	released int

	delay      time.Duration
	result     any
	err        error
	releaseErr error
}

func (f *fakeHandle) Invoke(ctx context.Context, method string, params ...any) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeHandle) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return f.releaseErr
}

func (f *fakeHandle) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

func resetAffinity() {
	affinity.mu.Lock()
	affinity.owners = 0
	affinity.calls = 0
	affinity.active = false
	affinity.mu.Unlock()
}

func TestCallCompletesWithinTimeout(t *testing.T) {
	resetAffinity()
	h := &fakeHandle{delay: 10 * time.Millisecond, result: true}
	g := NewGateway(h, 5*time.Second)
	t.Cleanup(g.Close)

	val, err := g.Call(context.Background(), "Start")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if val != true {
		t.Errorf("result = %v, want true", val)
	}
}

func TestCallTimeoutExceeded(t *testing.T) {
	resetAffinity()
	h := &fakeHandle{delay: 5 * time.Second}
	g := NewGateway(h, time.Hour)
	t.Cleanup(g.Close)

	timeout := 50 * time.Millisecond
	_, err := g.CallTimeout(context.Background(), "Stop", timeout)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if te.Timeout != timeout {
		t.Errorf("TimeoutError.Timeout = %v, want %v", te.Timeout, timeout)
	}
	if te.Method != "Stop" {
		t.Errorf("TimeoutError.Method = %q, want Stop", te.Method)
	}

	// The worker is joined before CallTimeout returns: nothing may still be
	// attached to the runtime.
	if n := affinity.attachedCalls(); n != 0 {
		t.Errorf("attached workers after timeout = %d, want 0", n)
	}
}

func TestCallZeroTimeoutIsDirect(t *testing.T) {
	resetAffinity()
	h := &fakeHandle{result: "ok"}
	g := NewGateway(h, 0)
	t.Cleanup(g.Close)

	val, err := g.Call(context.Background(), "Start")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if val != "ok" {
		t.Errorf("result = %v, want ok", val)
	}

	// A direct call never creates a worker.
	if n := affinity.attachedCalls(); n != 0 {
		t.Errorf("attached workers after direct call = %d, want 0", n)
	}
}

func TestCallWrapsRemoteErrors(t *testing.T) {
	resetAffinity()
	cause := errors.New("engine rejected the request")
	h := &fakeHandle{err: cause}
	g := NewGateway(h, time.Second)
	t.Cleanup(g.Close)

	_, err := g.Call(context.Background(), "OpenTestConfiguration")

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("RemoteError does not wrap the underlying cause")
	}
	if re.Method != "OpenTestConfiguration" {
		t.Errorf("RemoteError.Method = %q", re.Method)
	}
}

func TestCallCallerContextCancelled(t *testing.T) {
	resetAffinity()
	h := &fakeHandle{delay: 5 * time.Second}
	g := NewGateway(h, time.Hour)
	t.Cleanup(g.Close)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := g.Call(ctx, "Start")

	var ee *ExecError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want *ExecError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExecError does not wrap context.Canceled")
	}
}

func TestCloseReleasesHandleExactlyOnce(t *testing.T) {
	resetAffinity()
	h := &fakeHandle{result: true}
	g := NewGateway(h, time.Second)

	if _, err := g.Call(context.Background(), "Start"); err != nil {
		t.Fatalf("Call: %v", err)
	}

	g.Close()
	g.Close()
	g.Close()

	if n := h.releaseCount(); n != 1 {
		t.Errorf("release count = %d, want 1", n)
	}
}

func TestCloseReleasesUnusedHandle(t *testing.T) {
	resetAffinity()
	h := &fakeHandle{}
	g := NewGateway(h, time.Second)
	g.Close()

	if n := h.releaseCount(); n != 1 {
		t.Errorf("release count = %d, want 1", n)
	}
}

func TestCloseSwallowsReleaseError(t *testing.T) {
	resetAffinity()
	h := &fakeHandle{releaseErr: errors.New("release blew up")}
	g := NewGateway(h, time.Second)

	// Must not panic or propagate.
	g.Close()

	if n := h.releaseCount(); n != 1 {
		t.Errorf("release count = %d, want 1", n)
	}
}

func TestCloseDirectModeTearsDownAffinity(t *testing.T) {
	resetAffinity()
	g := NewGateway(&fakeHandle{}, 0)

	if !affinity.isActive() {
		t.Fatal("affinity inactive while direct-mode gateway is open")
	}

	g.Close()
	if affinity.isActive() {
		t.Error("affinity still active after direct-mode close")
	}
}

func TestCloseTimeoutModeLeavesAffinityAlone(t *testing.T) {
	resetAffinity()
	g := NewGateway(&fakeHandle{result: true}, time.Second)

	if _, err := g.Call(context.Background(), "Start"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !affinity.isActive() {
		t.Fatal("affinity inactive after a bounded call")
	}

	g.Close()
	g.Close()
	if !affinity.isActive() {
		t.Error("timeout-mode close must not tear down shared affinity")
	}
}

func TestDirectModeCoOwnersShareAffinity(t *testing.T) {
	resetAffinity()
	parent := NewGateway(&fakeHandle{}, 0)
	child := NewGateway(&fakeHandle{}, 0)

	child.Close()
	if !affinity.isActive() {
		t.Fatal("affinity torn down while another direct-mode gateway is open")
	}

	parent.Close()
	if affinity.isActive() {
		t.Error("affinity still active after the last owner closed")
	}
}

func TestUsesTimeout(t *testing.T) {
	resetAffinity()
	g := NewGateway(&fakeHandle{}, time.Second)
	t.Cleanup(g.Close)
	if !g.UsesTimeout() {
		t.Error("UsesTimeout() = false for positive default timeout")
	}

	d := NewGateway(&fakeHandle{}, 0)
	t.Cleanup(d.Close)
	if d.UsesTimeout() {
		t.Error("UsesTimeout() = true for zero default timeout")
	}
}
