package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seantiz/benchd/internal/dispatch"
	"github.com/seantiz/benchd/internal/engine"
)

// scriptedHandle answers each method with a preconfigured result or error
// and records the call sequence with its parameters.
type scriptedHandle struct {
	mu       sync.Mutex
	calls    []call
	results  map[string]any
	errs     map[string]error
	released int
}

type call struct {
	method string
	params []any
}

func newScriptedHandle() *scriptedHandle {
	return &scriptedHandle{
		results: make(map[string]any),
		errs:    make(map[string]error),
	}
}

func (h *scriptedHandle) Invoke(_ context.Context, method string, params ...any) (any, error) {
	h.mu.Lock()
	h.calls = append(h.calls, call{method: method, params: params})
	h.mu.Unlock()

	if err := h.errs[method]; err != nil {
		return nil, err
	}
	return h.results[method], nil
}

func (h *scriptedHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released++
	return nil
}

func (h *scriptedHandle) methods() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.calls))
	for i, c := range h.calls {
		out[i] = c.method
	}
	return out
}

func TestOpenTestConfigurationSendsPath(t *testing.T) {
	h := newScriptedHandle()
	h.results["OpenTestConfiguration"] = true

	c := engine.NewClient(h, time.Second)
	t.Cleanup(c.Close)

	ok, err := c.OpenTestConfiguration(context.Background(), "test.tcf")
	if err != nil {
		t.Fatalf("OpenTestConfiguration: %v", err)
	}
	if !ok {
		t.Error("ok = false, want true")
	}

	if len(h.calls) != 1 || h.calls[0].params[0] != "test.tcf" {
		t.Errorf("recorded calls = %+v, want one call with path param", h.calls)
	}
}

func TestOpenWithEmptyPathSendsNull(t *testing.T) {
	h := newScriptedHandle()
	h.results["OpenTestbenchConfiguration"] = true

	c := engine.NewClient(h, time.Second)
	t.Cleanup(c.Close)

	if _, err := c.OpenTestBenchConfiguration(context.Background(), ""); err != nil {
		t.Fatalf("OpenTestBenchConfiguration: %v", err)
	}

	if len(h.calls) != 1 || h.calls[0].params[0] != nil {
		t.Errorf("recorded calls = %+v, want one call with nil param", h.calls)
	}
}

func TestOpenNegativeResultIsNotAnError(t *testing.T) {
	h := newScriptedHandle()
	h.results["OpenTestConfiguration"] = false

	c := engine.NewClient(h, time.Second)
	t.Cleanup(c.Close)

	ok, err := c.OpenTestConfiguration(context.Background(), "broken.tcf")
	if err != nil {
		t.Fatalf("negative result must not surface as an error, got %v", err)
	}
	if ok {
		t.Error("ok = true, want false")
	}
}

func TestOpenRemoteFailureIsAnError(t *testing.T) {
	h := newScriptedHandle()
	h.errs["OpenTestConfiguration"] = errors.New("engine crashed")

	c := engine.NewClient(h, time.Second)
	t.Cleanup(c.Close)

	_, err := c.OpenTestConfiguration(context.Background(), "test.tcf")

	var re *dispatch.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *dispatch.RemoteError", err)
	}
}

func TestOpenNonBoolResultRejected(t *testing.T) {
	h := newScriptedHandle()
	h.results["OpenTestConfiguration"] = "yes"

	c := engine.NewClient(h, time.Second)
	t.Cleanup(c.Close)

	if _, err := c.OpenTestConfiguration(context.Background(), "test.tcf"); err == nil {
		t.Error("expected protocol violation error for non-bool result")
	}
}

func TestCurrentConfigurationWrapsReturnedHandle(t *testing.T) {
	h := newScriptedHandle()
	sub := newScriptedHandle()
	h.results["GetCurrentTestConfiguration"] = dispatch.Handle(sub)

	c := engine.NewClient(h, time.Second)
	t.Cleanup(c.Close)

	cfg, err := c.CurrentConfiguration(context.Background())
	if err != nil {
		t.Fatalf("CurrentConfiguration: %v", err)
	}
	t.Cleanup(cfg.Close)

	if err := cfg.SetGlobalConstant(context.Background(), "SPEED", "10"); err != nil {
		t.Fatalf("SetGlobalConstant: %v", err)
	}

	if got := sub.methods(); len(got) != 1 || got[0] != "SetGlobalConstant" {
		t.Errorf("sub-handle calls = %v, want [SetGlobalConstant]", got)
	}
	if sub.calls[0].params[0] != "SPEED" || sub.calls[0].params[1] != "10" {
		t.Errorf("constant params = %+v", sub.calls[0].params)
	}
}

func TestStartStopMethodNames(t *testing.T) {
	h := newScriptedHandle()

	c := engine.NewClient(h, time.Second)
	t.Cleanup(c.Close)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := h.methods(); len(got) != 2 || got[0] != "Start" || got[1] != "Stop" {
		t.Errorf("methods = %v, want [Start Stop]", got)
	}
}

func TestClientCloseReleasesRootHandle(t *testing.T) {
	h := newScriptedHandle()
	c := engine.NewClient(h, time.Second)

	c.Close()
	c.Close()

	if h.released != 1 {
		t.Errorf("release count = %d, want 1", h.released)
	}
}
