package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/seantiz/benchd/internal/dispatch"
)

// Method names understood by the engine's automation interface.
const (
	methodStart                       = "Start"
	methodStop                        = "Stop"
	methodOpenTestbenchConfiguration  = "OpenTestbenchConfiguration"
	methodOpenTestConfiguration       = "OpenTestConfiguration"
	methodGetCurrentTestConfiguration = "GetCurrentTestConfiguration"
	methodSetGlobalConstant           = "SetGlobalConstant"
)

// Client drives one engine instance through a timed invocation gateway.
// All methods are strictly sequential with respect to one another when
// called from a single goroutine; the client adds no concurrency of its own.
type Client struct {
	gw      *dispatch.Gateway
	timeout time.Duration
}

// NewClient wraps the engine's root automation handle. defaultTimeout bounds
// every call; zero disables timeouts and runs every call synchronously.
func NewClient(h dispatch.Handle, defaultTimeout time.Duration) *Client {
	return &Client{
		gw:      dispatch.NewGateway(h, defaultTimeout),
		timeout: defaultTimeout,
	}
}

// Start brings the currently loaded configurations into the running state.
func (c *Client) Start(ctx context.Context) error {
	_, err := c.gw.Call(ctx, methodStart)
	return err
}

// Stop halts the currently running configurations.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.gw.Call(ctx, methodStop)
	return err
}

// OpenTestBenchConfiguration asks the engine to load the test bench
// configuration document. An empty path means "no configuration" and is sent
// as null. A false return is a normal negative result: the engine executed
// the call but rejected the document.
func (c *Client) OpenTestBenchConfiguration(ctx context.Context, path string) (bool, error) {
	return c.open(ctx, methodOpenTestbenchConfiguration, path)
}

// OpenTestConfiguration asks the engine to load the test configuration
// document. Semantics match OpenTestBenchConfiguration.
func (c *Client) OpenTestConfiguration(ctx context.Context, path string) (bool, error) {
	return c.open(ctx, methodOpenTestConfiguration, path)
}

func (c *Client) open(ctx context.Context, method, path string) (bool, error) {
	var param any
	if path != "" {
		param = path
	}
	val, err := c.gw.Call(ctx, method, param)
	if err != nil {
		return false, err
	}
	return asBool(method, val)
}

// CurrentConfiguration returns the engine's currently loaded test
// configuration object. The caller owns the returned Configuration and must
// close it.
func (c *Client) CurrentConfiguration(ctx context.Context) (*Configuration, error) {
	val, err := c.gw.Call(ctx, methodGetCurrentTestConfiguration)
	if err != nil {
		return nil, err
	}
	h, ok := val.(dispatch.Handle)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want an object reference", methodGetCurrentTestConfiguration, val)
	}
	return &Configuration{gw: dispatch.NewGateway(h, c.timeout)}, nil
}

// Close releases the engine's root handle. Safe to call repeatedly.
func (c *Client) Close() {
	c.gw.Close()
}

// Configuration is a handle on one loaded test configuration object.
type Configuration struct {
	gw *dispatch.Gateway
}

// SetGlobalConstant writes one named runtime constant into the loaded test
// configuration. The engine only accepts the mutation while running.
func (tc *Configuration) SetGlobalConstant(ctx context.Context, name, value string) error {
	_, err := tc.gw.Call(ctx, methodSetGlobalConstant, name, value)
	return err
}

// Close releases the configuration object's handle.
func (tc *Configuration) Close() {
	tc.gw.Close()
}

// asBool coerces a decoded call result into a boolean. JSON transports
// deliver booleans natively; anything else is a protocol violation.
func asBool(method string, val any) (bool, error) {
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%s returned %T, want bool", method, val)
	}
	return b, nil
}
