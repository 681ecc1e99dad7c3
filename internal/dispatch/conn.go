package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// releaseTimeout bounds the wire round trip of a Release; a broken engine
// must not make release hang forever.
const releaseTimeout = 5 * time.Second

// Conn is one client connection to an engine's automation port. It carries
// the frame protocol for any number of object references and demultiplexes
// responses to pending calls by request id.
type Conn struct {
	nc net.Conn

	writeMu sync.Mutex // serializes frames on the socket
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan response
	err     error // set once the reader loop stops
}

// Dial connects to an engine automation port. Addresses containing a path
// separator are treated as unix socket paths, everything else as TCP
// host:port.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	network := "tcp"
	if strings.Contains(addr, "/") {
		network = "unix"
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial engine at %s: %w", addr, err)
	}

	return NewConn(nc), nil
}

// NewConn wraps an established stream connection to an automation port.
func NewConn(nc net.Conn) *Conn {
	c := &Conn{
		nc:      nc,
		pending: make(map[uint64]chan response),
	}
	go c.readLoop()
	return c
}

// Root returns the handle for the engine's root automation object.
func (c *Conn) Root() Handle {
	return &Object{conn: c}
}

// Close tears down the socket. All pending calls fail.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// readLoop routes response frames to their pending calls until the socket
// breaks, then fails every pending and future call with the read error.
func (c *Conn) readLoop() {
	for {
		var resp response
		if err := readFrame(c.nc, &resp); err != nil {
			c.mu.Lock()
			c.err = fmt.Errorf("connection lost: %w", err)
			for id, ch := range c.pending {
				delete(c.pending, id)
				close(ch)
			}
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// call sends one request frame and blocks for its response or context
// cancellation. On cancellation the pending slot is forgotten; the engine
// may still execute the call.
func (c *Conn) call(ctx context.Context, object, method string, params []any) (response, error) {
	if params == nil {
		params = []any{}
	}
	req := request{
		ID:     c.nextID.Add(1),
		Object: object,
		Method: method,
		Params: params,
	}

	ch := make(chan response, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return response{}, err
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := writeFrame(c.nc, req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(req.ID)
		return response{}, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			c.mu.Lock()
			err := c.err
			c.mu.Unlock()
			return response{}, err
		}
		return resp, nil
	case <-ctx.Done():
		c.forget(req.ID)
		return response{}, ctx.Err()
	}
}

func (c *Conn) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Object is a Handle backed by one remote object reference on a Conn. The
// zero object id addresses the engine's root object.
type Object struct {
	conn     *Conn
	id       string
	released atomic.Bool
}

var _ Handle = (*Object)(nil)

// Invoke performs one remote call and decodes its result. A response
// carrying an object reference yields a new Handle minted on the same Conn.
func (o *Object) Invoke(ctx context.Context, method string, params ...any) (any, error) {
	if o.released.Load() {
		return nil, ErrReleased
	}

	resp, err := o.conn.call(ctx, o.id, method, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if resp.Object != "" {
		return &Object{conn: o.conn, id: resp.Object}, nil
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}

	var val any
	if err := json.Unmarshal(resp.Result, &val); err != nil {
		return nil, fmt.Errorf("decode result of %s: %w", method, err)
	}
	return val, nil
}

// Release detaches from the remote object. Repeated release is a no-op.
func (o *Object) Release() error {
	if o.released.Swap(true) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	resp, err := o.conn.call(ctx, o.id, releaseMethod, nil)
	if err != nil {
		return fmt.Errorf("release object: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("release object: %s", resp.Error)
	}
	return nil
}
