// Package dispatch implements the client side of the engine's object
// automation interface: opaque handles for remote objects, a frame protocol
// over stream sockets, and a gateway that bounds each call with a wall-clock
// timeout and guarantees handle release.
package dispatch
