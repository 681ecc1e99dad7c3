package dispatch

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize is the maximum allowed frame payload (16 MiB).
const MaxFrameSize = 16 << 20

// releaseMethod is the protocol-reserved method name that detaches an object
// reference on the engine side. Engine API methods are PascalCase, so the
// lowercase name cannot collide.
const releaseMethod = "release"

// request is the JSON frame sent to the engine's automation port. An empty
// Object targets the engine's root automation object.
type request struct {
	ID     uint64 `json:"id"`
	Object string `json:"object,omitempty"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// response is the JSON frame returned by the engine. Exactly one of Result,
// Object, or Error carries the outcome: Object is set when the call returns a
// new remote object reference.
type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Object string          `json:"object,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// writeFrame writes a length-prefixed JSON frame to w.
// The frame format is: 4-byte big-endian length prefix followed by the JSON payload.
func writeFrame(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	length := uint32(len(data))
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	return nil
}

// readFrame reads a length-prefixed JSON frame from r and decodes it into v.
func readFrame(r io.Reader, v any) error {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return fmt.Errorf("read length prefix: %w", err)
	}

	if length > MaxFrameSize {
		return fmt.Errorf("frame size %d exceeds maximum %d", length, MaxFrameSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal frame: %w", err)
	}

	return nil
}
