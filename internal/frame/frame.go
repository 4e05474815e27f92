// Package frame implements the wire codec for the shared link between
// the ship and shore peers: a length-prefixed, type-tagged byte stream
// over one TCP connection.
package frame

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Type tags the payload carried by a Frame.
type Type uint8

// Frame types defined by the shared-link protocol. Direction is noted
// per type; all are carried over the same socket in strict order.
const (
	Request      Type = 1 // ship -> shore: serialized HTTP request
	Response     Type = 2 // shore -> ship: serialized HTTP response
	ConnectOpen  Type = 3 // ship -> shore: ASCII "host:port"
	ConnectOK    Type = 4 // shore -> ship: empty
	ConnectFail  Type = 5 // shore -> ship: optional reason string
	Data         Type = 6 // both: opaque tunnel bytes
	Close        Type = 7 // both: empty
)

// HeaderSize is the fixed header length: 4-byte big-endian length plus
// a 1-byte type tag. No magic, no version - the link is point-to-point
// and the two peers ship together.
const HeaderSize = 5

// DefaultMaxPayload is the default cap on a frame's payload length,
// used to bound buffering on both peers (spec default: 1 MiB).
const DefaultMaxPayload = 1 << 20

func (t Type) String() string {
	switch t {
	case Request:
		return "REQUEST"
	case Response:
		return "RESPONSE"
	case ConnectOpen:
		return "CONNECT_OPEN"
	case ConnectOK:
		return "CONNECT_OK"
	case ConnectFail:
		return "CONNECT_FAIL"
	case Data:
		return "DATA"
	case Close:
		return "CLOSE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the defined frame types.
func Valid(t Type) bool {
	switch t {
	case Request, Response, ConnectOpen, ConnectOK, ConnectFail, Data, Close:
		return true
	default:
		return false
	}
}

// Write encodes a single frame to w: 4-byte big-endian length, 1-byte
// type, then the payload verbatim. Callers are responsible for
// checking payload length against their configured max frame size
// before calling Write; Write itself does not second-guess the cap,
// since ConnectFail reason strings and the like are always small.
func Write(w io.Writer, t Type, payload []byte) error {
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	header[4] = byte(t)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("frame: write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("frame: write payload: %w", err)
		}
	}
	return nil
}

// Read decodes a single frame from r, enforcing maxPayload as a sanity
// bound on the declared length. A length beyond maxPayload is a
// protocol violation and returns ErrFrameTooLarge without consuming
// the payload bytes - callers MUST treat this as fatal for the
// connection, since the stream is now desynchronized.
func Read(r io.Reader, maxPayload uint32) (Type, []byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint32(header[0:4])
	t := Type(header[4])
	if length > maxPayload {
		return 0, nil, fmt.Errorf("%w: length %d exceeds max %d", ErrFrameTooLarge, length, maxPayload)
	}
	if !Valid(t) {
		return 0, nil, fmt.Errorf("%w: type %d", ErrBadType, header[4])
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, fmt.Errorf("frame: read payload: %w", err)
		}
	}
	return t, payload, nil
}
