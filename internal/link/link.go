// Package link owns the single shared TCP connection between a ship
// and shore peer: a write side serialized by one mutex, a read side
// meant to be driven by exactly one caller at a time, and a failure
// signal so a higher-level reconnect loop knows when to redial.
package link

import (
	"errors"
	"net"
	"sync"

	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
)

// ErrClosed is returned by SendFrame once the link has been torn
// down, either by Close or by a read/write failure reported through
// Fail. ReadFrame returns the underlying read error instead.
var ErrClosed = errors.New("link: closed")

// Link wraps one connected socket. A Link is single-use: once it
// fails or is closed it stays dead: callers on the ship side get a
// fresh Link from the next successful Dialer connection; callers on
// the shore side get a fresh Link from the next accepted connection.
type Link struct {
	conn       net.Conn
	maxPayload uint32

	writeMu sync.Mutex

	once sync.Once
	done chan struct{}
	err  error
}

// New wraps an already-connected socket. maxPayload bounds the
// length field accepted by ReadFrame.
func New(conn net.Conn, maxPayload uint32) *Link {
	return &Link{
		conn:       conn,
		maxPayload: maxPayload,
		done:       make(chan struct{}),
	}
}

// SendFrame writes one frame. Concurrent callers are serialized; this
// lets a tunnel's upstream-to-link relay and the main dispatch loop
// share one Link safely.
func (l *Link) SendFrame(t frame.Type, payload []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	if err := frame.Write(l.conn, t, payload); err != nil {
		l.Fail(err)
		return err
	}
	return nil
}

// ReadFrame reads one frame. The link's read side is meant to be
// owned by a single caller at a time; ReadFrame itself
// does not serialize concurrent readers.
func (l *Link) ReadFrame() (frame.Type, []byte, error) {
	t, payload, err := frame.Read(l.conn, l.maxPayload)
	if err != nil {
		l.Fail(err)
		return 0, nil, err
	}
	return t, payload, nil
}

// Fail marks the link dead and closes the underlying socket. It is
// idempotent: only the first call's error is recorded, and Done only
// closes once, so either the reader or the writer discovering the
// break can call it without double-closing.
func (l *Link) Fail(err error) {
	l.once.Do(func() {
		l.err = err
		_ = l.conn.Close()
		close(l.done)
	})
}

// Close tears down the link cleanly, e.g. when a shore listener is
// pre-empting this connection for a newly accepted one.
func (l *Link) Close() error {
	l.Fail(net.ErrClosed)
	return nil
}

// Done is closed once the link has failed or been closed.
func (l *Link) Done() <-chan struct{} {
	return l.done
}

// Err returns the error that caused the link to fail, if any.
func (l *Link) Err() error {
	return l.err
}
