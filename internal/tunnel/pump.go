// Package tunnel implements the bidirectional byte relay that both
// peers run for the lifetime of one CONNECT tunnel. The same
// Pump function serves the ship side (local is the original client
// socket) and the shore side (local is the socket dialed to the
// CONNECT target) - the relay logic is identical, only which
// "local" socket is opaque bytes differs.
package tunnel

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
	"github.com/SairamBojedla/ship-proxy-system/internal/link"
)

// DefaultMaxChunk bounds the size of a single DATA frame's payload
// when relaying from the local socket.
const DefaultMaxChunk = 16 * 1024

// Stats totals the bytes a finished Pump carried, from local's point
// of view: Sent went from local onto the link, Received came off the
// link and was written to local. Callers use this for access logging.
type Stats struct {
	Sent, Received int64
}

// Pump relays bytes between local and the shared link using DATA
// frames until either side closes: local EOF/error, a link error, or
// a CLOSE frame observed from the peer. The caller must already own
// the link's read side exclusively - the link is not usable for
// REQUEST/RESPONSE traffic while Pump is running.
//
// Pump always closes local before returning, and sends exactly one
// CLOSE frame (skipped if the link has already failed). It returns
// byte totals for the tunnel and the link-side error that ended it,
// or a nil error for a clean close.
func Pump(local net.Conn, lk *link.Link, maxChunk int) (Stats, error) {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}

	var sent, received int64

	var closeOnce sync.Once
	sendClose := func() {
		closeOnce.Do(func() {
			_ = lk.SendFrame(frame.Close, nil)
		})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, maxChunk)
		for {
			n, err := local.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if sendErr := lk.SendFrame(frame.Data, chunk); sendErr != nil {
					return
				}
				atomic.AddInt64(&sent, int64(n))
			}
			if err != nil {
				sendClose()
				return
			}
		}
	}()

	var linkErr error
loop:
	for {
		t, payload, err := lk.ReadFrame()
		if err != nil {
			linkErr = err
			break loop
		}
		switch t {
		case frame.Data:
			if _, werr := local.Write(payload); werr != nil {
				sendClose()
				break loop
			}
			received += int64(len(payload))
		case frame.Close:
			break loop
		default:
			linkErr = fmt.Errorf("tunnel: unexpected frame type %v while pumping", t)
			lk.Fail(linkErr)
			break loop
		}
	}

	sendClose()
	_ = local.Close()
	wg.Wait()
	return Stats{Sent: atomic.LoadInt64(&sent), Received: received}, linkErr
}
