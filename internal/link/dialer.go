package link

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/jpillora/backoff"
)

// Dialer maintains the ship side's single shared link to the shore
// peer, reconnecting with exponential backoff whenever the connection
// drops.
type Dialer struct {
	addr       string
	maxPayload uint32
	backoffMin time.Duration
	backoffMax time.Duration

	mu     sync.Mutex
	cond   *sync.Cond
	cur    *Link
	closed bool
}

// NewDialer creates a Dialer. Call Run in its own goroutine to start
// the connect loop; Current blocks callers until a link is ready.
func NewDialer(addr string, maxPayload uint32, backoffMin, backoffMax time.Duration) *Dialer {
	d := &Dialer{
		addr:       addr,
		maxPayload: maxPayload,
		backoffMin: backoffMin,
		backoffMax: backoffMax,
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Current blocks until a connected Link is available, or returns nil
// if the Dialer has been stopped. The worker calls this once per
// Exchange to ensure the shared link is connected before using it.
func (d *Dialer) Current() *Link {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.cur == nil && !d.closed {
		d.cond.Wait()
	}
	if d.closed {
		return nil
	}
	return d.cur
}

// Stop ends the connect loop and wakes any blocked Current callers.
func (d *Dialer) Stop() {
	d.mu.Lock()
	d.closed = true
	if d.cur != nil {
		d.cur.Close()
	}
	d.cond.Broadcast()
	d.mu.Unlock()
}

// Run dials in a loop until ctx is cancelled or Stop is called.
// Initial connect and every subsequent reconnect retry with
// exponential backoff (0.5s default, doubling to a 30s cap, jitter
// applied by jpillora/backoff).
func (d *Dialer) Run(ctx context.Context) {
	b := &backoff.Backoff{Min: d.backoffMin, Max: d.backoffMax, Jitter: true}
	for {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", d.addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := b.Duration()
			log.Printf("shore link: dial %s: %v, retrying in %s", d.addr, err, wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return
			}
		}
		b.Reset()
		log.Printf("shore link: connected to %s", d.addr)

		l := New(conn, d.maxPayload)
		d.mu.Lock()
		d.cur = l
		d.cond.Broadcast()
		d.mu.Unlock()

		select {
		case <-l.Done():
			log.Printf("shore link: disconnected: %v", l.Err())
		case <-ctx.Done():
			l.Close()
			return
		}

		d.mu.Lock()
		if d.cur == l {
			d.cur = nil
		}
		closed := d.closed
		d.mu.Unlock()
		if closed {
			return
		}
	}
}
