// Package debugtap exposes a best-effort WebSocket feed of frame
// metadata crossing the shared link, for an operator dashboard
// watching an exchange in flight without a packet capture tool. It
// never affects the framed link itself: a slow or absent viewer just
// misses events.
package debugtap

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tomasen/realip"

	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event describes one frame observed on the shared link, for display
// on a dashboard - never the payload itself, since request/response
// bodies may be large or sensitive.
type Event struct {
	Direction string    `json:"direction"` // "ship->shore" or "shore->ship"
	Type      string    `json:"type"`
	Length    int       `json:"length"`
	At        time.Time `json:"at"`
}

// Tap fans frame Events out to any number of connected dashboard
// viewers. The zero value is ready to use.
type Tap struct {
	mu      sync.Mutex
	viewers map[chan Event]struct{}
}

// NewTap returns a ready-to-use Tap.
func NewTap() *Tap {
	return &Tap{viewers: make(map[chan Event]struct{})}
}

// Observe records that a frame of the given type and direction
// crossed the link. It never blocks: viewers that can't keep up drop
// events instead of stalling the transport.
func (t *Tap) Observe(direction string, typ frame.Type, length int) {
	if t == nil {
		return
	}
	ev := Event{Direction: direction, Type: typ.String(), Length: length, At: time.Now()}
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.viewers {
		select {
		case ch <- ev:
		default:
		}
	}
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second
	writeWait  = 5 * time.Second
)

// ServeHTTP upgrades the request to a WebSocket and streams Events to
// it until the viewer disconnects.
func (t *Tap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("debugtap: upgrade from %s: %v", realip.FromRequest(r), err)
		return
	}
	defer conn.Close()

	log.Printf("debugtap: viewer connected from %s", realip.FromRequest(r))

	ch := make(chan Event, 64)
	t.mu.Lock()
	if t.viewers == nil {
		t.viewers = make(map[chan Event]struct{})
	}
	t.viewers[ch] = struct{}{}
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.viewers, ch)
		t.mu.Unlock()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var writeMu sync.Mutex
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch:
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			writeMu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, b)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
