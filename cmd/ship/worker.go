package main

import (
	"fmt"
	"io"
	"log"

	"github.com/jpillora/sizestr"

	"github.com/SairamBojedla/ship-proxy-system/internal/debugtap"
	"github.com/SairamBojedla/ship-proxy-system/internal/exchange"
	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
	"github.com/SairamBojedla/ship-proxy-system/internal/link"
	"github.com/SairamBojedla/ship-proxy-system/internal/synth"
	"github.com/SairamBojedla/ship-proxy-system/internal/tunnel"
)

// worker drains the queue strictly one Exchange at a time: while one
// Exchange is in flight, nothing else touches the shared link.
func worker(q *exchange.Queue, dialer *link.Dialer, tap *debugtap.Tap) {
	for {
		e, ok := q.Pop()
		if !ok {
			return
		}
		lk := dialer.Current()
		if lk == nil {
			// Dialer was stopped (process shutting down); best effort.
			switch e.Kind {
			case exchange.HTTP:
				_, _ = e.Client.Write(synth.Response(502, "Bad Gateway"))
			case exchange.Tunnel:
				_, _ = e.Client.Write(synth.ConnectFailed)
			}
			e.Complete()
			continue
		}
		switch e.Kind {
		case exchange.HTTP:
			handleHTTPExchange(e, lk, tap)
		case exchange.Tunnel:
			handleTunnelExchange(e, lk, tap)
		}
		e.Complete()
	}
}

func handleHTTPExchange(e *exchange.Exchange, lk *link.Link, tap *debugtap.Tap) {
	if err := lk.SendFrame(frame.Request, e.RequestBytes); err != nil {
		log.Printf("ship: send REQUEST: %v", err)
		_, _ = e.Client.Write(synth.Response(502, "Bad Gateway"))
		return
	}
	tap.Observe("ship->shore", frame.Request, len(e.RequestBytes))

	t, payload, err := lk.ReadFrame()
	if err != nil {
		log.Printf("ship: read RESPONSE: %v", err)
		_, _ = e.Client.Write(synth.Response(502, "Bad Gateway"))
		return
	}
	if t != frame.Response {
		lk.Fail(fmt.Errorf("ship: expected RESPONSE, got %v", t))
		_, _ = e.Client.Write(synth.Response(502, "Bad Gateway"))
		return
	}
	tap.Observe("shore->ship", t, len(payload))

	if _, err := e.Client.Write(payload); err != nil {
		log.Printf("ship: write response to client: %v", err)
	}
}

func handleTunnelExchange(e *exchange.Exchange, lk *link.Link, tap *debugtap.Tap) {
	if err := lk.SendFrame(frame.ConnectOpen, []byte(e.Target)); err != nil {
		log.Printf("ship: send CONNECT_OPEN %s: %v", e.Target, err)
		_, _ = e.Client.Write(synth.ConnectFailed)
		return
	}
	tap.Observe("ship->shore", frame.ConnectOpen, len(e.Target))

	t, payload, err := lk.ReadFrame()
	if err != nil {
		log.Printf("ship: read CONNECT result for %s: %v", e.Target, err)
		_, _ = e.Client.Write(synth.ConnectFailed)
		return
	}
	switch t {
	case frame.ConnectOK:
		tap.Observe("shore->ship", t, 0)
		if _, err := io.WriteString(e.Client, string(synth.ConnectEstablished)); err != nil {
			return
		}
		stats, err := tunnel.Pump(e.Client, lk, tunnel.DefaultMaxChunk)
		if err != nil {
			log.Printf("ship: tunnel %s ended: %v (sent %s, received %s)", e.Target, err, sizestr.ToString(stats.Sent), sizestr.ToString(stats.Received))
		} else {
			log.Printf("ship: tunnel %s closed (sent %s, received %s)", e.Target, sizestr.ToString(stats.Sent), sizestr.ToString(stats.Received))
		}
	case frame.ConnectFail:
		tap.Observe("shore->ship", t, len(payload))
		_, _ = e.Client.Write(synth.ConnectFailed)
	default:
		lk.Fail(fmt.Errorf("ship: expected CONNECT_OK/CONNECT_FAIL, got %v", t))
		_, _ = e.Client.Write(synth.ConnectFailed)
	}
}
