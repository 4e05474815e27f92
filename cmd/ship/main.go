// Command ship is the client-facing proxy: it accepts HTTP/1.1 and
// CONNECT from local clients, enqueues each as an Exchange, and
// drains the queue through a single worker that owns the one shared
// link to the shore peer.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SairamBojedla/ship-proxy-system/internal/config"
	"github.com/SairamBojedla/ship-proxy-system/internal/debugtap"
	"github.com/SairamBojedla/ship-proxy-system/internal/exchange"
	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
	"github.com/SairamBojedla/ship-proxy-system/internal/link"
	"github.com/SairamBojedla/ship-proxy-system/internal/synth"
)

func main() {
	log.SetFlags(0)
	config.LoadEnv(".env", "SHIP_")

	listenAddr := config.Getenv("SHIP_LISTEN", ":8080")
	offshore := config.Getenv("SHIP_OFFSHORE", "")
	if offshore == "" {
		log.Fatal("SHIP_OFFSHORE is required (shore peer host:port)")
	}
	maxPayload := parseSize(config.Getenv("SHIP_MAX_FRAME", ""), frame.DefaultMaxPayload)
	backoffMin := parseDuration(config.Getenv("SHIP_BACKOFF_MIN", ""), 500*time.Millisecond)
	backoffMax := parseDuration(config.Getenv("SHIP_BACKOFF_MAX", ""), 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Print("ship: shutting down")
		cancel()
	}()

	var tap *debugtap.Tap
	if addr := config.Getenv("SHIP_DEBUG_LISTEN", ""); addr != "" {
		tap = debugtap.NewTap()
		go func() {
			log.Printf("ship: debug tap listening on %s", addr)
			if err := http.ListenAndServe(addr, tap); err != nil {
				log.Printf("ship: debug tap: %v", err)
			}
		}()
	}

	q := exchange.NewQueue()
	dialer := link.NewDialer(offshore, maxPayload, backoffMin, backoffMax)
	go dialer.Run(ctx)
	drained := make(chan struct{})
	go func() {
		<-ctx.Done()
		dialer.Stop()
		q.Close()
		drainQueue(q)
		close(drained)
	}()

	go worker(q, dialer, tap)

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatalf("ship: listen %s: %v", listenAddr, err)
	}
	log.Printf("ship: listening on %s, forwarding to %s", listenAddr, offshore)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				<-drained
				return
			}
			log.Printf("ship: accept: %v", err)
			continue
		}
		go handleClient(conn, q, int64(maxPayload))
	}
}

// drainQueue empties the queue of anything still waiting when shutdown
// begins, writing each client a synthesized failure shaped for its
// Kind before closing its socket and signaling its front end. Nothing
// here waits on the link, which is already being torn down.
func drainQueue(q *exchange.Queue) {
	for _, e := range q.Drain() {
		switch e.Kind {
		case exchange.HTTP:
			_, _ = e.Client.Write(synth.Response(503, "Service Unavailable"))
		case exchange.Tunnel:
			_, _ = e.Client.Write(synth.ConnectFailed)
		}
		e.Client.Close()
		e.Complete()
	}
}
