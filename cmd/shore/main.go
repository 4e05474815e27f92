// Command shore is the Internet-facing peer: it accepts one ship
// connection at a time on a raw TCP framed link, replays each REQUEST
// frame as a real HTTP(S) fetch or CONNECT_OPEN as a real TCP dial,
// and streams results back as frames. Frames are processed strictly
// in order off one link, so there is never more than one REQUEST or
// CONNECT_OPEN outstanding and no request-ID bookkeeping is needed.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SairamBojedla/ship-proxy-system/internal/config"
	"github.com/SairamBojedla/ship-proxy-system/internal/debugtap"
	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
	"github.com/SairamBojedla/ship-proxy-system/internal/link"
)

func main() {
	log.SetFlags(0)
	config.LoadEnv(".env", "SHORE_")

	listenAddr := config.Getenv("SHORE_LISTEN", ":9999")
	maxPayload := parseSize(config.Getenv("SHORE_MAX_FRAME", ""), frame.DefaultMaxPayload)
	upstreamTimeout := parseDuration(config.Getenv("SHORE_UPSTREAM_TIMEOUT", ""), 60*time.Second)
	connectTimeout := parseDuration(config.Getenv("SHORE_CONNECT_TIMEOUT", ""), 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Print("shore: shutting down")
		cancel()
	}()

	var tap *debugtap.Tap
	if addr := config.Getenv("SHORE_DEBUG_LISTEN", ""); addr != "" {
		tap = debugtap.NewTap()
		go func() {
			log.Printf("shore: debug tap listening on %s", addr)
			if err := http.ListenAndServe(addr, tap); err != nil {
				log.Printf("shore: debug tap: %v", err)
			}
		}()
	}

	httpClient := &http.Client{
		Timeout: upstreamTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatalf("shore: listen %s: %v", listenAddr, err)
	}
	log.Printf("shore: listening on %s", listenAddr)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var mu sync.Mutex
	var current *link.Link

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("shore: accept: %v", err)
			continue
		}

		l := link.New(conn, maxPayload)

		// A new accept pre-empts any prior dispatcher state: all
		// outstanding tunnels on the old connection are closed.
		mu.Lock()
		old := current
		current = l
		mu.Unlock()
		if old != nil {
			log.Print("shore: new ship connection, closing previous")
			old.Close()
		}

		log.Printf("shore: ship connected from %s", conn.RemoteAddr())
		go func() {
			dispatch(l, httpClient, connectTimeout, tap)
			mu.Lock()
			if current == l {
				current = nil
			}
			mu.Unlock()
			log.Print("shore: ship disconnected")
		}()
	}
}
