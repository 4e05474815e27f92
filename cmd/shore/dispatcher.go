package main

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jpillora/sizestr"

	"github.com/SairamBojedla/ship-proxy-system/internal/debugtap"
	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
	"github.com/SairamBojedla/ship-proxy-system/internal/hopbyhop"
	"github.com/SairamBojedla/ship-proxy-system/internal/link"
	"github.com/SairamBojedla/ship-proxy-system/internal/synth"
	"github.com/SairamBojedla/ship-proxy-system/internal/tunnel"
)

// dispatch reads frames off lk strictly in order and replays each one
// as a real HTTP fetch or TCP dial. The ship side never
// pipelines a second Exchange onto the link before the first
// completes, so there is exactly one REQUEST or CONNECT_OPEN in
// flight at a time and no request-ID bookkeeping is needed.
func dispatch(lk *link.Link, httpClient *http.Client, connectTimeout time.Duration, tap *debugtap.Tap) {
	for {
		t, payload, err := lk.ReadFrame()
		if err != nil {
			return
		}
		tap.Observe("ship->shore", t, len(payload))

		switch t {
		case frame.Request:
			handleRequest(lk, httpClient, payload, tap)
		case frame.ConnectOpen:
			handleConnect(lk, string(payload), connectTimeout, tap)
		default:
			lk.Fail(fmt.Errorf("shore: expected REQUEST/CONNECT_OPEN, got %v", t))
			return
		}
		if lk.Err() != nil {
			return
		}
	}
}

func handleRequest(lk *link.Link, httpClient *http.Client, raw []byte, tap *debugtap.Tap) {
	resp := replay(httpClient, raw)
	if err := lk.SendFrame(frame.Response, resp); err != nil {
		log.Printf("shore: send RESPONSE: %v", err)
		return
	}
	tap.Observe("shore->ship", frame.Response, len(resp))
	log.Printf("shore: exchange complete (request %s, response %s)",
		sizestr.ToString(int64(len(raw))), sizestr.ToString(int64(len(resp))))
}

// replay executes the raw HTTP request bytes captured by the ship peer
// against the real origin and returns a raw HTTP/1.1 response, never
// an error: failures become synthesized 502/504 pages so the ship
// peer always receives a well-formed RESPONSE payload.
func replay(httpClient *http.Client, raw []byte) []byte {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		log.Printf("shore: parse request: %v", err)
		return synth.Response(502, "Bad Gateway")
	}

	// http.ReadRequest leaves req.URL as whatever the request line
	// named: origin-form requests carry no Host in the URL, so fall
	// back to the Host header.
	if req.URL.Host == "" {
		req.URL.Host = req.Host
	}
	if req.URL.Scheme == "" {
		req.URL.Scheme = "http"
	}
	req.RequestURI = ""
	hopbyhop.Strip(req.Header)

	originResp, err := httpClient.Do(req)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			log.Printf("shore: upstream timeout for %s: %v", req.URL, err)
			return synth.Response(504, "Gateway Timeout")
		}
		log.Printf("shore: upstream error for %s: %v", req.URL, err)
		return synth.Response(502, "Bad Gateway")
	}
	defer originResp.Body.Close()

	hopbyhop.Strip(originResp.Header)
	var buf bytes.Buffer
	if err := originResp.Write(&buf); err != nil {
		log.Printf("shore: serialize response for %s: %v", req.URL, err)
		return synth.Response(502, "Bad Gateway")
	}
	return buf.Bytes()
}

func handleConnect(lk *link.Link, target string, connectTimeout time.Duration, tap *debugtap.Tap) {
	targetConn, err := net.DialTimeout("tcp", target, connectTimeout)
	if err != nil {
		log.Printf("shore: dial %s: %v", target, err)
		if sendErr := lk.SendFrame(frame.ConnectFail, []byte(err.Error())); sendErr != nil {
			log.Printf("shore: send CONNECT_FAIL: %v", sendErr)
		}
		tap.Observe("shore->ship", frame.ConnectFail, len(err.Error()))
		return
	}

	if err := lk.SendFrame(frame.ConnectOK, nil); err != nil {
		log.Printf("shore: send CONNECT_OK: %v", err)
		targetConn.Close()
		return
	}
	tap.Observe("shore->ship", frame.ConnectOK, 0)

	stats, err := tunnel.Pump(targetConn, lk, tunnel.DefaultMaxChunk)
	if err != nil {
		log.Printf("shore: tunnel %s ended: %v (sent %s, received %s)", target, err, sizestr.ToString(stats.Sent), sizestr.ToString(stats.Received))
	} else {
		log.Printf("shore: tunnel %s closed (sent %s, received %s)", target, sizestr.ToString(stats.Sent), sizestr.ToString(stats.Received))
	}
}
