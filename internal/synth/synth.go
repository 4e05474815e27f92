// Package synth builds the raw HTTP/1.1 responses the proxy speaks
// for itself, rather than relays from a real origin: synthesized
// error pages, and the fixed CONNECT handshake replies.
package synth

import "fmt"

// Response renders a minimal HTML error page as a complete HTTP/1.1
// response: status line, Content-Type, Content-Length, and a
// "Connection: close" header matching this proxy's no-keep-alive
// policy.
func Response(code int, reason string) []byte {
	body := fmt.Sprintf("<html><body><h1>%d %s</h1></body></html>", code, reason)
	return []byte(fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: text/html\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		code, reason, len(body), body,
	))
}

// ConnectEstablished is the fixed reply sent once the shore
// peer confirms a CONNECT target is reachable.
var ConnectEstablished = []byte("HTTP/1.1 200 Connection Established\r\n\r\n")

// ConnectFailed is the fixed reply sent when a CONNECT
// target could not be reached, carrying no body - the reason travels
// only in the CONNECT_FAIL frame payload and the shore-side log.
var ConnectFailed = []byte("HTTP/1.1 502 Bad Gateway\r\n\r\n")
