// Package hopbyhop lists the HTTP headers that apply only to a single
// transport-layer connection and must not be forwarded through a
// proxy (RFC 7230 §6.1), and strips them from a header set.
package hopbyhop

import (
	"net/http"
	"strings"
)

// Headers are the hop-by-hop headers the shore dispatcher strips from
// both the outbound request and the inbound response.
var Headers = []string{
	"Connection",
	"Proxy-Connection",
	"Transfer-Encoding",
	"Upgrade",
	"Keep-Alive",
	"TE",
	"Trailer",
	"Proxy-Authenticate",
	"Proxy-Authorization",
}

// Strip removes the hop-by-hop headers from h in place, including any
// additional headers a "Connection: X, Y" value names.
func Strip(h http.Header) {
	for _, tok := range h.Values("Connection") {
		for _, name := range strings.Split(tok, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range Headers {
		h.Del(name)
	}
}
