package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
	"net/http/httputil"
	"strconv"
	"strings"

	"github.com/SairamBojedla/ship-proxy-system/internal/exchange"
)

// handleClient reads exactly one request off conn, enqueues an
// Exchange, and blocks until the worker signals completion - the
// worker owns conn for the duration. Per the proxy's keep-alive
// policy, the connection is always closed afterward; handleClient
// does not loop to read a second request.
func handleClient(conn net.Conn, q *exchange.Queue, maxBody int64) {
	br := bufio.NewReader(conn)

	requestLine, err := br.ReadString('\n')
	if err != nil {
		conn.Close()
		return
	}
	method, target, ok := parseRequestLine(requestLine)
	if !ok {
		conn.Close()
		return
	}

	var headerBuf bytes.Buffer
	headerBuf.WriteString(requestLine)
	contentLength := int64(-1)
	chunked := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			conn.Close()
			return
		}
		headerBuf.WriteString(line)
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		name, value, ok := splitHeader(trimmed)
		if !ok {
			continue
		}
		switch strings.ToLower(name) {
		case "content-length":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				contentLength = n
			}
		case "transfer-encoding":
			if strings.EqualFold(value, "chunked") {
				chunked = true
			}
		}
	}

	if strings.EqualFold(method, "CONNECT") {
		e := exchange.New(exchange.Tunnel, conn)
		e.Target = target
		q.Push(e)
		<-e.Done()
		conn.Close()
		return
	}

	body, err := readBody(br, contentLength, chunked, maxBody)
	if err != nil {
		log.Printf("ship: %s %s: %v", method, target, err)
		conn.Close()
		return
	}
	headerBuf.Write(body)

	e := exchange.New(exchange.HTTP, conn)
	e.RequestBytes = headerBuf.Bytes()
	q.Push(e)
	<-e.Done()
	conn.Close()
}

// parseRequestLine splits "METHOD target HTTP/1.1\r\n" into method and
// target. A line that doesn't have exactly three space-separated
// fields is malformed and causes the caller to close the socket
// without enqueueing.
func parseRequestLine(line string) (method, target string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return "", "", false
	}
	if !strings.HasPrefix(fields[2], "HTTP/") {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func splitHeader(line string) (name, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

// readBody returns the raw bytes of the request body exactly as they
// appear on the wire, so the REQUEST frame payload can be transmitted
// verbatim. Chunked bodies are captured by tee-ing the raw
// bytes consumed while a real chunked reader determines where they
// end; that's the only parsing a verbatim forwarder needs to do. The
// tee target is a capped buffer so an oversize chunked body is
// rejected as it streams in, not after it's fully buffered.
func readBody(br *bufio.Reader, contentLength int64, chunked bool, maxBody int64) ([]byte, error) {
	switch {
	case chunked:
		raw := &cappedBuffer{max: maxBody}
		cr := httputil.NewChunkedReader(io.TeeReader(br, raw))
		if _, err := io.Copy(io.Discard, cr); err != nil {
			return nil, fmt.Errorf("reading chunked body: %w", err)
		}
		return raw.buf.Bytes(), nil
	case contentLength > 0:
		if contentLength > maxBody {
			return nil, fmt.Errorf("body of %d bytes exceeds max %d", contentLength, maxBody)
		}
		buf := make([]byte, contentLength)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		return buf, nil
	default:
		return nil, nil
	}
}

// cappedBuffer is a bytes.Buffer that refuses writes once max bytes
// have accumulated, so a tee of an unbounded stream can be rejected
// mid-stream instead of only after it's fully consumed.
type cappedBuffer struct {
	buf bytes.Buffer
	max int64
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if int64(c.buf.Len())+int64(len(p)) > c.max {
		return 0, fmt.Errorf("body exceeds max %d bytes", c.max)
	}
	return c.buf.Write(p)
}
