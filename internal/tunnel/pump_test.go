package tunnel

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/SairamBojedla/ship-proxy-system/internal/frame"
	"github.com/SairamBojedla/ship-proxy-system/internal/link"
)

type pumpResult struct {
	stats Stats
	err   error
}

// setupPumpPair wires two Pump instances back to back over an
// in-memory link, the way the ship and shore sides of one CONNECT
// tunnel are wired over the real TCP socket. testA and testB are the
// "outside" ends the test interacts with directly.
func setupPumpPair(t *testing.T) (testA, testB net.Conn, doneA, doneB chan pumpResult) {
	t.Helper()
	linkConnA, linkConnB := net.Pipe()
	lkA := link.New(linkConnA, frame.DefaultMaxPayload)
	lkB := link.New(linkConnB, frame.DefaultMaxPayload)

	localA, pumpA := net.Pipe()
	localB, pumpB := net.Pipe()

	doneA = make(chan pumpResult, 1)
	doneB = make(chan pumpResult, 1)
	go func() { s, err := Pump(pumpA, lkA, 0); doneA <- pumpResult{s, err} }()
	go func() { s, err := Pump(pumpB, lkB, 0); doneB <- pumpResult{s, err} }()

	return localA, localB, doneA, doneB
}

func TestPumpRelaysBothDirections(t *testing.T) {
	testA, testB, doneA, doneB := setupPumpPair(t)

	if _, err := testA.Write([]byte("PING")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4)
	testB.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(testB, buf); err != nil {
		t.Fatalf("read on B: %v", err)
	}
	if string(buf) != "PING" {
		t.Fatalf("got %q, want PING", buf)
	}

	if _, err := testB.Write([]byte("PONG")); err != nil {
		t.Fatalf("write: %v", err)
	}
	testA.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(testA, buf); err != nil {
		t.Fatalf("read on A: %v", err)
	}
	if string(buf) != "PONG" {
		t.Fatalf("got %q, want PONG", buf)
	}

	testA.Close()

	var resA, resB pumpResult
	select {
	case resA = <-doneA:
		if resA.err != nil {
			t.Errorf("Pump A returned %v, want nil", resA.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pump A never returned after local close")
	}
	select {
	case resB = <-doneB:
		if resB.err != nil {
			t.Errorf("Pump B returned %v, want nil", resB.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pump B never returned after CLOSE frame")
	}

	if resA.stats.Sent != 4 || resA.stats.Received != 4 {
		t.Errorf("Pump A stats = %+v, want 4 sent / 4 received", resA.stats)
	}
	if resB.stats.Sent != 4 || resB.stats.Received != 4 {
		t.Errorf("Pump B stats = %+v, want 4 sent / 4 received", resB.stats)
	}

	// testB's local socket should now be closed from the other side.
	testB.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := testB.Read(buf); err == nil {
		t.Error("expected testB to observe the pump closing its local socket")
	}
}

func TestPumpStopsOnLinkFailure(t *testing.T) {
	linkConnA, _ := net.Pipe()
	lkA := link.New(linkConnA, frame.DefaultMaxPayload)
	localA, _ := net.Pipe()

	lkA.Fail(io.ErrClosedPipe)

	_, err := Pump(localA, lkA, 0)
	if err == nil {
		t.Fatal("expected Pump to return the link error")
	}
}
