package exchange

import (
	"testing"
	"time"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	a := New(HTTP, nil)
	b := New(HTTP, nil)
	c := New(HTTP, nil)
	q.Push(a)
	q.Push(b)
	q.Push(c)

	for _, want := range []*Exchange{a, b, c} {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() returned ok=false")
		}
		if got != want {
			t.Fatalf("Pop() = %p, want %p", got, want)
		}
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	done := make(chan *Exchange, 1)
	go func() {
		e, ok := q.Pop()
		if !ok {
			t.Error("Pop() returned ok=false")
			return
		}
		done <- e
	}()

	select {
	case <-done:
		t.Fatal("Pop() returned before Push")
	case <-time.After(50 * time.Millisecond):
	}

	e := New(Tunnel, nil)
	q.Push(e)

	select {
	case got := <-done:
		if got != e {
			t.Fatalf("Pop() = %p, want %p", got, e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pop() never returned after Push")
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := NewQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Pop() should report ok=false after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pop() never unblocked after Close")
	}
}

func TestQueueDrainReturnsQueuedItems(t *testing.T) {
	q := NewQueue()
	a := New(HTTP, nil)
	b := New(HTTP, nil)
	q.Push(a)
	q.Push(b)

	items := q.Drain()
	if len(items) != 2 {
		t.Fatalf("Drain() returned %d items, want 2", len(items))
	}
	popped := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		popped <- ok
	}()
	select {
	case <-popped:
		t.Fatal("Pop() after Drain should block, not return immediately")
	case <-time.After(50 * time.Millisecond):
	}
	q.Close()
	if ok := <-popped; ok {
		t.Fatal("Pop() after Drain and Close should report ok=false")
	}
}

func TestExchangeCompleteSignalsDone(t *testing.T) {
	e := New(HTTP, nil)
	select {
	case <-e.Done():
		t.Fatal("Done() should not be closed before Complete")
	default:
	}
	e.Complete()
	select {
	case <-e.Done():
	default:
		t.Fatal("Done() should be closed after Complete")
	}
}

func TestExchangeKindString(t *testing.T) {
	if HTTP.String() != "HTTP" {
		t.Errorf("HTTP.String() = %q", HTTP.String())
	}
	if Tunnel.String() != "TUNNEL" {
		t.Errorf("Tunnel.String() = %q", Tunnel.String())
	}
}
