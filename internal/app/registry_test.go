package app

import (
	"context"
	"testing"

	"github.com/huddle-rtc/huddle/internal/core"
)

type stubConn struct {
	sent   []core.Frame
	closed bool
}

func (s *stubConn) TrySend(f core.Frame) error {
	s.sent = append(s.sent, f)
	return nil
}

func (s *stubConn) Close() { s.closed = true }

func TestBindAndGet(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{}
	r.Bind("c1", conn, nil)

	got, ok := r.Get("c1")
	if !ok {
		t.Fatal("expected bound connection to be found")
	}
	if got != conn {
		t.Error("expected the same connection instance back")
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("ghost"); ok {
		t.Error("lookup of an unbound id should miss")
	}
}

func TestUnbind(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", &stubConn{}, nil)
	r.Unbind("c1")
	if _, ok := r.Get("c1"); ok {
		t.Error("expected unbound connection to be gone")
	}
	// Unbinding twice is harmless.
	r.Unbind("c1")
}

func TestCancel(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.Bind("c1", &stubConn{}, cancel)

	if !r.Cancel("c1") {
		t.Fatal("expected cancel to find the connection")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("expected context to be cancelled")
	}
	if r.Cancel("ghost") {
		t.Error("cancel of unknown id should report false")
	}
}

func TestShutdownCancelsAll(t *testing.T) {
	r := NewRegistry()
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	r.Bind("c1", &stubConn{}, cancel1)
	r.Bind("c2", &stubConn{}, cancel2)

	r.Shutdown()

	for _, ctx := range []context.Context{ctx1, ctx2} {
		select {
		case <-ctx.Done():
		default:
			t.Error("expected all contexts cancelled on shutdown")
		}
	}
	if _, ok := r.Get("c1"); ok {
		t.Error("expected registry emptied on shutdown")
	}
}
