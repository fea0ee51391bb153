package server

import (
	"io"
	"log"
	"testing"
)

func TestServerAddr(t *testing.T) {
	l := log.New(io.Discard, "", 0)
	s := NewServer(l, nil, nil, 7929)
	if got := s.Addr(); got != "127.0.0.1:7929" {
		t.Fatalf("unexpected addr %s", got)
	}
}

func TestServerShutdownBeforeStart(t *testing.T) {
	rs, cleanup := newTestRPC(t)
	defer cleanup()

	l := log.New(io.Discard, "", 0)
	s := NewServer(l, rs, NewRPCNotifier(l), 7929)
	if err := s.Shutdown(); err != nil {
		t.Fatalf("expected shutdown before start to be a no-op, got %v", err)
	}
}
