package warmcli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cws "github.com/coder/websocket"

	"github.com/skyreel/prewarm/common"
)

// TestWatchForwardsNotifications tests that Watch delivers pushed
// notifications and skips call responses that share the stream.
func TestWatchForwardsNotifications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := cws.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		// A call response first, which the watcher must skip.
		conn.Write(ctx, cws.MessageText,
			[]byte(`{"jsonrpc":"2.0","id":7,"result":{}}`))
		conn.Write(ctx, cws.MessageText,
			[]byte(`{"jsonrpc":"2.0","method":"preload.complete","params":{"url":"a.mp4"}}`))
		conn.Close(cws.StatusNormalClosure, "")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type push struct {
		method string
		params json.RawMessage
	}
	got := make(chan push, 4)
	addr := strings.TrimPrefix(srv.URL, "http://")
	go func() {
		_ = Watch(ctx, addr, func(method string, params json.RawMessage) {
			got <- push{method, params}
		})
	}()

	select {
	case p := <-got:
		if p.method != common.NotifyComplete {
			t.Fatalf("expected %s, got %s", common.NotifyComplete, p.method)
		}
		var note common.CompleteNotification
		if err := json.Unmarshal(p.params, &note); err != nil || note.URL != "a.mp4" {
			t.Fatalf("unexpected params %s (%v)", p.params, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for notification")
	}

	select {
	case p := <-got:
		t.Fatalf("unexpected extra push %+v", p)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestWatchDialFailure tests the error path when no daemon listens.
func TestWatchDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := Watch(ctx, "127.0.0.1:1", func(string, json.RawMessage) {}); err == nil {
		t.Fatalf("expected dial error")
	}
}
