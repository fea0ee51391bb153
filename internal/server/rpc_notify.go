package server

import (
	"context"
	"log"
	"sync"

	"github.com/creachadair/jrpc2"

	"github.com/skyreel/prewarm/common"
	"github.com/skyreel/prewarm/pkg/warmlib"
)

// RPCNotifier maintains the set of connected websocket jrpc2 servers
// and broadcasts push notifications to all of them. Pages use the
// stream to drive debug overlays; the CLI uses it for status --watch.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     *log.Logger
}

// NewRPCNotifier creates an empty notifier.
func NewRPCNotifier(l *log.Logger) *RPCNotifier {
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     l,
	}
}

// Register adds a server to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to every registered server.
// Servers that fail to receive are dropped from the set.
func (n *RPCNotifier) Broadcast(method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(context.Background(), method, params); err != nil {
			if n.log != nil {
				n.log.Printf("RPC push failed: %v", err)
			}
			failed = append(failed, srv)
		}
	}
	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// Handlers returns scheduler event hooks that broadcast the
// corresponding push notifications.
func (n *RPCNotifier) Handlers() *warmlib.Handlers {
	return &warmlib.Handlers{
		ProgressHandler: func(url string, frac float64) {
			n.Broadcast(common.NotifyProgress, &common.ProgressNotification{URL: url, Progress: frac})
		},
		CompleteHandler: func(url string) {
			n.Broadcast(common.NotifyComplete, &common.CompleteNotification{URL: url})
		},
		ErrorHandler: func(url string, err error) {
			n.Broadcast(common.NotifyFailed, &common.FailedNotification{URL: url, Error: err.Error()})
		},
	}
}
