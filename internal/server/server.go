// Package server exposes the prewarm scheduler to page scripts over
// JSON-RPC 2.0: a plain HTTP bridge for request/response calls and a
// websocket endpoint that additionally streams push notifications.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
)

// Server is the daemon's HTTP front. It mounts the jhttp bridge at
// /rpc and the websocket RPC at /rpc/ws, binding to localhost only;
// the site's pages reach it through same-host proxying in development
// and the edge in production.
type Server struct {
	log      *log.Logger
	rpc      *RPCServer
	notifier *RPCNotifier
	port     int
	server   *http.Server
	mu       sync.Mutex
}

// NewServer creates a server around an RPCServer and its notifier.
func NewServer(l *log.Logger, rpc *RPCServer, notifier *RPCNotifier, port int) *Server {
	return &Server{
		log:      l,
		rpc:      rpc,
		notifier: notifier,
		port:     port,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", s.port)
}

// Start listens and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/rpc", s.rpc.bridge)
	mux.HandleFunc("/rpc/ws", s.handleWS)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.Addr(),
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	s.log.Printf("rpc listening on %s", s.Addr())
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and closes the bridge.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.rpc.Close()
	return err
}

// handleWS upgrades the connection and runs a dedicated jrpc2 server
// over it, registered with the notifier for pushes until it ends.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, &cws.AcceptOptions{
		// Pages are served from the same site; the daemon itself is
		// loopback-only, so cross-origin checks stay default.
	})
	if err != nil {
		s.log.Printf("ws accept: %v", err)
		return
	}
	ch := &wsChannel{conn: conn, ctx: r.Context()}
	srv := jrpc2.NewServer(s.rpc.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)
	s.notifier.Register(srv)
	defer s.notifier.Unregister(srv)
	srv.Wait()
}
