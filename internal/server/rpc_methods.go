package server

import (
	"context"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/skyreel/prewarm/common"
	"github.com/skyreel/prewarm/pkg/warmlib"
)

// Custom JSON-RPC error codes for preload operations.
const (
	codeInvalidParams = jrpc2.Code(-32602)
	codeBadDocument   = jrpc2.Code(-32001)
)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Version   string // Daemon version
	Commit    string // Git commit
	BuildType string // Build type
}

// RPCServer exposes the scheduler to page scripts over JSON-RPC 2.0.
// The same method map serves the HTTP bridge and the per-connection
// websocket servers.
type RPCServer struct {
	bridge    jhttp.Bridge
	methods   handler.Map
	sched     *warmlib.Scheduler
	version   string
	commit    string
	buildType string
}

// NewRPCServer creates an RPCServer with its method handlers and HTTP
// bridge over the given scheduler.
func NewRPCServer(cfg *RPCConfig, sched *warmlib.Scheduler) *RPCServer {
	rs := &RPCServer{
		sched:     sched,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
	}
	rs.methods = handler.Map{
		common.MethodScan:          handler.New(rs.preloadScan),
		common.MethodAddElement:    handler.New(rs.preloadAddElement),
		common.MethodNavigate:      handler.New(rs.preloadNavigate),
		common.MethodPlaybackStart: handler.New(rs.preloadPlaybackStart),
		common.MethodPlaybackStop:  handler.New(rs.preloadPlaybackStop),
		common.MethodModalOpen:     handler.New(rs.preloadModalOpen),
		common.MethodGetStatus:     handler.New(rs.preloadGetStatus),
		common.MethodDump:          handler.New(rs.preloadDump),
		common.MethodClearState:    handler.New(rs.preloadClearState),
		common.MethodVersion:       handler.New(rs.systemGetVersion),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResult, error) {
	return &common.VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
	}, nil
}

// preloadScan runs discovery over a posted page document. When the
// request names the document location, the page context is updated
// first so the scan's entries score against the right page.
func (rs *RPCServer) preloadScan(_ context.Context, p *common.ScanParams) (*common.ScanResult, error) {
	if p.HTML == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: html"}
	}
	if p.Location != "" {
		rs.sched.Navigate(p.Location)
	}
	added, err := rs.sched.ScanDocument(strings.NewReader(p.HTML))
	if err != nil {
		return nil, &jrpc2.Error{Code: codeBadDocument, Message: "scan: " + err.Error()}
	}
	return &common.ScanResult{Added: added}, nil
}

func (rs *RPCServer) preloadAddElement(_ context.Context, p *common.ElementParams) (*common.EmptyResult, error) {
	if err := rs.sched.AddElement(p.Element); err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) preloadNavigate(_ context.Context, p *common.NavigateParams) (*common.EmptyResult, error) {
	if p.Location == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: location"}
	}
	rs.sched.Navigate(p.Location)
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) preloadPlaybackStart(_ context.Context, p *common.URLParams) (*common.EmptyResult, error) {
	if p.URL == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: url"}
	}
	rs.sched.ReportPlaybackStart(p.URL)
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) preloadPlaybackStop(_ context.Context, p *common.URLParams) (*common.EmptyResult, error) {
	if p.URL == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: url"}
	}
	rs.sched.ReportPlaybackStop(p.URL)
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) preloadModalOpen(_ context.Context, p *common.ElementParams) (*common.EmptyResult, error) {
	if err := rs.sched.ReportModalOpen(p.Element); err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) preloadGetStatus(_ context.Context) (*common.StatusResult, error) {
	st := rs.sched.GetStatus()
	return &common.StatusResult{
		Total:           st.Total,
		Completed:       st.Completed,
		InFlight:        st.InFlight,
		Pending:         st.Pending,
		Failed:          st.Failed,
		PercentComplete: st.PercentComplete,
	}, nil
}

func (rs *RPCServer) preloadDump(_ context.Context) (*common.DumpResult, error) {
	return &common.DumpResult{Entries: rs.sched.DumpQueue()}, nil
}

func (rs *RPCServer) preloadClearState(_ context.Context) (*common.EmptyResult, error) {
	rs.sched.ClearPersistedState()
	return &common.EmptyResult{}, nil
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
