package warmcli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skyreel/prewarm/common"
	"github.com/skyreel/prewarm/pkg/warmlib"
)

// fakeDaemon serves canned JSON-RPC responses at /rpc and records the
// requests it saw.
type fakeDaemon struct {
	t        *testing.T
	requests []rpcRequest
	results  map[string]any
	errFor   map[string]*rpcError
}

func newFakeDaemon(t *testing.T) (*fakeDaemon, *Client, func()) {
	t.Helper()
	fd := &fakeDaemon{
		t:       t,
		results: make(map[string]any),
		errFor:  make(map[string]*rpcError),
	}
	srv := httptest.NewServer(fd)
	addr := strings.TrimPrefix(srv.URL, "http://")
	return fd, NewClient(addr), srv.Close
}

func (fd *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rpc" {
		fd.t.Errorf("unexpected path %s", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fd.t.Errorf("decode request: %v", err)
		return
	}
	fd.requests = append(fd.requests, req)

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr, ok := fd.errFor[req.Method]; ok {
		resp["error"] = rpcErr
	} else if res, ok := fd.results[req.Method]; ok {
		resp["result"] = res
	} else {
		resp["result"] = map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (fd *fakeDaemon) lastRequest(t *testing.T) rpcRequest {
	t.Helper()
	if len(fd.requests) == 0 {
		t.Fatalf("no requests recorded")
	}
	return fd.requests[len(fd.requests)-1]
}

func TestClientStatus(t *testing.T) {
	fd, c, cleanup := newFakeDaemon(t)
	defer cleanup()
	fd.results[common.MethodGetStatus] = map[string]any{
		"total": 5, "completed": 2, "inFlight": 1, "pending": 2, "percentComplete": 40.0,
	}

	st, err := c.Status()
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if st.Total != 5 || st.Completed != 2 || st.InFlight != 1 || st.PercentComplete != 40 {
		t.Fatalf("unexpected status %+v", st)
	}
	if got := fd.lastRequest(t).Method; got != common.MethodGetStatus {
		t.Fatalf("expected method %s, got %s", common.MethodGetStatus, got)
	}
}

func TestClientScanSendsParams(t *testing.T) {
	fd, c, cleanup := newFakeDaemon(t)
	defer cleanup()
	fd.results[common.MethodScan] = map[string]any{"added": 3}

	res, err := c.Scan("https://skyreel.test/portfolio.html", "<video src='a.mp4'></video>")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if res.Added != 3 {
		t.Fatalf("expected 3 added, got %d", res.Added)
	}

	req := fd.lastRequest(t)
	raw, _ := json.Marshal(req.Params)
	var p common.ScanParams
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	if p.Location != "https://skyreel.test/portfolio.html" || p.HTML == "" {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestClientReportMethods(t *testing.T) {
	fd, c, cleanup := newFakeDaemon(t)
	defer cleanup()

	calls := []struct {
		do     func() error
		method string
	}{
		{func() error { return c.ReportPlaybackStart("u") }, common.MethodPlaybackStart},
		{func() error { return c.ReportPlaybackStop("u") }, common.MethodPlaybackStop},
		{func() error { return c.Navigate("https://skyreel.test/") }, common.MethodNavigate},
		{func() error { return c.ClearState() }, common.MethodClearState},
		{func() error { return c.AddElement(warmlib.MediaElement{URL: "u"}) }, common.MethodAddElement},
		{func() error { return c.ReportModalOpen(warmlib.MediaElement{URL: "u"}) }, common.MethodModalOpen},
	}
	for _, call := range calls {
		if err := call.do(); err != nil {
			t.Fatalf("%s failed: %v", call.method, err)
		}
		if got := fd.lastRequest(t).Method; got != call.method {
			t.Fatalf("expected method %s, got %s", call.method, got)
		}
	}
}

func TestClientSurfacesRPCError(t *testing.T) {
	fd, c, cleanup := newFakeDaemon(t)
	defer cleanup()
	fd.errFor[common.MethodNavigate] = &rpcError{Code: -32602, Message: "missing required param: location"}

	err := c.Navigate("")
	if err == nil {
		t.Fatalf("expected rpc error")
	}
	if !strings.Contains(err.Error(), "missing required param") {
		t.Fatalf("expected error message to surface, got %v", err)
	}
}

func TestClientDump(t *testing.T) {
	fd, c, cleanup := newFakeDaemon(t)
	defer cleanup()
	fd.results[common.MethodDump] = map[string]any{
		"entries": []map[string]any{
			{"url": "a.mp4", "priority": 1000, "state": "downloading", "origin": "page", "progress": 0.5},
		},
	}

	res, err := c.Dump()
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].URL != "a.mp4" || res.Entries[0].Priority != 1000 {
		t.Fatalf("unexpected dump %+v", res)
	}
}

func TestClientRequestIDsIncrease(t *testing.T) {
	fd, c, cleanup := newFakeDaemon(t)
	defer cleanup()

	c.Status()
	c.Status()
	if len(fd.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(fd.requests))
	}
	if fd.requests[1].ID <= fd.requests[0].ID {
		t.Fatalf("expected increasing ids, got %d then %d", fd.requests[0].ID, fd.requests[1].ID)
	}
}
