// Package warmcli is the JSON-RPC client used by the prewarm CLI and
// any tooling that talks to a running daemon.
package warmcli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Client talks JSON-RPC 2.0 to a prewarm daemon's /rpc endpoint.
type Client struct {
	endpoint string
	hc       *http.Client
	nextID   atomic.Int64
}

// NewClient returns a client for the daemon at addr (host:port).
func NewClient(addr string) *Client {
	return &Client{
		endpoint: fmt.Sprintf("http://%s/rpc", addr),
		hc:       &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(&rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	resp, err := c.hc.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	defer resp.Body.Close()
	var res rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return res.Result, nil
}

// invoke calls method and decodes its result into T.
func invoke[T any](c *Client, method string, params any) (*T, error) {
	raw, err := c.call(method, params)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return &out, nil
}
