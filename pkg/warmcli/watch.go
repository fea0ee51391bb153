package warmcli

import (
	"context"
	"encoding/json"
	"fmt"

	cws "github.com/coder/websocket"
)

// NotifyFunc receives one push notification from the daemon.
type NotifyFunc func(method string, params json.RawMessage)

// notification is the JSON-RPC 2.0 notification envelope.
type notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	// ID distinguishes call responses from notifications; responses
	// that arrive on the stream are ignored.
	ID json.RawMessage `json:"id"`
}

// Watch connects to the daemon's websocket endpoint and forwards push
// notifications to fn until ctx is canceled or the connection drops.
func Watch(ctx context.Context, addr string, fn NotifyFunc) error {
	url := fmt.Sprintf("ws://%s/rpc/ws", addr)
	conn, _, err := cws.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("watch dial: %w", err)
	}
	defer conn.Close(cws.StatusNormalClosure, "")
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var n notification
		if err := json.Unmarshal(data, &n); err != nil || n.Method == "" || n.ID != nil {
			continue
		}
		fn(n.Method, n.Params)
	}
}
