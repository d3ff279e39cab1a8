package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// writeToConn holds the conn's write mutex for the duration of the write;
// the entry lives until serveWS drops it after closing the conn.
func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) error {
	v, _ := c.connWriteLocks.LoadOrStore(conn, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if err := conn.WriteJSON(output); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// broadcast delivers output to every conn, the originator included: the
// host's own UI mirrors the server-confirmed state, not its local guess.
// A failed write means that member's connection is dying; its own teardown
// deals with it.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
		}
	}
}
