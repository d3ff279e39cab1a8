package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/watchlock/server/internal/service/room"
	"github.com/watchlock/server/pkg/ctxlogger"
)

// serveWS upgrades the request and runs the message loop for one
// participant. The connection id minted here is the participant's identity
// for the whole session; the transport object never leaves this layer.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	// dropped after Close, when no broadcast can reach this conn anymore
	defer c.connWriteLocks.Delete(conn)
	defer conn.Close()

	connId := uuid.NewString()

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", connId))
	ctx = context.WithValue(ctx, connIdCtxKey, connId)

	if err := c.roomService.Connect(ctx, &room.ConnectParams{
		Conn:   conn,
		ConnId: connId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to register conn", "error", err)
		return
	}
	defer c.disconnect(ctx, connId)

	// the client needs its own id to evaluate host-changed broadcasts
	if err := c.writeToConn(ctx, conn, &Output{
		Type:    evConnected,
		Payload: connectedOutput{ConnId: connId},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write connected message", "error", err)
		return
	}

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

// disconnect runs the teardown side of the session exactly once and tells
// the survivors what changed.
func (c controller) disconnect(ctx context.Context, connId string) {
	disconnectResp, err := c.roomService.Disconnect(ctx, &room.DisconnectParams{ConnId: connId})
	if err != nil {
		c.logger.DebugContext(ctx, "disconnect already processed", "error", err)
		return
	}

	if disconnectResp.RoomId == "" || disconnectResp.IsRoomDeleted {
		return
	}

	if disconnectResp.NewHostId != "" {
		c.broadcast(ctx, disconnectResp.Conns, &Output{
			Type:    evHostChanged,
			Payload: hostChangedOutput{NewHostId: disconnectResp.NewHostId},
		})
	}

	c.broadcast(ctx, disconnectResp.Conns, &Output{
		Type:    evUserCount,
		Payload: userCountOutput{UserCount: disconnectResp.UserCount},
	})
}

type connectedOutput struct {
	ConnId string `json:"connId"`
}

type hostChangedOutput struct {
	NewHostId string `json:"newHostId"`
}

type roomClosedOutput struct {
	Reason string `json:"reason"`
}

// NotifyShutdown tells every live room the session is over. Called from the
// graceful shutdown path before the listener stops.
func (c controller) NotifyShutdown(ctx context.Context) {
	shutdownResp, err := c.roomService.Shutdown(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to collect conns for shutdown", "error", err)
		return
	}

	c.broadcast(ctx, shutdownResp.Conns, &Output{
		Type:    evRoomClosed,
		Payload: roomClosedOutput{Reason: "server shutting down"},
	})
}
