package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/watchlock/server/internal/service/room"
	"github.com/watchlock/server/pkg/validator"
	"github.com/watchlock/server/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) (room.UpdatePlayerStateResponse, error)
	SeekPlayer(context.Context, *room.SeekPlayerParams) (room.SeekPlayerResponse, error)
	UpdateFullscreen(context.Context, *room.UpdateFullscreenParams) (room.UpdateFullscreenResponse, error)
	Connect(context.Context, *room.ConnectParams) error
	Disconnect(context.Context, *room.DisconnectParams) (room.DisconnectResponse, error)
	GetRoomInfo(ctx context.Context, roomId string) (room.RoomInfoResponse, error)
	Shutdown(context.Context) (room.ShutdownResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter

	// one write mutex per live conn: broadcasts run on the mutating member's
	// goroutine and would otherwise interleave with the target's own reply
	// writes, which the websocket write contract forbids
	connWriteLocks *sync.Map
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService:    roomService,
		validate:       validator.NewValidator(),
		logger:         logger,
		connWriteLocks: &sync.Map{},
	}
	c.wsmux = c.getWSRouter()

	return &c
}
