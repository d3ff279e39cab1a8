package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/watchlock/server/internal/repository/room"
	"github.com/watchlock/server/pkg/randstr"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMemberNotFound   = errors.New("member not found")
	ErrAlreadyInRoom    = errors.New("already in a room")
)

// roomIdLength of 12 over a 62-char alphabet gives ~71 bits of entropy,
// enough to make collisions with live rooms negligible.
const roomIdLength = 12

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	RoomExists(context.Context, string) (bool, error)
	RemoveRoom(context.Context, string) error
	GetRoomIds(context.Context) ([]string, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	UpdateRoomHost(ctx context.Context, roomId string, hostId string) error
	// member
	AddMember(context.Context, *room.AddMemberParams) error
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	GetMemberIds(context.Context, string) ([]string, error)
	GetMemberRoomId(context.Context, string) (string, error)
}

type iConnRepo interface {
	Add(*websocket.Conn, string) error
	RemoveByConnId(string) (*websocket.Conn, error)
	GetConnId(*websocket.Conn) (string, error)
	GetConn(string) (*websocket.Conn, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	MembersLimit int
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	generator    iGenerator
	clock        clockwork.Clock
	logger       *slog.Logger
	membersLimit int

	// one mutex per live room; every read-modify-write on a room happens
	// under its mutex so no one observes a half-applied membership change
	roomLocks sync.Map
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, clock clockwork.Clock, logger *slog.Logger, cfg *Config) *service {
	s := service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		clock:        clock,
		logger:       logger,
		membersLimit: cfg.MembersLimit,
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
