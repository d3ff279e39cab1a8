package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchlock/server/internal/repository/room"
)

type CreateRoomParams struct {
	VideoUrl  string
	CreatorId string
}

type CreateRoomResponse struct {
	RoomId string
}

// checkNotInRoom enforces single-room membership for a connection.
func (s *service) checkNotInRoom(ctx context.Context, connId string) error {
	if _, err := s.roomRepo.GetMemberRoomId(ctx, connId); err == nil {
		return ErrAlreadyInRoom
	} else if !errors.Is(err, room.ErrMemberNotFound) {
		return fmt.Errorf("failed to get member room id: %w", err)
	}

	return nil
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	if err := s.checkNotInRoom(ctx, params.CreatorId); err != nil {
		return CreateRoomResponse{}, err
	}

	var roomId string
	for {
		roomId = s.generator.GenerateRandomString(roomIdLength)
		exists, err := s.roomRepo.RoomExists(ctx, roomId)
		if err != nil {
			return CreateRoomResponse{}, fmt.Errorf("failed to check room id: %w", err)
		}

		if !exists {
			break
		}
	}

	unlock := s.lockRoom(roomId)
	defer unlock()

	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:      roomId,
		VideoUrl:    params.VideoUrl,
		CurrentTime: 0,
		IsPlaying:   false,
		HostId:      params.CreatorId,
		CreatedAt:   s.clock.Now().Unix(),
	}); err != nil {
		s.discardRoomLock(roomId)
		return CreateRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "host_id", params.CreatorId)

	return CreateRoomResponse{RoomId: roomId}, nil
}

type JoinRoomParams struct {
	RoomId string
	ConnId string
}

type JoinRoomResponse struct {
	RoomState RoomState
	Conns     []*websocket.Conn
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if err := s.checkNotInRoom(ctx, params.ConnId); err != nil {
		return JoinRoomResponse{}, err
	}

	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			s.discardRoomLock(params.RoomId)
			return JoinRoomResponse{}, ErrRoomNotFound
		}

		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	if len(memberIds) >= s.membersLimit {
		return JoinRoomResponse{}, ErrRoomFull
	}

	if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomId:   params.RoomId,
		MemberId: params.ConnId,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	userCount := len(memberIds) + 1
	conns := s.getConns(ctx, append(memberIds, params.ConnId))

	s.logger.InfoContext(ctx, "member joined", "room_id", params.RoomId, "conn_id", params.ConnId, "user_count", userCount)

	return JoinRoomResponse{
		RoomState: RoomState{
			VideoUrl:    r.VideoUrl,
			CurrentTime: r.CurrentTime,
			IsPlaying:   r.IsPlaying,
			IsHost:      r.HostId == params.ConnId,
			UserCount:   userCount,
		},
		Conns: conns,
	}, nil
}

type RoomInfoResponse struct {
	UserCount int
}

func (s *service) GetRoomInfo(ctx context.Context, roomId string) (RoomInfoResponse, error) {
	exists, err := s.roomRepo.RoomExists(ctx, roomId)
	if err != nil {
		return RoomInfoResponse{}, fmt.Errorf("failed to check room: %w", err)
	}

	if !exists {
		return RoomInfoResponse{}, ErrRoomNotFound
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return RoomInfoResponse{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	return RoomInfoResponse{UserCount: len(memberIds)}, nil
}

type ShutdownResponse struct {
	Conns []*websocket.Conn
}

// Shutdown collects every live connection so the caller can tell each room
// the session is over before the server stops accepting traffic.
func (s *service) Shutdown(ctx context.Context) (ShutdownResponse, error) {
	roomIds, err := s.roomRepo.GetRoomIds(ctx)
	if err != nil {
		return ShutdownResponse{}, fmt.Errorf("failed to get room ids: %w", err)
	}

	var conns []*websocket.Conn
	for _, roomId := range roomIds {
		unlock := s.lockRoom(roomId)
		roomConns, err := s.getConnsByRoomId(ctx, roomId)
		unlock()
		if err != nil {
			s.logger.WarnContext(ctx, "failed to get conns for room", "room_id", roomId, "error", err)
			continue
		}

		conns = append(conns, roomConns...)
	}

	return ShutdownResponse{Conns: conns}, nil
}
