package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchlock/server/internal/repository/connection"
	"github.com/watchlock/server/internal/repository/room"
)

type ConnectParams struct {
	Conn   *websocket.Conn
	ConnId string
}

func (s *service) Connect(ctx context.Context, params *ConnectParams) error {
	if err := s.connRepo.Add(params.Conn, params.ConnId); err != nil {
		return fmt.Errorf("failed to register conn: %w", err)
	}

	return nil
}

type DisconnectParams struct {
	ConnId string
}

type DisconnectResponse struct {
	RoomId        string
	IsRoomDeleted bool
	// NewHostId is set only when the departing connection was host and a
	// successor was elected.
	NewHostId string
	UserCount int
	Conns     []*websocket.Conn
}

// Disconnect tears a connection down exactly once. Membership removal, host
// reassignment and room deletion happen under the room lock, so a pending
// mutation from the departing connection can only ever observe the state
// after it lost authority.
func (s *service) Disconnect(ctx context.Context, params *DisconnectParams) (DisconnectResponse, error) {
	if _, err := s.connRepo.RemoveByConnId(params.ConnId); err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			// already processed
			return DisconnectResponse{}, err
		}

		return DisconnectResponse{}, fmt.Errorf("failed to remove conn: %w", err)
	}

	roomId, err := s.roomRepo.GetMemberRoomId(ctx, params.ConnId)
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			// connected but never entered a room
			return DisconnectResponse{}, nil
		}

		return DisconnectResponse{}, fmt.Errorf("failed to get member room id: %w", err)
	}

	unlock := s.lockRoom(roomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		RoomId:   roomId,
		MemberId: params.ConnId,
	}); err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	if len(memberIds) == 0 {
		if err := s.roomRepo.RemoveRoom(ctx, roomId); err != nil {
			return DisconnectResponse{}, fmt.Errorf("failed to remove room: %w", err)
		}
		s.roomLocks.Delete(roomId)

		s.logger.InfoContext(ctx, "room deleted", "room_id", roomId)

		return DisconnectResponse{
			RoomId:        roomId,
			IsRoomDeleted: true,
		}, nil
	}

	var newHostId string
	if r.HostId == params.ConnId {
		newHostId, err = s.electHost(ctx, roomId, memberIds)
		if err != nil {
			return DisconnectResponse{}, err
		}
	}

	s.logger.InfoContext(ctx, "member disconnected",
		"room_id", roomId,
		"conn_id", params.ConnId,
		"new_host_id", newHostId,
		"user_count", len(memberIds),
	)

	return DisconnectResponse{
		RoomId:    roomId,
		NewHostId: newHostId,
		UserCount: len(memberIds),
		Conns:     s.getConns(ctx, memberIds),
	}, nil
}

// electHost hands control to the earliest-joined remaining member. memberIds
// comes from the join-ordered member list, so the successor is deterministic.
func (s *service) electHost(ctx context.Context, roomId string, memberIds []string) (string, error) {
	newHostId := memberIds[0]
	if err := s.roomRepo.UpdateRoomHost(ctx, roomId, newHostId); err != nil {
		return "", fmt.Errorf("failed to update room host: %w", err)
	}

	s.logger.InfoContext(ctx, "host migrated", "room_id", roomId, "new_host_id", newHostId)

	return newHostId, nil
}
