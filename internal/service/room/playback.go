package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchlock/server/internal/repository/room"
)

// getRoomForMutation runs the authority gate: the room must exist and the
// sender must be its host. Everything else is ErrPermissionDenied.
func (s *service) getRoomForMutation(ctx context.Context, roomId, senderId string) (room.Room, error) {
	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			s.discardRoomLock(roomId)
			return room.Room{}, ErrRoomNotFound
		}

		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if !canMutate(r, senderId) {
		return room.Room{}, ErrPermissionDenied
	}

	return r, nil
}

type UpdatePlayerStateParams struct {
	RoomId      string
	SenderId    string
	CurrentTime float64
	IsPlaying   bool
}

type UpdatePlayerStateResponse struct {
	CurrentTime float64
	IsPlaying   bool
	Conns       []*websocket.Conn
}

// UpdatePlayerState applies a host play or pause: both the flag and the
// position are taken from the host's report.
func (s *service) UpdatePlayerState(ctx context.Context, params *UpdatePlayerStateParams) (UpdatePlayerStateResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	if _, err := s.getRoomForMutation(ctx, params.RoomId, params.SenderId); err != nil {
		return UpdatePlayerStateResponse{}, err
	}

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		RoomId:      params.RoomId,
		CurrentTime: params.CurrentTime,
		IsPlaying:   params.IsPlaying,
	}); err != nil {
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return UpdatePlayerStateResponse{
		CurrentTime: params.CurrentTime,
		IsPlaying:   params.IsPlaying,
		Conns:       conns,
	}, nil
}

type SeekPlayerParams struct {
	RoomId      string
	SenderId    string
	CurrentTime float64
}

type SeekPlayerResponse struct {
	CurrentTime float64
	Conns       []*websocket.Conn
}

// SeekPlayer moves the position only; whether the room is playing is
// untouched.
func (s *service) SeekPlayer(ctx context.Context, params *SeekPlayerParams) (SeekPlayerResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	r, err := s.getRoomForMutation(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return SeekPlayerResponse{}, err
	}

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		RoomId:      params.RoomId,
		CurrentTime: params.CurrentTime,
		IsPlaying:   r.IsPlaying,
	}); err != nil {
		return SeekPlayerResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SeekPlayerResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return SeekPlayerResponse{
		CurrentTime: params.CurrentTime,
		Conns:       conns,
	}, nil
}

type UpdateFullscreenParams struct {
	RoomId       string
	SenderId     string
	IsFullscreen bool
}

type UpdateFullscreenResponse struct {
	IsFullscreen bool
	Conns        []*websocket.Conn
}

// UpdateFullscreen is gated like any other mutation but persists nothing:
// fullscreen is a transient signal, not room state.
func (s *service) UpdateFullscreen(ctx context.Context, params *UpdateFullscreenParams) (UpdateFullscreenResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	if _, err := s.getRoomForMutation(ctx, params.RoomId, params.SenderId); err != nil {
		return UpdateFullscreenResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return UpdateFullscreenResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return UpdateFullscreenResponse{
		IsFullscreen: params.IsFullscreen,
		Conns:        conns,
	}, nil
}
