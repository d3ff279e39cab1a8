package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchlock/server/internal/service/room"
)

type createRoomInput struct {
	VideoUrl string `json:"videoUrl" validate:"required"`
}

type roomCreatedOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	RoomId  string `json:"roomId,omitempty"`
	IsHost  bool   `json:"isHost"`
}

func (c controller) handleCreateRoom(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input createRoomInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "invalid create-room payload", "error", err)
		return c.writeToConn(ctx, conn, &Output{
			Type:    evRoomCreated,
			Payload: roomCreatedOutput{Success: false, Error: err.Error()},
		})
	}

	createRoomResp, err := c.roomService.CreateRoom(ctx, &room.CreateRoomParams{
		VideoUrl:  input.VideoUrl,
		CreatorId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to create room", "error", err)
		return c.writeToConn(ctx, conn, &Output{
			Type:    evRoomCreated,
			Payload: roomCreatedOutput{Success: false, Error: "failed to create room"},
		})
	}

	return c.writeToConn(ctx, conn, &Output{
		Type: evRoomCreated,
		Payload: roomCreatedOutput{
			Success: true,
			RoomId:  createRoomResp.RoomId,
			IsHost:  true,
		},
	})
}

type joinRoomInput struct {
	RoomId string `json:"roomId" validate:"required"`
}

type roomJoinedOutput struct {
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	RoomState *room.RoomState `json:"roomState,omitempty"`
}

type userCountOutput struct {
	UserCount int `json:"userCount"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input joinRoomInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "invalid join-room payload", "error", err)
		return c.writeToConn(ctx, conn, &Output{
			Type:    evRoomJoined,
			Payload: roomJoinedOutput{Success: false, Error: err.Error()},
		})
	}

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		// a missing room is a user-visible outcome, not a server fault
		c.logger.DebugContext(ctx, "failed to join room", "room_id", input.RoomId, "error", err)

		message := "failed to join room"
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			message = "room not found"
		case errors.Is(err, room.ErrRoomFull):
			message = "room is full"
		case errors.Is(err, room.ErrAlreadyInRoom):
			message = "already in a room"
		}

		return c.writeToConn(ctx, conn, &Output{
			Type:    evRoomJoined,
			Payload: roomJoinedOutput{Success: false, Error: message},
		})
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: evRoomJoined,
		Payload: roomJoinedOutput{
			Success:   true,
			RoomState: &joinRoomResp.RoomState,
		},
	}); err != nil {
		return err
	}

	c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type:    evUserCount,
		Payload: userCountOutput{UserCount: joinRoomResp.RoomState.UserCount},
	})

	return nil
}

type playbackInput struct {
	RoomId      string  `json:"roomId" validate:"required"`
	CurrentTime float64 `json:"currentTime" validate:"gte=0"`
}

type playbackOutput struct {
	CurrentTime float64 `json:"currentTime"`
}

// isSilentDrop reports whether a rejected mutation should vanish without a
// reply. Silence is the signal for unauthorized senders.
func isSilentDrop(err error) bool {
	return errors.Is(err, room.ErrPermissionDenied) || errors.Is(err, room.ErrRoomNotFound)
}

func (c controller) handlePlay(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return c.handlePlayerState(ctx, payload, true, evPlay)
}

func (c controller) handlePause(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return c.handlePlayerState(ctx, payload, false, evPause)
}

func (c controller) handlePlayerState(ctx context.Context, payload json.RawMessage, isPlaying bool, eventType string) error {
	var input playbackInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "invalid playback payload", "error", err)
		return nil
	}

	updateResp, err := c.roomService.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		RoomId:      input.RoomId,
		SenderId:    c.getConnIdFromCtx(ctx),
		CurrentTime: input.CurrentTime,
		IsPlaying:   isPlaying,
	})
	if err != nil {
		if isSilentDrop(err) {
			c.logger.DebugContext(ctx, "playback mutation dropped", "room_id", input.RoomId, "error", err)
			return nil
		}

		return fmt.Errorf("failed to update player state: %w", err)
	}

	c.broadcast(ctx, updateResp.Conns, &Output{
		Type:    eventType,
		Payload: playbackOutput{CurrentTime: updateResp.CurrentTime},
	})

	return nil
}

func (c controller) handleSeek(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input playbackInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "invalid seek payload", "error", err)
		return nil
	}

	seekResp, err := c.roomService.SeekPlayer(ctx, &room.SeekPlayerParams{
		RoomId:      input.RoomId,
		SenderId:    c.getConnIdFromCtx(ctx),
		CurrentTime: input.CurrentTime,
	})
	if err != nil {
		if isSilentDrop(err) {
			c.logger.DebugContext(ctx, "seek dropped", "room_id", input.RoomId, "error", err)
			return nil
		}

		return fmt.Errorf("failed to seek player: %w", err)
	}

	c.broadcast(ctx, seekResp.Conns, &Output{
		Type:    evSeek,
		Payload: playbackOutput{CurrentTime: seekResp.CurrentTime},
	})

	return nil
}

type fullscreenInput struct {
	RoomId       string `json:"roomId" validate:"required"`
	IsFullscreen bool   `json:"isFullscreen"`
}

type fullscreenOutput struct {
	IsFullscreen bool `json:"isFullscreen"`
}

func (c controller) handleFullscreen(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input fullscreenInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "invalid fullscreen payload", "error", err)
		return nil
	}

	fullscreenResp, err := c.roomService.UpdateFullscreen(ctx, &room.UpdateFullscreenParams{
		RoomId:       input.RoomId,
		SenderId:     c.getConnIdFromCtx(ctx),
		IsFullscreen: input.IsFullscreen,
	})
	if err != nil {
		if isSilentDrop(err) {
			c.logger.DebugContext(ctx, "fullscreen dropped", "room_id", input.RoomId, "error", err)
			return nil
		}

		return fmt.Errorf("failed to update fullscreen: %w", err)
	}

	c.broadcast(ctx, fullscreenResp.Conns, &Output{
		Type:    evFullscreen,
		Payload: fullscreenOutput{IsFullscreen: fullscreenResp.IsFullscreen},
	})

	return nil
}
