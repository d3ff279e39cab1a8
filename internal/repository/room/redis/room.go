package redis

import (
	"context"
	"fmt"

	"github.com/watchlock/server/internal/repository/room"
)

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) getRoomsKey() string {
	return "rooms"
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	pipe := r.rc.TxPipeline()

	roomKey := r.getRoomKey(params.RoomId)
	pipe.HSet(ctx, roomKey,
		"video_url", params.VideoUrl,
		"current_time", params.CurrentTime,
		"is_playing", params.IsPlaying,
		"host_id", params.HostId,
		"created_at", params.CreatedAt,
	)
	pipe.Expire(ctx, roomKey, r.expireDuration)
	pipe.SAdd(ctx, r.getRoomsKey(), params.RoomId)

	r.addMemberToList(ctx, pipe, params.RoomId, params.HostId)
	r.setMemberRoomId(ctx, pipe, params.HostId, params.RoomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	roomKey := r.getRoomKey(roomId)
	cmd := r.rc.HGetAll(ctx, roomKey)
	if err := cmd.Err(); err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	var res room.Room
	if err := cmd.Scan(&res); err != nil {
		return room.Room{}, fmt.Errorf("failed to scan room: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return res, nil
}

func (r repo) RoomExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) RemoveRoom(ctx context.Context, roomId string) error {
	pipe := r.rc.TxPipeline()

	pipe.Del(ctx, r.getRoomKey(roomId))
	pipe.Del(ctx, r.getMemberListKey(roomId))
	pipe.SRem(ctx, r.getRoomsKey(), roomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	return nil
}

func (r repo) GetRoomIds(ctx context.Context) ([]string, error) {
	roomIds, err := r.rc.SMembers(ctx, r.getRoomsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room ids: %w", err)
	}

	return roomIds, nil
}

func (r repo) UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) error {
	roomKey := r.getRoomKey(params.RoomId)
	cmd := r.rc.Exists(ctx, roomKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, roomKey,
		"current_time", params.CurrentTime,
		"is_playing", params.IsPlaying,
	).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return nil
}

func (r repo) UpdateRoomHost(ctx context.Context, roomId, hostId string) error {
	roomKey := r.getRoomKey(roomId)
	cmd := r.rc.Exists(ctx, roomKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, roomKey, "host_id", hostId).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return nil
}
