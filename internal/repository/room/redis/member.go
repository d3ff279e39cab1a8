package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/watchlock/server/internal/repository/room"
)

func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":members"
}

func (r repo) getMemberRoomKey(memberId string) string {
	return "conn:" + memberId + ":room"
}

func (r repo) addMemberToList(ctx context.Context, pipe redis.Pipeliner, roomId, memberId string) {
	memberListKey := r.getMemberListKey(roomId)

	r.addWithIncrement(ctx, pipe, memberListKey, memberId)
	pipe.Expire(ctx, memberListKey, r.expireDuration)
}

func (r repo) setMemberRoomId(ctx context.Context, pipe redis.Pipeliner, memberId, roomId string) {
	pipe.Set(ctx, r.getMemberRoomKey(memberId), roomId, r.expireDuration)
}

func (r repo) AddMember(ctx context.Context, params *room.AddMemberParams) error {
	exists, err := r.RoomExists(ctx, params.RoomId)
	if err != nil {
		return err
	}

	if !exists {
		return room.ErrRoomNotFound
	}

	pipe := r.rc.TxPipeline()

	r.addMemberToList(ctx, pipe, params.RoomId, params.MemberId)
	r.setMemberRoomId(ctx, pipe, params.MemberId, params.RoomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	pipe := r.rc.TxPipeline()

	pipe.ZRem(ctx, r.getMemberListKey(params.RoomId), params.MemberId)
	pipe.Del(ctx, r.getMemberRoomKey(params.MemberId))

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// GetMemberIds returns member ids in join order, earliest first.
func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	memberListKey := r.getMemberListKey(roomId)
	memberIds, err := r.rc.ZRange(ctx, memberListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	r.rc.Expire(ctx, memberListKey, r.expireDuration)

	return memberIds, nil
}

func (r repo) GetMemberRoomId(ctx context.Context, memberId string) (string, error) {
	roomId, err := r.rc.Get(ctx, r.getMemberRoomKey(memberId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", room.ErrMemberNotFound
		}

		return "", fmt.Errorf("failed to get member room id: %w", err)
	}

	return roomId, nil
}
