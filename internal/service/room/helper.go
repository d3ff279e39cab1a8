package room

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// lockRoom locks the room's mutex, creating the entry on demand. Entries are
// removed when the room is deleted and when a request discovers the id names
// no room (discardRoomLock), so the map only ever holds ids of live rooms.
// Deleting an entry while another goroutine waits on its mutex is safe here
// because ids are random and never reused: a waiter holding a discarded mutex
// re-reads the room and finds it gone, same as the goroutine that discarded it.
func (s *service) lockRoom(roomId string) func() {
	v, _ := s.roomLocks.LoadOrStore(roomId, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

// discardRoomLock drops the lock entry for an id that turned out to name no
// room. Ids are caller-chosen on join and mutations, so without this a client
// could grow the lock map without bound by naming rooms that never existed.
func (s *service) discardRoomLock(roomId string) {
	s.roomLocks.Delete(roomId)
}

func (s *service) getConns(ctx context.Context, memberIds []string) []*websocket.Conn {
	conns := make([]*websocket.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			// member is mid-disconnect, its own teardown handles it
			s.logger.DebugContext(ctx, "no conn for member", "conn_id", memberId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}

func (s *service) getConnsByRoomId(ctx context.Context, roomId string) ([]*websocket.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	return s.getConns(ctx, memberIds), nil
}
