package room

import (
	"github.com/watchlock/server/internal/repository/room"
)

// canMutate is the whole authority model: only the connection currently
// recorded as host may change a room's playback state. Callers translate a
// false result into a silent drop, never an error sent back to the sender.
func canMutate(r room.Room, connId string) bool {
	return r.HostId == connId
}
