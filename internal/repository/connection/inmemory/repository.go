package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/watchlock/server/internal/repository/connection"
)

// repo keeps the conn <-> connection-id bimap. It is the only place a
// connection id is resolved back to a transport object; everything above it
// works with ids.
type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
	}
}

func (r *repo) Add(conn *websocket.Conn, connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[connId] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = connId
	r.idList[connId] = conn

	return nil
}

// RemoveByConnId unregisters the connection and returns it so the caller can
// close it outside the lock. A second call for the same id returns
// ErrNotFound, which is how disconnect stays exactly-once.
func (r *repo) RemoveByConnId(connId string) (*websocket.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, connId)

	return conn, nil
}

func (r *repo) GetConnId(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return connId, nil
}

func (r *repo) GetConn(connId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
