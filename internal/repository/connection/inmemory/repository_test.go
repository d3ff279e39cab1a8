package inmemory

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchlock/server/internal/repository/connection"
)

func TestAddAndLookup(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}

	require.NoError(t, r.Add(conn, "conn-a"))

	got, err := r.GetConn("conn-a")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	connId, err := r.GetConnId(conn)
	require.NoError(t, err)
	assert.Equal(t, "conn-a", connId)
}

func TestAddDuplicate(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}

	require.NoError(t, r.Add(conn, "conn-a"))

	assert.ErrorIs(t, r.Add(conn, "conn-b"), connection.ErrAlreadyExists)
	assert.ErrorIs(t, r.Add(&websocket.Conn{}, "conn-a"), connection.ErrAlreadyExists)
}

func TestRemoveByConnIdExactlyOnce(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}

	require.NoError(t, r.Add(conn, "conn-a"))

	got, err := r.RemoveByConnId("conn-a")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	_, err = r.RemoveByConnId("conn-a")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	_, err = r.GetConn("conn-a")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.GetConnId(conn)
	assert.ErrorIs(t, err, connection.ErrNotFound)
}
