package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchlock/server/internal/repository/connection/inmemory"
	roomRedis "github.com/watchlock/server/internal/repository/room/redis"
	"github.com/watchlock/server/internal/service/room"
)

func newTestServer(t *testing.T) (*httptest.Server, *controller) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	roomRepo := roomRedis.NewRepo(rc, time.Minute)
	connRepo := inmemory.NewRepo()
	roomService := room.NewService(roomRepo, connRepo, clockwork.NewRealClock(), slog.Default(), &room.Config{
		MembersLimit: 8,
	})

	ctrl := NewController(roomService, slog.Default())
	srv := httptest.NewServer(ctrl.GetMux())
	t.Cleanup(srv.Close)

	return srv, ctrl
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// dial opens a participant connection and consumes the connected hello,
// returning the id the server minted for it.
func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, string) {
	t.Helper()

	wsUrl := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello struct {
		ConnId string `json:"connId"`
	}
	readMessage(t, conn, "connected", &hello)
	require.NotEmpty(t, hello.ConnId)

	return conn, hello.ConnId
}

// readMessage reads the next message, requires its type, and decodes the
// payload into out.
func readMessage(t *testing.T, conn *websocket.Conn, wantType string, out any) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var msg inboundMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, wantType, msg.Type)

	if out != nil {
		require.NoError(t, json.Unmarshal(msg.Payload, out))
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    msgType,
		"payload": payload,
	}))
}

func createRoom(t *testing.T, conn *websocket.Conn, videoUrl string) string {
	t.Helper()

	send(t, conn, "create-room", map[string]any{"videoUrl": videoUrl})

	var created roomCreatedOutput
	readMessage(t, conn, "room-created", &created)
	require.True(t, created.Success, created.Error)
	require.True(t, created.IsHost)
	require.NotEmpty(t, created.RoomId)

	return created.RoomId
}

func TestWatchSession(t *testing.T) {
	srv, _ := newTestServer(t)

	connA, _ := dial(t, srv)
	roomId := createRoom(t, connA, "v.mp4")

	connB, connBId := dial(t, srv)
	send(t, connB, "join-room", map[string]any{"roomId": roomId})

	var joined roomJoinedOutput
	readMessage(t, connB, "room-joined", &joined)
	require.True(t, joined.Success, joined.Error)
	assert.Equal(t, "v.mp4", joined.RoomState.VideoUrl)
	assert.False(t, joined.RoomState.IsHost)
	assert.Equal(t, 2, joined.RoomState.UserCount)

	var countA, countB userCountOutput
	readMessage(t, connA, "user-count-update", &countA)
	readMessage(t, connB, "user-count-update", &countB)
	assert.Equal(t, 2, countA.UserCount)
	assert.Equal(t, 2, countB.UserCount)

	// the host plays; everyone hears it, the host included
	send(t, connA, "play", map[string]any{"roomId": roomId, "currentTime": 5.0})

	var playA, playB playbackOutput
	readMessage(t, connA, "play-event", &playA)
	readMessage(t, connB, "play-event", &playB)
	assert.Equal(t, 5.0, playA.CurrentTime)
	assert.Equal(t, 5.0, playB.CurrentTime)

	// a viewer mutation is dropped without a reply; the next thing either
	// side hears is the host's seek
	send(t, connB, "pause", map[string]any{"roomId": roomId, "currentTime": 0.0})
	send(t, connA, "seek", map[string]any{"roomId": roomId, "currentTime": 120.5})

	var seekA, seekB playbackOutput
	readMessage(t, connA, "seek-event", &seekA)
	readMessage(t, connB, "seek-event", &seekB)
	assert.Equal(t, 120.5, seekA.CurrentTime)
	assert.Equal(t, 120.5, seekB.CurrentTime)

	// the host leaves; the survivor is promoted and told so
	require.NoError(t, connA.Close())

	var hostChanged hostChangedOutput
	readMessage(t, connB, "host-changed", &hostChanged)
	assert.Equal(t, connBId, hostChanged.NewHostId)

	readMessage(t, connB, "user-count-update", &countB)
	assert.Equal(t, 1, countB.UserCount)

	// the promoted member's mutations go through now
	send(t, connB, "pause", map[string]any{"roomId": roomId, "currentTime": 7.0})

	readMessage(t, connB, "pause-event", &playB)
	assert.Equal(t, 7.0, playB.CurrentTime)
}

func TestJoinMissingRoom(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _ := dial(t, srv)
	send(t, conn, "join-room", map[string]any{"roomId": "nosuchroom42"})

	var joined roomJoinedOutput
	readMessage(t, conn, "room-joined", &joined)
	assert.False(t, joined.Success)
	assert.Equal(t, "room not found", joined.Error)
	assert.Nil(t, joined.RoomState)
}

func TestFullscreenBroadcast(t *testing.T) {
	srv, _ := newTestServer(t)

	connA, _ := dial(t, srv)
	roomId := createRoom(t, connA, "v.mp4")

	connB, _ := dial(t, srv)
	send(t, connB, "join-room", map[string]any{"roomId": roomId})
	readMessage(t, connB, "room-joined", nil)
	readMessage(t, connA, "user-count-update", nil)
	readMessage(t, connB, "user-count-update", nil)

	send(t, connA, "fullscreen", map[string]any{"roomId": roomId, "isFullscreen": true})

	var fsA, fsB fullscreenOutput
	readMessage(t, connA, "fullscreen-event", &fsA)
	readMessage(t, connB, "fullscreen-event", &fsB)
	assert.True(t, fsA.IsFullscreen)
	assert.True(t, fsB.IsFullscreen)
}

func TestUnknownMessageIgnored(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _ := dial(t, srv)
	send(t, conn, "no-such-type", map[string]any{})

	// the connection survives and keeps serving
	roomId := createRoom(t, conn, "v.mp4")
	assert.NotEmpty(t, roomId)
}

func TestRoomInfoEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _ := dial(t, srv)
	roomId := createRoom(t, conn, "v.mp4")

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/rooms/%s", srv.URL, roomId))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Exists    bool `json:"exists"`
			UserCount int  `json:"userCount"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Data.Exists)
	assert.Equal(t, 1, body.Data.UserCount)

	missing, err := http.Get(srv.URL + "/api/v1/rooms/nosuchroom42")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestShutdownBroadcastsRoomClosed(t *testing.T) {
	srv, ctrl := newTestServer(t)

	connA, _ := dial(t, srv)
	roomId := createRoom(t, connA, "v.mp4")

	connB, _ := dial(t, srv)
	send(t, connB, "join-room", map[string]any{"roomId": roomId})
	readMessage(t, connB, "room-joined", nil)
	readMessage(t, connA, "user-count-update", nil)
	readMessage(t, connB, "user-count-update", nil)

	ctrl.NotifyShutdown(context.Background())

	var closedA, closedB roomClosedOutput
	readMessage(t, connA, "room-closed", &closedA)
	readMessage(t, connB, "room-closed", &closedB)
	assert.Equal(t, "server shutting down", closedA.Reason)
	assert.Equal(t, "server shutting down", closedB.Reason)
}

// Broadcasts run on the mutating member's goroutine, so writes to one conn
// can come from many goroutines at once and must be serialized.
func TestConcurrentWritesToOneConn(t *testing.T) {
	ctrl := NewController(nil, slog.Default())

	serverConns := make(chan *websocket.Conn, 1)
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		serverConns <- conn
		<-release
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	wsUrl := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	client, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	conn := <-serverConns

	const writers = 16
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := 0; m < perWriter; m++ {
				if err := ctrl.writeToConn(context.Background(), conn, &Output{
					Type:    "tick",
					Payload: userCountOutput{UserCount: 1},
				}); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	for r := 0; r < writers*perWriter; r++ {
		var msg inboundMessage
		require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, client.ReadJSON(&msg))
		require.Equal(t, "tick", msg.Type)
	}

	wg.Wait()
}
