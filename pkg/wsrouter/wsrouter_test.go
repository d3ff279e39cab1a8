package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve runs the router against a real websocket pair and returns the client
// side plus a channel with ServeConn's result.
func serve(t *testing.T, r *WSRouter) (*websocket.Conn, <-chan error) {
	t.Helper()

	done := make(chan error, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()

		done <- r.ServeConn(req.Context(), conn)
	}))
	t.Cleanup(srv.Close)

	wsUrl := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, done
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("ServeConn did not return")
		return nil
	}
}

func TestDispatchByType(t *testing.T) {
	var gotPayload atomic.Value

	r := New()
	r.Handle("ping", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		gotPayload.Store(string(payload))
		return conn.WriteJSON(map[string]string{"type": "pong"})
	})

	client, _ := serve(t, r)

	require.NoError(t, client.WriteJSON(map[string]any{
		"type":    "ping",
		"payload": map[string]int{"n": 1},
	}))

	var reply struct {
		Type string `json:"type"`
	}
	require.NoError(t, client.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, client.ReadJSON(&reply))
	assert.Equal(t, "pong", reply.Type)
	assert.JSONEq(t, `{"n":1}`, gotPayload.Load().(string))
}

func TestUnknownTypeIgnored(t *testing.T) {
	var calls atomic.Int32

	r := New()
	r.Handle("known", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		calls.Add(1)
		return conn.WriteJSON(map[string]string{"type": "ack"})
	})

	client, _ := serve(t, r)

	require.NoError(t, client.WriteJSON(map[string]any{"type": "mystery"}))
	require.NoError(t, client.WriteJSON(map[string]any{"type": "known"}))

	var reply struct {
		Type string `json:"type"`
	}
	require.NoError(t, client.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, client.ReadJSON(&reply))
	assert.Equal(t, "ack", reply.Type)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandlerErrorStopsServing(t *testing.T) {
	errBoom := errors.New("boom")

	r := New()
	r.Handle("fail", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		return errBoom
	})

	client, done := serve(t, r)

	require.NoError(t, client.WriteJSON(map[string]any{"type": "fail"}))
	assert.ErrorIs(t, waitErr(t, done), errBoom)
}

func TestMiddlewareOrderAndContext(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, step)
	}

	r := New()
	r.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			record("outer")
			return next(ctx, conn, payload)
		}
	})
	r.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			record("inner")
			return next(ctx, conn, payload)
		}
	})
	r.Handle("go", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		record("handler")
		assert.Equal(t, "go", GetMessageTypeFromCtx(ctx))
		return conn.WriteJSON(map[string]string{"type": "done"})
	})

	client, _ := serve(t, r)

	require.NoError(t, client.WriteJSON(map[string]any{"type": "go"}))

	var reply struct {
		Type string `json:"type"`
	}
	require.NoError(t, client.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, client.ReadJSON(&reply))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
