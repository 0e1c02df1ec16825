package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawing-board/internal/drawing"
	"drawing-board/internal/room"
	"drawing-board/internal/session"
	"drawing-board/internal/ws"
)

type silentSession struct{ id string }

func (s silentSession) ID() string { return s.id }
func (s silentSession) Send(data []byte) error { return nil }

func setupTestAPI(t *testing.T) (*session.Hub, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>board</html>"), 0o644))

	v, err := drawing.NewValidator()
	require.NoError(t, err)
	hub := session.NewHub(session.NewCoordinator(room.NewStore("default"), v))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	api := New(hub, dir, ws.Options{MaxMessageBytes: 1024, EventsPerSecond: 10, EventBurst: 10, SendBuffer: 8})
	return hub, api.Router()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	_, h := setupTestAPI(t)

	w := get(t, h, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestIndexServedForRoot(t *testing.T) {
	_, h := setupTestAPI(t)

	for _, path := range []string{"/", "/room/sketch"} {
		w := get(t, h, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "board", path)
	}
}

func TestStats(t *testing.T) {
	hub, h := setupTestAPI(t)
	require.NoError(t, hub.Register(silentSession{id: "a"}))
	require.NoError(t, hub.Register(silentSession{id: "b"}))

	w := get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats session.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, session.Stats{Rooms: 1, Sessions: 2}, stats)
}

func TestRooms(t *testing.T) {
	hub, h := setupTestAPI(t)
	a := silentSession{id: "a"}
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(silentSession{id: "b"}))
	require.NoError(t, hub.Dispatch(a, []byte(`{"type":"joinRoom","data":"sketch"}`)))

	w := get(t, h, "/api/rooms")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rooms []room.Info `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, "default", resp.Rooms[0].ID)
	assert.Equal(t, 1, resp.Rooms[0].Members)
	assert.Equal(t, "sketch", resp.Rooms[1].ID)
	assert.Equal(t, 1, resp.Rooms[1].Members)
}

func TestRoom(t *testing.T) {
	hub, h := setupTestAPI(t)
	a := silentSession{id: "a"}
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Dispatch(a, []byte(`{"type":"drawAction","data":{"tool":"rectangle","timestamp":10,"startPoint":{"x":0,"y":0},"endPoint":{"x":5,"y":5}}}`)))

	w := get(t, h, "/api/rooms/default")
	require.Equal(t, http.StatusOK, w.Code)

	var info room.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "default", info.ID)
	assert.Equal(t, 1, info.HistorySize)
	assert.True(t, info.CanUndo)
	assert.False(t, info.CanRedo)
}

func TestRoom_NotFoundDoesNotCreate(t *testing.T) {
	hub, h := setupTestAPI(t)

	w := get(t, h, "/api/rooms/ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)

	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Rooms)
}
