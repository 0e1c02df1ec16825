package api

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"drawing-board/internal/session"
	"drawing-board/internal/ws"
)

type API struct {
	hub       *session.Hub
	staticDir string
	wsOptions ws.Options
}

func New(hub *session.Hub, staticDir string, wsOptions ws.Options) *API {
	return &API{
		hub:       hub,
		staticDir: staticDir,
		wsOptions: wsOptions,
	}
}

// Router builds the gin engine serving the client, the websocket endpoint and
// the inspection API.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.Static("/static", a.staticDir)
	r.GET("/", a.index)
	r.GET("/room/:roomId", a.index)

	r.GET("/ws", a.websocket)
	r.GET("/health", a.health)

	api := r.Group("/api")
	api.GET("/stats", a.stats)
	api.GET("/rooms", a.rooms)
	api.GET("/rooms/:roomId", a.room)

	return r
}

func (a *API) index(c *gin.Context) {
	c.File(filepath.Join(a.staticDir, "index.html"))
}

func (a *API) websocket(c *gin.Context) {
	ws.Serve(a.hub, a.wsOptions, c.Writer, c.Request)
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) stats(c *gin.Context) {
	stats, err := a.hub.Stats(c.Request.Context())
	if err != nil {
		unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *API) rooms(c *gin.Context) {
	rooms, err := a.hub.Rooms(c.Request.Context())
	if err != nil {
		unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (a *API) room(c *gin.Context) {
	info, found, err := a.hub.Room(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		unavailable(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func unavailable(c *gin.Context, err error) {
	slog.Warn("hub query failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
