package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"drawing-board/internal/api"
	"drawing-board/internal/config"
	"drawing-board/internal/drawing"
	"drawing-board/internal/room"
	"drawing-board/internal/session"
	"drawing-board/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	validator, err := drawing.NewValidator()
	if err != nil {
		slog.Error("failed to build action validator", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := session.NewHub(session.NewCoordinator(room.NewStore(cfg.DefaultRoom), validator))
	go hub.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := api.New(hub, cfg.StaticDir, ws.Options{
		MaxMessageBytes: cfg.MaxMessageBytes,
		EventsPerSecond: cfg.EventsPerSecond,
		EventBurst:      cfg.EventBurst,
		SendBuffer:      cfg.SendBuffer,
	}).Router()

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "static", cfg.StaticDir)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	cancel()
}
