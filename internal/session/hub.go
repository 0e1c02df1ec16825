package session

import (
	"context"
	"errors"
	"log/slog"

	"drawing-board/internal/room"
)

// ErrHubStopped is returned when submitting to a hub whose loop has exited
var ErrHubStopped = errors.New("hub stopped")

type inbound struct {
	session Session
	data    []byte
}

type registration struct {
	session Session
	joined  chan struct{}
}

// Hub runs the coordinator on a single goroutine. Connections hand it
// registrations, frames and disconnects over unbuffered channels, so every
// room mutation happens one event at a time and events from one connection
// are applied in the order they were read.
type Hub struct {
	coordinator *Coordinator

	register   chan registration
	unregister chan Session
	inbound    chan inbound
	queries    chan func(*Coordinator)

	done chan struct{}
}

func NewHub(coordinator *Coordinator) *Hub {
	return &Hub{
		coordinator: coordinator,
		register:    make(chan registration),
		unregister:  make(chan Session),
		inbound:     make(chan inbound),
		queries:     make(chan func(*Coordinator)),
		done:        make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	slog.Info("hub started", "defaultRoom", h.coordinator.store.DefaultID())

	for {
		select {
		case <-ctx.Done():
			slog.Info("hub stopped")
			return

		case reg := <-h.register:
			h.coordinator.Connect(reg.session)
			close(reg.joined)

		case s := <-h.unregister:
			h.coordinator.Disconnect(s)

		case msg := <-h.inbound:
			h.coordinator.Handle(msg.session, msg.data)

		case query := <-h.queries:
			query(h.coordinator)
		}
	}
}

// Register connects a session. It returns once the session has joined the
// default room and its join frames have been handed to Send.
func (h *Hub) Register(s Session) error {
	reg := registration{session: s, joined: make(chan struct{})}
	select {
	case h.register <- reg:
	case <-h.done:
		return ErrHubStopped
	}
	<-reg.joined
	return nil
}

func (h *Hub) Unregister(s Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Dispatch queues one raw frame read from the session
func (h *Hub) Dispatch(s Session, data []byte) error {
	select {
	case h.inbound <- inbound{session: s, data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := h.query(ctx, func(c *Coordinator) {
		stats = c.Stats()
	})
	return stats, err
}

func (h *Hub) Rooms(ctx context.Context) ([]room.Info, error) {
	var rooms []room.Info
	err := h.query(ctx, func(c *Coordinator) {
		rooms = c.Rooms()
	})
	return rooms, err
}

func (h *Hub) Room(ctx context.Context, id string) (room.Info, bool, error) {
	var (
		info  room.Info
		found bool
	)
	err := h.query(ctx, func(c *Coordinator) {
		info, found = c.Room(id)
	})
	return info, found, err
}

// query runs fn inside the loop and waits for it to finish. Once the loop
// has accepted fn it runs to completion, so only the hand-off honors ctx.
func (h *Hub) query(ctx context.Context, fn func(*Coordinator)) error {
	finished := make(chan struct{})
	wrapped := func(c *Coordinator) {
		fn(c)
		close(finished)
	}

	select {
	case h.queries <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}

	<-finished
	return nil
}
