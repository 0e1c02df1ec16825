package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"drawing-board/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// default number of dropped frames a connection may bank before it is
	// disconnected; the allowance refills at the connection's event rate
	defaultMaxViolations = 1000
)

var (
	ErrClosed         = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Hub is the part of session.Hub a connection talks to
type Hub interface {
	Register(s session.Session) error
	Unregister(s session.Session)
	Dispatch(s session.Session, data []byte) error
}

type Options struct {
	MaxMessageBytes int64
	EventsPerSecond float64
	EventBurst      int
	SendBuffer      int

	// MaxViolations caps rate-limited frames outstanding against the
	// connection. Zero means defaultMaxViolations.
	MaxViolations int
}

// The board carries no credentials, so sockets are accepted from any origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Conn adapts a websocket connection to session.Session
type Conn struct {
	id      string
	conn    *websocket.Conn
	hub     Hub
	opts    Options
	limiter *rate.Limiter
	strikes *rate.Limiter

	violations int

	send   chan []byte
	closed bool
	mu     sync.Mutex
}

func newConn(id string, conn *websocket.Conn, hub Hub, opts Options) *Conn {
	if opts.MaxViolations <= 0 {
		opts.MaxViolations = defaultMaxViolations
	}
	return &Conn{
		id:      id,
		conn:    conn,
		hub:     hub,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.EventsPerSecond), opts.EventBurst),
		strikes: rate.NewLimiter(rate.Limit(opts.EventsPerSecond), opts.MaxViolations),
		send:    make(chan []byte, opts.SendBuffer),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues a frame for the write pump without blocking. A slow reader
// loses frames rather than stalling the hub.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump, which then closes the socket. Safe to call
// more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

// Serve upgrades the request, registers the connection with the hub and
// blocks reading frames until the peer goes away.
func Serve(hub Hub, opts Options, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade error", "error", err)
		return
	}

	c := newConn(uuid.New().String(), conn, hub, opts)
	if err := hub.Register(c); err != nil {
		slog.Warn("session rejected", "sessionId", c.id, "error", err)
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "sessionId", c.id, "error", err)
			}
			return
		}

		allowed, exhausted := c.admit(time.Now())
		if exhausted {
			slog.Warn("disconnecting session for excessive rate limit violations", "sessionId", c.id, "violations", c.violations)
			return
		}
		if !allowed {
			continue
		}

		if err := c.hub.Dispatch(c, msg); err != nil {
			slog.Warn("dispatch failed", "sessionId", c.id, "error", err)
			return
		}
	}
}

// admit decides whether a frame read at now may be dispatched. Every dropped
// frame spends one strike; strikes refill at the event rate, so only a
// sustained flood exhausts them.
func (c *Conn) admit(now time.Time) (allowed, exhausted bool) {
	if c.limiter.AllowN(now, 1) {
		return true, false
	}
	c.violations++
	if c.violations%100 == 1 {
		slog.Warn("rate limit exceeded", "sessionId", c.id, "violations", c.violations)
	}
	return false, !c.strikes.AllowN(now, 1)
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
