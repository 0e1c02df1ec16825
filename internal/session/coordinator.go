package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"drawing-board/internal/drawing"
	"drawing-board/internal/room"
)

// Session is one client connection as seen by the coordinator
type Session interface {
	ID() string
	Send(data []byte) error
}

// Stats counts live rooms and connected sessions
type Stats struct {
	Rooms    int `json:"rooms"`
	Sessions int `json:"sessions"`
}

type client struct {
	session    Session
	roomID     string
	user       *room.User
	customName string
}

// Coordinator applies client events to the room store and decides who hears
// about the result. It is not safe for concurrent use; Hub serializes every
// call onto one goroutine.
type Coordinator struct {
	store     *room.Store
	validator *drawing.Validator
	clients   map[string]*client
	now       func() time.Time
}

func NewCoordinator(store *room.Store, validator *drawing.Validator) *Coordinator {
	return &Coordinator{
		store:     store,
		validator: validator,
		clients:   make(map[string]*client),
		now:       time.Now,
	}
}

// Connect admits a new session into the default room
func (c *Coordinator) Connect(s Session) {
	if _, exists := c.clients[s.ID()]; exists {
		slog.Warn("session already connected", "sessionId", s.ID())
		return
	}
	cl := &client{session: s}
	c.clients[s.ID()] = cl
	c.enter(cl, c.store.DefaultID())
	slog.Info("session connected", "sessionId", s.ID(), "room", cl.roomID, "name", cl.user.Name)
}

// Disconnect removes the session from its room
func (c *Coordinator) Disconnect(s Session) {
	cl, ok := c.clients[s.ID()]
	if !ok {
		return
	}
	delete(c.clients, s.ID())
	c.leave(cl)
	slog.Info("session disconnected", "sessionId", s.ID(), "room", cl.roomID)
}

// Handle decodes one inbound frame and applies it. Malformed or invalid
// input is logged and dropped; the session stays connected.
func (c *Coordinator) Handle(s Session, data []byte) {
	cl, ok := c.clients[s.ID()]
	if !ok {
		slog.Warn("message from unknown session", "sessionId", s.ID())
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "sessionId", s.ID(), "error", err)
		return
	}

	switch env.Type {
	case EventJoinRoom:
		c.handleJoinRoom(cl, env.Data)
	case EventDrawAction:
		c.handleDrawAction(cl, env.Data)
	case EventCanvasState:
		c.handleCanvasState(cl, env.Data)
	case EventRequestUndo:
		c.handleUndoRedo(cl, (*room.Room).Undo)
	case EventRequestRedo:
		c.handleUndoRedo(cl, (*room.Room).Redo)
	case EventClearCanvas:
		c.handleClear(cl)
	case EventCursorMove:
		c.handleCursorMove(cl, env.Data)
	case EventSetUserName:
		c.handleSetUserName(cl, env.Data)
	default:
		slog.Warn("unknown event", "sessionId", s.ID(), "event", env.Type)
	}
}

func (c *Coordinator) Stats() Stats {
	return Stats{Rooms: c.store.Len(), Sessions: len(c.clients)}
}

func (c *Coordinator) Rooms() []room.Info {
	return c.store.List()
}

// Room describes an existing room without creating it
func (c *Coordinator) Room(id string) (room.Info, bool) {
	r, ok := c.store.Get(id)
	if !ok {
		return room.Info{}, false
	}
	return r.Info(), true
}

func (c *Coordinator) handleJoinRoom(cl *client, data json.RawMessage) {
	roomID, err := decodeRoomID(data)
	if err != nil {
		slog.Warn("invalid joinRoom payload", "sessionId", cl.session.ID(), "error", err)
		return
	}
	if roomID == "" {
		roomID = c.store.DefaultID()
	}
	if roomID == cl.roomID {
		return
	}

	from := cl.roomID
	c.leave(cl)
	c.enter(cl, roomID)
	slog.Info("session switched room", "sessionId", cl.session.ID(), "from", from, "to", roomID)
}

func (c *Coordinator) handleDrawAction(cl *client, data json.RawMessage) {
	var action drawing.DrawAction
	if err := json.Unmarshal(data, &action); err != nil {
		slog.Warn("invalid drawAction payload", "sessionId", cl.session.ID(), "error", err)
		return
	}
	if err := c.validator.Validate(action); err != nil {
		slog.Warn("draw action rejected", "sessionId", cl.session.ID(), "room", cl.roomID, "error", err)
		return
	}

	r, ok := c.currentRoom(cl)
	if !ok {
		return
	}

	now := c.now()
	action.AuthorID = cl.user.ID
	action.AuthorName = cl.user.Name
	stored, err := r.Append(action, now)
	if err != nil {
		if errors.Is(err, room.ErrDuplicateAction) {
			slog.Debug("duplicate draw action dropped", "sessionId", cl.session.ID(), "room", r.ID, "error", err)
		} else {
			slog.Warn("draw action not stored", "sessionId", cl.session.ID(), "room", r.ID, "error", err)
		}
		return
	}
	cl.user.Touch(now)

	c.broadcast(r, EventDrawAction, stored, cl.session.ID())
	c.broadcast(r, EventUndoRedoState, r.UndoRedo(), "")
}

func (c *Coordinator) handleCanvasState(cl *client, data json.RawMessage) {
	r, ok := c.currentRoom(cl)
	if !ok {
		return
	}
	r.SetSnapshot(data, c.now())
	c.broadcast(r, EventCanvasState, r.Snapshot(), cl.session.ID())
}

func (c *Coordinator) handleUndoRedo(cl *client, transition func(*room.Room, time.Time) bool) {
	r, ok := c.currentRoom(cl)
	if !ok {
		return
	}
	if !transition(r, c.now()) {
		c.unicast(cl, EventUndoRedoState, r.UndoRedo())
		return
	}
	c.broadcast(r, EventSyncHistory, r.History(), "")
	c.broadcast(r, EventUndoRedoState, r.UndoRedo(), "")
}

func (c *Coordinator) handleClear(cl *client) {
	r, ok := c.currentRoom(cl)
	if !ok {
		return
	}
	c.store.Clear(r.ID)
	slog.Info("canvas cleared", "sessionId", cl.session.ID(), "room", r.ID)

	c.broadcast(r, EventClearCanvas, nil, cl.session.ID())
	c.broadcast(r, EventUndoRedoState, r.UndoRedo(), "")
}

func (c *Coordinator) handleCursorMove(cl *client, data json.RawMessage) {
	var pos CursorPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		slog.Debug("invalid cursorMove payload", "sessionId", cl.session.ID(), "error", err)
		return
	}
	r, ok := c.currentRoom(cl)
	if !ok {
		return
	}
	c.broadcast(r, EventCursorMove, Cursor{
		X:        pos.X,
		Y:        pos.Y,
		UserID:   cl.user.ID,
		UserName: cl.user.Name,
		Color:    cl.user.Color,
	}, cl.session.ID())
}

func (c *Coordinator) handleSetUserName(cl *client, data json.RawMessage) {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		slog.Warn("invalid setUserName payload", "sessionId", cl.session.ID(), "error", err)
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		slog.Warn("empty user name ignored", "sessionId", cl.session.ID())
		return
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}

	r, ok := c.currentRoom(cl)
	if !ok {
		return
	}
	cl.customName = name
	cl.user.Rename(name)

	c.unicast(cl, EventUserInfo, userInfo(cl.user))
	c.broadcast(r, EventUsersList, members(r), "")
}

// enter admits the client into a room and runs the join fan-out: membership
// to everyone in the room, initial canvas state to the joiner alone.
func (c *Coordinator) enter(cl *client, roomID string) {
	u := c.store.GetOrCreate(roomID).Admit(cl.session.ID(), cl.customName, c.now())
	r, state := c.store.Join(roomID, u)
	cl.roomID = roomID
	cl.user = u

	c.unicast(cl, EventUserInfo, userInfo(u))
	c.broadcast(r, EventUsersList, members(r), "")
	c.broadcast(r, EventUserCount, r.MemberCount(), "")
	c.broadcast(r, EventRoomInfo, RoomInfo{RoomID: roomID}, "")

	if state.Snapshot != nil {
		c.unicast(cl, EventCanvasState, state.Snapshot)
	}
	if len(state.History) > 0 {
		c.unicast(cl, EventSyncHistory, state.History)
	}
	c.unicast(cl, EventUndoRedoState, state.UndoRedo)
}

// leave removes the client from its room and tells whoever remains
func (c *Coordinator) leave(cl *client) {
	r, deleted := c.store.Leave(cl.roomID, cl.session.ID())
	if r == nil {
		return
	}
	if deleted {
		slog.Info("room removed", "room", r.ID)
		return
	}
	c.broadcast(r, EventUsersList, members(r), "")
	c.broadcast(r, EventUserCount, r.MemberCount(), "")
}

func (c *Coordinator) currentRoom(cl *client) (*room.Room, bool) {
	r, ok := c.store.Get(cl.roomID)
	if !ok {
		slog.Error("session points at missing room", "sessionId", cl.session.ID(), "room", cl.roomID)
	}
	return r, ok
}

func (c *Coordinator) unicast(cl *client, event string, data any) {
	msg, err := encode(event, data)
	if err != nil {
		slog.Error("marshal error", "event", event, "error", err)
		return
	}
	c.deliver(cl, event, msg)
}

// broadcast sends to every member of the room except the session with ID
// except; pass "" to include everyone.
func (c *Coordinator) broadcast(r *room.Room, event string, data any, except string) {
	msg, err := encode(event, data)
	if err != nil {
		slog.Error("marshal error", "event", event, "room", r.ID, "error", err)
		return
	}
	for _, id := range r.MemberIDs() {
		if id == except {
			continue
		}
		if cl, ok := c.clients[id]; ok {
			c.deliver(cl, event, msg)
		}
	}
}

func (c *Coordinator) deliver(cl *client, event string, msg []byte) {
	if err := cl.session.Send(msg); err != nil {
		slog.Warn("send failed", "sessionId", cl.session.ID(), "event", event, "error", err)
	}
}

func decodeRoomID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return strings.TrimSpace(id), nil
	}
	var payload struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.RoomID), nil
}
