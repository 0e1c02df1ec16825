package session

import (
	"encoding/json"
	"time"

	"drawing-board/internal/room"
)

// Client to server events
const (
	EventJoinRoom    = "joinRoom"
	EventDrawAction  = "drawAction"
	EventCanvasState = "canvasState"
	EventRequestUndo = "requestUndo"
	EventRequestRedo = "requestRedo"
	EventClearCanvas = "clearCanvas"
	EventCursorMove  = "cursorMove"
	EventSetUserName = "setUserName"
)

// Server to client events. drawAction, canvasState, clearCanvas and
// cursorMove are relayed under their inbound names.
const (
	EventUserInfo      = "userInfo"
	EventUsersList     = "usersList"
	EventUserCount     = "userCount"
	EventRoomInfo      = "roomInfo"
	EventSyncHistory   = "syncHistory"
	EventUndoRedoState = "undoRedoState"
)

// MaxNameLength caps user-chosen display names, in characters
const MaxNameLength = 20

// Envelope is the frame for every message in both directions
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// UserInfo is sent to a session to tell it who it is
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Member is one entry of a usersList
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
}

type RoomInfo struct {
	RoomID string `json:"roomId"`
}

// CursorPosition is the inbound cursorMove payload
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cursor is a cursorMove relayed to the other members of a room
type Cursor struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Color    string  `json:"color"`
}

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(frame{Type: event, Data: data})
}

func userInfo(u *room.User) UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Color: u.Color}
}

func members(r *room.Room) []Member {
	users := r.Members()
	list := make([]Member, len(users))
	for i, u := range users {
		list[i] = Member{ID: u.ID, Name: u.Name, Color: u.Color, JoinedAt: u.JoinedAt}
	}
	return list
}
