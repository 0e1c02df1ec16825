package room

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"drawing-board/internal/drawing"
)

// Room is the authoritative state of one shared canvas.
//
// A Room is not safe for concurrent use. The Store that owns it, and every
// Room it hands out, must be driven from a single goroutine.
type Room struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	snapshot json.RawMessage
	history  []drawing.DrawAction
	redo     []drawing.DrawAction

	members map[string]*User
	order   []string

	admissions int
}

func newRoom(id string, now time.Time) *Room {
	return &Room{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		history:   make([]drawing.DrawAction, 0),
		redo:      make([]drawing.DrawAction, 0),
		members:   make(map[string]*User),
	}
}

// Snapshot returns the last full canvas state pushed by a client, or nil
func (r *Room) Snapshot() json.RawMessage {
	return r.snapshot
}

// SetSnapshot replaces the canvas snapshot. A JSON null clears it.
func (r *Room) SetSnapshot(blob json.RawMessage, now time.Time) {
	if len(blob) == 0 || string(blob) == "null" {
		r.snapshot = nil
	} else {
		r.snapshot = append(json.RawMessage(nil), blob...)
	}
	r.UpdatedAt = now
}

// History returns a copy of the ordered action history
func (r *Room) History() []drawing.DrawAction {
	history := make([]drawing.DrawAction, len(r.history))
	copy(history, r.history)
	return history
}

// RedoStack returns a copy of the redo stack, bottom first
func (r *Room) RedoStack() []drawing.DrawAction {
	redo := make([]drawing.DrawAction, len(r.redo))
	copy(redo, r.redo)
	return redo
}

func (r *Room) MemberCount() int {
	return len(r.members)
}

// Member looks up a member by session ID
func (r *Room) Member(id string) (*User, bool) {
	u, ok := r.members[id]
	return u, ok
}

// Members lists the room's users in join order
func (r *Room) Members() []User {
	users := make([]User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, *r.members[id])
	}
	return users
}

// MemberIDs lists the session IDs of the room's users in join order
func (r *Room) MemberIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func (r *Room) addMember(u *User) {
	if _, exists := r.members[u.ID]; !exists {
		r.order = append(r.order, u.ID)
	}
	r.members[u.ID] = u
}

func (r *Room) removeMember(id string) bool {
	if _, exists := r.members[id]; !exists {
		return false
	}
	delete(r.members, id)
	for i, memberID := range r.order {
		if memberID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// InitialState is what a joining session needs to render the canvas
type InitialState struct {
	Snapshot json.RawMessage
	History  []drawing.DrawAction
	UndoRedo UndoRedoState
}

// Info summarizes a room for listings
type Info struct {
	ID          string    `json:"id"`
	Members     int       `json:"members"`
	HistorySize int       `json:"historySize"`
	RedoSize    int       `json:"redoSize"`
	HasSnapshot bool      `json:"hasSnapshot"`
	CanUndo     bool      `json:"canUndo"`
	CanRedo     bool      `json:"canRedo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *Room) Info() Info {
	state := r.UndoRedo()
	return Info{
		ID:          r.ID,
		Members:     r.MemberCount(),
		HistorySize: len(r.history),
		RedoSize:    len(r.redo),
		HasSnapshot: r.snapshot != nil,
		CanUndo:     state.CanUndo,
		CanRedo:     state.CanRedo,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Store owns every live room. It keeps the default room forever and drops any
// other room as soon as its last member leaves.
type Store struct {
	defaultID string
	rooms     map[string]*Room
	now       func() time.Time
}

func NewStore(defaultID string) *Store {
	return &Store{
		defaultID: defaultID,
		rooms:     make(map[string]*Room),
		now:       time.Now,
	}
}

func (s *Store) DefaultID() string {
	return s.defaultID
}

// GetOrCreate returns the room with the given ID, creating it empty if needed
func (s *Store) GetOrCreate(id string) *Room {
	if r, ok := s.rooms[id]; ok {
		return r
	}
	r := newRoom(id, s.now())
	s.rooms[id] = r
	slog.Debug("room created", "room", id)
	return r
}

// Get returns an existing room without creating it
func (s *Store) Get(id string) (*Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

// Join adds the user to the room and returns the state the joiner must be
// sent for its initial sync.
func (s *Store) Join(id string, u *User) (*Room, InitialState) {
	r := s.GetOrCreate(id)
	r.addMember(u)
	r.UpdatedAt = s.now()
	return r, InitialState{
		Snapshot: r.Snapshot(),
		History:  r.History(),
		UndoRedo: r.UndoRedo(),
	}
}

// Leave removes the user from the room. It reports the room as it stands
// afterwards and whether it was deleted for being empty. Leaving a room that
// does not exist is a no-op.
func (s *Store) Leave(id, userID string) (r *Room, deleted bool) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	if r.removeMember(userID) {
		r.UpdatedAt = s.now()
	}
	if r.MemberCount() == 0 && id != s.defaultID {
		delete(s.rooms, id)
		slog.Debug("room removed", "room", id)
		return r, true
	}
	return r, false
}

// Clear wipes the snapshot, history and redo stack of an existing room
func (s *Store) Clear(id string) bool {
	r, ok := s.rooms[id]
	if !ok {
		return false
	}
	r.Clear(s.now())
	return true
}

func (s *Store) Len() int {
	return len(s.rooms)
}

// List summarizes every live room, ordered by ID
func (s *Store) List() []Info {
	infos := make([]Info, 0, len(s.rooms))
	for _, r := range s.rooms {
		infos = append(infos, r.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
