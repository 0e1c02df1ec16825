package room

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"drawing-board/internal/drawing"
)

// ErrDuplicateAction is returned by Append for a probable retransmission
var ErrDuplicateAction = errors.New("duplicate draw action")

// duplicateWindow is how close two timestamps (ms) must be to collide
const duplicateWindow = 1.0

// UndoRedoState is what clients use to enable their undo/redo controls
type UndoRedoState struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func (r *Room) UndoRedo() UndoRedoState {
	return UndoRedoState{
		CanUndo: len(r.history) > 0,
		CanRedo: len(r.redo) > 0,
	}
}

// Append admits an action into the history. A zero timestamp is replaced
// with now. An action landing within a millisecond of an existing one from
// the same author with the same tool is rejected with ErrDuplicateAction.
//
// On success the history is stably re-sorted by timestamp and the redo stack
// is cleared. The stored action is returned.
func (r *Room) Append(action drawing.DrawAction, now time.Time) (drawing.DrawAction, error) {
	if action.Timestamp == 0 {
		action.Timestamp = float64(now.UnixMilli())
	}

	for _, existing := range r.history {
		if isDuplicate(existing, action) {
			return action, fmt.Errorf("%w: %s at %.0f", ErrDuplicateAction, action.Tool, action.Timestamp)
		}
	}

	r.history = append(r.history, action)
	sort.SliceStable(r.history, func(i, j int) bool {
		return r.history[i].Timestamp < r.history[j].Timestamp
	})
	r.redo = r.redo[:0]
	r.UpdatedAt = now
	return action, nil
}

func isDuplicate(existing, incoming drawing.DrawAction) bool {
	return existing.Tool == incoming.Tool &&
		existing.AuthorID == incoming.AuthorID &&
		math.Abs(existing.Timestamp-incoming.Timestamp) < duplicateWindow
}

// Undo moves the most recent action onto the redo stack. It reports false
// when the history is empty.
func (r *Room) Undo(now time.Time) bool {
	n := len(r.history)
	if n == 0 {
		return false
	}
	last := r.history[n-1]
	r.history = r.history[:n-1]
	r.redo = append(r.redo, last)
	r.UpdatedAt = now
	return true
}

// Redo moves the top of the redo stack back to the end of the history. The
// history is not re-sorted, so a redone action may sit after newer ones.
func (r *Room) Redo(now time.Time) bool {
	n := len(r.redo)
	if n == 0 {
		return false
	}
	last := r.redo[n-1]
	r.redo = r.redo[:n-1]
	r.history = append(r.history, last)
	r.UpdatedAt = now
	return true
}

// Clear drops the snapshot, history and redo stack
func (r *Room) Clear(now time.Time) {
	r.snapshot = nil
	r.history = make([]drawing.DrawAction, 0)
	r.redo = make([]drawing.DrawAction, 0)
	r.UpdatedAt = now
}
