package room

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const autoNamePrefix = "User "

// Palette holds the colors handed out to room members
var Palette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#e67e22", "#34495e", "#e84393", "#00b894",
}

// User is a session's identity inside one room
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Color          string    `json:"color"`
	JoinedAt       time.Time `json:"joinedAt"`
	LastActivityAt time.Time `json:"-"`

	// autoNamed marks names generated by Admit, the only ones counted when
	// picking the next "User N" suffix.
	autoNamed bool
}

// Touch records activity from the user
func (u *User) Touch(now time.Time) {
	u.LastActivityAt = now
}

// Rename replaces the display name with a user-chosen one
func (u *User) Rename(name string) {
	u.Name = name
	u.autoNamed = false
}

// Admit builds the identity for a session about to join the room. The user is
// not added to the member set; pass it to Store.Join for that.
func (r *Room) Admit(id, requestedName string, now time.Time) *User {
	u := &User{
		ID:             id,
		Color:          r.nextColor(),
		JoinedAt:       now,
		LastActivityAt: now,
	}
	if requestedName != "" {
		u.Name = requestedName
	} else {
		u.Name = fmt.Sprintf("%s%d", autoNamePrefix, r.nextAutoNumber())
		u.autoNamed = true
	}
	r.admissions++
	return u
}

// nextColor returns the first palette color nobody in the room holds. Once all
// are taken colors repeat round-robin in admission order.
func (r *Room) nextColor() string {
	taken := make(map[string]bool, len(r.members))
	for _, u := range r.members {
		taken[u.Color] = true
	}
	for _, c := range Palette {
		if !taken[c] {
			return c
		}
	}
	return Palette[r.admissions%len(Palette)]
}

func (r *Room) nextAutoNumber() int {
	highest := 0
	for _, u := range r.members {
		if !u.autoNamed {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(u.Name, autoNamePrefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
