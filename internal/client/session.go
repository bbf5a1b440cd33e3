package client

import (
	"time"

	"github.com/google/uuid"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// Session is one participant's local, ephemeral view of a room. It
// lives only in this process and is never shared with the other
// participant; the only state it tracks beyond identity is the
// playback high-water mark.
type Session struct {
	ID     string
	RoomID string
	Role   room.Role

	// lastPlayed is the CreatedAt of the newest message already spoken
	// aloud to this session. Messages at or below it are never
	// replayed.
	lastPlayed time.Time
}

// NewSession binds a fresh session to a room and role.
func NewSession(roomID string, role room.Role) *Session {
	return &Session{
		ID:     uuid.NewString(),
		RoomID: roomID,
		Role:   role,
	}
}

// LastPlayed exposes the playback high-water mark.
func (s *Session) LastPlayed() time.Time {
	return s.lastPlayed
}
