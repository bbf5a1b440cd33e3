package store

import (
	"context"
	"time"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// Store persists room state. Appends are the only mutation after
// creation: the language pair is fixed once the record exists and the
// message log never shrinks or reorders.
type Store interface {
	// Load returns the persisted room, or a default empty room (no
	// messages, default language pair) when no record exists. Absence
	// is a handled state, not an error.
	Load(ctx context.Context, roomID string) (room.Room, error)

	// Exists reports whether a record exists for the id.
	Exists(ctx context.Context, roomID string) (bool, error)

	// CreateRoom durably writes a fresh room record with an empty log.
	CreateRoom(ctx context.Context, rm room.Room) error

	// AppendMessage appends one message to the room's log, assigning a
	// CreatedAt that is unique within the room and strictly greater
	// than the previous message's. The stored message is returned.
	AppendMessage(ctx context.Context, roomID string, msg room.Message) (room.Message, error)

	// Close releases any underlying resources.
	Close() error
}

// nextTimestamp picks the CreatedAt for an append: wall-clock now,
// bumped past the previous message when the clock has not advanced, so
// timestamps stay strictly increasing under back-to-back appends.
func nextTimestamp(last time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(last) {
		return last.Add(time.Nanosecond)
	}
	return now
}

// defaultRoom is what Load yields for an id with no record yet.
func defaultRoom(roomID, langA, langB string) room.Room {
	return room.Room{
		ID:        roomID,
		LanguageA: langA,
		LanguageB: langB,
		Messages:  []room.Message{},
	}
}
