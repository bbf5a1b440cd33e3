package client

import "github.com/ybpheno16/voiceroom/internal/model/room"

// NextPlayable decides whether the newest message of a freshly loaded
// room should be spoken aloud to this session. Only the latest message
// is ever considered: a participant who missed several turns hears
// just the newest one, there is no catch-up queue.
func (s *Session) NextPlayable(rm room.Room) (room.Message, bool) {
	msg, ok := rm.LastMessage()
	if !ok {
		return room.Message{}, false
	}
	if msg.Speaker == s.Role {
		return room.Message{}, false
	}
	if !msg.CreatedAt.After(s.lastPlayed) {
		return room.Message{}, false
	}
	return msg, true
}

// MarkPlayed advances the high-water mark. Callers invoke it whether
// or not playback succeeded: a failed playback is never retried, so a
// glitch cannot wedge the session in a replay loop.
func (s *Session) MarkPlayed(msg room.Message) {
	if msg.CreatedAt.After(s.lastPlayed) {
		s.lastPlayed = msg.CreatedAt
	}
}
