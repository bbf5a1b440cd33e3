package room

import "time"

// Role identifies one of the two fixed participant slots in a room.
// The creator is always A, the joiner is always B.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// Valid reports whether the role is one of the two known slots.
func (r Role) Valid() bool {
	return r == RoleA || r == RoleB
}

// Other returns the opposite participant slot.
func (r Role) Other() Role {
	if r == RoleA {
		return RoleB
	}
	return RoleA
}

// Room is the shared conversation state for one two-party session.
// The id and language pair are fixed at creation; Messages is
// append-only and ordered by CreatedAt.
type Room struct {
	ID        string    `json:"roomId"`
	LanguageA string    `json:"languageA"`
	LanguageB string    `json:"languageB"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
}

// LanguageFor returns the configured language of the given participant.
func (r Room) LanguageFor(role Role) string {
	if role == RoleA {
		return r.LanguageA
	}
	return r.LanguageB
}

// TargetFor returns the translation target for a speaker, which is
// always the other participant's configured language regardless of
// what the speaker was detected to actually speak.
func (r Room) TargetFor(speaker Role) string {
	return r.LanguageFor(speaker.Other())
}

// LastMessage returns the newest message, if any.
func (r Room) LastMessage() (Message, bool) {
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// MessagesAfter returns the messages appended strictly after the given
// timestamp. Messages are ordered, so a single scan from the tail
// would do; rooms are short enough that a linear filter is fine.
func (r Room) MessagesAfter(after time.Time) []Message {
	out := make([]Message, 0, len(r.Messages))
	for _, msg := range r.Messages {
		if msg.CreatedAt.After(after) {
			out = append(out, msg)
		}
	}
	return out
}
