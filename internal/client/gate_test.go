package client

import (
	"testing"
	"time"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

func msgAt(speaker room.Role, ts time.Time) room.Message {
	return room.Message{Speaker: speaker, TranslatedText: "text", CreatedAt: ts}
}

func TestNextPlayableEmptyRoom(t *testing.T) {
	sess := NewSession("ROOM01", room.RoleB)

	if _, ok := sess.NextPlayable(room.Room{}); ok {
		t.Fatal("empty room has nothing to play")
	}
}

func TestNextPlayableSkipsOwnMessage(t *testing.T) {
	sess := NewSession("ROOM01", room.RoleB)
	rm := room.Room{Messages: []room.Message{msgAt(room.RoleB, time.Now())}}

	if _, ok := sess.NextPlayable(rm); ok {
		t.Fatal("a session never plays its own speech back")
	}
}

func TestPlaybackOnce(t *testing.T) {
	sess := NewSession("ROOM01", room.RoleB)
	t1 := time.Now().UTC()
	rm := room.Room{Messages: []room.Message{msgAt(room.RoleA, t1)}}

	msg, ok := sess.NextPlayable(rm)
	if !ok {
		t.Fatal("expected the fresh message to be playable")
	}
	sess.MarkPlayed(msg)

	if !sess.LastPlayed().Equal(t1) {
		t.Fatalf("high-water mark = %v, want %v", sess.LastPlayed(), t1)
	}
	// Re-evaluating with the same newest message must never replay.
	if _, ok := sess.NextPlayable(rm); ok {
		t.Fatal("message played once must not play again")
	}
	// Nor with an older newest message.
	older := room.Room{Messages: []room.Message{msgAt(room.RoleA, t1.Add(-time.Second))}}
	if _, ok := sess.NextPlayable(older); ok {
		t.Fatal("older newest message must not play")
	}
}

func TestOnlyNewestMessageTriggersPlayback(t *testing.T) {
	sess := NewSession("ROOM01", room.RoleB)
	base := time.Now().UTC()
	rm := room.Room{Messages: []room.Message{
		msgAt(room.RoleA, base),
		msgAt(room.RoleA, base.Add(time.Second)),
		msgAt(room.RoleA, base.Add(2*time.Second)),
	}}

	msg, ok := sess.NextPlayable(rm)
	if !ok {
		t.Fatal("expected a playable message")
	}
	if !msg.CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Fatal("only the newest unseen message is played, no catch-up queue")
	}
	sess.MarkPlayed(msg)

	if _, ok := sess.NextPlayable(rm); ok {
		t.Fatal("skipped messages are never auto-played")
	}
}

func TestMarkPlayedNeverMovesBackward(t *testing.T) {
	sess := NewSession("ROOM01", room.RoleA)
	newer := time.Now().UTC()
	sess.MarkPlayed(msgAt(room.RoleB, newer))
	sess.MarkPlayed(msgAt(room.RoleB, newer.Add(-time.Minute)))

	if !sess.LastPlayed().Equal(newer) {
		t.Fatal("high-water mark must not move backward")
	}
}

func TestNewestFromOtherSideAfterMarkIsPlayable(t *testing.T) {
	sess := NewSession("ROOM01", room.RoleA)
	t1 := time.Now().UTC()
	sess.MarkPlayed(msgAt(room.RoleB, t1))

	rm := room.Room{Messages: []room.Message{msgAt(room.RoleB, t1.Add(time.Second))}}
	if _, ok := sess.NextPlayable(rm); !ok {
		t.Fatal("a strictly newer message from the other side plays")
	}
}
