package client

import (
	"context"
	"log"
	"time"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// RoomLoader is the read side of the conversation API.
type RoomLoader interface {
	LoadRoom(ctx context.Context, roomID string) (room.Room, error)
}

// Poller is the client refresh loop: every interval it reloads the
// room, hands the snapshot to the UI callback and evaluates the
// playback gate. Staleness between an append and this client seeing
// it is bounded by the interval.
type Poller struct {
	loader   RoomLoader
	session  *Session
	interval time.Duration

	// OnRefresh receives every successfully loaded snapshot.
	OnRefresh func(room.Room)
	// OnPlay speaks one message aloud. Errors are logged, never
	// retried; the high-water mark advances regardless.
	OnPlay func(context.Context, room.Message) error
}

// NewPoller builds a poller for a session. A non-positive interval
// falls back to the 3-second default.
func NewPoller(loader RoomLoader, session *Session, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{loader: loader, session: session, interval: interval}
}

// Run polls until ctx is cancelled. The first refresh happens
// immediately so a joining participant sees the existing history
// without waiting a full tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	rm, err := p.loader.LoadRoom(ctx, p.session.RoomID)
	if err != nil {
		log.Printf("[poll] room=%s refresh failed: %v", p.session.RoomID, err)
		return
	}

	if p.OnRefresh != nil {
		p.OnRefresh(rm)
	}

	msg, ok := p.session.NextPlayable(rm)
	if !ok {
		return
	}
	if p.OnPlay != nil {
		if err := p.OnPlay(ctx, msg); err != nil {
			log.Printf("[poll] room=%s playback failed: %v", p.session.RoomID, err)
		}
	}
	// At-most-once per message: the mark moves even after a failed
	// playback.
	p.session.MarkPlayed(msg)
}
