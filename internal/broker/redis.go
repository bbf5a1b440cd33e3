package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// RedisBroker fans messages out through Redis Pub/Sub, one channel per
// room, so subscribers on other server instances see appends too.
type RedisBroker struct {
	rdb *redis.Client
}

// NewRedisBroker verifies connectivity before returning.
func NewRedisBroker(ctx context.Context, addr, password string, db int) (*RedisBroker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBroker{rdb: rdb}, nil
}

func channelFor(roomID string) string {
	return "room:" + roomID
}

// Publish serializes the message onto the room's channel.
func (b *RedisBroker) Publish(ctx context.Context, roomID string, msg room.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelFor(roomID), payload).Err()
}

// Subscribe bridges the Redis subscription onto a typed channel.
func (b *RedisBroker) Subscribe(ctx context.Context, roomID string) (<-chan room.Message, error) {
	pubsub := b.rdb.Subscribe(ctx, channelFor(roomID))
	out := make(chan room.Message, 16)

	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg room.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					log.Printf("[broker] bad payload on %s: %v", raw.Channel, err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases the underlying client.
func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
