package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ybpheno16/voiceroom/internal/model/language"
	"github.com/ybpheno16/voiceroom/internal/model/room"
)

var (
	bucketRooms    = []byte("rooms")
	bucketMessages = []byte("messages")
)

// BoltStore persists rooms in a single bbolt file: the rooms bucket
// holds one metadata record per id, and the messages bucket holds one
// nested bucket per room keyed by big-endian CreatedAt nanos, so a
// cursor walk yields messages in append order. Appends run inside a
// write transaction, which removes the lost-update hazard outright.
type BoltStore struct {
	db *bolt.DB
}

type boltMeta struct {
	LanguageA string    `json:"languageA"`
	LanguageB string    `json:"languageB"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewBoltStore opens (creating if needed) the database file.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create dir: %v", room.ErrStoreIO, err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt: %v", room.ErrStoreIO, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRooms); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMessages)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init buckets: %v", room.ErrStoreIO, err)
	}
	return &BoltStore{db: db}, nil
}

// Exists reports whether a metadata record is present for the id.
func (s *BoltStore) Exists(_ context.Context, roomID string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketRooms).Get([]byte(roomID)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", room.ErrStoreIO, err)
	}
	return found, nil
}

// CreateRoom writes the metadata record inside one transaction.
func (s *BoltStore) CreateRoom(_ context.Context, rm room.Room) error {
	meta := boltMeta{LanguageA: rm.LanguageA, LanguageB: rm.LanguageB, CreatedAt: rm.CreatedAt}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: encode meta: %v", room.ErrStoreIO, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRooms).Put([]byte(rm.ID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", room.ErrStoreIO, err)
	}
	return nil
}

// Load returns the room with its full ordered log, or the default
// empty room when no record exists.
func (s *BoltStore) Load(_ context.Context, roomID string) (room.Room, error) {
	rm := defaultRoom(roomID, language.DefaultA, language.DefaultB)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketRooms).Get([]byte(roomID))
		if raw == nil {
			return nil
		}
		var meta boltMeta
		if err := json.Unmarshal(raw, &meta); err == nil {
			if meta.LanguageA != "" {
				rm.LanguageA = meta.LanguageA
			}
			if meta.LanguageB != "" {
				rm.LanguageB = meta.LanguageB
			}
			rm.CreatedAt = meta.CreatedAt
		}
		msgs := tx.Bucket(bucketMessages).Bucket([]byte(roomID))
		if msgs == nil {
			return nil
		}
		return msgs.ForEach(func(_, v []byte) error {
			var msg room.Message
			if err := json.Unmarshal(v, &msg); err != nil {
				// Skip malformed entries instead of failing the load.
				return nil
			}
			rm.Messages = append(rm.Messages, msg)
			return nil
		})
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("%w: %v", room.ErrStoreIO, err)
	}
	return rm, nil
}

// AppendMessage assigns the timestamp from the current tail key and
// puts the new record, all inside one write transaction.
func (s *BoltStore) AppendMessage(_ context.Context, roomID string, msg room.Message) (room.Message, error) {
	var stored room.Message
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketRooms).Get([]byte(roomID)) == nil {
			return room.ErrRoomNotFound
		}
		msgs, err := tx.Bucket(bucketMessages).CreateBucketIfNotExists([]byte(roomID))
		if err != nil {
			return err
		}
		var last time.Time
		if k, _ := msgs.Cursor().Last(); k != nil {
			last = time.Unix(0, int64(binary.BigEndian.Uint64(k))).UTC()
		}
		msg.CreatedAt = nextTimestamp(last)

		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, uint64(msg.CreatedAt.UnixNano()))
		if err := msgs.Put(key, data); err != nil {
			return err
		}
		stored = msg
		return nil
	})
	if err != nil {
		if err == room.ErrRoomNotFound {
			return room.Message{}, err
		}
		return room.Message{}, fmt.Errorf("%w: %v", room.ErrStoreIO, err)
	}
	return stored, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
