package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ybpheno16/voiceroom/internal/model/language"
	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// FileStore keeps one append-only JSONL file per room: a header line
// with the room metadata, then one JSON line per message. Appending a
// message is a single O_APPEND write, so there is no whole-file
// read-modify-write and a concurrent reader never observes a partial
// record (a torn trailing line is skipped on load).
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type fileHeader struct {
	RoomID    string    `json:"roomId"`
	LanguageA string    `json:"languageA"`
	LanguageB string    `json:"languageB"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewFileStore creates the conversations directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create dir: %v", room.ErrStoreIO, err)
	}
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *FileStore) path(roomID string) string {
	return filepath.Join(s.dir, "conversation_"+roomID+".jsonl")
}

// lock returns the per-room mutex serializing appends within this
// process.
func (s *FileStore) lock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	return l
}

// Exists reports whether the room file is present.
func (s *FileStore) Exists(_ context.Context, roomID string) (bool, error) {
	_, err := os.Stat(s.path(roomID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat: %v", room.ErrStoreIO, err)
}

// CreateRoom writes the header line via temp-file-then-rename so a
// concurrent Load never sees a half-written record.
func (s *FileStore) CreateRoom(_ context.Context, rm room.Room) error {
	header := fileHeader{
		RoomID:    rm.ID,
		LanguageA: rm.LanguageA,
		LanguageB: rm.LanguageB,
		CreatedAt: rm.CreatedAt,
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("%w: encode header: %v", room.ErrStoreIO, err)
	}

	tmp, err := os.CreateTemp(s.dir, "conversation_*.tmp")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", room.ErrStoreIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write header: %v", room.ErrStoreIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp: %v", room.ErrStoreIO, err)
	}
	if err := os.Rename(tmpName, s.path(rm.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename: %v", room.ErrStoreIO, err)
	}
	return nil
}

// Load reads the whole room file. Malformed lines are skipped rather
// than failing the load, which covers both a torn trailing append and
// records written by newer versions with fields this reader ignores.
func (s *FileStore) Load(_ context.Context, roomID string) (room.Room, error) {
	f, err := os.Open(s.path(roomID))
	if errors.Is(err, os.ErrNotExist) {
		return defaultRoom(roomID, language.DefaultA, language.DefaultB), nil
	}
	if err != nil {
		return room.Room{}, fmt.Errorf("%w: open: %v", room.ErrStoreIO, err)
	}
	defer f.Close()

	rm := defaultRoom(roomID, language.DefaultA, language.DefaultB)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			// Only a record carrying the room id is a header. A message
			// line also unmarshals into fileHeader (unknown fields are
			// ignored), so the roomId check is what keeps a headerless
			// file from losing its first message.
			var header fileHeader
			if err := json.Unmarshal(line, &header); err == nil && header.RoomID != "" {
				if header.LanguageA != "" {
					rm.LanguageA = header.LanguageA
				}
				if header.LanguageB != "" {
					rm.LanguageB = header.LanguageB
				}
				rm.CreatedAt = header.CreatedAt
				continue
			}
			// No header: an older writer's file starting directly with
			// messages. The line is parsed as a message below.
		}
		var msg room.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		rm.Messages = append(rm.Messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return room.Room{}, fmt.Errorf("%w: read: %v", room.ErrStoreIO, err)
	}
	return rm, nil
}

// AppendMessage assigns the timestamp and appends one line. The
// per-room lock keeps the read-assign-write sequence atomic for the
// writers of this process, which owns the store.
func (s *FileStore) AppendMessage(ctx context.Context, roomID string, msg room.Message) (room.Message, error) {
	l := s.lock(roomID)
	l.Lock()
	defer l.Unlock()

	ok, err := s.Exists(ctx, roomID)
	if err != nil {
		return room.Message{}, err
	}
	if !ok {
		return room.Message{}, room.ErrRoomNotFound
	}

	rm, err := s.Load(ctx, roomID)
	if err != nil {
		return room.Message{}, err
	}
	var last time.Time
	if prev, ok := rm.LastMessage(); ok {
		last = prev.CreatedAt
	}
	msg.CreatedAt = nextTimestamp(last)

	data, err := json.Marshal(msg)
	if err != nil {
		return room.Message{}, fmt.Errorf("%w: encode message: %v", room.ErrStoreIO, err)
	}

	f, err := os.OpenFile(s.path(roomID), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return room.Message{}, fmt.Errorf("%w: open append: %v", room.ErrStoreIO, err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return room.Message{}, fmt.Errorf("%w: append: %v", room.ErrStoreIO, err)
	}
	return msg, nil
}

// Close is a no-op; files are opened per operation.
func (s *FileStore) Close() error { return nil }
