package room

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ybpheno16/voiceroom/internal/model/language"
	roommodel "github.com/ybpheno16/voiceroom/internal/model/room"
	"github.com/ybpheno16/voiceroom/internal/store"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// Collisions in a 36^6 space are negligible, but the store is
	// still consulted and the code regenerated when one happens.
	maxCodeAttempts = 5
)

// Service implements room lifecycle: creation with a fresh shareable
// code, and join validation. The creator always holds role A, the
// joiner role B; a room never has more than the two slots.
type Service struct {
	store store.Store
}

// NewService wires the lifecycle service to a conversation store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Create validates the language pair, generates an unused room code
// and persists the empty room. The returned room is what role A sees.
func (s *Service) Create(ctx context.Context, langA, langB string) (roommodel.Room, error) {
	langA = language.Normalize(langA)
	langB = language.Normalize(langB)
	if !language.IsSupported(langA) {
		return roommodel.Room{}, fmt.Errorf("%w: %q", roommodel.ErrUnsupportedLanguage, langA)
	}
	if !language.IsSupported(langB) {
		return roommodel.Room{}, fmt.Errorf("%w: %q", roommodel.ErrUnsupportedLanguage, langB)
	}

	var id string
	for attempt := 0; ; attempt++ {
		id = newRoomCode()
		exists, err := s.store.Exists(ctx, id)
		if err != nil {
			return roommodel.Room{}, err
		}
		if !exists {
			break
		}
		if attempt+1 >= maxCodeAttempts {
			return roommodel.Room{}, fmt.Errorf("%w: could not allocate room code", roommodel.ErrStoreIO)
		}
		log.Printf("[room] code collision on %s, regenerating", id)
	}

	rm := roommodel.Room{
		ID:        id,
		LanguageA: langA,
		LanguageB: langB,
		CreatedAt: time.Now().UTC(),
		Messages:  []roommodel.Message{},
	}
	if err := s.store.CreateRoom(ctx, rm); err != nil {
		return roommodel.Room{}, err
	}
	return rm, nil
}

// Join validates a room id entered by the second participant. The id
// is a public join token: anyone holding it becomes role B. Unknown
// ids fail with ErrRoomNotFound and mutate nothing.
func (s *Service) Join(ctx context.Context, roomID string) (roommodel.Room, error) {
	roomID = NormalizeID(roomID)
	exists, err := s.store.Exists(ctx, roomID)
	if err != nil {
		return roommodel.Room{}, err
	}
	if !exists {
		return roommodel.Room{}, roommodel.ErrRoomNotFound
	}
	return s.store.Load(ctx, roomID)
}

// Get loads an existing room's current state, for polling clients.
func (s *Service) Get(ctx context.Context, roomID string) (roommodel.Room, error) {
	return s.Join(ctx, roomID)
}

// NormalizeID uppercases and trims a user-typed room code.
func NormalizeID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// newRoomCode draws six characters from the uppercase alphanumeric
// alphabet.
func newRoomCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
