package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestFileStoreRoundTrip(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	rm := room.Room{ID: "ABC123", LanguageA: "en", LanguageB: "hi", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateRoom(ctx, rm))

	got, err := st.Load(ctx, "ABC123")
	require.NoError(t, err)
	require.Equal(t, "en", got.LanguageA)
	require.Equal(t, "hi", got.LanguageB)
	require.Empty(t, got.Messages)

	first, err := st.AppendMessage(ctx, "ABC123", room.Message{
		Speaker:          room.RoleA,
		OriginalText:     "hello",
		DetectedLanguage: "en",
		TranslatedText:   "नमस्ते",
	})
	require.NoError(t, err)
	require.False(t, first.CreatedAt.IsZero())

	got, err = st.Load(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "hello", got.Messages[0].OriginalText)
	require.Equal(t, "नमस्ते", got.Messages[0].TranslatedText)
	require.True(t, first.CreatedAt.Equal(got.Messages[0].CreatedAt))
}

func TestFileStoreLoadMissingReturnsDefault(t *testing.T) {
	st := newFileStore(t)

	got, err := st.Load(context.Background(), "NOPE42")
	require.NoError(t, err)
	require.Equal(t, "NOPE42", got.ID)
	require.Equal(t, "en", got.LanguageA)
	require.Equal(t, "hi", got.LanguageB)
	require.Empty(t, got.Messages)
}

func TestFileStoreExists(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	ok, err := st.Exists(ctx, "ROOM01")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.CreateRoom(ctx, room.Room{ID: "ROOM01", LanguageA: "ta", LanguageB: "te"}))

	ok, err = st.Exists(ctx, "ROOM01")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFileStoreAppendMonotonic(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()
	require.NoError(t, st.CreateRoom(ctx, room.Room{ID: "ROOM02", LanguageA: "en", LanguageB: "hi"}))

	var prev time.Time
	for i := 0; i < 20; i++ {
		msg, err := st.AppendMessage(ctx, "ROOM02", room.Message{Speaker: room.RoleA, OriginalText: "x", TranslatedText: "y"})
		require.NoError(t, err)
		require.True(t, msg.CreatedAt.After(prev), "append %d not strictly increasing", i)
		prev = msg.CreatedAt
	}

	got, err := st.Load(ctx, "ROOM02")
	require.NoError(t, err)
	require.Len(t, got.Messages, 20)
}

func TestFileStoreAppendToMissingRoom(t *testing.T) {
	st := newFileStore(t)

	_, err := st.AppendMessage(context.Background(), "GHOST1", room.Message{Speaker: room.RoleA})
	require.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestFileStoreToleratesTornTrailingLine(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()
	require.NoError(t, st.CreateRoom(ctx, room.Room{ID: "ROOM03", LanguageA: "en", LanguageB: "hi"}))
	_, err := st.AppendMessage(ctx, "ROOM03", room.Message{Speaker: room.RoleB, OriginalText: "ok", TranslatedText: "ok"})
	require.NoError(t, err)

	// Simulate a crash mid-append: an unterminated partial record.
	f, err := os.OpenFile(filepath.Join(st.dir, "conversation_ROOM03.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"speaker":"A","orig`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := st.Load(ctx, "ROOM03")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "ok", got.Messages[0].OriginalText)
}

func TestFileStoreLoadsHeaderlessFile(t *testing.T) {
	st := newFileStore(t)

	// A file from a writer that never produced header records: the
	// first line is already a message and must not be mistaken for a
	// header and dropped.
	lines := `{"speaker":"B","originalText":"second","translatedText":"doosra","createdAt":"2025-06-01T10:00:00Z"}` + "\n" +
		`{"speaker":"A","originalText":"third","translatedText":"teesra","createdAt":"2025-06-01T10:00:05Z"}` + "\n"
	path := filepath.Join(st.dir, "conversation_NOHEAD.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	got, err := st.Load(context.Background(), "NOHEAD")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "second", got.Messages[0].OriginalText)
	require.Equal(t, "third", got.Messages[1].OriginalText)
	require.Equal(t, "en", got.LanguageA)
	require.Equal(t, "hi", got.LanguageB)
}

func TestFileStoreReaderToleratesMissingOptionalFields(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()
	require.NoError(t, st.CreateRoom(ctx, room.Room{ID: "ROOM04", LanguageA: "en", LanguageB: "hi"}))

	// A record written without detectedLanguage, as an older writer
	// would produce, still loads with defaults.
	f, err := os.OpenFile(filepath.Join(st.dir, "conversation_ROOM04.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"speaker":"B","originalText":"hey","translatedText":"अरे","createdAt":"2025-06-01T10:00:00Z"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := st.Load(ctx, "ROOM04")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.Empty(t, got.Messages[0].DetectedLanguage)
}
