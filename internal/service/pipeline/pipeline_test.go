package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ybpheno16/voiceroom/internal/broker"
	"github.com/ybpheno16/voiceroom/internal/model/room"
	"github.com/ybpheno16/voiceroom/internal/store"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, io.Reader, string) (string, error) {
	return f.text, f.err
}

type fakeTranslator struct {
	out   string
	err   error
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.out != "" {
		return f.out, nil
	}
	return "translated:" + text, nil
}

type fakeDetector struct {
	code string
	ok   bool
}

func (f *fakeDetector) Detect(string) (string, bool) { return f.code, f.ok }

func newTestStore(t *testing.T, roomID string) store.Store {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.CreateRoom(context.Background(), room.Room{ID: roomID, LanguageA: "en", LanguageB: "hi"}))
	return st
}

func audio() io.Reader { return strings.NewReader("not really audio") }

func TestSpeakAppendsTranslatedMessage(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "PIPE01")
	translator := &fakeTranslator{out: "नमस्ते"}

	svc := NewService(st, &fakeTranscriber{text: "hello"}, translator, &fakeDetector{code: "en", ok: true}, nil)

	msg, err := svc.Speak(ctx, "PIPE01", room.RoleA, audio(), "turn.wav")
	require.NoError(t, err)
	require.Equal(t, room.RoleA, msg.Speaker)
	require.Equal(t, "hello", msg.OriginalText)
	require.Equal(t, "en", msg.DetectedLanguage)
	require.Equal(t, "नमस्ते", msg.TranslatedText)
	require.False(t, msg.CreatedAt.IsZero())
	require.Equal(t, 1, translator.calls)

	rm, err := st.Load(ctx, "PIPE01")
	require.NoError(t, err)
	require.Len(t, rm.Messages, 1)
}

func TestSpeakSameLanguageSkipsTranslation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "PIPE02")
	translator := &fakeTranslator{}

	// Speaker B's target is A's language (en); detection also says en.
	svc := NewService(st, &fakeTranscriber{text: "already english"}, translator, &fakeDetector{code: "en", ok: true}, nil)

	msg, err := svc.Speak(ctx, "PIPE02", room.RoleB, audio(), "turn.wav")
	require.NoError(t, err)
	require.Equal(t, "already english", msg.TranslatedText)
	require.Zero(t, translator.calls, "no translation call when detected equals target")
}

func TestSpeakDetectionMissStillTranslates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "PIPE03")
	translator := &fakeTranslator{}

	svc := NewService(st, &fakeTranscriber{text: "naan nalla irukken"}, translator, &fakeDetector{ok: false}, nil)

	msg, err := svc.Speak(ctx, "PIPE03", room.RoleA, audio(), "turn.wav")
	require.NoError(t, err)
	require.Empty(t, msg.DetectedLanguage)
	require.Equal(t, "translated:naan nalla irukken", msg.TranslatedText)
	require.Equal(t, 1, translator.calls)
}

func TestSpeakTranscriptionFailureAppendsNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "PIPE04")

	svc := NewService(st, &fakeTranscriber{err: room.ErrTranscriptionFailed}, &fakeTranslator{}, &fakeDetector{}, nil)

	_, err := svc.Speak(ctx, "PIPE04", room.RoleA, audio(), "turn.wav")
	require.ErrorIs(t, err, room.ErrTranscriptionFailed)

	rm, err := st.Load(ctx, "PIPE04")
	require.NoError(t, err)
	require.Empty(t, rm.Messages)
}

func TestSpeakTranslationFailureAppendsNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "PIPE05")

	svc := NewService(st, &fakeTranscriber{text: "hello"}, &fakeTranslator{err: room.ErrTranslationFailed}, &fakeDetector{code: "en", ok: true}, nil)

	_, err := svc.Speak(ctx, "PIPE05", room.RoleA, audio(), "turn.wav")
	require.ErrorIs(t, err, room.ErrTranslationFailed)

	rm, err := st.Load(ctx, "PIPE05")
	require.NoError(t, err)
	require.Empty(t, rm.Messages, "failed translation must not leave a half-result in the log")
}

func TestSpeakUnknownRoom(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(st, &fakeTranscriber{text: "hello"}, &fakeTranslator{}, &fakeDetector{}, nil)

	_, err = svc.Speak(context.Background(), "GHOST3", room.RoleA, audio(), "turn.wav")
	require.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestSpeakCancelledContextAppendsNothing(t *testing.T) {
	st := newTestStore(t, "PIPE06")

	ctx, cancel := context.WithCancel(context.Background())
	translator := &fakeTranslator{}
	svc := NewService(st, &fakeTranscriber{text: "hello"}, cancellingTranslator{translator, cancel}, &fakeDetector{code: "en", ok: true}, nil)

	_, err := svc.Speak(ctx, "PIPE06", room.RoleA, audio(), "turn.wav")
	require.ErrorIs(t, err, context.Canceled)

	rm, err := st.Load(context.Background(), "PIPE06")
	require.NoError(t, err)
	require.Empty(t, rm.Messages, "a cancelled speak must not append")
}

// cancellingTranslator cancels the speak mid-flight, after translation
// but before the append.
type cancellingTranslator struct {
	inner  *fakeTranslator
	cancel context.CancelFunc
}

func (c cancellingTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	out, err := c.inner.Translate(ctx, text, src, dst)
	c.cancel()
	return out, err
}

func TestSpeakPublishesAppendedMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := newTestStore(t, "PIPE07")
	events := broker.NewMemoryBroker()
	sub, err := events.Subscribe(ctx, "PIPE07")
	require.NoError(t, err)

	svc := NewService(st, &fakeTranscriber{text: "hello"}, &fakeTranslator{out: "नमस्ते"}, &fakeDetector{code: "en", ok: true}, events)

	msg, err := svc.Speak(ctx, "PIPE07", room.RoleA, audio(), "turn.wav")
	require.NoError(t, err)

	got := <-sub
	require.Equal(t, msg.TranslatedText, got.TranslatedText)
	require.True(t, msg.CreatedAt.Equal(got.CreatedAt))
}
