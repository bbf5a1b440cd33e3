package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ybpheno16/voiceroom/internal/broker"
	"github.com/ybpheno16/voiceroom/internal/model/room"
	"github.com/ybpheno16/voiceroom/internal/service/translate"
	"github.com/ybpheno16/voiceroom/internal/store"
)

// Transcriber is the slice of the speech service the pipeline needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Service turns one spoken turn into one appended message:
// transcribe, detect, translate toward the other participant's
// configured language, append, publish. Any failure before the append
// leaves the shared log untouched.
type Service struct {
	store      store.Store
	stt        Transcriber
	translator translate.Translator
	detector   translate.Detector
	events     broker.Broker
}

// NewService wires the pipeline. detector and events may be nil;
// detection then always reports unknown and appends are not fanned
// out.
func NewService(st store.Store, stt Transcriber, tr translate.Translator, det translate.Detector, events broker.Broker) *Service {
	return &Service{store: st, stt: stt, translator: tr, detector: det, events: events}
}

// Speak processes one turn for the given speaker. The returned message
// is the one persisted, with its store-assigned CreatedAt.
func (s *Service) Speak(ctx context.Context, roomID string, speaker room.Role, audio io.Reader, filename string) (room.Message, error) {
	if !speaker.Valid() {
		return room.Message{}, fmt.Errorf("invalid speaker role %q", speaker)
	}

	exists, err := s.store.Exists(ctx, roomID)
	if err != nil {
		return room.Message{}, err
	}
	if !exists {
		return room.Message{}, room.ErrRoomNotFound
	}
	rm, err := s.store.Load(ctx, roomID)
	if err != nil {
		return room.Message{}, err
	}

	text, err := s.stt.Transcribe(ctx, audio, filename)
	if err != nil {
		return room.Message{}, err
	}

	// Best-effort detection. A miss is fine: the target language only
	// depends on the room's configured pair, never on what was
	// detected.
	detected := ""
	if s.detector != nil {
		if code, ok := s.detector.Detect(text); ok {
			detected = code
		}
	}
	target := rm.TargetFor(speaker)
	if detected != "" && detected != rm.LanguageA && detected != rm.LanguageB {
		log.Printf("[pipeline] room=%s speaker=%s detected %q, configured pair %s/%s; routing to %s",
			roomID, speaker, detected, rm.LanguageA, rm.LanguageB, target)
	}

	translated := text
	if detected != target {
		translated, err = s.translator.Translate(ctx, text, detected, target)
		if err != nil {
			// The transcript is discarded: a stored message always
			// carries a valid translation.
			return room.Message{}, err
		}
	}

	// A speak aborted mid-flight must not append a partial result.
	if err := ctx.Err(); err != nil {
		return room.Message{}, err
	}

	msg, err := s.store.AppendMessage(ctx, roomID, room.Message{
		Speaker:          speaker,
		OriginalText:     text,
		DetectedLanguage: detected,
		TranslatedText:   translated,
	})
	if err != nil {
		return room.Message{}, err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, roomID, msg); err != nil {
			// Fanout is best effort; polling clients converge anyway.
			log.Printf("[pipeline] publish room=%s: %v", roomID, err)
		}
	}
	return msg, nil
}
