package speech

import (
	"context"
	"io"
)

// Transcriber converts captured speech audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Synthesizer converts text into playable audio (mp3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text, langCode string) ([]byte, error)
}

// Service is the single entry point for both directions of the speech
// boundary, so callers never care which provider is configured.
type Service struct {
	stt Transcriber
	tts Synthesizer
}

// NewService wires the configured provider clients.
func NewService(stt Transcriber, tts Synthesizer) *Service {
	return &Service{stt: stt, tts: tts}
}

func (s *Service) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	return s.stt.Transcribe(ctx, audio, filename)
}

// CanSynthesize reports whether a TTS provider is configured. A
// Deepgram-only deployment transcribes but cannot produce playback
// audio.
func (s *Service) CanSynthesize() bool {
	return s.tts != nil
}

func (s *Service) Synthesize(ctx context.Context, text, langCode string) ([]byte, error) {
	return s.tts.Synthesize(ctx, text, langCode)
}
