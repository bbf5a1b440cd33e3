package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// OpenAIClient serves both speech directions: Whisper for
// transcription and the TTS endpoint for playback audio.
type OpenAIClient struct {
	client *openai.Client
	voice  openai.SpeechVoice
	speed  float64
}

// NewOpenAIClient builds a client. voice may be empty, in which case
// a neutral default is used.
func NewOpenAIClient(apiKey, voice string, speed float64) *OpenAIClient {
	v := openai.VoiceAlloy
	if voice != "" {
		v = openai.SpeechVoice(voice)
	}
	if speed == 0 {
		speed = 1.0
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		voice:  v,
		speed:  speed,
	}
}

// Transcribe runs Whisper over the uploaded audio. An empty transcript
// is treated the same as a service failure: no usable speech.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("%w: whisper: %v", room.ErrTranscriptionFailed, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", room.ErrTranscriptionFailed
	}
	return text, nil
}

// Synthesize produces mp3 audio for the given text. The language code
// is not passed to the API; the TTS model infers it from the text.
func (c *OpenAIClient) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          c.voice,
		Speed:          c.speed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", room.ErrSynthesisFailed, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %v", room.ErrSynthesisFailed, err)
	}
	return data, nil
}
