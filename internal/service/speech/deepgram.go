package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

const deepgramListenURL = "https://api.deepgram.com/v1/listen?model=nova-2&smart_format=true"

// DeepgramClient is an alternative transcription provider, selected by
// configuration when a Deepgram key is preferred over Whisper.
type DeepgramClient struct {
	apiKey string
	client *http.Client
}

func NewDeepgramClient(apiKey string) *DeepgramClient {
	return &DeepgramClient{apiKey: apiKey, client: &http.Client{}}
}

// Transcribe posts the raw audio and picks the first alternative of
// the first channel, which is the best-effort transcript.
func (c *DeepgramClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deepgramListenURL, audio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", room.ErrTranscriptionFailed, err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", contentTypeFor(filename))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: deepgram request: %v", room.ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: deepgram: %s", room.ErrTranscriptionFailed, body)
	}

	var parsed struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode deepgram: %v", room.ErrTranscriptionFailed, err)
	}
	if len(parsed.Results.Channels) == 0 ||
		len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", room.ErrTranscriptionFailed
	}
	text := strings.TrimSpace(parsed.Results.Channels[0].Alternatives[0].Transcript)
	if text == "" {
		return "", room.ErrTranscriptionFailed
	}
	return text, nil
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".ogg"):
		return "audio/ogg"
	case strings.HasSuffix(filename, ".mp3"):
		return "audio/mpeg"
	default:
		return "audio/wav"
	}
}
