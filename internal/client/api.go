package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// APIClient talks to the voiceroom server. It maps the server's error
// responses back onto the shared failure taxonomy so callers can use
// errors.Is the same way they would against the services directly.
type APIClient struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

// NewAPIClient trims a trailing slash off the base URL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// UseSession attaches a session id to every subsequent request, so
// server logs can tell the two participants of a room apart.
func (c *APIClient) UseSession(id string) {
	c.sessionID = id
}

type roomEnvelope struct {
	Role room.Role `json:"role"`
	Room room.Room `json:"room"`
}

// CreateRoom provisions a room; the caller holds role A.
func (c *APIClient) CreateRoom(ctx context.Context, langA, langB string) (room.Room, room.Role, error) {
	body, _ := json.Marshal(map[string]string{"languageA": langA, "languageB": langB})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rooms", bytes.NewReader(body))
	if err != nil {
		return room.Room{}, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var envelope roomEnvelope
	if err := c.do(req, http.StatusCreated, &envelope); err != nil {
		return room.Room{}, "", err
	}
	return envelope.Room, envelope.Role, nil
}

// JoinRoom validates the shared code; the caller holds role B.
func (c *APIClient) JoinRoom(ctx context.Context, roomID string) (room.Room, room.Role, error) {
	url := fmt.Sprintf("%s/api/rooms/%s/join", c.baseURL, strings.ToUpper(strings.TrimSpace(roomID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return room.Room{}, "", err
	}

	var envelope roomEnvelope
	if err := c.do(req, http.StatusOK, &envelope); err != nil {
		return room.Room{}, "", err
	}
	return envelope.Room, envelope.Role, nil
}

// LoadRoom fetches the current snapshot; it satisfies RoomLoader.
func (c *APIClient) LoadRoom(ctx context.Context, roomID string) (room.Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/rooms/"+roomID, nil)
	if err != nil {
		return room.Room{}, err
	}
	var rm room.Room
	if err := c.do(req, http.StatusOK, &rm); err != nil {
		return room.Room{}, err
	}
	return rm, nil
}

// Speak uploads an audio file as one spoken turn.
func (c *APIClient) Speak(ctx context.Context, roomID string, role room.Role, audioPath string) (room.Message, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return room.Message{}, err
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return room.Message{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return room.Message{}, err
	}
	if err := writer.WriteField("role", string(role)); err != nil {
		return room.Message{}, err
	}
	if err := writer.Close(); err != nil {
		return room.Message{}, err
	}

	url := fmt.Sprintf("%s/api/rooms/%s/speak", c.baseURL, roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return room.Message{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var msg room.Message
	if err := c.do(req, http.StatusCreated, &msg); err != nil {
		return room.Message{}, err
	}
	return msg, nil
}

// Synthesize fetches playback audio for the message identified by its
// CreatedAt.
func (c *APIClient) Synthesize(ctx context.Context, roomID string, createdAt time.Time) ([]byte, error) {
	body, _ := json.Marshal(map[string]int64{"timestamp": createdAt.UnixNano()})
	url := fmt.Sprintf("%s/api/rooms/%s/synthesize", c.baseURL, roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, apiError(resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned %s", room.ErrSynthesisFailed, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// do executes the request and decodes the JSON response into out when
// the status matches.
func (c *APIClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// send stamps the session id header and executes the request.
func (c *APIClient) send(req *http.Request) (*http.Response, error) {
	if c.sessionID != "" {
		req.Header.Set("X-Session-ID", c.sessionID)
	}
	return c.http.Do(req)
}

// apiError turns an error response back into the taxonomy sentinel
// matching its status, keeping the server's message as context.
func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	detail := payload.Error
	if detail == "" {
		detail = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", room.ErrRoomNotFound, detail)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", room.ErrTranscriptionFailed, detail)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: %s", room.ErrTranslationFailed, detail)
	default:
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, detail)
	}
}
