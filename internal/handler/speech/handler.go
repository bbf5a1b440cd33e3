package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	roommodel "github.com/ybpheno16/voiceroom/internal/model/room"
	roomservice "github.com/ybpheno16/voiceroom/internal/service/room"
	"github.com/ybpheno16/voiceroom/pkg/utils"
)

// Pipeline abstracts the message pipeline for testability.
type Pipeline interface {
	Speak(ctx context.Context, roomID string, speaker roommodel.Role, audio io.Reader, filename string) (roommodel.Message, error)
}

// Synthesizer produces playback audio for a stored message.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, langCode string) ([]byte, error)
}

// RoomLoader resolves the room a synthesize request refers to.
type RoomLoader interface {
	Get(ctx context.Context, roomID string) (roommodel.Room, error)
}

// Handler serves the speak and synthesize endpoints. Either service
// may be nil when its provider is not configured; the endpoint then
// answers 503 instead of failing at startup.
type Handler struct {
	pipeline  Pipeline
	tts       Synthesizer
	rooms     RoomLoader
	maxUpload int64
}

func New(pipeline Pipeline, tts Synthesizer, rooms RoomLoader, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 16 << 20
	}
	return &Handler{pipeline: pipeline, tts: tts, rooms: rooms, maxUpload: maxUpload}
}

// RegisterRoutes mounts the speech endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rooms/{roomID}/speak", h.handleSpeak)
	r.Post("/rooms/{roomID}/synthesize", h.handleSynthesize)
}

// handleSpeak accepts multipart audio plus the speaker role and runs
// the full transcribe-translate-append pipeline.
func (h *Handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "speech pipeline not available")
		return
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	role := roommodel.Role(r.FormValue("role"))
	if !role.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "role must be A or B")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	roomID := roomservice.NormalizeID(chi.URLParam(r, "roomID"))
	msg, err := h.pipeline.Speak(r.Context(), roomID, role, file, header.Filename)
	if err != nil {
		utils.RespondError(w, speakStatus(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, msg)
}

func speakStatus(err error) int {
	switch {
	case errors.Is(err, roommodel.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, roommodel.ErrTranscriptionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, roommodel.ErrTranslationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleSynthesize returns playback audio for one stored message,
// spoken in the listening participant's language. The message is
// addressed by its CreatedAt nanos, which is its identity key.
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if h.tts == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "speech synthesis not available")
		return
	}

	var payload struct {
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rm, err := h.rooms.Get(r.Context(), roomservice.NormalizeID(chi.URLParam(r, "roomID")))
	if err != nil {
		if errors.Is(err, roommodel.ErrRoomNotFound) {
			utils.RespondError(w, http.StatusNotFound, "room not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var target *roommodel.Message
	for i := range rm.Messages {
		if rm.Messages[i].CreatedAt.UnixNano() == payload.Timestamp {
			target = &rm.Messages[i]
			break
		}
	}
	if target == nil {
		utils.RespondError(w, http.StatusNotFound, "message not found")
		return
	}

	listener := target.Speaker.Other()
	audio, err := h.tts.Synthesize(r.Context(), target.TranslatedText, rm.LanguageFor(listener))
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.RespondAudio(w, "audio/mpeg", audio)
}
