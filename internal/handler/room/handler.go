package room

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ybpheno16/voiceroom/internal/model/language"
	roommodel "github.com/ybpheno16/voiceroom/internal/model/room"
	"github.com/ybpheno16/voiceroom/pkg/utils"
)

// Lifecycle abstracts the room service for testability.
type Lifecycle interface {
	Create(ctx context.Context, langA, langB string) (roommodel.Room, error)
	Join(ctx context.Context, roomID string) (roommodel.Room, error)
	Get(ctx context.Context, roomID string) (roommodel.Room, error)
}

// Handler serves room lifecycle and the polling snapshot endpoint.
type Handler struct {
	rooms Lifecycle
}

func New(rooms Lifecycle) *Handler {
	return &Handler{rooms: rooms}
}

// RegisterRoutes mounts the room endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleLanguages)
	r.Post("/rooms", h.handleCreate)
	r.Post("/rooms/{roomID}/join", h.handleJoin)
	r.Get("/rooms/{roomID}", h.handleGet)
}

// handleLanguages lists the supported language set with display names.
func (h *Handler) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, language.Supported())
}

// handleCreate provisions a room; the caller becomes role A.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		LanguageA string `json:"languageA"`
		LanguageB string `json:"languageB"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rm, err := h.rooms.Create(r.Context(), payload.LanguageA, payload.LanguageB)
	if err != nil {
		if errors.Is(err, roommodel.ErrUnsupportedLanguage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"role": roommodel.RoleA,
		"room": rm,
	})
}

// handleJoin validates the shared code; the caller becomes role B.
func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	rm, err := h.rooms.Join(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		if errors.Is(err, roommodel.ErrRoomNotFound) {
			utils.RespondError(w, http.StatusNotFound, "room not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"role": roommodel.RoleB,
		"room": rm,
	})
}

// handleGet returns the room snapshot for polling clients. An optional
// after query parameter (UnixNano of the newest message already seen)
// trims the log to what the client has not observed yet.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rm, err := h.rooms.Get(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		if errors.Is(err, roommodel.ErrRoomNotFound) {
			utils.RespondError(w, http.StatusNotFound, "room not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if raw := r.URL.Query().Get("after"); raw != "" {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid after parameter")
			return
		}
		rm.Messages = rm.MessagesAfter(time.Unix(0, nanos).UTC())
	}

	utils.RespondJSON(w, http.StatusOK, rm)
}
