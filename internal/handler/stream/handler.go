package stream

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ybpheno16/voiceroom/internal/broker"
	roommodel "github.com/ybpheno16/voiceroom/internal/model/room"
	roomservice "github.com/ybpheno16/voiceroom/internal/service/room"
	"github.com/ybpheno16/voiceroom/pkg/utils"
)

// RoomLoader gates subscriptions to rooms that actually exist.
type RoomLoader interface {
	Get(ctx context.Context, roomID string) (roommodel.Room, error)
}

// Handler serves the push channel: WebSocket and SSE subscriptions to
// a room's appended messages. Clients that prefer polling simply skip
// these endpoints.
type Handler struct {
	events broker.Broker
	rooms  RoomLoader
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Room ids are public join tokens, so any origin may subscribe.
	CheckOrigin: func(*http.Request) bool { return true },
}

func New(events broker.Broker, rooms RoomLoader) *Handler {
	return &Handler{events: events, rooms: rooms}
}

// RegisterRoutes mounts the subscription endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/rooms/{roomID}/ws", h.handleWebSocket)
	r.Get("/rooms/{roomID}/events", h.handleSSE)
}

// handleWebSocket streams appended messages as JSON frames until the
// peer disconnects.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Publishes use the canonical stored id, so subscriptions must too.
	roomID := roomservice.NormalizeID(chi.URLParam(r, "roomID"))
	if _, err := h.rooms.Get(r.Context(), roomID); err != nil {
		if errors.Is(err, roommodel.ErrRoomNotFound) {
			utils.RespondError(w, http.StatusNotFound, "room not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] upgrade failed for room=%s: %v", roomID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	msgs, err := h.events.Subscribe(ctx, roomID)
	if err != nil {
		log.Printf("[stream] subscribe failed for room=%s: %v", roomID, err)
		return
	}

	// The read side only exists to notice the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	log.Printf("[stream] ws subscriber joined room=%s", roomID)
	for msg := range msgs {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[stream] ws write failed for room=%s: %v", roomID, err)
			return
		}
	}
}

// handleSSE streams appended messages as Server-Sent Events.
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	roomID := roomservice.NormalizeID(chi.URLParam(r, "roomID"))
	if _, err := h.rooms.Get(r.Context(), roomID); err != nil {
		if errors.Is(err, roommodel.ErrRoomNotFound) {
			utils.RespondError(w, http.StatusNotFound, "room not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	msgs, err := h.events.Subscribe(r.Context(), roomID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "status", map[string]string{"message": "subscribed"})

	log.Printf("[stream] sse subscriber joined room=%s", roomID)
	for {
		select {
		case <-r.Context().Done():
			log.Printf("[stream] sse subscriber left room=%s", roomID)
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			utils.SendSSEEvent(w, flusher, "message", msg)
		}
	}
}
