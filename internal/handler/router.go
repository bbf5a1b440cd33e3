package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ybpheno16/voiceroom/internal/broker"
	roomhandler "github.com/ybpheno16/voiceroom/internal/handler/room"
	speechhandler "github.com/ybpheno16/voiceroom/internal/handler/speech"
	streamhandler "github.com/ybpheno16/voiceroom/internal/handler/stream"
	middlewarePkg "github.com/ybpheno16/voiceroom/internal/middleware"
	pipelineservice "github.com/ybpheno16/voiceroom/internal/service/pipeline"
	roomservice "github.com/ybpheno16/voiceroom/internal/service/room"
	speechservice "github.com/ybpheno16/voiceroom/internal/service/speech"
)

// NewRouter wires HTTP routes to core services. pipelineSvc and
// speechSvc may be nil when their provider credentials are missing;
// the affected endpoints degrade to 503 while rooms and polling keep
// working.
func NewRouter(roomSvc *roomservice.Service, pipelineSvc *pipelineservice.Service, speechSvc *speechservice.Service, events broker.Broker, maxUpload int64) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	var pipeline speechhandler.Pipeline
	if pipelineSvc != nil {
		pipeline = pipelineSvc
	}
	var tts speechhandler.Synthesizer
	if speechSvc != nil && speechSvc.CanSynthesize() {
		tts = speechSvc
	}

	r.Route("/api", func(api chi.Router) {
		roomhandler.New(roomSvc).RegisterRoutes(api)
		speechhandler.New(pipeline, tts, roomSvc, maxUpload).RegisterRoutes(api)
		streamhandler.New(events, roomSvc).RegisterRoutes(api)
	})

	return r
}
