package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ybpheno16/voiceroom/internal/broker"
	"github.com/ybpheno16/voiceroom/internal/config"
	"github.com/ybpheno16/voiceroom/internal/handler"
	"github.com/ybpheno16/voiceroom/internal/service/pipeline"
	roomservice "github.com/ybpheno16/voiceroom/internal/service/room"
	speechservice "github.com/ybpheno16/voiceroom/internal/service/speech"
	"github.com/ybpheno16/voiceroom/internal/service/translate"
	"github.com/ybpheno16/voiceroom/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("failed to open conversation store: %v", err)
	}
	defer st.Close()
	log.Printf("conversation store ready (driver=%s path=%s)", cfg.Store.Driver, cfg.Store.Path)

	events := openBroker(ctx, cfg.Broker)
	roomSvc := roomservice.NewService(st)

	var speechSvc *speechservice.Service
	if cfg.Speech.Enabled() {
		speechSvc = speechservice.NewService(newTranscriber(cfg.Speech), newSynthesizer(cfg.Speech))
		log.Printf("speech service initialized (stt=%s)", cfg.Speech.STTProvider)
		if !speechSvc.CanSynthesize() {
			log.Println("speech synthesis disabled: OPENAI_API_KEY not set")
		}
	} else {
		log.Println("speech credentials not configured, speak/synthesize endpoints disabled")
	}

	var translator translate.Translator
	if cfg.Translate.Enabled() {
		translator, err = newTranslator(ctx, cfg.Translate)
		if err != nil {
			log.Printf("warning: failed to initialize translator: %v", err)
		} else {
			log.Printf("translator initialized (provider=%s)", cfg.Translate.Provider)
		}
	} else {
		log.Println("translation credentials not configured")
	}

	var pipelineSvc *pipeline.Service
	if speechSvc != nil && translator != nil {
		pipelineSvc = pipeline.NewService(st, speechSvc, translator, translate.NewLinguaDetector(), events)
	} else {
		log.Println("message pipeline disabled: needs both speech and translation providers")
	}

	router := handler.NewRouter(roomSvc, pipelineSvc, speechSvc, events, cfg.Speech.MaxUploadBytes)
	startServer(ctx, cfg.Server, router)
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	if cfg.Driver == "bolt" {
		return store.NewBoltStore(cfg.Path)
	}
	return store.NewFileStore(cfg.Path)
}

func openBroker(ctx context.Context, cfg config.BrokerConfig) broker.Broker {
	if cfg.RedisAddr == "" {
		return broker.NewMemoryBroker()
	}
	rb, err := broker.NewRedisBroker(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("warning: redis broker unavailable (%v), using in-process broker", err)
		return broker.NewMemoryBroker()
	}
	log.Printf("redis broker connected at %s", cfg.RedisAddr)
	return rb
}

func newTranscriber(cfg config.SpeechConfig) speechservice.Transcriber {
	if cfg.STTProvider == "deepgram" {
		return speechservice.NewDeepgramClient(cfg.DeepgramKey)
	}
	return speechservice.NewOpenAIClient(cfg.OpenAIKey, cfg.TTSVoice, cfg.TTSSpeed)
}

func newSynthesizer(cfg config.SpeechConfig) speechservice.Synthesizer {
	// TTS always goes through OpenAI; with no key there is no provider
	// and the synthesize endpoint degrades to 503.
	if cfg.OpenAIKey == "" {
		return nil
	}
	return speechservice.NewOpenAIClient(cfg.OpenAIKey, cfg.TTSVoice, cfg.TTSSpeed)
}

func newTranslator(ctx context.Context, cfg config.TranslateConfig) (translate.Translator, error) {
	if cfg.Provider == "openai" {
		return translate.NewOpenAITranslator(cfg.OpenAIKey), nil
	}
	return translate.NewArkTranslator(ctx, cfg)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("voiceroom backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
