package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ybpheno16/voiceroom/internal/config"
	"github.com/ybpheno16/voiceroom/internal/model/language"
	"github.com/ybpheno16/voiceroom/internal/service/speech"
)

// speechtester exercises the configured STT/TTS providers directly,
// without a room or a server, so credentials can be verified before
// deploying.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if !cfg.Speech.Enabled() {
		log.Fatal("speech credentials not configured; set OPENAI_API_KEY or DEEPGRAM_API_KEY")
	}

	mode := flag.String("mode", "", "test mode: stt or tts")
	audioPath := flag.String("audio", "", "STT input audio file")
	text := flag.String("text", "", "TTS input text")
	lang := flag.String("lang", "en", "TTS language code")
	outputPath := flag.String("out", "", "TTS output file (default auto-generated)")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")
	flag.Parse()

	if *mode != "stt" && *mode != "tts" {
		flag.Usage()
		log.Fatal("specify -mode=stt or -mode=tts")
	}

	var stt speech.Transcriber
	if cfg.Speech.STTProvider == "deepgram" {
		stt = speech.NewDeepgramClient(cfg.Speech.DeepgramKey)
	} else {
		stt = speech.NewOpenAIClient(cfg.Speech.OpenAIKey, cfg.Speech.TTSVoice, cfg.Speech.TTSSpeed)
	}
	svc := speech.NewService(stt, speech.NewOpenAIClient(cfg.Speech.OpenAIKey, cfg.Speech.TTSVoice, cfg.Speech.TTSSpeed))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "stt":
		runSTT(ctx, svc, *audioPath)
	case "tts":
		runTTS(ctx, svc, *text, *lang, *outputPath)
	}
}

func runSTT(ctx context.Context, svc *speech.Service, audioPath string) {
	if audioPath == "" {
		log.Fatal("stt mode needs -audio")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		log.Fatalf("failed to open audio file: %v", err)
	}
	defer file.Close()

	log.Printf("transcribing %s", audioPath)
	text, err := svc.Transcribe(ctx, file, filepath.Base(audioPath))
	if err != nil {
		log.Fatalf("transcription failed: %v", err)
	}
	log.Printf("transcript: %q", text)
}

func runTTS(ctx context.Context, svc *speech.Service, text, lang, outputPath string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("tts mode needs -text")
	}
	if !language.IsSupported(language.Normalize(lang)) {
		log.Fatalf("unsupported language %q", lang)
	}
	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.mp3", time.Now().Unix())
	}

	log.Printf("synthesizing %d chars in %s", len(text), lang)
	audio, err := svc.Synthesize(ctx, text, language.Normalize(lang))
	if err != nil {
		log.Fatalf("synthesis failed: %v", err)
	}
	if err := os.WriteFile(outputPath, audio, 0o644); err != nil {
		log.Fatalf("failed to write audio file: %v", err)
	}
	log.Printf("wrote %s (%d bytes)", outputPath, len(audio))
}
