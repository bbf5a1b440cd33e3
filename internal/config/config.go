package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Speech    SpeechConfig
	Translate TranslateConfig
	Broker    BrokerConfig
	Poll      PollConfig
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	st, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}
	translate, err := loadTranslateConfig()
	if err != nil {
		return nil, err
	}
	broker := loadBrokerConfig()
	poll, err := loadPollConfig()
	if err != nil {
		return nil, err
	}
	return &Config{
		Server:    server,
		Store:     st,
		Speech:    speech,
		Translate: translate,
		Broker:    broker,
		Poll:      poll,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}
	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig selects and locates the conversation store driver.
type StoreConfig struct {
	// Driver is "file" (append-only JSONL per room) or "bolt".
	Driver string
	// Path is the conversations directory for the file driver, or the
	// database file for the bolt driver.
	Path string
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", "file"))
	switch driver {
	case "file":
		return StoreConfig{Driver: driver, Path: getEnvOrDefault("STORE_PATH", "conversations")}, nil
	case "bolt":
		return StoreConfig{Driver: driver, Path: getEnvOrDefault("STORE_PATH", "conversations/rooms.bolt")}, nil
	default:
		return StoreConfig{}, fmt.Errorf("unknown STORE_DRIVER %q (want file or bolt)", driver)
	}
}

// SpeechConfig describes the STT/TTS collaborators.
type SpeechConfig struct {
	// STTProvider is "openai" (Whisper) or "deepgram".
	STTProvider    string
	OpenAIKey      string
	DeepgramKey    string
	TTSVoice       string
	TTSSpeed       float64
	MaxUploadBytes int64
}

// Enabled reports whether a transcription provider is configured.
func (c SpeechConfig) Enabled() bool {
	switch c.STTProvider {
	case "deepgram":
		return c.DeepgramKey != ""
	default:
		return c.OpenAIKey != ""
	}
}

func loadSpeechConfig() (SpeechConfig, error) {
	speed, err := parseOptionalFloatEnv("TTS_SPEED")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsSpeed := 1.0
	if speed != nil {
		ttsSpeed = *speed
	}

	maxUpload, err := parseOptionalIntEnv("MAX_UPLOAD_MB")
	if err != nil {
		return SpeechConfig{}, err
	}
	maxUploadMB := 16
	if maxUpload != nil {
		maxUploadMB = *maxUpload
	}

	return SpeechConfig{
		STTProvider:    strings.ToLower(getEnvOrDefault("STT_PROVIDER", "openai")),
		OpenAIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		DeepgramKey:    strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
		TTSVoice:       strings.TrimSpace(os.Getenv("TTS_VOICE")),
		TTSSpeed:       ttsSpeed,
		MaxUploadBytes: int64(maxUploadMB) << 20,
	}, nil
}

// TranslateConfig describes the translation collaborator.
type TranslateConfig struct {
	// Provider is "ark" (LLM via the Ark runtime) or "openai".
	Provider string

	// Ark credentials.
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	Temperature *float64
	MaxTokens   *int

	OpenAIKey string
}

// Enabled reports whether the configured provider has credentials.
func (c TranslateConfig) Enabled() bool {
	if c.Provider == "openai" {
		return c.OpenAIKey != ""
	}
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the Ark chat model used by the LLM translator.
func (c TranslateConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: set ARK_API_KEY + ARK_MODEL or AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}
	return ark.NewChatModel(ctx, cfg)
}

func loadTranslateConfig() (TranslateConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return TranslateConfig{}, err
	}
	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return TranslateConfig{}, err
	}

	return TranslateConfig{
		Provider:    strings.ToLower(getEnvOrDefault("TRANSLATE_PROVIDER", "ark")),
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		OpenAIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
	}, nil
}

// BrokerConfig selects the push-channel backend. With no Redis address
// the in-process broker is used, which is correct for a single server
// instance.
type BrokerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func loadBrokerConfig() BrokerConfig {
	db := 0
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv("REDIS_DB"))); err == nil {
		db = v
	}
	return BrokerConfig{
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
	}
}

// PollConfig bounds the staleness of polling clients: a message
// appended by one participant is visible to the other at most one
// interval later.
type PollConfig struct {
	Interval time.Duration
}

func loadPollConfig() (PollConfig, error) {
	raw := strings.TrimSpace(os.Getenv("POLL_INTERVAL"))
	if raw == "" {
		return PollConfig{Interval: 3 * time.Second}, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return PollConfig{}, fmt.Errorf("invalid POLL_INTERVAL value %q: %w", raw, err)
	}
	return PollConfig{Interval: d}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
