package room

import "time"

// Message persists one spoken turn: what was said, what language it
// was detected in, and the translation shown to the other participant.
// CreatedAt is unique within a room and strictly increasing in append
// order; it doubles as the message identity for playback bookkeeping.
type Message struct {
	Speaker          Role      `json:"speaker"`
	OriginalText     string    `json:"originalText"`
	DetectedLanguage string    `json:"detectedLanguage,omitempty"`
	TranslatedText   string    `json:"translatedText"`
	CreatedAt        time.Time `json:"createdAt"`
}
