package room

import "errors"

// Failure taxonomy shared by services, handlers and the client. Every
// failure is local to the acting session; none of them leave a partial
// message in the shared log.
var (
	// ErrRoomNotFound is returned when joining or loading an unknown
	// room id. Recoverable: the user re-enters the code.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnsupportedLanguage rejects a language code outside the
	// supported set at room-creation time.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrTranscriptionFailed means no usable speech was recognized.
	// Nothing is appended; the speaker retries.
	ErrTranscriptionFailed = errors.New("no usable speech recognized")

	// ErrTranslationFailed means the translation service failed. The
	// transcript is discarded rather than stored untranslated.
	ErrTranslationFailed = errors.New("translation failed")

	// ErrSynthesisFailed means playback audio could not be produced.
	// It never blocks conversation progress.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrStoreIO marks persistence-layer failures so they surface
	// distinctly instead of as silent message loss.
	ErrStoreIO = errors.New("conversation store failure")
)
