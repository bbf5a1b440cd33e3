package translate

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// linguaByCode maps the supported set onto lingua's models. Kannada
// and Malayalam have no lingua model; transcripts in those languages
// detect as unknown, which the pipeline treats as a tolerated miss.
var linguaByCode = map[string]lingua.Language{
	"en": lingua.English,
	"hi": lingua.Hindi,
	"te": lingua.Telugu,
	"ta": lingua.Tamil,
	"bn": lingua.Bengali,
	"gu": lingua.Gujarati,
	"ur": lingua.Urdu,
	"mr": lingua.Marathi,
}

// LinguaDetector identifies the spoken language of a transcript,
// restricted to the languages this service supports.
type LinguaDetector struct {
	detector lingua.LanguageDetector
	codes    map[lingua.Language]string
}

// NewLinguaDetector builds the detector once; model loading is the
// expensive part, so callers share a single instance.
func NewLinguaDetector() *LinguaDetector {
	langs := make([]lingua.Language, 0, len(linguaByCode))
	codes := make(map[lingua.Language]string, len(linguaByCode))
	for code, lang := range linguaByCode {
		langs = append(langs, lang)
		codes[lang] = code
	}
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build(),
		codes:    codes,
	}
}

// Detect returns the ISO 639-1 code of the most likely language, or
// ok=false when the text gives no usable signal.
func (d *LinguaDetector) Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	code, ok := d.codes[lang]
	return code, ok
}
