package translate

import "context"

// Translator converts text into a target language. sourceLang may be
// empty when detection came up with nothing; providers then infer the
// source themselves.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Detector guesses the language of a transcript. Best effort: a false
// ok means the caller proceeds with an unknown source language.
type Detector interface {
	Detect(text string) (code string, ok bool)
}
