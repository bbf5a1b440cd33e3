package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language pairs an ISO 639-1 code with its English display name.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// The fixed supported set. Order is the presentation order.
var codes = []string{"en", "hi", "te", "ta", "kn", "ml", "bn", "gu", "ur", "mr"}

// Defaults used when a persisted room record predates explicit
// language fields.
const (
	DefaultA = "en"
	DefaultB = "hi"
)

var names = buildNames()

func buildNames() map[string]string {
	namer := display.English.Tags()
	out := make(map[string]string, len(codes))
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil {
			out[code] = code
			continue
		}
		out[code] = namer.Name(tag)
	}
	return out
}

// Supported returns the enumerable supported set with display names.
func Supported() []Language {
	out := make([]Language, 0, len(codes))
	for _, code := range codes {
		out = append(out, Language{Code: code, Name: names[code]})
	}
	return out
}

// IsSupported reports whether code (already normalized) is in the set.
func IsSupported(code string) bool {
	_, ok := names[code]
	return ok
}

// Normalize lowercases a user-supplied language code and strips any
// region subtag, so "EN" and "en-US" both resolve to "en".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// Name returns the display name for a supported code, or the code
// itself when unknown.
func Name(code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
