package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// wordForms maps spelled-out language names to BCP 47 tags, for config
// values like "english" that language.Parse does not accept.
var wordForms = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// Normalize converts a configured voice language into the two-letter code
// speech synthesis backends expect. It accepts BCP 47 tags ("en", "en-US"),
// ISO 639-2 codes ("eng"), and common spelled-out names ("english"). An
// empty value stays empty so the backend can pick its own default.
func Normalize(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", nil
	}
	if mapped, ok := wordForms[trimmed]; ok {
		trimmed = mapped
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q: %w", value, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// DisplayName returns a human-readable English name for a language value, or
// "Unknown" when the value cannot be interpreted.
func DisplayName(value string) string {
	normalized, err := Normalize(value)
	if err != nil || normalized == "" {
		return "Unknown"
	}
	tag := language.Make(normalized)
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(normalized)
}
