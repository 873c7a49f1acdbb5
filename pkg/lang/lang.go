// Package lang exposes the static registry of languages supported by the Bark
// speech model. The table is fixed at build time; there is no dynamic lookup
// against the synthesis backend.
package lang

import "sort"

// names maps each supported short language code to its display name.
var names = map[string]string{
	"en": "English",
	"de": "German",
	"es": "Spanish",
	"fr": "French",
	"hi": "Hindi",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"tr": "Turkish",
	"zh": "Chinese",
}

// Name returns the display name for a short language code and whether the
// code is supported.
func Name(code string) (string, bool) {
	n, ok := names[code]
	return n, ok
}

// Supported reports whether code is a supported language code.
func Supported(code string) bool {
	_, ok := names[code]
	return ok
}

// Codes returns all supported language codes in lexical order.
func Codes() []string {
	codes := make([]string, 0, len(names))
	for c := range names {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
