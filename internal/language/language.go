// Package language normalizes language codes and offers a lightweight
// function-word heuristic used to judge whether generated text matches the
// requested language.
package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "portuguese")
}

var languages = []entry{
	{"pt", "por", "Portuguese", []string{"portuguese", "portugues", "português"}},
	{"en", "eng", "English", []string{"english"}},
	{"es", "spa", "Spanish", []string{"spanish", "espanol", "español"}},
	{"fr", "fra", "French", []string{"french", "francais", "français"}},
	{"de", "deu", "German", []string{"german", "deutsch"}},
	{"it", "ita", "Italian", []string{"italian", "italiano"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize converts any recognized language code or word to ISO 639-1.
// Unrecognized 2-letter codes pass through; anything else yields "".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
