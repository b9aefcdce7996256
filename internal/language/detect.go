package language

import "strings"

// Function-word vocabularies per language. The words are chosen to be common
// and mutually distinctive; accent-stripped variants are included because
// generated text is not guaranteed to carry diacritics.
var functionWords = map[string][]string{
	"pt": {"que", "não", "nao", "uma", "para", "com", "dos", "das", "senhor", "deus"},
	"en": {"the", "and", "that", "with", "for", "this", "from", "lord", "god"},
	"es": {"que", "los", "las", "una", "para", "con", "por", "señor", "senor", "dios"},
	"fr": {"que", "les", "des", "une", "pour", "avec", "dans", "seigneur", "dieu"},
	"de": {"und", "der", "die", "das", "mit", "für", "fur", "nicht", "herr", "gott"},
	"it": {"che", "non", "una", "per", "con", "del", "della", "signore", "dio"},
}

// Vocabulary returns the function-word list for a normalized language code,
// or nil when the language has no vocabulary.
func Vocabulary(code string) []string {
	return functionWords[Normalize(code)]
}

// Score counts how many distinct function words of the given language appear
// in the text.
func Score(text, code string) int {
	vocab := Vocabulary(code)
	if len(vocab) == 0 || strings.TrimSpace(text) == "" {
		return 0
	}
	present := tokenSet(text)
	score := 0
	for _, word := range vocab {
		if _, ok := present[word]; ok {
			score++
		}
	}
	return score
}

// Matches reports whether the text plausibly reads as the target language
// rather than the fallback. A mismatch needs both signals at once: the
// target score below the match threshold while the fallback score meets it.
// With no vocabulary for the target the check is skipped and the text
// passes.
func Matches(text, target, fallback string) bool {
	target = Normalize(target)
	fallback = Normalize(fallback)
	if target == "" || target == fallback {
		return true
	}
	vocab := Vocabulary(target)
	if len(vocab) == 0 {
		return true
	}
	threshold := 3
	if len(vocab) < threshold {
		threshold = len(vocab)
	}
	if Score(text, target) >= threshold {
		return true
	}
	return Score(text, fallback) < threshold
}

func tokenSet(text string) map[string]struct{} {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func isWordRune(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	// Letters outside ASCII (accented vowels, ç, ß) stay part of the word.
	return r > 127
}
