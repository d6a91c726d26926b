package textnorm

import "strings"

const unknownToken = "unknown"

// SanitizeToken lowercases ASCII letters, keeps digits, '-' and '_', and maps
// every other rune to '_'. Leading and trailing separators are dropped; an
// empty result becomes "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case 'A' <= r && r <= 'Z':
			return r + ('a' - 'A')
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return unknownToken
	}
	return token
}

// OutputName builds the default prediction file name for a model and language,
// e.g. "openai/whisper-large-v3" and "hi" give "openai_whisper-large-v3_hi.jsonl".
func OutputName(model, language string) string {
	return SanitizeToken(model) + "_" + SanitizeToken(language) + ".jsonl"
}
