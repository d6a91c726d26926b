package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	zeroWidthJoiner    = '\u200d'
	zeroWidthNonJoiner = '\u200c'
)

// Normalize trims the prediction, collapses whitespace runs to a single space,
// drops control and format characters, and applies NFD when decompose is set
// or NFC otherwise. ZWJ and ZWNJ survive because they change conjunct
// rendering in Indic scripts.
//
// Only Unicode canonical equivalence is applied. Script-specific rewrites of
// indic-nlp's IndicNormalizer are out of scope, so its output can differ.
func Normalize(text string, decompose bool) string {
	form := norm.NFC
	if decompose {
		form = norm.NFD
	}
	text = form.String(text)

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case r == zeroWidthJoiner || r == zeroWidthNonJoiner:
		case unicode.IsControl(r) || unicode.In(r, unicode.Cf):
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
