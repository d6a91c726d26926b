// Package textnorm cleans decoded predictions before they are written and
// derives filesystem-safe tokens from model and language names.
//
// Brahmic-script text is canonically decomposed (NFD) so visually identical
// strings compare equal regardless of how the tokenizer composed vowel signs
// and nuktas. Other scripts are composed (NFC).
//
// This is a Unicode-only approximation of indic-nlp's IndicNormalizer. Only
// canonical equivalences apply; the per-script rules that library adds
// (nukta removal, vowel sign and chandrabindu canonicalization, two-part
// vowel sign composition) are not applied.
package textnorm
