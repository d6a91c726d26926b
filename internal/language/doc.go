// Package language resolves the language names and codes accepted on the
// command line into the codes the inference backend expects.
//
// Lookups accept ISO 639-1 codes, ISO 639-2 codes, and English names in any
// case. The table covers the Indic languages the speech models are trained on
// alongside the common European and East Asian languages.
package language
