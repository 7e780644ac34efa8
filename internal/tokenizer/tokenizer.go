// Package tokenizer normalizes candidate text for matching and aggregation.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldOptions controls how text is normalized before comparison.
type FoldOptions struct {
	CaseSensitive    bool
	IgnoreDiacritics bool
}

// Fold normalizes text to NFC, lowercases it unless CaseSensitive is set and
// strips combining marks when IgnoreDiacritics is set ("Kaljumäe" -> "kaljumae").
func Fold(text string, opts FoldOptions) string {
	if opts.IgnoreDiacritics {
		text = stripDiacritics(text)
	} else {
		text = norm.NFC.String(text)
	}
	if !opts.CaseSensitive {
		text = strings.ToLower(text)
	}
	return text
}

// stripDiacritics decomposes text, drops nonspacing marks and recomposes it.
// A transformer is stateful, so one is built per call.
func stripDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return norm.NFC.String(text)
	}
	return out
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// a digit. Letters outside ASCII are kept, so Estonian names survive intact.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(norm.NFC.String(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields)) // Initialize as empty slice, not nil
	tokens = append(tokens, fields...)
	return tokens
}

// Canonical joins the tokens of text with single spaces. It is used as the
// aggregation key for queries that differ only in case, spacing or punctuation.
func Canonical(text string) string {
	return strings.Join(Tokenize(text), " ")
}
