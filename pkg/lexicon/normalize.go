package lexicon

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fold canonicalizes a surface form: NFC composition, lowercase, single
// spaces between words. Combining marks are kept, Indic vowel signs are
// Mn and stripping them would merge distinct number words.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(s))), " ")
}

// FoldToken canonicalizes one input word without touching spacing.
func FoldToken(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Tokens splits a phrase on single spaces and folds each word. Runs of
// spaces produce empty tokens; collapsing them is the tokenizer's job,
// and an empty token never matches a lexicon form.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, " ")
	for i, p := range parts {
		parts[i] = FoldToken(p)
	}
	return parts
}
