package services

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

// Truncate keeps the leading maxTokens tokens of text and drops the rest.
// Earlier text is assumed more relevant, so leading tokens are never dropped.
// A nil tokenizer or a non-positive budget returns text unchanged.
//
// The result is always a prefix of text, so truncating to M < N tokens yields
// a prefix of the N-token truncation. Re-truncating an already truncated text
// may tokenize its tail differently, and need not equal truncating to M.
func Truncate(tok driven.Tokenizer, text string, maxTokens int) string {
	if tok == nil || maxTokens <= 0 || text == "" {
		return text
	}
	tokens := tok.Tokens(text)
	if len(tokens) <= maxTokens {
		return text
	}
	out := strings.Join(tokens[:maxTokens], "")
	return trimPartialRune(out)
}

// trimPartialRune drops a trailing incomplete UTF-8 sequence left by a cut
// inside a multi-byte character.
func trimPartialRune(s string) string {
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			return s
		}
		s = s[:len(s)-1]
	}
	return s
}
