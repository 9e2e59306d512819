package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tok := spaceTokenizer{}
	text := "alpha beta gamma delta epsilon"

	tests := []struct {
		name      string
		maxTokens int
		want      string
	}{
		{"keeps leading tokens", 2, "alpha beta"},
		{"exact budget", 5, text},
		{"over budget", 50, text},
		{"one token", 1, "alpha"},
		{"zero disables", 0, text},
		{"negative disables", -1, text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tok, text, tt.maxTokens))
		})
	}
}

func TestTruncate_NilTokenizer(t *testing.T) {
	assert.Equal(t, "unchanged text", Truncate(nil, "unchanged text", 1))
}

func TestTruncate_PrefixProperty(t *testing.T) {
	tok := spaceTokenizer{}
	text := "one two three four five six seven eight nine ten"

	for n := 1; n <= 10; n++ {
		longer := Truncate(tok, text, n)
		for m := 1; m < n; m++ {
			shorter := Truncate(tok, text, m)
			assert.True(t, strings.HasPrefix(longer, shorter), "truncate(%d) must prefix truncate(%d)", m, n)
			assert.Equal(t, shorter, Truncate(tok, longer, m))
		}
		assert.LessOrEqual(t, tok.Count(longer), n)
	}
}

// byteTokenizer emits one token per byte, which can split multi-byte runes.
type byteTokenizer struct{}

func (byteTokenizer) Tokens(text string) []string {
	out := make([]string, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = text[i : i+1]
	}
	return out
}

func (b byteTokenizer) Count(text string) int { return len(text) }
func (byteTokenizer) Name() string { return "byte" }

func TestTruncate_DropsPartialRune(t *testing.T) {
	// "é" is two bytes; cutting after the first leaves an invalid sequence.
	assert.Equal(t, "caf", Truncate(byteTokenizer{}, "café au lait", 4))
	assert.Equal(t, "café", Truncate(byteTokenizer{}, "café au lait", 5))
}
