// Package tiktoken provides Tokenizer adapters: OpenAI BPE encodings through
// tiktoken-go, and a whitespace tokenizer for models without a known encoding.
package tiktoken

import (
	"strings"
	"sync"
	"unicode"

	tiktokenlib "github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure both tokenizers implement the interface.
var (
	_ driven.Tokenizer = (*Tokenizer)(nil)
	_ driven.Tokenizer = Whitespace{}
)

// DefaultEncoding is used for models tiktoken does not recognise by name.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// useOfflineLoader makes tiktoken read the BPE ranks embedded in the
// loader module instead of downloading them.
func useOfflineLoader() {
	loaderOnce.Do(func() {
		tiktokenlib.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})
}

// Tokenizer splits text with a tiktoken BPE encoding.
type Tokenizer struct {
	enc  *tiktokenlib.Tiktoken
	name string
}

// NewForEncoding returns a tokenizer for a named encoding such as "cl100k_base".
func NewForEncoding(encoding string) (*Tokenizer, error) {
	useOfflineLoader()
	enc, err := tiktokenlib.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{enc: enc, name: encoding}, nil
}

// ForModel returns the tokenizer matching a generative model. OpenAI models
// get their own encoding; other models fall back to cl100k_base; if no
// encoding can be loaded the whitespace tokenizer is returned.
func ForModel(model string) driven.Tokenizer {
	name := encodingName(model)
	if name == "" {
		name = DefaultEncoding
	}
	tok, err := NewForEncoding(name)
	if err != nil {
		logger.Warn("No tokenizer for model %q, counting whitespace-separated words: %v", model, err)
		return Whitespace{}
	}
	return tok
}

func encodingName(model string) string {
	if enc, ok := tiktokenlib.MODEL_TO_ENCODING[model]; ok {
		return enc
	}
	for prefix, enc := range tiktokenlib.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return enc
		}
	}
	return ""
}

// Tokens splits text into the byte strings of its tokens, in order.
// A token can end inside a multi-byte character.
func (t *Tokenizer) Tokens(text string) []string {
	ids := t.enc.Encode(text, nil, nil)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.enc.Decode([]int{id})
	}
	return out
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Name identifies the encoding.
func (t *Tokenizer) Name() string {
	return t.name
}

// Whitespace splits text into words that carry their leading whitespace,
// the way BPE encodings attach a space to the following token.
type Whitespace struct{}

// Tokens splits text into whitespace-led words.
func (Whitespace) Tokens(text string) []string {
	var tokens []string
	start := 0
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if space && inWord {
			tokens = append(tokens, text[start:i])
			start = i
		}
		inWord = !space
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// Count returns the number of words in text.
func (w Whitespace) Count(text string) int {
	return len(w.Tokens(text))
}

// Name identifies the tokenizer.
func (Whitespace) Name() string {
	return "whitespace"
}
