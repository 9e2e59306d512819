package driven

// Tokenizer splits text with the same scheme the generative model uses
// for billing and context limits.
type Tokenizer interface {
	// Tokens splits text into the byte strings of its tokens, in order.
	// Concatenating the result yields text exactly.
	Tokens(text string) []string

	// Count returns the number of tokens in text.
	Count(text string) int

	// Name identifies the encoding (e.g. "cl100k_base").
	Name() string
}
