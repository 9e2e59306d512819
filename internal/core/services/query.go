package services

import "strings"

// BuildQuery joins keywords into a PubMed esearch term: keywords are ANDed
// and spaces inside multi-word keywords become "+". Blank keywords are
// ignored and no keywords yields "".
func BuildQuery(keywords []string) string {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.Join(strings.Fields(k), "+")
		if k != "" {
			terms = append(terms, k)
		}
	}
	return strings.Join(terms, " AND ")
}

// PromptSnippets returns the text of at most n leading snippets.
func PromptSnippets(texts []string, n int) []string {
	if n <= 0 || n >= len(texts) {
		return texts
	}
	return texts[:n]
}
