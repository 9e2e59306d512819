package services

import (
	"strings"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
)

// Ensure the ranking services implement the driving ports.
var (
	_ driving.DocumentRanker = (*Ranker)(nil)
	_ driving.SnippetLocator = SnippetLocator{}
)

// SnippetLocator exposes Locate as a driving port.
type SnippetLocator struct{}

// Locate returns the snippet for text in doc.
func (SnippetLocator) Locate(doc domain.Document, text string) (domain.Snippet, error) {
	loc, err := Locate(doc, text)
	if err != nil {
		return domain.Snippet{}, err
	}
	return domain.NewSnippet(doc.ID, loc, text), nil
}

// Locate finds the exact position of text in a document.
// The abstract is searched before the title and the first match wins, so text
// present in both is always attributed to the abstract. There is no fuzzy or
// case-insensitive fallback. Returns domain.ErrSnippetNotFound otherwise.
func Locate(doc domain.Document, text string) (domain.Location, error) {
	if text == "" {
		return domain.Location{}, domain.ErrSnippetNotFound
	}
	for _, section := range []domain.Section{domain.SectionAbstract, domain.SectionTitle} {
		if i := strings.Index(doc.SectionText(section), text); i >= 0 {
			return domain.Location{
				Section:     section,
				OffsetBegin: i,
				OffsetEnd:   i + len(text),
			}, nil
		}
	}
	return domain.Location{}, domain.ErrSnippetNotFound
}
