package domain

// Document is a PubMed article as returned by the retrieval collaborator.
// Documents are immutable once fetched and live only for the duration
// of the question that retrieved them.
type Document struct {
	// ID is the PubMed identifier (PMID).
	ID string `json:"pmid"`

	// Title is the article title.
	Title string `json:"title"`

	// Abstract is the article abstract. It may be empty, in which case the
	// document is ranked but never contributes a snippet.
	Abstract string `json:"abstract"`
}

// HasAbstract returns true if the document carries abstract text.
func (d Document) HasAbstract() bool {
	return d.Abstract != ""
}

// SectionText returns the content of the given section.
func (d Document) SectionText(s Section) string {
	switch s {
	case SectionAbstract:
		return d.Abstract
	case SectionTitle:
		return d.Title
	default:
		return ""
	}
}

// ScoredDocument is a Document paired with its similarity to a question.
type ScoredDocument struct {
	Document

	// Similarity is the cosine similarity between question and document.
	Similarity float64 `json:"similarity"`
}

// Section identifies the part of a document a snippet was taken from.
type Section string

// Document sections a snippet can be located in.
const (
	SectionAbstract Section = "abstract"
	SectionTitle    Section = "title"
)

// IsValid returns true if the section is recognised.
func (s Section) IsValid() bool {
	return s == SectionAbstract || s == SectionTitle
}

// String returns the string representation.
func (s Section) String() string {
	return string(s)
}

// Location is the exact position of a piece of text inside a document.
// Offsets are byte offsets into the section content, end exclusive.
type Location struct {
	Section     Section
	OffsetBegin int
	OffsetEnd   int
}

// Snippet is a position-exact excerpt of a document's title or abstract.
//
// Invariant: Text == document.SectionText(BeginSection)[OffsetBegin:OffsetEnd]
// and BeginSection == EndSection.
type Snippet struct {
	// DocumentID is the PMID of the originating document.
	DocumentID string `json:"document"`

	BeginSection Section `json:"beginSection"`
	EndSection   Section `json:"endSection"`

	OffsetBegin int `json:"offsetInBeginSection"`
	OffsetEnd   int `json:"offsetInEndSection"`

	// Text is the exact excerpt.
	Text string `json:"text"`
}

// NewSnippet builds a snippet for the text found at loc in the document.
func NewSnippet(documentID string, loc Location, text string) Snippet {
	return Snippet{
		DocumentID:   documentID,
		BeginSection: loc.Section,
		EndSection:   loc.Section,
		OffsetBegin:  loc.OffsetBegin,
		OffsetEnd:    loc.OffsetEnd,
		Text:         text,
	}
}

// Matches reports whether the snippet is an exact excerpt of doc.
func (s Snippet) Matches(doc Document) bool {
	if s.DocumentID != doc.ID || s.BeginSection != s.EndSection {
		return false
	}
	content := doc.SectionText(s.BeginSection)
	if s.OffsetBegin < 0 || s.OffsetEnd <= s.OffsetBegin || s.OffsetEnd > len(content) {
		return false
	}
	return content[s.OffsetBegin:s.OffsetEnd] == s.Text
}

// SnippetTexts returns the text of each snippet in order.
func SnippetTexts(snippets []Snippet) []string {
	texts := make([]string, len(snippets))
	for i := range snippets {
		texts[i] = snippets[i].Text
	}
	return texts
}

// DocumentText selects which part of a document is embedded for
// document-level ranking.
type DocumentText string

// Document text policies.
const (
	// DocumentTextAbstract embeds the abstract only.
	DocumentTextAbstract DocumentText = "abstract"

	// DocumentTextTitle embeds the title only.
	DocumentTextTitle DocumentText = "title"

	// DocumentTextTitleAbstract embeds the title followed by the abstract.
	DocumentTextTitleAbstract DocumentText = "title_abstract"
)

// IsValid returns true if the policy is recognised.
func (t DocumentText) IsValid() bool {
	switch t {
	case DocumentTextAbstract, DocumentTextTitle, DocumentTextTitleAbstract:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentText) String() string {
	return string(t)
}

// Of returns the text of doc selected by the policy.
// Unknown policies fall back to the abstract.
func (t DocumentText) Of(doc Document) string {
	switch t {
	case DocumentTextTitle:
		return doc.Title
	case DocumentTextTitleAbstract:
		if doc.Title == "" {
			return doc.Abstract
		}
		if doc.Abstract == "" {
			return doc.Title
		}
		return doc.Title + " " + doc.Abstract
	default:
		return doc.Abstract
	}
}
