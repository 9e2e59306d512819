package pubmed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// searchResult is the esearch.fcgi response body.
type searchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDs     []string `xml:"IdList>Id"`
	Error   string   `xml:"ERROR"`
}

// articleSet is the efetch.fcgi response body for db=pubmed, retmode=xml.
type articleSet struct {
	XMLName  xml.Name  `xml:"PubmedArticleSet"`
	Articles []article `xml:"PubmedArticle"`
}

type article struct {
	PMID     string         `xml:"MedlineCitation>PMID"`
	Title    markup         `xml:"MedlineCitation>Article>ArticleTitle"`
	Abstract []abstractPart `xml:"MedlineCitation>Article>Abstract>AbstractText"`
}

// abstractPart is one AbstractText element. Structured abstracts label
// each part (BACKGROUND, METHODS, ...).
type abstractPart struct {
	Label string `xml:"Label,attr"`
	Inner string `xml:",innerxml"`
}

// markup captures element content that may contain inline formatting
// such as <i>, <sup> or <sub>.
type markup struct {
	Inner string `xml:",innerxml"`
}

// Text returns the concatenated character data of the element and all of
// its descendants, with entities decoded.
func (m markup) Text() string {
	if !strings.ContainsAny(m.Inner, "<&") {
		return m.Inner
	}

	var b strings.Builder
	dec := xml.NewDecoder(strings.NewReader(m.Inner))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return b.String()
}

// document converts a parsed article to a domain.Document.
func (a article) document() domain.Document {
	parts := make([]string, 0, len(a.Abstract))
	for _, p := range a.Abstract {
		text := strings.TrimSpace(markup{Inner: p.Inner}.Text())
		if p.Label != "" {
			text = p.Label + ": " + text
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return domain.Document{
		ID:       strings.TrimSpace(a.PMID),
		Title:    strings.TrimSpace(a.Title.Text()),
		Abstract: strings.Join(parts, " "),
	}
}

// parseSearch decodes an esearch response.
func parseSearch(body []byte) ([]string, error) {
	var res searchResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	return res.IDs, nil
}

// parseArticles decodes an efetch response. Articles without a PMID are skipped.
func parseArticles(body []byte) ([]domain.Document, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(set.Articles))
	for _, a := range set.Articles {
		doc := a.document()
		if doc.ID == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
