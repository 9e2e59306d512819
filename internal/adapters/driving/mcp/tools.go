package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// maxToolDocuments caps the documents listed in an answer.
const maxToolDocuments = 10

// AnswerInput is the input schema for the answer_question tool.
type AnswerInput struct {
	Question   string `json:"question" jsonschema:"the biomedical question to answer"`
	Type       string `json:"type,omitempty" jsonschema:"factoid, list, yesno or summary (identified from the question when omitted)"`
	Exact      bool   `json:"exact,omitempty" jsonschema:"also generate a short exact answer"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum PubMed articles to retrieve"`
}

// AnswerOutput is the output schema for the answer_question tool.
type AnswerOutput struct {
	Answer      string           `json:"answer"`
	ExactAnswer string           `json:"exact_answer,omitempty"`
	Type        string           `json:"type"`
	Query       string           `json:"query"`
	Snippets    []domain.Snippet `json:"snippets"`
	Documents   []DocumentOutput `json:"documents"`
}

// DocumentInput is a document supplied by the caller.
type DocumentInput struct {
	PMID     string `json:"pmid" jsonschema:"the PubMed identifier"`
	Title    string `json:"title,omitempty"`
	Abstract string `json:"abstract,omitempty"`
}

// DocumentOutput is a ranked document.
type DocumentOutput struct {
	PMID       string  `json:"pmid"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// RankInput is the input schema for the rank_documents tool.
type RankInput struct {
	Question     string          `json:"question" jsonschema:"the question to rank against"`
	Documents    []DocumentInput `json:"documents" jsonschema:"the documents to rank"`
	DocumentText string          `json:"document_text,omitempty" jsonschema:"abstract, title or title_abstract (default abstract)"`
}

// RankOutput is the output schema for the rank_documents tool.
type RankOutput struct {
	Documents []DocumentOutput `json:"documents"`
}

// LocateInput is the input schema for the locate_snippet tool.
type LocateInput struct {
	Document DocumentInput `json:"document" jsonschema:"the document to search"`
	Text     string        `json:"text" jsonschema:"the exact text to find"`
}

// LocateOutput is the output schema for the locate_snippet tool.
type LocateOutput struct {
	Found   bool            `json:"found"`
	Snippet *domain.Snippet `json:"snippet,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer_question",
		Description: "Answer a biomedical question from PubMed abstracts",
	}, s.handleAnswer)

	if s.ports.Ranker != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "rank_documents",
			Description: "Rank documents by semantic similarity to a question",
		}, s.handleRank)
	}

	if s.ports.Locator != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "locate_snippet",
			Description: "Find the exact position of text in a document's abstract or title",
		}, s.handleLocate)
	}
}

// handleAnswer handles the answer_question tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if input.Question == "" {
		return nil, AnswerOutput{}, fmt.Errorf("question: %w", domain.ErrInvalidInput)
	}

	opts := s.ports.Options
	if input.Exact {
		opts.ExactAnswers = true
	}
	if input.MaxResults > 0 {
		opts.Search.MaxResults = input.MaxResults
	}

	q := domain.Question{Body: input.Question, Type: domain.QuestionType(input.Type)}
	record, err := s.ports.Answerer.Answer(ctx, q, opts)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	docs := record.Documents
	if len(docs) > maxToolDocuments {
		docs = docs[:maxToolDocuments]
	}
	return nil, AnswerOutput{
		Answer:      record.GeneratedAnswer,
		ExactAnswer: record.ExactAnswer,
		Type:        record.Type.String(),
		Query:       record.Query,
		Snippets:    nonNilSnippets(record.Snippets),
		Documents:   documentOutputs(docs),
	}, nil
}

// handleRank handles the rank_documents tool invocation.
func (s *Server) handleRank(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RankInput,
) (*mcp.CallToolResult, RankOutput, error) {
	policy := domain.DocumentText(input.DocumentText)
	if policy == "" {
		policy = s.ports.Options.DocumentText
	}
	if !policy.IsValid() {
		return nil, RankOutput{}, fmt.Errorf("document_text %q: %w", input.DocumentText, domain.ErrInvalidInput)
	}

	docs := make([]domain.Document, len(input.Documents))
	for i, d := range input.Documents {
		docs[i] = d.document()
	}

	ranked, err := s.ports.Ranker.Rank(ctx, docs, input.Question, policy)
	if err != nil {
		return nil, RankOutput{}, err
	}
	return nil, RankOutput{Documents: documentOutputs(ranked)}, nil
}

// handleLocate handles the locate_snippet tool invocation.
func (s *Server) handleLocate(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input LocateInput,
) (*mcp.CallToolResult, LocateOutput, error) {
	snip, err := s.ports.Locator.Locate(input.Document.document(), input.Text)
	if errors.Is(err, domain.ErrSnippetNotFound) {
		return nil, LocateOutput{Found: false}, nil
	}
	if err != nil {
		return nil, LocateOutput{}, err
	}
	return nil, LocateOutput{Found: true, Snippet: &snip}, nil
}

func (d DocumentInput) document() domain.Document {
	return domain.Document{ID: d.PMID, Title: d.Title, Abstract: d.Abstract}
}

func documentOutputs(docs []domain.ScoredDocument) []DocumentOutput {
	out := make([]DocumentOutput, len(docs))
	for i := range docs {
		out[i] = DocumentOutput{
			PMID:       docs[i].ID,
			Title:      docs[i].Title,
			Similarity: docs[i].Similarity,
		}
	}
	return out
}

func nonNilSnippets(snippets []domain.Snippet) []domain.Snippet {
	if snippets == nil {
		return []domain.Snippet{}
	}
	return snippets
}
