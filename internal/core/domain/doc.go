// Package domain defines the core business entities for bioqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a PubMed article (PMID, title, abstract)
//   - ScoredDocument: a Document with its similarity to a question
//   - Snippet: a position-exact excerpt of a title or abstract
//   - Question: one BioASQ question with its reference answers
//   - RunRecord: the outcome of answering one question
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
