// Package mcp provides an MCP (Model Context Protocol) server adapter for bioqa.
// It lets AI assistants answer biomedical questions, rank PubMed documents and
// locate exact snippets through bioqa's pipeline.
package mcp

import "errors"

// ErrMissingAnswerer is returned when the question answerer is not provided.
var ErrMissingAnswerer = errors.New("mcp: question answerer is required")
