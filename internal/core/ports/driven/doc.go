// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided to answer questions end to end:
//
//   - EmbeddingService: Encodes questions, documents and sentences as vectors
//   - LLMService: Generates ideal and exact answers
//   - ArticleSearcher: Searches and fetches PubMed articles
//   - KeywordExtractor: Turns a question into search keywords
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Tokenizer: Without it, snippet text is not truncated before generation.
//   - PromptStore: Without it, built-in prompts are used.
//   - RunStore: Without it, runs are not recorded for later listing.
//   - ArtifactWriter: Without it, no JSON artifact is written for a run.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
