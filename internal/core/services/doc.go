// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The relevance ranker, snippet locator, snippet selector and generation
// orchestrator hold no shared mutable state. Each question worker can call
// them concurrently with its own collaborators.
package services
