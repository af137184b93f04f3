// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CorpusSearcher: Queries the versioned ruleset corpus
//   - SessionStore: Conversation session persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LiveDataSource: Operational data lookups. Without it, dynamic-data
//     queries come back degraded with whatever the corpus can offer.
//   - Generator: Answer generation. Without it, answers are composed
//     extractively from the retrieved passages.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
