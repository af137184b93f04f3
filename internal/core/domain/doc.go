// Package domain defines the core business entities for Pitwall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - IntentLabel: A classification label for an incoming query
//   - Classification: The label set the classifier assigned to a query
//   - Session: A conversation and its recent turns
//   - RetrievalResult: The outcome of querying one knowledge source
//   - Answer: A composed response with citations
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
