// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answer pipeline is classifier -> router -> composer, wired
// together by ChatService. Each stage is independently testable.
//
// Services are pure Go with no CGO or external dependencies.
package services
