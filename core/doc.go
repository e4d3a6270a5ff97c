// Package core provides the foundational domain types shared by every part of
// modelgate. It defines:
//
//   - Request / Response (the value objects exchanged with providers)
//   - Message / Role (ordered, role-tagged conversation turns)
//   - Capability (the operation kinds a provider supports)
//   - TokenUsage (prompt / completion / total accounting)
//   - The error taxonomy (ConfigError, TransientError, APIError)
//
// The package intentionally contains no behavior beyond construction helpers
// and error classification, exposing small value types so providers, the
// dispatcher, the retry executor and the cache layer can interoperate without
// depending on each other.
package core
