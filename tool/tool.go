package tool

import "context"

// Definition declaratively exposes a callable function to the model.
// InputSchema is a JSON Schema object (draft agnostic, minimal subset
// expected); it is structurally validated by the remote model, the registry
// only checks the basics before invoking a handler.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Handler is an externally owned capability bound to a tool name. It receives
// keyword-style arguments matching the tool's input shape. Handlers may be
// invoked concurrently for independent tool calls and should honor ctx.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Result is the tagged success/failure outcome of a tool execution. Exactly
// one of Value (on success) or Error (on failure) is meaningful.
type Result struct {
	OK    bool   `json:"success"`
	Value any    `json:"result,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success wraps a handler's return value verbatim.
func Success(value any) Result {
	return Result{OK: true, Value: value}
}

// Failure carries an error message across the registry boundary.
func Failure(message string) Result {
	return Result{OK: false, Error: message}
}
