// Package tool implements the tool (function) dispatch subsystem: named tool
// definitions bound to externally supplied handlers, executed on demand when a
// model requests an invocation.
//
// The registry never lets a handler failure escape as an error or panic:
// every execution produces a Result, success or failure, so the model-facing
// caller can embed the outcome in the conversation instead of failing the
// request.
package tool
