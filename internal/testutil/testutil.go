// Package testutil provides small builders shared by package tests.
package testutil

import "github.com/hupe1980/modelgate/core"

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// CompletionRequest builds a minimal completion request.
func CompletionRequest(prompt string) *core.Request {
	return &core.Request{Prompt: prompt, Capability: core.CapabilityCompletion}
}

// ChatRequest builds a chat request with a system prompt and one user turn.
func ChatRequest(system, user string) *core.Request {
	return &core.Request{
		Capability: core.CapabilityChatCompletion,
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: system},
			{Role: core.RoleUser, Content: user},
		},
	}
}
