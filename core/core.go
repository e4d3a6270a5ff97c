package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks instructions that steer the model. Providers whose wire
	// format carries a dedicated system slot extract these out of the message
	// sequence.
	RoleSystem Role = "system"
	// RoleUser marks caller-authored turns.
	RoleUser Role = "user"
	// RoleAssistant marks model-authored turns.
	RoleAssistant Role = "assistant"
)

// Capability is one of the operation kinds a provider supports.
type Capability string

const (
	// CapabilityCompletion is single-prompt text completion.
	CapabilityCompletion Capability = "completion"
	// CapabilityChatCompletion is multi-turn chat completion.
	CapabilityChatCompletion Capability = "chat_completion"
	// CapabilityEmbedding is vector embedding generation.
	CapabilityEmbedding Capability = "embedding"
)

// Message is a single role-tagged conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized input for a provider invocation. It is a value
// object: callers construct it, hand it to a provider and must not mutate it
// while the call is in flight.
//
// Prompt and Messages are mutually substitutable; when Messages is non-empty
// it takes precedence over the bare Prompt.
type Request struct {
	// Prompt is a free-text prompt, used when Messages is empty.
	Prompt string `json:"prompt,omitempty"`
	// Messages is an ordered sequence of role-tagged turns.
	Messages []Message `json:"messages,omitempty"`
	// Capability selects the operation kind the request targets.
	Capability Capability `json:"capability"`
	// Model optionally overrides the provider's configured model id.
	Model string `json:"model,omitempty"`
	// Temperature, when set, is the sampling temperature. The valid range is
	// provider-defined.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens, when set, bounds the generated output length.
	MaxTokens *int64 `json:"max_tokens,omitempty"`
	// AdditionalParams carries provider-specific knobs (streaming flag, caller
	// identity, request correlation id, extended-reasoning directives, ...).
	AdditionalParams map[string]any `json:"additional_params,omitempty"`
}

// Param returns the named additional parameter, or nil when absent.
func (r *Request) Param(key string) any {
	if r.AdditionalParams == nil {
		return nil
	}
	return r.AdditionalParams[key]
}

// HasParam reports whether the named additional parameter is present.
func (r *Request) HasParam(key string) bool {
	_, ok := r.AdditionalParams[key]
	return ok
}

// TokenUsage captures token accounting for a single response.
// TotalTokens always equals PromptTokens + CompletionTokens; providers
// recompute the total rather than trusting a remote-supplied value.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewTokenUsage builds a TokenUsage with the total derived from its parts.
func NewTokenUsage(prompt, completion int) TokenUsage {
	return TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// ToolCall is a tool invocation the model requested in its response. The
// caller decides whether and how to execute it (typically via tool.Registry).
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Response is the normalized result of a provider invocation. Like Request it
// is a value object owned by the caller.
type Response struct {
	// ID uniquely identifies this response instance.
	ID string `json:"id"`
	// Content is the generated text.
	Content string `json:"content"`
	// Provider names the backend that produced the response.
	Provider string `json:"provider"`
	// Model is the concrete model id used.
	Model string `json:"model"`
	// Usage is the token accounting for the call.
	Usage TokenUsage `json:"usage"`
	// FinishReason explains why generation stopped ("stop", "length",
	// "tool_use", ...).
	FinishReason string `json:"finish_reason"`
	// ToolCalls lists tool invocations the model requested, if any.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// CreatedAt is the response creation timestamp.
	CreatedAt time.Time `json:"created_at"`
	// Cached is false for freshly generated responses and true only when the
	// response was served from cache without re-invoking the provider.
	Cached bool `json:"cached"`
}

// NewResponse assembles a freshly generated Response, assigning an id and
// creation timestamp and deriving the usage total from its parts.
func NewResponse(provider, model, content, finishReason string, promptTokens, completionTokens int) *Response {
	return &Response{
		ID:           uuid.NewString(),
		Content:      content,
		Provider:     provider,
		Model:        model,
		Usage:        NewTokenUsage(promptTokens, completionTokens),
		FinishReason: finishReason,
		CreatedAt:    time.Now().UTC(),
	}
}
