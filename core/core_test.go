package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTokenUsage(t *testing.T) {
	usage := NewTokenUsage(120, 48)

	assert.Equal(t, 120, usage.PromptTokens)
	assert.Equal(t, 48, usage.CompletionTokens)
	assert.Equal(t, 168, usage.TotalTokens)
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse("anthropic", "claude-sonnet-4-5", "hello", "stop", 10, 5)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "anthropic", resp.Provider)
	assert.Equal(t, "claude-sonnet-4-5", resp.Model)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	assert.False(t, resp.Cached)
	assert.False(t, resp.CreatedAt.IsZero())
}

func TestRequestParam(t *testing.T) {
	req := &Request{AdditionalParams: map[string]any{"stream": true}}

	assert.Equal(t, true, req.Param("stream"))
	assert.True(t, req.HasParam("stream"))
	assert.Nil(t, req.Param("user"))
	assert.False(t, req.HasParam("user"))

	empty := &Request{}
	assert.Nil(t, empty.Param("stream"))
	assert.False(t, empty.HasParam("stream"))
}
