package openai

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/provider"
	"github.com/hupe1980/modelgate/tool"
)

func TestNewMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New(provider.Config{})
	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	p, err := New(provider.Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())
	assert.NotNil(t, p.Tools())
}

func TestNewEmbeddingModelOverride(t *testing.T) {
	p, err := New(provider.Config{APIKey: "test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultEmbeddingModel, p.embeddingModel)

	p, err = New(provider.Config{APIKey: "test", EmbeddingModel: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, openai.EmbeddingModel("text-embedding-3-large"), p.embeddingModel)
}

func TestTokenCount(t *testing.T) {
	p, err := New(provider.Config{APIKey: "test"})
	require.NoError(t, err)

	// Exact counts depend on whether the BPE encoding is available; both the
	// tokenizer and the fallback estimate must yield a positive count for
	// non-trivial text and zero for empty input.
	assert.Positive(t, p.TokenCount("hello world, this is a token counting test"))
	assert.Zero(t, p.TokenCount(""))
}

func TestTokenCountFallbackCountsCharacters(t *testing.T) {
	p, err := New(provider.Config{APIKey: "test"})
	require.NoError(t, err)

	// Exhaust the lazy load without an encoder to force the estimator.
	p.encoderOnce.Do(func() {})

	assert.Equal(t, 5, p.TokenCount("hello world, friend!"))
	assert.Equal(t, 1, p.TokenCount("日本語テ"))
}

func TestBuildMessagesSystemLeads(t *testing.T) {
	msgs := buildMessages([]core.Message{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	}, "be brief")

	require.Len(t, msgs, 3)
	require.NotNil(t, msgs[0].OfSystem)
	require.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
}

func TestBuildMessagesNoSystem(t *testing.T) {
	msgs := buildMessages([]core.Message{{Role: core.RoleUser, Content: "hi"}}, "")
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].OfUser)
}

func TestBuildTools(t *testing.T) {
	defs := []tool.Definition{{
		Name:        "weather",
		Description: "Gets the weather",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
			"required": []any{"city"},
		},
	}}

	params := buildTools(defs)
	require.Len(t, params, 1)
	assert.Equal(t, "weather", params[0].Function.Name)
}

func TestExtractToolCalls(t *testing.T) {
	calls := extractToolCalls([]openai.ChatCompletionMessageToolCall{{
		ID: "call_1",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      "weather",
			Arguments: `{"city":"Berlin"}`,
		},
	}})

	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "weather", calls[0].Name)
	assert.Equal(t, "Berlin", calls[0].Arguments["city"])

	assert.Nil(t, extractToolCalls(nil))
}

func TestDecodeArguments(t *testing.T) {
	args := decodeArguments(`{"a":1}`)
	require.NotNil(t, args)
	assert.Equal(t, float64(1), args["a"])

	assert.Nil(t, decodeArguments(""))
	assert.Nil(t, decodeArguments("not json"))
}

func TestMapError(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		err := mapError(&openai.Error{StatusCode: http.StatusTooManyRequests})
		assert.True(t, core.IsTransient(err))
		assert.Equal(t, core.ReasonRateLimited, core.TransientReasonOf(err))
	})

	t.Run("request timeout", func(t *testing.T) {
		err := mapError(&openai.Error{StatusCode: http.StatusRequestTimeout})
		assert.True(t, core.IsTransient(err))
		assert.Equal(t, core.ReasonTimeout, core.TransientReasonOf(err))
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		err := mapError(context.DeadlineExceeded)
		assert.True(t, core.IsTransient(err))
		assert.Equal(t, core.ReasonTimeout, core.TransientReasonOf(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		err := mapError(&url.Error{Op: "Post", URL: "https://api.openai.com", Err: errors.New("connection refused")})
		assert.True(t, core.IsTransient(err))
		assert.Equal(t, core.ReasonConnection, core.TransientReasonOf(err))
	})

	t.Run("non-transport failure is permanent", func(t *testing.T) {
		cause := errors.New("json: unsupported type")
		err := mapError(cause)
		assert.False(t, core.IsTransient(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("cancellation passes through", func(t *testing.T) {
		err := mapError(context.Canceled)
		assert.False(t, core.IsTransient(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
