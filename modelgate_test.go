package modelgate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/provider"
	"github.com/hupe1980/modelgate/tool"
)

func TestBundledVariants(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	gate := New()

	t.Run("anthropic without key fails fast", func(t *testing.T) {
		err := gate.AddProvider("anthropic", provider.Config{})
		require.Error(t, err)
		assert.True(t, core.IsConfigError(err))
	})

	t.Run("openai without key fails fast", func(t *testing.T) {
		err := gate.AddProvider("openai", provider.Config{})
		require.Error(t, err)
		assert.True(t, core.IsConfigError(err))
	})

	t.Run("unknown variant enumerates known tags", func(t *testing.T) {
		err := gate.AddProvider("nonexistent", provider.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anthropic")
		assert.Contains(t, err.Error(), "openai")
	})

	t.Run("with key succeeds", func(t *testing.T) {
		require.NoError(t, gate.AddProvider("anthropic", provider.Config{APIKey: "test"}))
		assert.Contains(t, gate.Providers(), "anthropic")
	})
}

func TestUnknownProviderName(t *testing.T) {
	gate := New()
	gate.RegisterProvider(provider.NewMockProvider("mock"))

	_, err := gate.GenerateCompletion(context.Background(), "missing", &core.Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Contains(t, err.Error(), "mock")
}

func TestGenerateCompletionThroughCache(t *testing.T) {
	gate := New()
	mock := provider.NewMockProvider("mock")
	gate.RegisterProvider(mock)

	req := &core.Request{Prompt: "cache me"}

	first, err := gate.GenerateCompletion(context.Background(), "mock", req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	// The caller's request is never written to; the capability is defaulted
	// on an internal copy.
	assert.Empty(t, req.Capability)

	second, err := gate.GenerateCompletion(context.Background(), "mock", &core.Request{Prompt: "cache me"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, mock.Calls())
}

func TestDisableCaching(t *testing.T) {
	gate := New(func(o *Options) {
		o.DisableCaching = true
	})
	mock := provider.NewMockProvider("mock")
	gate.RegisterProvider(mock)

	for range 2 {
		resp, err := gate.GenerateCompletion(context.Background(), "mock", &core.Request{Prompt: "never cached"})
		require.NoError(t, err)
		assert.False(t, resp.Cached)
	}
	assert.Equal(t, 2, mock.Calls())
}

func TestGenerateChatCompletion(t *testing.T) {
	gate := New()
	gate.RegisterProvider(provider.NewMockProvider("mock"))

	req := &core.Request{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "be brief"},
			{Role: core.RoleUser, Content: "hello"},
		},
	}

	resp, err := gate.GenerateChatCompletion(context.Background(), "mock", req)
	require.NoError(t, err)
	assert.Empty(t, req.Capability)
	assert.NotEmpty(t, resp.Content)
}

func TestGenerateEmbeddings(t *testing.T) {
	gate := New()
	gate.RegisterProvider(provider.NewMockProvider("mock"))

	vectors, err := gate.GenerateEmbeddings(context.Background(), "mock", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
}

func TestTokenCount(t *testing.T) {
	gate := New()
	gate.RegisterProvider(provider.NewMockProvider("mock"))

	n, err := gate.TokenCount("mock", "twelve chars")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = gate.TokenCount("missing", "text")
	require.Error(t, err)
}

func TestRegisterAndExecuteTool(t *testing.T) {
	gate := New()
	gate.RegisterProvider(provider.NewMockProvider("mock"))

	err := gate.RegisterTool("mock", tool.Definition{
		Name:        "echo",
		Description: "Echoes its input",
	}, func(_ context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})
	require.NoError(t, err)

	result, err := gate.ExecuteTool(context.Background(), "mock", "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "hi", result.Value)

	result, err = gate.ExecuteTool(context.Background(), "mock", "nope", nil)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "echo")
}

func TestRegisterFactory(t *testing.T) {
	gate := New()
	gate.RegisterFactory("custom", func(_ provider.Config) (provider.Provider, error) {
		return provider.NewMockProvider("custom"), nil
	})

	require.NoError(t, gate.AddProvider("custom", provider.Config{}))

	resp, err := gate.GenerateCompletion(context.Background(), "custom", &core.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "custom", resp.Provider)
}
