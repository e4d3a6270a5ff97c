package provider

import (
	"context"
	"time"

	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/logging"
	"github.com/hupe1980/modelgate/retry"
	"github.com/hupe1980/modelgate/tool"
)

// Provider is the polymorphic contract every concrete LLM backend implements.
//
// Provider instances hold no per-request mutable state and may be shared
// across many concurrent requests. Generation calls are suspension points
// driven by ctx; retries happen inside the provider (via the retry executor),
// invisible to the dispatcher above it.
type Provider interface {
	// Name returns the backend's unique identifier ("anthropic", "openai", ...).
	Name() string

	// GenerateCompletion answers a single-prompt completion request.
	GenerateCompletion(ctx context.Context, req *core.Request) (*core.Response, error)

	// GenerateChatCompletion answers a multi-turn chat completion request.
	GenerateChatCompletion(ctx context.Context, req *core.Request) (*core.Response, error)

	// GenerateEmbeddings returns one vector per input text. Providers without
	// native embedding support return placeholder vectors of a fixed,
	// documented dimensionality and emit a warning instead of failing.
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error)

	// TokenCount counts (or estimates) the tokens in text. Implementations
	// document whether the count is exact or approximate.
	TokenCount(text string) int

	// Tools returns the provider-owned tool registry. The registry lives
	// exactly as long as the provider instance.
	Tools() *tool.Registry
}

// Config carries the explicit construction-time configuration for a concrete
// provider. There is no ambient global state; everything a provider needs
// arrives here.
type Config struct {
	// APIKey authenticates against the backend. When empty, constructors fall
	// back to the backend's conventional environment variable and fail fast
	// with a core.ConfigError if neither is set.
	APIKey string
	// BaseURL optionally overrides the backend endpoint.
	BaseURL string
	// Model is the instance-default model id.
	Model string
	// EmbeddingModel overrides the backend's default embedding model, for
	// backends with native embedding support.
	EmbeddingModel string
	// Temperature is the instance-default sampling temperature.
	Temperature *float64
	// MaxTokens is the instance-default output token bound.
	MaxTokens *int64
	// RequestTimeout bounds each remote call. Zero means no per-call timeout.
	RequestTimeout time.Duration
	// RetryPolicy governs backoff around the remote call. Zero value selects
	// retry.DefaultPolicy().
	RetryPolicy retry.Policy
	// DisableCaching turns response caching off for this provider.
	DisableCaching bool
	// Logger receives provider diagnostics. Nil disables logging.
	Logger logging.Logger
}

// Hard-coded generation defaults shared by the bundled providers, applied when
// neither the request nor the instance configuration supplies a value.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = int64(4096)
)

// EffectiveTemperature resolves the sampling temperature by precedence:
// explicit per-request value > instance configuration > hard-coded default.
func EffectiveTemperature(req *core.Request, cfg Config) float64 {
	if req != nil && req.Temperature != nil {
		return *req.Temperature
	}
	if cfg.Temperature != nil {
		return *cfg.Temperature
	}
	return DefaultTemperature
}

// EffectiveMaxTokens resolves the output token bound by the same precedence.
func EffectiveMaxTokens(req *core.Request, cfg Config) int64 {
	if req != nil && req.MaxTokens != nil {
		return *req.MaxTokens
	}
	if cfg.MaxTokens != nil {
		return *cfg.MaxTokens
	}
	return DefaultMaxTokens
}

// EffectiveModel resolves the model id: per-request override > instance
// configuration > fallback.
func EffectiveModel(req *core.Request, cfg Config, fallback string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

// ChatMessages normalizes a request into the ordered message sequence a
// backend consumes: messages tagged system are extracted into the returned
// system prompt (joined in order when several are present), all other roles
// pass through positionally unchanged. When the request carries no messages a
// single user-role message is synthesized from the bare prompt.
func ChatMessages(req *core.Request) (messages []core.Message, system string) {
	if len(req.Messages) == 0 {
		return []core.Message{{Role: core.RoleUser, Content: req.Prompt}}, ""
	}

	for _, m := range req.Messages {
		if m.Role == core.RoleSystem {
			if system != "" {
				system += "\n"
			}
			system += m.Content
			continue
		}
		messages = append(messages, m)
	}
	return messages, system
}
