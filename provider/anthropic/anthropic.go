// Package anthropic implements the modelgate provider contract on top of the
// Anthropic Messages API using the official client.
//
// Defaults: temperature 0.7, max tokens 4096 (see provider.DefaultTemperature
// / provider.DefaultMaxTokens). Anthropic has no native embedding endpoint, so
// GenerateEmbeddings returns fixed 64-dimensional placeholder vectors and logs
// a warning. TokenCount is an approximation (length / 4), not an exact
// tokenizer.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/logging"
	"github.com/hupe1980/modelgate/provider"
	"github.com/hupe1980/modelgate/retry"
	"github.com/hupe1980/modelgate/tool"
)

const (
	// ProviderName is the variant tag this backend registers under.
	ProviderName = "anthropic"

	// DefaultModel is used when neither the request nor the configuration
	// names a model.
	DefaultModel = string(anthropic.ModelClaude3_5Sonnet20241022)

	// EmbeddingDimensions is the size of the placeholder vectors returned by
	// GenerateEmbeddings (Anthropic has no native embedding support).
	EmbeddingDimensions = 64
)

// Provider adapts the Anthropic Messages API to the provider contract. It is
// safe for concurrent use: all per-request state lives on the stack.
type Provider struct {
	client anthropic.Client
	cfg    provider.Config
	policy retry.Policy
	tools  *tool.Registry
	logger logging.Logger
}

// New creates an Anthropic provider. The API key is taken from cfg.APIKey or
// the ANTHROPIC_API_KEY environment variable; a missing key fails fast with a
// core.ConfigError before any network attempt.
func New(cfg provider.Config) (*Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, core.NewConfigError(ProviderName, "api key not provided (set ANTHROPIC_API_KEY)")
	}

	// The retry executor owns attempt counting; the SDK must not retry on its own.
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}

	logger := logging.OrNoOp(cfg.Logger)

	return &Provider{
		client: anthropic.NewClient(clientOpts...),
		cfg:    cfg,
		policy: withLogger(cfg.RetryPolicy, logger),
		tools:  tool.NewRegistry(logger),
		logger: logger,
	}, nil
}

// Factory adapts New to the provider.Factory signature.
func Factory(cfg provider.Config) (provider.Provider, error) { return New(cfg) }

func withLogger(p retry.Policy, logger logging.Logger) retry.Policy {
	if p.MaxAttempts == 0 {
		p = retry.DefaultPolicy()
	}
	if p.Logger == nil {
		p.Logger = logger
	}
	return p
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// Tools implements provider.Provider.
func (p *Provider) Tools() *tool.Registry { return p.tools }

// GenerateCompletion implements provider.Provider for single-prompt requests.
func (p *Provider) GenerateCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	p.logger.Debug("generating completion", "provider", ProviderName, "prompt_len", len(req.Prompt))
	return p.createMessage(ctx, req)
}

// GenerateChatCompletion implements provider.Provider for multi-turn requests.
func (p *Provider) GenerateChatCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	p.logger.Debug("generating chat completion", "provider", ProviderName, "messages", len(req.Messages))
	return p.createMessage(ctx, req)
}

// createMessage builds the Messages API call, runs it through the retry
// executor and normalizes the result.
func (p *Provider) createMessage(ctx context.Context, req *core.Request) (*core.Response, error) {
	messages, system := provider.ChatMessages(req)
	model := provider.EffectiveModel(req, p.cfg, DefaultModel)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   provider.EffectiveMaxTokens(req, p.cfg),
		Temperature: anthropic.Float(provider.EffectiveTemperature(req, p.cfg)),
		Messages:    buildMessages(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if defs := p.tools.Definitions(); len(defs) > 0 {
		params.Tools = buildTools(defs)
	}
	if thinking, ok := req.Param("thinking").(map[string]any); ok {
		if budget, ok := thinking["budget_tokens"].(float64); ok {
			params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(budget))
		}
	}

	msg, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*anthropic.Message, error) {
		if p.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
			defer cancel()
		}
		resp, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return nil, mapError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	content, toolCalls := extractContent(msg.Content)

	finishReason := string(msg.StopReason)
	if finishReason == "" {
		finishReason = "stop"
	}

	resp := core.NewResponse(
		ProviderName,
		model,
		content,
		finishReason,
		int(msg.Usage.InputTokens),
		int(msg.Usage.OutputTokens),
	)
	resp.ToolCalls = toolCalls
	return resp, nil
}

// GenerateEmbeddings implements provider.Provider. Anthropic does not support
// embeddings natively; this returns placeholder vectors so callers relying on
// the capability keep working, and warns that the result is not a real
// embedding.
func (p *Provider) GenerateEmbeddings(_ context.Context, texts []string) ([][]float64, error) {
	p.logger.Warn("anthropic does not support embeddings natively; returning placeholder vectors",
		"dimensions", EmbeddingDimensions,
		"texts", len(texts),
	)

	vectors := make([][]float64, len(texts))
	for i := range texts {
		v := make([]float64, EmbeddingDimensions)
		for j := range v {
			v[j] = 0.1
		}
		vectors[i] = v
	}
	return vectors, nil
}

// TokenCount implements provider.Provider with the ~4 characters per token
// approximation. It is an estimate, not an exact count.
func (p *Provider) TokenCount(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// buildMessages converts normalized messages to the Anthropic wire shape.
// System messages were already extracted; remaining roles map positionally.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

// buildTools converts registered tool definitions to Anthropic tool params.
func buildTools(defs []tool.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if def.InputSchema != nil {
			if properties, ok := def.InputSchema["properties"]; ok {
				schema.Properties = properties
			}
			schema.Required = requiredFields(def.InputSchema)
		}
		out[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: schema,
		}}
	}
	return out
}

func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// extractContent flattens the response content blocks into text plus any tool
// invocations the model requested.
func extractContent(blocks []anthropic.ContentBlockUnion) (string, []core.ToolCall) {
	var text string
	var toolCalls []core.ToolCall

	for _, block := range blocks {
		switch block.Type {
		case "text":
			text += block.AsText().Text
		case "tool_use":
			tu := block.AsToolUse()
			toolCalls = append(toolCalls, core.ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: decodeArguments(tu.Input),
			})
		}
	}
	return text, toolCalls
}

func decodeArguments(input any) map[string]any {
	if input == nil {
		return nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	return args
}

// mapError translates SDK/transport failures into the modelgate taxonomy.
// Raw SDK error types never cross the provider boundary.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusTooManyRequests:
			return core.NewTransientError(ProviderName, core.ReasonRateLimited, err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return core.NewTransientError(ProviderName, core.ReasonTimeout, err)
		default:
			return core.NewAPIError(ProviderName, apierr.StatusCode, apierr.Error())
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewTransientError(ProviderName, core.ReasonTimeout, err)
	}
	// url.Error implements net.Error, so this covers both dial failures and
	// request-level transport errors.
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return core.NewTransientError(ProviderName, core.ReasonTimeout, err)
		}
		return core.NewTransientError(ProviderName, core.ReasonConnection, err)
	}

	// Anything else (payload encoding, SDK invariants) is permanent and
	// propagates without a retry class.
	return err
}

var _ provider.Provider = (*Provider)(nil)
