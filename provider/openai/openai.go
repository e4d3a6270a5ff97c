// Package openai implements the modelgate provider contract on top of the
// OpenAI Chat Completions and Embeddings APIs using the official client.
//
// Unlike the anthropic backend, embeddings are native (text-embedding-3-small
// by default) and TokenCount uses a real BPE tokenizer (tiktoken) with a
// length/4 fallback when the encoding cannot be loaded.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/logging"
	"github.com/hupe1980/modelgate/provider"
	"github.com/hupe1980/modelgate/retry"
	"github.com/hupe1980/modelgate/tool"
)

const (
	// ProviderName is the variant tag this backend registers under.
	ProviderName = "openai"

	// DefaultModel is used when neither the request nor the configuration
	// names a model.
	DefaultModel = openai.ChatModelGPT4o

	// DefaultEmbeddingModel backs GenerateEmbeddings unless the configuration
	// overrides it.
	DefaultEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small

	// encodingName is the BPE encoding used for token counting.
	encodingName = "cl100k_base"
)

// Provider adapts the OpenAI API to the provider contract. It is safe for
// concurrent use.
type Provider struct {
	client         openai.Client
	cfg            provider.Config
	embeddingModel openai.EmbeddingModel
	policy         retry.Policy
	tools          *tool.Registry
	logger         logging.Logger

	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
}

// New creates an OpenAI provider. The API key is taken from cfg.APIKey or the
// OPENAI_API_KEY environment variable; a missing key fails fast with a
// core.ConfigError before any network attempt.
func New(cfg provider.Config) (*Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, core.NewConfigError(ProviderName, "api key not provided (set OPENAI_API_KEY)")
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

	policy := cfg.RetryPolicy
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}

	embeddingModel := DefaultEmbeddingModel
	if cfg.EmbeddingModel != "" {
		embeddingModel = openai.EmbeddingModel(cfg.EmbeddingModel)
	}

	return &Provider{
		client:         openai.NewClient(clientOpts...),
		cfg:            cfg,
		embeddingModel: embeddingModel,
		policy:         policy,
		tools:          tool.NewRegistry(logger),
		logger:         logger,
	}, nil
}

// Factory adapts New to the provider.Factory signature.
func Factory(cfg provider.Config) (provider.Provider, error) { return New(cfg) }

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// Tools implements provider.Provider.
func (p *Provider) Tools() *tool.Registry { return p.tools }

// GenerateCompletion implements provider.Provider for single-prompt requests.
func (p *Provider) GenerateCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	p.logger.Debug("generating completion", "provider", ProviderName, "prompt_len", len(req.Prompt))
	return p.createChatCompletion(ctx, req)
}

// GenerateChatCompletion implements provider.Provider for multi-turn requests.
func (p *Provider) GenerateChatCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	p.logger.Debug("generating chat completion", "provider", ProviderName, "messages", len(req.Messages))
	return p.createChatCompletion(ctx, req)
}

func (p *Provider) createChatCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	messages, system := provider.ChatMessages(req)
	model := provider.EffectiveModel(req, p.cfg, DefaultModel)

	params := openai.ChatCompletionNewParams{
		Model:               model,
		Messages:            buildMessages(messages, system),
		Temperature:         openai.Float(provider.EffectiveTemperature(req, p.cfg)),
		MaxCompletionTokens: openai.Int(provider.EffectiveMaxTokens(req, p.cfg)),
	}
	if defs := p.tools.Definitions(); len(defs) > 0 {
		params.Tools = buildTools(defs)
	}

	completion, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*openai.ChatCompletion, error) {
		if p.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
			defer cancel()
		}
		resp, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, mapError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	if len(completion.Choices) == 0 {
		return nil, core.NewAPIError(ProviderName, 0, "response contained no choices")
	}
	choice := completion.Choices[0]

	finishReason := string(choice.FinishReason)
	if finishReason == "" {
		finishReason = "stop"
	}

	resp := core.NewResponse(
		ProviderName,
		model,
		choice.Message.Content,
		finishReason,
		int(completion.Usage.PromptTokens),
		int(completion.Usage.CompletionTokens),
	)
	resp.ToolCalls = extractToolCalls(choice.Message.ToolCalls)
	return resp, nil
}

// GenerateEmbeddings implements provider.Provider using the native embeddings
// endpoint, one vector per input text in input order.
func (p *Provider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	p.logger.Debug("generating embeddings", "provider", ProviderName, "texts", len(texts))

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: p.embeddingModel,
	}

	resp, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
		if p.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
			defer cancel()
		}
		r, err := p.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, mapError(err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// TokenCount implements provider.Provider with an exact BPE count. The
// encoder loads lazily on first use; if loading fails TokenCount falls back
// to the length/4 estimate.
func (p *Provider) TokenCount(text string) int {
	p.encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			p.logger.Warn("failed to load tokenizer encoding, falling back to estimate",
				"encoding", encodingName,
				"error", err,
			)
			return
		}
		p.encoder = enc
	})

	if p.encoder == nil {
		return utf8.RuneCountInString(text) / 4
	}
	return len(p.encoder.Encode(text, nil, nil))
}

// buildMessages converts normalized messages to the OpenAI wire shape. The
// system prompt, when present, leads the conversation.
func buildMessages(messages []core.Message, system string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range messages {
		switch m.Role {
		case core.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// buildTools converts registered tool definitions to OpenAI function tools.
func buildTools(defs []tool.Definition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(defs))
	for i, def := range defs {
		out[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  openai.FunctionParameters(def.InputSchema),
			},
		}
	}
	return out
}

func extractToolCalls(calls []openai.ChatCompletionMessageToolCall) []core.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]core.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, core.ToolCall{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: decodeArguments(c.Function.Arguments),
		})
	}
	return out
}

func decodeArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
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

	var apierr *openai.Error
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
