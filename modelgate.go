// Package modelgate provides a high-level façade over the provider, cache,
// retry and tool packages, enabling uniform access to heterogeneous LLM
// backends. Most applications interact with this package by:
//  1. Creating a ModelGate via New() (optionally supplying a cache store,
//     logger and retry policy)
//  2. Adding one or more providers by variant tag (AddProvider) or as
//     pre-built instances (RegisterProvider)
//  3. Issuing completion, chat, embedding and token-count operations against
//     a provider by name
//
// The façade delegates cache-aware invocation to provider.Dispatcher while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a shared
// cache store (for example cache.RedisStore) and a structured logger.
package modelgate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/modelgate/cache"
	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/logging"
	"github.com/hupe1980/modelgate/provider"
	"github.com/hupe1980/modelgate/provider/anthropic"
	"github.com/hupe1980/modelgate/provider/openai"
	"github.com/hupe1980/modelgate/retry"
	"github.com/hupe1980/modelgate/tool"
)

// Options configures the ModelGate instance.
type Options struct {
	// CacheStore holds cached responses shared by all providers. Defaults to
	// an in-memory store; set to nil explicitly via DisableCaching instead.
	CacheStore cache.Store

	// DisableCaching turns response caching off for every provider.
	DisableCaching bool

	// RetryPolicy is the default backoff policy handed to providers that do
	// not carry their own. Zero value selects retry.DefaultPolicy().
	RetryPolicy retry.Policy

	// RequestTimeout bounds each remote provider call. Zero means no
	// per-call timeout.
	RequestTimeout time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ModelGate is the high-level façade aggregating registered providers behind
// a uniform operation surface. It is safe for concurrent use.
type ModelGate struct {
	opts     Options
	registry *provider.Registry

	mu          sync.RWMutex
	dispatchers map[string]*provider.Dispatcher
}

// New creates a new ModelGate instance with optional overrides. The variant
// registry starts with the bundled anthropic and openai backends.
func New(optFns ...func(o *Options)) *ModelGate {
	opts := Options{
		CacheStore: cache.NewInMemoryStore(),
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := provider.NewRegistry()
	registry.Register(anthropic.ProviderName, anthropic.Factory)
	registry.Register(openai.ProviderName, openai.Factory)

	return &ModelGate{
		opts:        opts,
		registry:    registry,
		dispatchers: make(map[string]*provider.Dispatcher),
	}
}

// RegisterFactory adds a provider variant beyond the bundled ones. Subsequent
// AddProvider calls may use the tag.
func (g *ModelGate) RegisterFactory(tag string, factory provider.Factory) {
	g.registry.Register(tag, factory)
}

// AddProvider instantiates the given variant and makes it addressable under
// its name. Instance-level configuration not set on cfg is inherited from the
// gate options. Adding a provider with an existing name replaces it.
func (g *ModelGate) AddProvider(tag string, cfg provider.Config) error {
	if cfg.Logger == nil {
		cfg.Logger = g.opts.Logger
	}
	if cfg.RetryPolicy.MaxAttempts == 0 {
		cfg.RetryPolicy = g.opts.RetryPolicy
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = g.opts.RequestTimeout
	}

	p, err := g.registry.New(tag, cfg)
	if err != nil {
		return err
	}

	g.register(p, cfg.DisableCaching)
	return nil
}

// RegisterProvider makes a pre-built provider instance addressable under its
// name. Useful for custom backends and tests.
func (g *ModelGate) RegisterProvider(p provider.Provider) {
	g.register(p, false)
}

func (g *ModelGate) register(p provider.Provider, disableCaching bool) {
	d := provider.NewDispatcher(p, func(o *provider.DispatcherOptions) {
		if !g.opts.DisableCaching && !disableCaching {
			o.Store = g.opts.CacheStore
		}
		o.Logger = g.opts.Logger
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	g.dispatchers[p.Name()] = d

	g.opts.Logger.Info("provider registered", "provider", p.Name())
}

// Providers returns the sorted names of all registered providers.
func (g *ModelGate) Providers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.dispatchers))
	for name := range g.dispatchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provider returns the registered provider with the given name.
func (g *ModelGate) Provider(name string) (provider.Provider, error) {
	d, err := g.dispatcher(name)
	if err != nil {
		return nil, err
	}
	return d.Provider(), nil
}

// GenerateCompletion answers a single-prompt completion request against the
// named provider, going through the response cache when the request is
// eligible.
func (g *ModelGate) GenerateCompletion(ctx context.Context, providerName string, req *core.Request) (*core.Response, error) {
	d, err := g.dispatcher(providerName)
	if err != nil {
		return nil, err
	}
	return d.GenerateCompletion(ctx, withCapability(req, core.CapabilityCompletion))
}

// GenerateChatCompletion answers a multi-turn chat request against the named
// provider, going through the response cache when the request is eligible.
func (g *ModelGate) GenerateChatCompletion(ctx context.Context, providerName string, req *core.Request) (*core.Response, error) {
	d, err := g.dispatcher(providerName)
	if err != nil {
		return nil, err
	}
	return d.GenerateChatCompletion(ctx, withCapability(req, core.CapabilityChatCompletion))
}

// GenerateEmbeddings returns one vector per input text from the named
// provider. Embeddings are never cached.
func (g *ModelGate) GenerateEmbeddings(ctx context.Context, providerName string, texts []string) ([][]float64, error) {
	d, err := g.dispatcher(providerName)
	if err != nil {
		return nil, err
	}
	return d.Provider().GenerateEmbeddings(ctx, texts)
}

// TokenCount counts (or estimates) the tokens in text using the named
// provider's tokenizer.
func (g *ModelGate) TokenCount(providerName, text string) (int, error) {
	d, err := g.dispatcher(providerName)
	if err != nil {
		return 0, err
	}
	return d.Provider().TokenCount(text), nil
}

// RegisterTool registers a tool on the named provider's registry, silently
// replacing any previous tool with the same name.
func (g *ModelGate) RegisterTool(providerName string, def tool.Definition, handler tool.Handler) error {
	d, err := g.dispatcher(providerName)
	if err != nil {
		return err
	}
	d.Provider().Tools().Register(def, handler)
	return nil
}

// ExecuteTool runs a tool registered on the named provider. Handler failures
// surface as structured results, never as errors; the returned error covers
// only unknown provider names.
func (g *ModelGate) ExecuteTool(ctx context.Context, providerName, toolName string, args map[string]any) (tool.Result, error) {
	d, err := g.dispatcher(providerName)
	if err != nil {
		return tool.Result{}, err
	}
	return d.Provider().Tools().Execute(ctx, toolName, args), nil
}

func (g *ModelGate) dispatcher(name string) (*provider.Dispatcher, error) {
	g.mu.RLock()
	d, ok := g.dispatchers[name]
	g.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf(
			"modelgate: unknown provider %q (registered: %s)",
			name, strings.Join(g.Providers(), ", "),
		)
	}
	return d, nil
}

// withCapability returns req with the capability defaulted, copying the
// request first so the caller's value is never mutated.
func withCapability(req *core.Request, capability core.Capability) *core.Request {
	if req.Capability != "" {
		return req
	}
	r := *req
	r.Capability = capability
	return &r
}
