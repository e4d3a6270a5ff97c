package provider

import (
	"context"
	"errors"

	"github.com/hupe1980/modelgate/cache"
	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/logging"
)

// DispatcherOptions configures the cache-aware invocation path.
type DispatcherOptions struct {
	// Store is the cache collaborator. Nil makes caching a no-op.
	Store cache.Store
	// DisableCaching turns the eligibility gate off globally.
	DisableCaching bool
	// Logger receives cache-layer warnings. Nil disables logging.
	Logger logging.Logger
}

// Dispatcher orchestrates provider calls with response caching: consult the
// eligibility gate, check the cache, invoke the provider, populate the cache.
// It is used identically for completion and chat-completion capabilities and
// never wraps or swallows generation errors, only cache-layer errors, which
// are logged and treated as misses (reads) or ignored (writes).
//
// Retries are not visible at this layer; they belong to the provider.
type Dispatcher struct {
	provider Provider
	store    cache.Store
	policy   cache.Policy
	logger   logging.Logger
}

// NewDispatcher wraps a provider with the shared cache-aware invocation path.
func NewDispatcher(p Provider, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		provider: p,
		store:    opts.Store,
		policy:   cache.Policy{Disabled: opts.DisableCaching},
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Provider returns the wrapped provider.
func (d *Dispatcher) Provider() Provider { return d.provider }

// GenerateCompletion invokes the provider's completion capability through the
// cache.
func (d *Dispatcher) GenerateCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	return d.invoke(ctx, req, d.provider.GenerateCompletion)
}

// GenerateChatCompletion invokes the provider's chat-completion capability
// through the cache.
func (d *Dispatcher) GenerateChatCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	return d.invoke(ctx, req, d.provider.GenerateChatCompletion)
}

type generateFunc func(ctx context.Context, req *core.Request) (*core.Response, error)

// invoke performs the strictly ordered cache-check → generate → cache-populate
// sequence: exactly one cache read and at most one cache write per invocation,
// and zero or one provider invocation.
func (d *Dispatcher) invoke(ctx context.Context, req *core.Request, generate generateFunc) (*core.Response, error) {
	fingerprint := d.fingerprint(req)

	if fingerprint != "" {
		if cached := d.lookup(ctx, fingerprint); cached != nil {
			d.logger.Info("cache hit", "provider", d.provider.Name(), "capability", string(req.Capability))
			cached.Cached = true
			return cached, nil
		}
	}

	resp, err := generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// A canceled request must not leave a partial cache write observable.
	if fingerprint != "" && ctx.Err() == nil {
		if err := d.store.Put(ctx, fingerprint, d.provider.Name(), resp); err != nil {
			d.logger.Warn("cache write failed", "provider", d.provider.Name(), "error", err.Error())
		}
	}

	return resp, nil
}

// fingerprint returns the cache key for req, or "" when caching does not
// apply to this invocation.
func (d *Dispatcher) fingerprint(req *core.Request) string {
	if d.store == nil || !cache.Cacheable(req, d.policy) {
		return ""
	}
	fp, err := cache.Fingerprint(req)
	if err != nil {
		d.logger.Warn("request fingerprint failed", "provider", d.provider.Name(), "error", err.Error())
		return ""
	}
	return fp
}

// lookup reads the cache, translating every failure into a miss.
func (d *Dispatcher) lookup(ctx context.Context, fingerprint string) *core.Response {
	cached, err := d.store.Get(ctx, fingerprint, d.provider.Name())
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			d.logger.Warn("cache read failed, treating as miss", "provider", d.provider.Name(), "error", err.Error())
		}
		return nil
	}
	return cached
}
