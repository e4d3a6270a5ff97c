package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a Provider from explicit configuration. Constructors
// fail fast with a core.ConfigError when credentials are missing, before any
// network attempt.
type Factory func(cfg Config) (Provider, error)

// Registry maps backend variant tags to provider constructors. The tag set is
// closed at any point in time but extensible: callers add new variants with
// Register, and New validates requested tags against the known set.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty provider registry. The modelgate façade seeds
// it with the bundled anthropic and openai factories.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to a variant tag, replacing any previous binding.
func (r *Registry) Register(tag string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = factory
}

// Tags returns the sorted variant tags known to the registry.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// New instantiates a provider for the given variant tag. An unknown tag is an
// error enumerating the known tags.
func (r *Registry) New(tag string, cfg Config) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf(
			"provider: unknown variant %q (known: %s)",
			tag, strings.Join(r.Tags(), ", "),
		)
	}
	return factory(cfg)
}
