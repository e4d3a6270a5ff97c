package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/modelgate/internal/util"
	"github.com/hupe1980/modelgate/logging"
)

// Registry holds named tool definitions and their handlers and executes them
// on demand. It is owned by a provider instance and safe for concurrent
// registration and lookup, so a shared provider can interleave new tool
// registrations with in-flight executions.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]entry
	logger logging.Logger
}

type entry struct {
	def     Definition
	handler Handler
}

// NewRegistry creates an empty tool registry. A nil logger disables logging.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]entry),
		logger: logging.OrNoOp(logger),
	}
}

// Register stores the definition and binds the handler under def.Name.
// Re-registering an existing name overwrites the previous binding silently.
func (r *Registry) Register(def Definition, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		r.logger.Debug("overwriting tool registration", "tool", def.Name)
	}
	r.tools[def.Name] = entry{def: def, handler: handler}
	r.logger.Info("registered tool", "tool", def.Name)
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns a snapshot of all registered tool definitions, sorted by
// name, for forwarding to a provider's wire format.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, e := range r.tools {
		defs = append(defs, e.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute invokes the named tool with keyword-style arguments and converts any
// failure into a Result. An unregistered name yields a failure enumerating the
// currently registered names. Handler errors and panics are caught at this
// boundary; they never propagate to the model-facing caller.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) Result {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("tool not found", "tool", name)
		return Failure(fmt.Sprintf(
			"tool %q not found; registered tools: [%s]",
			name, strings.Join(r.Names(), ", "),
		))
	}

	if e.def.InputSchema != nil {
		if err := util.ValidateArguments(args, e.def.InputSchema); err != nil {
			r.logger.Warn("tool argument validation failed", "tool", name, "error", err.Error())
			return Failure(err.Error())
		}
	}

	return r.invoke(ctx, name, e.handler, args)
}

// invoke isolates handler execution so a panic unwinds no further than the
// registry boundary.
func (r *Registry) invoke(ctx context.Context, name string, handler Handler, args map[string]any) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", "tool", name, "panic", fmt.Sprintf("%v", rec))
			result = Failure(fmt.Sprintf("tool %q panicked: %v", name, rec))
		}
	}()

	value, err := handler(ctx, args)
	if err != nil {
		r.logger.Error("tool execution failed", "tool", name, "error", err.Error())
		return Failure(err.Error())
	}

	r.logger.Debug("tool executed", "tool", name)
	return Success(value)
}
