package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/tool"
)

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. Canned completions are keyed by prompt (or the last message's
// content); unknown inputs get a deterministic synthetic reply. An optional
// error script lets tests drive the retry executor through failure sequences.
type MockProvider struct {
	name      string
	model     string
	tools     *tool.Registry
	calls     atomic.Int64
	mu        sync.Mutex
	responses map[string]string
	errScript []error
}

// NewMockProvider constructs a MockProvider with the given backend name.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:      name,
		model:     name + "-mock-model",
		tools:     tool.NewRegistry(nil),
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input.
func (m *MockProvider) AddResponse(input, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = response
}

// FailWith queues errors returned (in order) by subsequent generation calls
// before successful responses resume.
func (m *MockProvider) FailWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errScript = append(m.errScript, errs...)
}

// Calls reports how many generation calls reached the provider.
func (m *MockProvider) Calls() int { return int(m.calls.Load()) }

// Name implements Provider.
func (m *MockProvider) Name() string { return m.name }

// Tools implements Provider.
func (m *MockProvider) Tools() *tool.Registry { return m.tools }

// GenerateCompletion implements Provider.
func (m *MockProvider) GenerateCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	return m.generate(ctx, req.Prompt)
}

// GenerateChatCompletion implements Provider.
func (m *MockProvider) GenerateChatCompletion(ctx context.Context, req *core.Request) (*core.Response, error) {
	messages, system := ChatMessages(req)

	var input string
	switch {
	case len(messages) > 0:
		input = messages[len(messages)-1].Content
	case req.Prompt != "":
		input = req.Prompt
	default:
		input = system
	}

	return m.generate(ctx, input)
}

// GenerateEmbeddings implements Provider with fixed 8-dimensional vectors.
func (m *MockProvider) GenerateEmbeddings(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		v := make([]float64, 8)
		for j := range v {
			v[j] = 0.1
		}
		vectors[i] = v
	}
	return vectors, nil
}

// TokenCount implements Provider with the standard length/4 estimate.
func (m *MockProvider) TokenCount(text string) int { return utf8.RuneCountInString(text) / 4 }

func (m *MockProvider) generate(ctx context.Context, input string) (*core.Response, error) {
	m.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if len(m.errScript) > 0 {
		err := m.errScript[0]
		m.errScript = m.errScript[1:]
		m.mu.Unlock()
		return nil, err
	}
	content, ok := m.responses[input]
	m.mu.Unlock()

	if !ok {
		content = fmt.Sprintf("Mock response to: %s", input)
	}

	return core.NewResponse(m.name, m.model, content, "stop", m.TokenCount(input), m.TokenCount(content)), nil
}

var _ Provider = (*MockProvider)(nil)
