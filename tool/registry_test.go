package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculatorDefinition() Definition {
	return Definition{
		Name:        "calculator",
		Description: "Perform basic arithmetic",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{"type": "string"},
				"a":         map[string]any{"type": "number"},
				"b":         map[string]any{"type": "number"},
			},
			"required": []string{"operation", "a", "b"},
		},
	}
}

func calculatorHandler(_ context.Context, args map[string]any) (any, error) {
	a := args["a"].(float64)
	b := args["b"].(float64)
	switch args["operation"] {
	case "add":
		return a + b, nil
	case "subtract":
		return a - b, nil
	default:
		return nil, fmt.Errorf("unsupported operation: %v", args["operation"])
	}
}

func TestRegistryExecuteSuccess(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(calculatorDefinition(), calculatorHandler)

	result := reg.Execute(context.Background(), "calculator", map[string]any{
		"operation": "add",
		"a":         float64(5),
		"b":         float64(3),
	})

	require.True(t, result.OK)
	assert.Equal(t, float64(8), result.Value)
	assert.Empty(t, result.Error)
}

func TestRegistryExecuteUnknownToolListsRegisteredNames(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(calculatorDefinition(), calculatorHandler)
	reg.Register(Definition{Name: "weather"}, func(context.Context, map[string]any) (any, error) {
		return "sunny", nil
	})

	result := reg.Execute(context.Background(), "missing", nil)

	require.False(t, result.OK)
	assert.Contains(t, result.Error, `"missing" not found`)
	assert.Contains(t, result.Error, "calculator")
	assert.Contains(t, result.Error, "weather")
}

func TestRegistryExecuteHandlerErrorBecomesFailureResult(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Definition{Name: "flaky"}, func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("downstream unavailable")
	})

	result := reg.Execute(context.Background(), "flaky", nil)

	require.False(t, result.OK)
	assert.Equal(t, "downstream unavailable", result.Error)
}

func TestRegistryExecuteHandlerPanicBecomesFailureResult(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Definition{Name: "explosive"}, func(context.Context, map[string]any) (any, error) {
		panic("boom")
	})

	result := reg.Execute(context.Background(), "explosive", nil)

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "boom")
}

func TestRegistryExecuteValidatesArguments(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(calculatorDefinition(), calculatorHandler)

	result := reg.Execute(context.Background(), "calculator", map[string]any{
		"operation": "add",
		"a":         float64(1),
		// b missing
	})

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "required field is missing")
}

func TestRegistryRegisterOverwritesSilently(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Definition{Name: "greet"}, func(context.Context, map[string]any) (any, error) {
		return "hello", nil
	})
	reg.Register(Definition{Name: "greet"}, func(context.Context, map[string]any) (any, error) {
		return "bonjour", nil
	})

	assert.Equal(t, 1, reg.Len())

	result := reg.Execute(context.Background(), "greet", nil)
	require.True(t, result.OK)
	assert.Equal(t, "bonjour", result.Value)
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Definition{Name: "zeta"}, func(context.Context, map[string]any) (any, error) { return nil, nil })
	reg.Register(Definition{Name: "alpha"}, func(context.Context, map[string]any) (any, error) { return nil, nil })

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "zeta", defs[1].Name)
	assert.Equal(t, []string{"alpha", "zeta"}, reg.Names())
}

func TestRegistryConcurrentRegisterAndExecute(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Definition{Name: "echo"}, func(_ context.Context, args map[string]any) (any, error) {
		return args["v"], nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			reg.Register(Definition{Name: fmt.Sprintf("tool-%d", i)}, func(context.Context, map[string]any) (any, error) {
				return i, nil
			})
		}(i)
		go func(i int) {
			defer wg.Done()
			result := reg.Execute(context.Background(), "echo", map[string]any{"v": i})
			assert.True(t, result.OK)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 17, reg.Len())
}
