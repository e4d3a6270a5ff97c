package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hupe1980/modelgate/core"
)

// Fingerprint derives a deterministic cache key from a request's content.
// Two requests with identical content always produce the same fingerprint,
// regardless of map iteration order in AdditionalParams.
func Fingerprint(req *core.Request) (string, error) {
	payload := map[string]any{
		"prompt":     req.Prompt,
		"capability": string(req.Capability),
	}
	if len(req.Messages) > 0 {
		msgs := make([]any, len(req.Messages))
		for i, m := range req.Messages {
			msgs[i] = map[string]any{"role": string(m.Role), "content": m.Content}
		}
		payload["messages"] = msgs
	}
	if req.Model != "" {
		payload["model"] = req.Model
	}
	if req.Temperature != nil {
		payload["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		payload["max_tokens"] = *req.MaxTokens
	}
	if len(req.AdditionalParams) > 0 {
		payload["additional_params"] = req.AdditionalParams
	}

	canonical, err := canonicalize(payload)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize request: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are serialized with sorted keys.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')
		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}
