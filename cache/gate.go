package cache

import "github.com/hupe1980/modelgate/core"

// disallowedParams are additional-parameter keys that make a call observably
// unique or stateful, so its response must never be served from cache.
var disallowedParams = []string{"stream", "user", "request_id"}

// Policy configures cache eligibility for a provider instance.
type Policy struct {
	// Disabled turns caching off globally for the provider.
	Disabled bool
}

// Cacheable reports whether the request's response is eligible for caching.
// It is a pure, total function with no side effects. Rules are evaluated in
// order, first match wins:
//
//  1. A sampling temperature > 0 makes generation non-deterministic → false.
//  2. Any of the additional-parameter keys "stream", "user", "request_id"
//     makes the call unique or stateful → false.
//  3. Caching disabled by provider configuration → false.
//  4. Otherwise → true.
func Cacheable(req *core.Request, policy Policy) bool {
	if req.Temperature != nil && *req.Temperature > 0 {
		return false
	}
	for _, key := range disallowedParams {
		if req.HasParam(key) {
			return false
		}
	}
	if policy.Disabled {
		return false
	}
	return true
}
