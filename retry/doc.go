// Package retry implements bounded exponential backoff around remote provider
// calls. Only transient failures are retried (rate limit, timeout, connection
// failure, see core.IsTransient); every other error propagates immediately.
//
// Backoff waits are context-aware suspension points, not thread sleeps: a
// canceled caller aborts its own retry loop promptly without affecting other
// in-flight requests on the same provider instance.
package retry
