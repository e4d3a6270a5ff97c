package cache

import (
	"context"
	"fmt"

	"github.com/hupe1980/modelgate/core"
)

// ErrNotFound is returned by Store.Get when no response is cached for the
// given fingerprint / provider pair.
var ErrNotFound = fmt.Errorf("cache: entry not found")

// Store is the external cache collaborator. A Store is addressed by a request
// fingerprint plus the provider identity so identical requests against
// different backends never collide.
//
// The dispatcher treats a Store as best-effort: Get failures count as misses
// and Put failures are logged, never surfaced to callers. Implementations must
// be safe for concurrent use.
type Store interface {
	// Get returns the cached response or ErrNotFound.
	Get(ctx context.Context, fingerprint, providerID string) (*core.Response, error)

	// Put stores the response under the fingerprint / provider pair,
	// overwriting any previous entry.
	Put(ctx context.Context, fingerprint, providerID string, resp *core.Response) error
}

// storeKey joins the provider identity and request fingerprint into the
// addressing key shared by all Store implementations.
func storeKey(fingerprint, providerID string) string {
	return providerID + ":" + fingerprint
}
