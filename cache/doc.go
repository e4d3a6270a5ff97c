// Package cache contains the response-cache eligibility policy, the
// deterministic request fingerprint and the Store collaborator contract used
// by the cache-aware dispatcher.
//
// The canonical sequencing (gate → get → generate → put) lives in the provider
// package; this package only decides *whether* a request is cacheable and
// *where* cached responses live. Two thin Store implementations are provided:
// an in-process map for tests and single-process prototypes, and a Redis-backed
// store for deployments that share a cache across processes.
package cache
