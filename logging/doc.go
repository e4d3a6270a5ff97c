// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. The default everywhere in modelgate is NoOpLogger; pass a
// SlogAdapter (or your own implementation) to surface cache-layer warnings,
// retry activity and provider diagnostics.
package logging
