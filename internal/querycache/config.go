package querycache

import "slices"

// Wildcard in CachedIDs enables caching for every schema.
const Wildcard = "*"

// Config selects which schemas are cached and how many blocks are kept.
type Config struct {
	// CachedIDs lists the schema ids whose answers may be cached.
	CachedIDs []string
	// Blocks is the number of most recent blocks kept in the block cache.
	// Zero disables the block cache; in-flight deduplication stays active.
	Blocks int
}

// Caches reports whether answers for schemaID may be cached.
func (c Config) Caches(schemaID string) bool {
	return slices.Contains(c.CachedIDs, Wildcard) || slices.Contains(c.CachedIDs, schemaID)
}
