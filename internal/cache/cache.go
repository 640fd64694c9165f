// Package cache adapts the Redis key-value store holding generated search
// payloads. Caching is an optimization only: every store failure degrades to
// a miss on read and a no-op on write, never to a request failure.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/opentoolhub/search-agent/internal/models"
)

const (
	// KeyPrefix namespaces tool-search entries in the shared store.
	KeyPrefix = "tool:"

	// Version tags the current bilingual entry format.
	Version = "1.0"

	// DefaultTTL expires entries 30 days after write. Expiry is enforced by
	// the store, not by application logic.
	DefaultTTL = 30 * 24 * time.Hour
)

// Internal bookkeeping fields stamped on write and stripped before an entry
// is ever returned to a caller.
const (
	fieldCachedAt = "_cachedAt"
	fieldVersion  = "_cacheVersion"
)

// Store is the key-value collaborator consumed by the search flow.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the cached payload for a normalized key, or ok=false on
	// miss, store error, or legacy-format entry.
	Get(ctx context.Context, key string) (models.Payload, bool)

	// Put overwrites the entry for a normalized key with a fresh payload.
	Put(ctx context.Context, key string, value models.Payload, ttl time.Duration)

	// Delete removes an entry. Only administrative tooling calls this.
	Delete(ctx context.Context, key string)
}

// EntryKey builds the store key for a normalized query key. The lowercase
// here is defensive; normalization already lowercases.
func EntryKey(normalizedKey string) string {
	return KeyPrefix + strings.ToLower(normalizedKey)
}

// IsBilingual reports whether an entry carries both language payloads.
// Entries written before the bilingual format lack them and are treated as
// absent, forcing regeneration. This is a deliberate backward-incompatible
// migration policy.
func IsBilingual(entry models.Payload) bool {
	if entry == nil {
		return false
	}
	return entry["zh"] != nil && entry["en"] != nil
}

// Clean returns a copy of the entry without the internal bookkeeping fields.
func Clean(entry models.Payload) models.Payload {
	cleaned := make(models.Payload, len(entry))
	for k, v := range entry {
		if k == fieldCachedAt || k == fieldVersion {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}

// CachedAt returns the write timestamp stamped on the entry, if any.
func CachedAt(entry models.Payload) string {
	ts, _ := entry[fieldCachedAt].(string)
	return ts
}

// Stamp returns a copy of the payload carrying the bookkeeping fields for a
// write happening now.
func Stamp(value models.Payload, now time.Time) models.Payload {
	stamped := make(models.Payload, len(value)+2)
	for k, v := range value {
		stamped[k] = v
	}
	stamped[fieldCachedAt] = now.UTC().Format(time.RFC3339)
	stamped[fieldVersion] = Version
	return stamped
}
