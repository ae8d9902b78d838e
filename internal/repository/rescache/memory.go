package rescache

import (
	"context"
	"sync"
	"time"

	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/domain/search/result"
)

// Memory is an in-process result cache with lazy TTL expiry and coarse
// clear-all invalidation. Lost updates on concurrent stores to the same key
// are acceptable: the key derives from the query, so any concurrently
// computed value is a valid answer.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	res      result.Result
	storedAt time.Time
}

// NewMemory creates an in-process cache. ttl <= 0 falls back to DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Lookup returns a cached result for the query. Entries past TTL are misses;
// there is no background sweep.
func (m *Memory) Lookup(_ context.Context, q *query.Query) (result.Result, bool) {
	key := Key(q)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().Sub(entry.storedAt) >= m.ttl {
		return result.Result{}, false
	}
	return entry.res, true
}

// Store caches an assembled result for the query.
func (m *Memory) Store(_ context.Context, q *query.Query, res result.Result) {
	key := Key(q)

	m.mu.Lock()
	m.entries[key] = memoryEntry{res: res, storedAt: m.now()}
	m.mu.Unlock()
}

// InvalidateAll drops every entry. Called on any successful index write;
// staleness is bounded by request volume rather than a dependency graph.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}
