package materialize

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kahefi/epcis-graph/rdf"
)

type cacheEntry struct {
	triples    []rdf.Triple
	insertedAt time.Time
}

// InferenceCache is a tagged-variant cache over two independent keyspaces
// (§9 Inference cache invalidation): triple-keyed entries, invalidated when
// their triggering triple is removed, and rule-keyed entries, invalidated
// wholesale when the ontology changes. The two never share a flat map so a
// triple removal can never accidentally evict rule-derived state and vice
// versa.
type InferenceCache struct {
	mu sync.Mutex

	tripleKeyed *lru.Cache[string, cacheEntry]
	ruleKeyed   *lru.Cache[string, cacheEntry]
	ttl         time.Duration

	hits   int
	misses int
}

// NewInferenceCache creates a cache holding up to sizeLimit entries per
// keyspace, each approximate-LRU evicted at that limit, with entries also
// expiring after ttl.
func NewInferenceCache(sizeLimit int, ttl time.Duration) (*InferenceCache, error) {
	if sizeLimit <= 0 {
		sizeLimit = 10000
	}
	tk, err := lru.New[string, cacheEntry](sizeLimit)
	if err != nil {
		return nil, err
	}
	rk, err := lru.New[string, cacheEntry](sizeLimit)
	if err != nil {
		return nil, err
	}
	return &InferenceCache{tripleKeyed: tk, ruleKeyed: rk, ttl: ttl}, nil
}

// LookupTriple consults the triple-keyed variant for the derived triples
// produced by installing t, keyed by its canonical hash.
func (c *InferenceCache) LookupTriple(t rdf.Triple) ([]rdf.Triple, bool) {
	return c.lookup(c.tripleKeyed, rdf.CanonicalHash(t))
}

// StoreTriple records the derived triples produced by installing t.
func (c *InferenceCache) StoreTriple(t rdf.Triple, derived []rdf.Triple) {
	c.store(c.tripleKeyed, rdf.CanonicalHash(t), derived)
}

// InvalidateTriple evicts the triple-keyed entry for t, e.g. on removal.
func (c *InferenceCache) InvalidateTriple(t rdf.Triple) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tripleKeyed.Remove(rdf.CanonicalHash(t))
}

// LookupRule consults the rule-keyed variant for a rule/key combination.
func (c *InferenceCache) LookupRule(key string) ([]rdf.Triple, bool) {
	return c.lookup(c.ruleKeyed, key)
}

// StoreRule records a rule-keyed derivation.
func (c *InferenceCache) StoreRule(key string, derived []rdf.Triple) {
	c.store(c.ruleKeyed, key, derived)
}

// InvalidateOntologyChange evicts every rule-keyed entry: reasoner-derived
// facts are only valid against the ontology snapshot that produced them.
func (c *InferenceCache) InvalidateOntologyChange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ruleKeyed.Purge()
}

func (c *InferenceCache) lookup(cache *lru.Cache[string, cacheEntry], key string) ([]rdf.Triple, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := cache.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.insertedAt) > c.ttl {
		cache.Remove(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.triples, true
}

func (c *InferenceCache) store(cache *lru.Cache[string, cacheEntry], key string, derived []rdf.Triple) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cache.Add(key, cacheEntry{triples: derived, insertedAt: time.Now()})
}

// Stats reports cumulative hit/miss counters across both keyspaces.
func (c *InferenceCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
