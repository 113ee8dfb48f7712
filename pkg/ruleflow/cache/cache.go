// Package cache stores evaluation plans keyed by expression text.
//
// A Cache belongs to one evaluation context (an Engine). Plans are inserted
// on the first successful validation of a text and are never evicted or
// rebuilt: memory grows with the number of distinct expression texts seen.
// A cached plan is only handed out for the schema layout it was built
// against; a lookup under a different schema fails with
// SchemaMismatchInCache.
//
// # Example
//
//	c := cache.New(func(text string, s *types.Schema) (*plan.Plan, error) {
//		return parser.Parse(text, s)
//	})
//	p, hit, err := c.Get("price > 100.0", schema)
package cache

import (
	"sort"
	"sync"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/plan"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// BuildFunc validates text against s and builds its plan.
type BuildFunc func(text string, s *types.Schema) (*plan.Plan, error)

// Cache is an insert-only plan store.
//
// Safe for concurrent use. Two goroutines missing on the same text may both
// build; the first insert wins and both receive equivalent plans.
type Cache struct {
	mu    sync.RWMutex
	build BuildFunc
	plans map[string]*plan.Plan
}

// New creates an empty cache that builds plans with build.
func New(build BuildFunc) *Cache {
	return &Cache{
		build: build,
		plans: make(map[string]*plan.Plan),
	}
}

// Get returns the plan for text, building and inserting it on a miss. hit
// reports whether the plan came from the cache. Nothing is inserted when
// validation fails.
func (c *Cache) Get(text string, s *types.Schema) (p *plan.Plan, hit bool, err error) {
	if p, ok := c.Lookup(text); ok {
		if p.Fingerprint != s.Fingerprint() {
			return nil, true, rferrors.Newf(rferrors.ErrSchemaMismatchInCache,
				"plan for %q was built for schema %s, caller supplied %s",
				text, p.Fingerprint, s.Fingerprint())
		}
		return p, true, nil
	}

	p, err = c.build(text, s)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.plans[text]; ok {
		if existing.Fingerprint != p.Fingerprint {
			return nil, false, rferrors.Newf(rferrors.ErrSchemaMismatchInCache,
				"plan for %q was built for schema %s, caller supplied %s",
				text, existing.Fingerprint, p.Fingerprint)
		}
		return existing, false, nil
	}
	c.plans[text] = p
	return p, false, nil
}

// Lookup returns the cached plan for text without building.
func (c *Cache) Lookup(text string) (*plan.Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[text]
	return p, ok
}

// Len returns the number of cached plans.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}

// Texts returns the cached expression texts in sorted order.
func (c *Cache) Texts() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.plans))
	for text := range c.plans {
		out = append(out, text)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}
