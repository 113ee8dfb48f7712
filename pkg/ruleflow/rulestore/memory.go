package rulestore

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps rules in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]Rule // ruleset -> name -> rule
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]Rule),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(r Rule) (Rule, error) {
	if err := validate(r); err != nil {
		return Rule{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Rule{}, ErrStoreClosed
	}

	set := m.data[r.Ruleset]
	if set == nil {
		set = make(map[string]Rule)
		m.data[r.Ruleset] = set
	}

	if existing, ok := set[r.Name]; ok {
		r.ID = existing.ID
		r.Position = existing.Position
	} else {
		r.ID = newID()
		r.Position = 1
		for _, other := range set {
			if other.Position >= r.Position {
				r.Position = other.Position + 1
			}
		}
	}
	r.Params = copyParams(r.Params)
	r.UpdatedAt = time.Now().UTC()
	set[r.Name] = r
	return r, nil
}

// Load implements Store.
func (m *MemoryStore) Load(ruleset, name string) (Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Rule{}, ErrStoreClosed
	}
	r, ok := m.data[ruleset][name]
	if !ok {
		return Rule{}, ErrNotFound
	}
	r.Params = copyParams(r.Params)
	return r, nil
}

// List implements Store.
func (m *MemoryStore) List(ruleset string) ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	rules := make([]Rule, 0, len(m.data[ruleset]))
	for _, r := range m.data[ruleset] {
		r.Params = copyParams(r.Params)
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Position < rules[j].Position
	})
	return rules, nil
}

// Rulesets implements Store.
func (m *MemoryStore) Rulesets() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	names := make([]string, 0, len(m.data))
	for name, set := range m.data {
		if len(set) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ruleset, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if set, ok := m.data[ruleset]; ok {
		delete(set, name)
		if len(set) == 0 {
			delete(m.data, ruleset)
		}
	}
	return nil
}

// DeleteRuleset implements Store.
func (m *MemoryStore) DeleteRuleset(ruleset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, ruleset)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

// Len returns the total number of rules stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, set := range m.data {
		n += len(set)
	}
	return n
}

func copyParams(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
