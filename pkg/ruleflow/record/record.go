// Package record provides the Record collaborator ruleflow evaluates
// predicates against: a map-backed record, a reflection-based schema
// introspector, schema-directed decoding of loosely typed data, and the
// accessor that resolves a path plus optional index or key to a value.
package record

import (
	"fmt"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Map is a Record backed by a flattened path -> value map.
// It is immutable after construction and safe for concurrent reads.
type Map struct {
	schema *types.Schema
	values map[string]types.Value
}

// Compile-time interface check.
var _ types.Record = (*Map)(nil)

// New creates a record from a schema and flattened values. Every value must
// carry its attribute's declared type; attributes may be omitted.
func New(s *types.Schema, values map[string]types.Value) (*Map, error) {
	for path, v := range values {
		t, ok := s.Lookup(path)
		if !ok {
			return nil, fmt.Errorf("value for undeclared attribute %q", path)
		}
		if !t.Equal(v.Type()) {
			return nil, fmt.Errorf("attribute %q: declared %s, got %s", path, t, v.Type())
		}
	}
	cp := make(map[string]types.Value, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Map{schema: s, values: cp}, nil
}

// Schema implements types.Record.
func (m *Map) Schema() *types.Schema {
	return m.schema
}

// Attribute implements types.Record.
func (m *Map) Attribute(path string) (types.Value, bool) {
	v, ok := m.values[path]
	return v, ok
}

// Get resolves path on r and applies the optional selector: an index into a
// list or a key into a map.
func Get(r types.Record, path string, sel *types.Value) (types.Value, error) {
	v, ok := r.Attribute(path)
	if !ok {
		return types.Value{}, rferrors.Newf(rferrors.ErrTypeMismatch,
			"record has no value for attribute %q", path).WithToken(path)
	}
	if sel == nil {
		return v, nil
	}

	switch v.Kind() {
	case types.KindList:
		el, ok := v.Index(sel.Uint())
		if !ok {
			return types.Value{}, rferrors.Newf(rferrors.ErrInvalidIndex,
				"index %d out of range for %s (len %d)", sel.Uint(), path, v.Len())
		}
		return el, nil
	case types.KindMap:
		el, ok := v.Lookup(*sel)
		if !ok {
			return types.Value{}, rferrors.Newf(rferrors.ErrInvalidKey,
				"key %s not present in %s", sel.String(), path)
		}
		return el, nil
	}
	return types.Value{}, rferrors.Newf(rferrors.ErrTypeMismatch,
		"attribute %q of type %s cannot be indexed", path, v.Type())
}

// Element returns the idx-th record of a list-of-record attribute.
func Element(r types.Record, path string, idx uint64) (types.Record, error) {
	v, ok := r.Attribute(path)
	if !ok {
		return nil, rferrors.Newf(rferrors.ErrTypeMismatch,
			"record has no value for attribute %q", path).WithToken(path)
	}
	if v.Kind() != types.KindListOfRecord {
		return nil, rferrors.Newf(rferrors.ErrTypeMismatch,
			"attribute %q is %s, not a list of records", path, v.Type())
	}
	el, ok := v.RecordAt(idx)
	if !ok {
		return nil, rferrors.Newf(rferrors.ErrInvalidIndex,
			"index %d out of range for %s (len %d)", idx, path, v.Len())
	}
	return el, nil
}
