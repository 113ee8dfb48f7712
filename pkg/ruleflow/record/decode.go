package record

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Decode converts loosely typed data, as produced by encoding/json or
// gopkg.in/yaml.v3, into a record of schema s. Nested records are looked up
// by walking the dotted path through nested maps. Every declared attribute
// must be present.
func Decode(s *types.Schema, data map[string]any) (*Map, error) {
	values := make(map[string]types.Value, s.Len())
	for _, f := range s.Fields() {
		raw, ok := lookupNested(data, f.Path)
		if !ok {
			return nil, fmt.Errorf("missing attribute %q", f.Path)
		}
		v, err := convert(raw, f.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", f.Path, err)
		}
		values[f.Path] = v
	}
	return &Map{schema: s, values: values}, nil
}

func lookupNested(data map[string]any, path string) (any, bool) {
	if v, ok := data[path]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	next, ok := asStringMap(data[head])
	if !ok {
		return nil, false
	}
	return lookupNested(next, rest)
}

func asStringMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

func convert(raw any, t types.TypeTag) (types.Value, error) {
	switch t.Kind {
	case types.KindSet, types.KindList:
		items, ok := raw.([]any)
		if !ok {
			return types.Value{}, fmt.Errorf("expected a sequence for %s, got %T", t, raw)
		}
		vals := make([]types.Value, len(items))
		for i, it := range items {
			v, err := convertScalar(it, *t.Elem)
			if err != nil {
				return types.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			vals[i] = v
		}
		if t.Kind == types.KindSet {
			return types.NewSet(*t.Elem, vals...), nil
		}
		return types.NewList(*t.Elem, vals...), nil

	case types.KindMap:
		m, ok := asStringMap(raw)
		if !ok {
			return types.Value{}, fmt.Errorf("expected a mapping for %s, got %T", t, raw)
		}
		entries := make([]types.MapEntry, 0, len(m))
		for k, v := range m {
			key, err := convertScalar(k, *t.Key)
			if err != nil {
				return types.Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			val, err := convertScalar(v, *t.Elem)
			if err != nil {
				return types.Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			entries = append(entries, types.MapEntry{Key: key, Value: val})
		}
		sortEntries(entries)
		return types.NewMap(*t.Key, *t.Elem, entries...), nil

	case types.KindListOfRecord:
		items, ok := raw.([]any)
		if !ok {
			return types.Value{}, fmt.Errorf("expected a sequence of records, got %T", raw)
		}
		recs := make([]types.Record, len(items))
		for i, it := range items {
			m, ok := asStringMap(it)
			if !ok {
				return types.Value{}, fmt.Errorf("element %d: expected a mapping, got %T", i, it)
			}
			rec, err := Decode(t.Schema, m)
			if err != nil {
				return types.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			recs[i] = rec
		}
		return types.NewRecordList(t.Schema, recs...), nil
	}
	return convertScalar(raw, t)
}

func sortEntries(entries []types.MapEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.Key() < entries[j].Key.Key()
	})
}

// convertScalar accepts the Go types JSON and YAML decoders produce. Map
// keys always arrive as strings and are parsed as literals of the key type.
func convertScalar(raw any, t types.TypeTag) (types.Value, error) {
	if s, ok := raw.(string); ok && t.Kind != types.KindString {
		if t.Kind == types.KindBool {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return types.Value{}, fmt.Errorf("%q is not a bool", s)
			}
			return types.NewBool(b), nil
		}
		return types.ParseLiteral(s, t)
	}

	switch t.Kind {
	case types.KindBool:
		if b, ok := raw.(bool); ok {
			return types.NewBool(b), nil
		}
	case types.KindString:
		if s, ok := raw.(string); ok {
			return types.NewString(s), nil
		}
	case types.KindInt32, types.KindInt64:
		n, ok := asInt(raw)
		if !ok {
			break
		}
		if t.Kind == types.KindInt32 {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return types.Value{}, fmt.Errorf("%d overflows int32", n)
			}
			return types.NewInt32(int32(n)), nil
		}
		return types.NewInt64(n), nil
	case types.KindUInt32, types.KindUInt64:
		n, ok := asUint(raw)
		if !ok {
			break
		}
		if t.Kind == types.KindUInt32 {
			if n > math.MaxUint32 {
				return types.Value{}, fmt.Errorf("%d overflows uint32", n)
			}
			return types.NewUInt32(uint32(n)), nil
		}
		return types.NewUInt64(n), nil
	case types.KindFloat32, types.KindFloat64:
		f, ok := asFloat(raw)
		if !ok {
			break
		}
		if t.Kind == types.KindFloat32 {
			return types.NewFloat32(float32(f)), nil
		}
		return types.NewFloat64(f), nil
	}
	return types.Value{}, fmt.Errorf("cannot use %v (%T) as %s", raw, raw, t)
}

func asInt(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

func asUint(raw any) (uint64, bool) {
	if n, ok := raw.(uint64); ok {
		return n, true
	}
	n, ok := asInt(raw)
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}

func asFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
