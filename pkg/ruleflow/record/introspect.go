package record

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

var valueType = reflect.TypeOf(types.Value{})

// FromMap builds a record and its schema from native Go data.
//
// Type mapping:
//   - bool, string, int32, uint32, int64, uint64, float32, float64 map to the
//     same-named types; int, int8, int16 map to int64; uint, uint8, uint16
//     map to uint64
//   - map[string]any is a nested record, flattened with "."
//   - a slice of scalars is list<T>; []any takes T from its first element
//     (an empty []any is list<string>)
//   - map[K]struct{} is set<K>; any other map[K]V with scalar K and V is map<K,V>
//   - a non-empty slice whose elements are all map[string]any (or Records) is
//     list<record>; the declared element schema is that of the first element
//   - a types.Value is used as-is
func FromMap(data map[string]any) (*Map, error) {
	s := &types.Schema{}
	values := make(map[string]types.Value)
	if err := introspect(s, values, "", data); err != nil {
		return nil, err
	}
	// Rebuild through NewSchema so the fingerprint covers every field.
	schema, err := types.NewSchema(s.Fields()...)
	if err != nil {
		return nil, err
	}
	return &Map{schema: schema, values: values}, nil
}

// MustFromMap is like FromMap but panics on error.
// It simplifies building fixture records in tests and examples.
func MustFromMap(data map[string]any) *Map {
	m, err := FromMap(data)
	if err != nil {
		panic(fmt.Sprintf("record: MustFromMap: %v", err))
	}
	return m
}

func introspect(s *types.Schema, values map[string]types.Value, prefix string, data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		raw := data[k]

		if nested, ok := raw.(map[string]any); ok {
			if err := introspect(s, values, path, nested); err != nil {
				return err
			}
			continue
		}
		if recs, ok, err := recordList(raw); err != nil {
			return fmt.Errorf("attribute %q: %w", path, err)
		} else if ok {
			v := types.NewRecordList(recs[0].Schema(), recs...)
			if err := s.Add(path, v.Type()); err != nil {
				return err
			}
			values[path] = v
			continue
		}

		v, err := valueOf(reflect.ValueOf(raw))
		if err != nil {
			return fmt.Errorf("attribute %q: %w", path, err)
		}
		if err := s.Add(path, v.Type()); err != nil {
			return err
		}
		values[path] = v
	}
	return nil
}

// recordList recognizes slices whose elements are all nested records.
func recordList(raw any) ([]types.Record, bool, error) {
	rv := reflect.ValueOf(raw)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return nil, false, nil
	}
	recs := make([]types.Record, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i).Interface()
		switch e := el.(type) {
		case map[string]any:
			m, err := FromMap(e)
			if err != nil {
				return nil, false, fmt.Errorf("element %d: %w", i, err)
			}
			recs = append(recs, m)
		case types.Record:
			recs = append(recs, e)
		default:
			if i == 0 {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("element %d is %T, expected a record", i, el)
		}
	}
	return recs, true, nil
}

func valueOf(rv reflect.Value) (types.Value, error) {
	if !rv.IsValid() {
		return types.Value{}, fmt.Errorf("nil value")
	}
	if rv.Type() == valueType {
		return rv.Interface().(types.Value), nil
	}
	if rv.Kind() == reflect.Interface {
		return valueOf(rv.Elem())
	}

	if v, ok := scalarOf(rv); ok {
		return v, nil
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return listOf(rv)
	case reflect.Map:
		return mapOf(rv)
	}
	return types.Value{}, fmt.Errorf("unsupported type %s", rv.Type())
}

func scalarOf(rv reflect.Value) (types.Value, bool) {
	switch rv.Kind() {
	case reflect.Bool:
		return types.NewBool(rv.Bool()), true
	case reflect.Int32:
		return types.NewInt32(int32(rv.Int())), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int64:
		return types.NewInt64(rv.Int()), true
	case reflect.Uint32:
		return types.NewUInt32(uint32(rv.Uint())), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint64:
		return types.NewUInt64(rv.Uint()), true
	case reflect.Float32:
		return types.NewFloat32(float32(rv.Float())), true
	case reflect.Float64:
		return types.NewFloat64(rv.Float()), true
	case reflect.String:
		return types.NewString(rv.String()), true
	}
	return types.Value{}, false
}

func listOf(rv reflect.Value) (types.Value, error) {
	items := make([]types.Value, 0, rv.Len())
	var elem types.TypeTag
	for i := 0; i < rv.Len(); i++ {
		v, err := valueOf(rv.Index(i))
		if err != nil {
			return types.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		if !v.Type().IsScalar() {
			return types.Value{}, fmt.Errorf("element %d: lists hold scalars, got %s", i, v.Type())
		}
		if i == 0 {
			elem = v.Type()
		} else if !elem.Equal(v.Type()) {
			return types.Value{}, fmt.Errorf("element %d: mixed element types %s and %s", i, elem, v.Type())
		}
		items = append(items, v)
	}
	if len(items) == 0 {
		if st, ok := scalarOf(reflect.Zero(rv.Type().Elem())); ok && rv.Type().Elem().Kind() != reflect.Interface {
			elem = st.Type()
		} else {
			elem = types.String
		}
	}
	return types.NewList(elem, items...), nil
}

func mapOf(rv reflect.Value) (types.Value, error) {
	mt := rv.Type()
	isSet := mt.Elem().Kind() == reflect.Struct && mt.Elem().NumField() == 0

	keyTag, ok := scalarOf(reflect.Zero(mt.Key()))
	if !ok {
		return types.Value{}, fmt.Errorf("map key type %s is not a scalar", mt.Key())
	}

	type pair struct {
		k, v types.Value
	}
	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, _ := scalarOf(iter.Key())
		if isSet {
			pairs = append(pairs, pair{k: k})
			continue
		}
		v, err := valueOf(iter.Value())
		if err != nil {
			return types.Value{}, fmt.Errorf("key %s: %w", k.Key(), err)
		}
		if !v.Type().IsScalar() {
			return types.Value{}, fmt.Errorf("key %s: map values must be scalars, got %s", k.Key(), v.Type())
		}
		pairs = append(pairs, pair{k: k, v: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k.Key() < pairs[j].k.Key() })

	if isSet {
		items := make([]types.Value, len(pairs))
		for i, p := range pairs {
			items[i] = p.k
		}
		return types.NewSet(keyTag.Type(), items...), nil
	}

	valTag := types.String
	if len(pairs) > 0 {
		valTag = pairs[0].v.Type()
	} else if st, ok := scalarOf(reflect.Zero(mt.Elem())); ok && mt.Elem().Kind() != reflect.Interface {
		valTag = st.Type()
	}
	entries := make([]types.MapEntry, len(pairs))
	for i, p := range pairs {
		if !valTag.Equal(p.v.Type()) {
			return types.Value{}, fmt.Errorf("key %s: mixed value types %s and %s", p.k.Key(), valTag, p.v.Type())
		}
		entries[i] = types.MapEntry{Key: p.k, Value: p.v}
	}
	return types.NewMap(keyTag.Type(), valTag, entries...), nil
}
