package types

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Record is a structured value a predicate is evaluated against.
// Attribute returns the full value stored at a flattened schema path.
type Record interface {
	Schema() *Schema
	Attribute(path string) (Value, bool)
}

// Value is a runtime value tagged with its TypeTag.
//
// Scalars store their payload in one of the typed slots; float32 values are
// held widened to float64. Sets and maps keep a canonical-key index for
// membership tests.
type Value struct {
	typ TypeTag

	b bool
	i int64
	u uint64
	f float64
	s string

	items []Value
	keys  []Value
	index map[string]int
	recs  []Record
}

// NewBool returns a bool value.
func NewBool(b bool) Value { return Value{typ: Bool, b: b} }

// NewInt32 returns an int32 value.
func NewInt32(v int32) Value { return Value{typ: Int32, i: int64(v)} }

// NewUInt32 returns a uint32 value.
func NewUInt32(v uint32) Value { return Value{typ: UInt32, u: uint64(v)} }

// NewInt64 returns an int64 value.
func NewInt64(v int64) Value { return Value{typ: Int64, i: v} }

// NewUInt64 returns a uint64 value.
func NewUInt64(v uint64) Value { return Value{typ: UInt64, u: v} }

// NewFloat32 returns a float32 value.
func NewFloat32(v float32) Value { return Value{typ: Float32, f: float64(v)} }

// NewFloat64 returns a float64 value.
func NewFloat64(v float64) Value { return Value{typ: Float64, f: v} }

// NewString returns a string value. The text is normalized to NFC so that
// canonically equivalent strings compare equal.
func NewString(s string) Value { return Value{typ: String, s: norm.NFC.String(s)} }

// NewList returns a list of elem-typed items.
func NewList(elem TypeTag, items ...Value) Value {
	return Value{typ: ListOf(elem), items: items}
}

// NewSet returns a set of elem-typed items. Duplicates collapse to the first
// occurrence.
func NewSet(elem TypeTag, items ...Value) Value {
	v := Value{typ: SetOf(elem), index: make(map[string]int, len(items))}
	for _, it := range items {
		k := it.Key()
		if _, dup := v.index[k]; dup {
			continue
		}
		v.index[k] = len(v.items)
		v.items = append(v.items, it)
	}
	return v
}

// MapEntry is one key/value pair of a map value.
type MapEntry struct {
	Key   Value
	Value Value
}

// NewMap returns a map value. Later entries replace earlier ones with an
// equal key; insertion order of first occurrence is kept.
func NewMap(key, val TypeTag, entries ...MapEntry) Value {
	v := Value{typ: MapOf(key, val), index: make(map[string]int, len(entries))}
	for _, e := range entries {
		k := e.Key.Key()
		if i, dup := v.index[k]; dup {
			v.items[i] = e.Value
			continue
		}
		v.index[k] = len(v.items)
		v.keys = append(v.keys, e.Key)
		v.items = append(v.items, e.Value)
	}
	return v
}

// NewRecordList returns a list of records described by s.
func NewRecordList(s *Schema, recs ...Record) Value {
	return Value{typ: ListOfRecord(s), recs: recs}
}

// Type returns the value's type tag.
func (v Value) Type() TypeTag { return v.typ }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.typ.Kind }

// Bool returns the payload of a bool value.
func (v Value) Bool() bool { return v.b }

// Int returns the payload of a signed integer value.
func (v Value) Int() int64 { return v.i }

// Uint returns the payload of an unsigned integer value.
func (v Value) Uint() uint64 { return v.u }

// Float returns the payload of a float value.
func (v Value) Float() float64 { return v.f }

// Str returns the payload of a string value.
func (v Value) Str() string { return v.s }

// AsFloat widens any numeric value to float64.
func (v Value) AsFloat() float64 {
	switch v.typ.Kind {
	case KindInt32, KindInt64:
		return float64(v.i)
	case KindUInt32, KindUInt64:
		return float64(v.u)
	case KindFloat32, KindFloat64:
		return v.f
	}
	return math.NaN()
}

// Len returns the number of runes of a string or the number of elements of
// a collection.
func (v Value) Len() int {
	switch v.typ.Kind {
	case KindString:
		return utf8.RuneCountInString(v.s)
	case KindSet, KindList, KindMap:
		return len(v.items)
	case KindListOfRecord:
		return len(v.recs)
	}
	return 0
}

// Items returns the elements of a set or list, or the values of a map.
func (v Value) Items() []Value { return v.items }

// Keys returns the keys of a map in insertion order.
func (v Value) Keys() []Value { return v.keys }

// Records returns the elements of a list of records.
func (v Value) Records() []Record { return v.recs }

// Index returns the i-th element of a list.
func (v Value) Index(i uint64) (Value, bool) {
	if v.typ.Kind != KindList || i >= uint64(len(v.items)) {
		return Value{}, false
	}
	return v.items[i], true
}

// RecordAt returns the i-th element of a list of records.
func (v Value) RecordAt(i uint64) (Record, bool) {
	if v.typ.Kind != KindListOfRecord || i >= uint64(len(v.recs)) {
		return nil, false
	}
	return v.recs[i], true
}

// Lookup returns the map value stored under key.
func (v Value) Lookup(key Value) (Value, bool) {
	if v.typ.Kind != KindMap {
		return Value{}, false
	}
	i, ok := v.index[key.Key()]
	if !ok {
		return Value{}, false
	}
	return v.items[i], true
}

// Contains reports set or list membership, or key presence for a map.
func (v Value) Contains(m Value) bool {
	switch v.typ.Kind {
	case KindSet, KindMap:
		_, ok := v.index[m.Key()]
		return ok
	case KindList:
		k := m.Key()
		for _, it := range v.items {
			if it.Key() == k {
				return true
			}
		}
	}
	return false
}

// Members returns the values membership is tested against: elements of a
// set or list, keys of a map.
func (v Value) Members() []Value {
	if v.typ.Kind == KindMap {
		return v.keys
	}
	return v.items
}

// Key returns the canonical text used for equality of set elements and map
// keys. Floats use their shortest decimal form at their own precision, so a
// float32 key 0.1 matches the literal 0.1 without float equality pitfalls.
func (v Value) Key() string {
	switch v.typ.Kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindUInt32, KindUInt64:
		return strconv.FormatUint(v.u, 10)
	case KindFloat32:
		return strconv.FormatFloat(v.f, 'f', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	}
	return v.String()
}

// String renders the value for traces and CLI output.
func (v Value) String() string {
	switch v.typ.Kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindSet, KindList:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = v.keys[i].String() + ": " + it.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindListOfRecord:
		return "<" + strconv.Itoa(len(v.recs)) + " records>"
	case KindInvalid:
		return "<invalid>"
	}
	return v.Key()
}

// Interface converts the value to plain Go data: scalars to their Go types,
// lists and sets to []any, maps to map[string]any keyed by canonical key.
func (v Value) Interface() any {
	switch v.typ.Kind {
	case KindBool:
		return v.b
	case KindInt32:
		return int32(v.i)
	case KindInt64:
		return v.i
	case KindUInt32:
		return uint32(v.u)
	case KindUInt64:
		return v.u
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindSet, KindList:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.items))
		for i, it := range v.items {
			out[v.keys[i].Key()] = it.Interface()
		}
		return out
	case KindListOfRecord:
		return len(v.recs)
	}
	return nil
}
