package types

import (
	"fmt"
	"strings"
)

// Kind is the variant of a TypeTag.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindSet
	KindList
	KindMap
	KindListOfRecord
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindBool:         "bool",
	KindInt32:        "int32",
	KindUInt32:       "uint32",
	KindInt64:        "int64",
	KindUInt64:       "uint64",
	KindFloat32:      "float32",
	KindFloat64:      "float64",
	KindString:       "string",
	KindSet:          "set",
	KindList:         "list",
	KindMap:          "map",
	KindListOfRecord: "list<record>",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// TypeTag is the declared type of a schema attribute.
//
// Collections carry their element types: Elem for sets and lists, Key and
// Elem for maps. A list of records carries the Schema of its elements.
type TypeTag struct {
	Kind   Kind
	Elem   *TypeTag
	Key    *TypeTag
	Schema *Schema
}

// Scalar type tags.
var (
	Bool    = TypeTag{Kind: KindBool}
	Int32   = TypeTag{Kind: KindInt32}
	UInt32  = TypeTag{Kind: KindUInt32}
	Int64   = TypeTag{Kind: KindInt64}
	UInt64  = TypeTag{Kind: KindUInt64}
	Float32 = TypeTag{Kind: KindFloat32}
	Float64 = TypeTag{Kind: KindFloat64}
	String  = TypeTag{Kind: KindString}
)

// SetOf returns the type of a set with elements of type elem.
func SetOf(elem TypeTag) TypeTag {
	return TypeTag{Kind: KindSet, Elem: &elem}
}

// ListOf returns the type of a list with elements of type elem.
func ListOf(elem TypeTag) TypeTag {
	return TypeTag{Kind: KindList, Elem: &elem}
}

// MapOf returns the type of a map from key to val.
func MapOf(key, val TypeTag) TypeTag {
	return TypeTag{Kind: KindMap, Key: &key, Elem: &val}
}

// ListOfRecord returns the type of a list whose elements are records
// described by s.
func ListOfRecord(s *Schema) TypeTag {
	return TypeTag{Kind: KindListOfRecord, Schema: s}
}

// IsScalar reports whether t is bool, numeric or string.
func (t TypeTag) IsScalar() bool {
	return t.Kind >= KindBool && t.Kind <= KindString
}

// IsNumeric reports whether t is an integer or floating point type.
func (t TypeTag) IsNumeric() bool {
	return t.Kind >= KindInt32 && t.Kind <= KindFloat64
}

// IsInteger reports whether t is one of the integer types.
func (t TypeTag) IsInteger() bool {
	return t.Kind >= KindInt32 && t.Kind <= KindUInt64
}

// IsUnsigned reports whether t is uint32 or uint64.
func (t TypeTag) IsUnsigned() bool {
	return t.Kind == KindUInt32 || t.Kind == KindUInt64
}

// IsFloat reports whether t is float32 or float64.
func (t TypeTag) IsFloat() bool {
	return t.Kind == KindFloat32 || t.Kind == KindFloat64
}

// IsCollection reports whether t is a set, list, map or list of records.
func (t TypeTag) IsCollection() bool {
	return t.Kind >= KindSet
}

// Indexable reports whether values of t accept an [index] or [key] selector.
func (t TypeTag) Indexable() bool {
	return t.Kind == KindList || t.Kind == KindMap || t.Kind == KindListOfRecord
}

// Selected returns the type produced by indexing into t: the element type of
// a list or the value type of a map.
func (t TypeTag) Selected() (TypeTag, bool) {
	switch t.Kind {
	case KindList, KindMap:
		if t.Elem == nil {
			return TypeTag{}, false
		}
		return *t.Elem, true
	}
	return TypeTag{}, false
}

// SelectorType returns the type an index or key literal must have.
func (t TypeTag) SelectorType() (TypeTag, bool) {
	switch t.Kind {
	case KindList, KindListOfRecord:
		return UInt64, true
	case KindMap:
		if t.Key == nil {
			return TypeTag{}, false
		}
		return *t.Key, true
	}
	return TypeTag{}, false
}

// MemberType returns the type a contains/notContains literal must have: the
// element type of sets and lists, the key type of maps.
func (t TypeTag) MemberType() (TypeTag, bool) {
	switch t.Kind {
	case KindSet, KindList:
		if t.Elem != nil {
			return *t.Elem, true
		}
	case KindMap:
		if t.Key != nil {
			return *t.Key, true
		}
	}
	return TypeTag{}, false
}

// Equal reports whether t and o describe the same type. Record element
// schemas compare by fingerprint.
func (t TypeTag) Equal(o TypeTag) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindSet, KindList:
		return ptrEqual(t.Elem, o.Elem)
	case KindMap:
		return ptrEqual(t.Key, o.Key) && ptrEqual(t.Elem, o.Elem)
	case KindListOfRecord:
		return t.Schema.Fingerprint() == o.Schema.Fingerprint()
	}
	return true
}

func ptrEqual(a, b *TypeTag) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// String renders the type in the same notation ParseType accepts.
func (t TypeTag) String() string {
	switch t.Kind {
	case KindSet, KindList:
		return fmt.Sprintf("%s<%s>", t.Kind, elemString(t.Elem))
	case KindMap:
		return fmt.Sprintf("map<%s,%s>", elemString(t.Key), elemString(t.Elem))
	}
	return t.Kind.String()
}

func elemString(t *TypeTag) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

var scalarNames = map[string]TypeTag{
	"bool":    Bool,
	"boolean": Bool,
	"int32":   Int32,
	"uint32":  UInt32,
	"int64":   Int64,
	"int":     Int64,
	"uint64":  UInt64,
	"uint":    UInt64,
	"float32": Float32,
	"float64": Float64,
	"float":   Float64,
	"double":  Float64,
	"string":  String,
}

// ParseType parses a type name such as "int32", "list<string>" or
// "map<string,float64>". Collection elements must be scalars; lists of
// records are declared through ParseSchema instead.
func ParseType(s string) (TypeTag, error) {
	s = strings.TrimSpace(s)
	if t, ok := scalarNames[strings.ToLower(s)]; ok {
		return t, nil
	}

	open := strings.IndexByte(s, '<')
	if open <= 0 || !strings.HasSuffix(s, ">") {
		return TypeTag{}, fmt.Errorf("unknown type %q", s)
	}
	outer := strings.ToLower(strings.TrimSpace(s[:open]))
	inner := s[open+1 : len(s)-1]

	switch outer {
	case "set", "list":
		elem, err := parseElemType(inner)
		if err != nil {
			return TypeTag{}, fmt.Errorf("type %q: %w", s, err)
		}
		if outer == "set" {
			return SetOf(elem), nil
		}
		return ListOf(elem), nil
	case "map":
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return TypeTag{}, fmt.Errorf("type %q: map needs key and value types", s)
		}
		key, err := parseElemType(parts[0])
		if err != nil {
			return TypeTag{}, fmt.Errorf("type %q: %w", s, err)
		}
		val, err := parseElemType(parts[1])
		if err != nil {
			return TypeTag{}, fmt.Errorf("type %q: %w", s, err)
		}
		return MapOf(key, val), nil
	}
	return TypeTag{}, fmt.Errorf("unknown type %q", s)
}

func parseElemType(s string) (TypeTag, error) {
	t, ok := scalarNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return TypeTag{}, fmt.Errorf("element type %q is not a scalar", strings.TrimSpace(s))
	}
	return t, nil
}
