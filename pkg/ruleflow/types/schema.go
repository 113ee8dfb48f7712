package types

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/dchest/siphash"
)

// Fixed siphash keys so fingerprints are stable across processes.
const (
	fingerprintK0 = 0x72756c65666c6f77 // "ruleflow"
	fingerprintK1 = 0x736368656d613031 // "schema01"
)

// Fingerprint identifies the attribute layout of a schema.
type Fingerprint uint64

// String returns the fingerprint as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Field is one flattened attribute of a schema.
type Field struct {
	Path string
	Type TypeTag
}

// Schema is an ordered mapping from dotted attribute path to declared type.
// Nested records are flattened with "."; lists of records carry their own
// element schema on the TypeTag.
//
// A Schema is not safe for concurrent mutation. Once built it is only read.
type Schema struct {
	fields []Field
	index  map[string]int
	fp     Fingerprint
}

// NewSchema creates a schema from fields. Duplicate paths are rejected.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if err := s.Add(f.Path, f.Type); err != nil {
			return nil, err
		}
	}
	s.refresh()
	return s, nil
}

// MustSchema is like NewSchema but panics on duplicate paths.
// It simplifies building fixed schemas in tests and examples.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(fmt.Sprintf("types: MustSchema: %v", err))
	}
	return s
}

// Add appends an attribute. Paths must be unique and non-empty.
func (s *Schema) Add(path string, t TypeTag) error {
	if path == "" {
		return fmt.Errorf("empty attribute path")
	}
	if _, dup := s.index[path]; dup {
		return fmt.Errorf("duplicate attribute path %q", path)
	}
	if t.Kind == KindListOfRecord && t.Schema == nil {
		return fmt.Errorf("attribute %q: list<record> without element schema", path)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[path] = len(s.fields)
	s.fields = append(s.fields, Field{Path: path, Type: t})
	s.refresh()
	return nil
}

// Lookup returns the declared type of path.
func (s *Schema) Lookup(path string) (TypeTag, bool) {
	if s == nil {
		return TypeTag{}, false
	}
	i, ok := s.index[path]
	if !ok {
		return TypeTag{}, false
	}
	return s.fields[i].Type, true
}

// Fields returns the attributes in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Paths returns the attribute paths in declaration order.
func (s *Schema) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Path
	}
	return out
}

// Len returns the number of attributes.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fingerprint returns the layout fingerprint. Two schemas with the same
// paths and types have the same fingerprint regardless of declaration order.
func (s *Schema) Fingerprint() Fingerprint {
	if s == nil {
		return 0
	}
	return s.fp
}

// String renders one "path: type" line per attribute.
func (s *Schema) String() string {
	var b strings.Builder
	for _, f := range s.Fields() {
		fmt.Fprintf(&b, "%s: %s\n", f.Path, f.Type)
	}
	return b.String()
}

func (s *Schema) refresh() {
	lines := make([]string, len(s.fields))
	for i, f := range s.fields {
		lines[i] = f.Path + "\x00" + canonicalType(f.Type)
	}
	sort.Strings(lines)

	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	s.fp = Fingerprint(siphash.Hash(fingerprintK0, fingerprintK1, buf.Bytes()))
}

func canonicalType(t TypeTag) string {
	if t.Kind == KindListOfRecord {
		return "list<record:" + t.Schema.Fingerprint().String() + ">"
	}
	return t.String()
}

// ParseSchema builds a schema from a decoded YAML or JSON document:
//
//	price: float64
//	tags: list<string>
//	address:          # nested record, flattened to address.city
//	  city: string
//	items:            # list of records
//	  - sku: string
//	    qty: int32
//
// Keys are visited in sorted order so the result is deterministic.
func ParseSchema(doc map[string]any) (*Schema, error) {
	s := &Schema{index: make(map[string]int)}
	if err := parseSchemaInto(s, "", doc); err != nil {
		return nil, err
	}
	s.refresh()
	return s, nil
}

func parseSchemaInto(s *Schema, prefix string, doc map[string]any) error {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := doc[k].(type) {
		case string:
			t, err := ParseType(v)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", path, err)
			}
			if err := s.Add(path, t); err != nil {
				return err
			}
		case map[string]any:
			if err := parseSchemaInto(s, path, v); err != nil {
				return err
			}
		case []any:
			if len(v) != 1 {
				return fmt.Errorf("attribute %q: list of records needs exactly one element schema", path)
			}
			elemDoc, ok := v[0].(map[string]any)
			if !ok {
				return fmt.Errorf("attribute %q: list element schema must be a mapping", path)
			}
			elem, err := ParseSchema(elemDoc)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", path, err)
			}
			if err := s.Add(path, ListOfRecord(elem)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("attribute %q: unsupported schema node %T", path, v)
		}
	}
	return nil
}
