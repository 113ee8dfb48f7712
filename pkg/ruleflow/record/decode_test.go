package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

const orderSchemaYAML = `
price: float64
qty: int32
big: uint64
active: bool
symbol: string
counts: list<int32>
tags: set<string>
limits: map<string,float64>
ids: map<int32,string>
address:
  city: string
items:
  - sku: string
    qty: int32
`

func orderSchema(t *testing.T) *types.Schema {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(orderSchemaYAML), &doc))
	s, err := types.ParseSchema(doc)
	require.NoError(t, err)
	return s
}

func TestDecode_YAML(t *testing.T) {
	s := orderSchema(t)
	var data map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(`
price: 150.5
qty: 3
big: 18446744073709551615
active: true
symbol: IBM
counts: [1, 2, 10, 3]
tags: [low, urgent, low]
limits: {eu: 10.5, us: 20}
ids: {1: one, 2: two}
address: {city: Armonk}
items:
  - {sku: A-1, qty: 2}
  - {sku: B-7, qty: 9}
`), &data))

	r, err := Decode(s, data)
	require.NoError(t, err)

	get := func(p string) types.Value {
		v, ok := r.Attribute(p)
		require.True(t, ok, p)
		return v
	}
	assert.Equal(t, 150.5, get("price").Float())
	assert.Equal(t, types.KindInt32, get("qty").Kind())
	assert.Equal(t, uint64(18446744073709551615), get("big").Uint())
	assert.True(t, get("active").Bool())
	assert.Equal(t, "IBM", get("symbol").Str())
	assert.Equal(t, "[1, 2, 10, 3]", get("counts").String())
	assert.Equal(t, 2, get("tags").Len())
	assert.Equal(t, `{"eu": 10.5, "us": 20}`, get("limits").String())
	assert.Equal(t, `{1: "one", 2: "two"}`, get("ids").String())
	assert.Equal(t, "Armonk", get("address.city").Str())

	items := get("items")
	require.Equal(t, 2, items.Len())
	el, _ := items.RecordAt(1)
	sku, _ := el.Attribute("sku")
	assert.Equal(t, "B-7", sku.Str())
}

func TestDecode_JSONNumbers(t *testing.T) {
	s := types.MustSchema(
		types.Field{Path: "n", Type: types.Int64},
		types.Field{Path: "f", Type: types.Float32},
	)
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"n": 42, "f": 1}`), &data))

	r, err := Decode(s, data)
	require.NoError(t, err)
	n, _ := r.Attribute("n")
	assert.Equal(t, int64(42), n.Int())
	f, _ := r.Attribute("f")
	assert.Equal(t, types.KindFloat32, f.Kind())
}

func TestDecode_Errors(t *testing.T) {
	s := types.MustSchema(
		types.Field{Path: "qty", Type: types.Int32},
		types.Field{Path: "u", Type: types.UInt32},
		types.Field{Path: "name", Type: types.String},
	)
	tests := []struct {
		name string
		data map[string]any
	}{
		{"missing attribute", map[string]any{"qty": 1, "u": 1}},
		{"fractional int", map[string]any{"qty": 1.5, "u": 1, "name": "x"}},
		{"int32 overflow", map[string]any{"qty": 1 << 40, "u": 1, "name": "x"}},
		{"negative unsigned", map[string]any{"qty": 1, "u": -1, "name": "x"}},
		{"number for string", map[string]any{"qty": 1, "u": 1, "name": 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(s, tt.data)
			assert.Error(t, err)
		})
	}
}
