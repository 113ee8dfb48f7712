package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		text    string
		typ     TypeTag
		wantKey string
		wantErr bool
	}{
		{text: "true", typ: Bool, wantKey: "true"},
		{text: "True", typ: Bool, wantErr: true},
		{text: "-42", typ: Int32, wantKey: "-42"},
		{text: "2147483648", typ: Int32, wantErr: true},
		{text: "2147483648", typ: Int64, wantKey: "2147483648"},
		{text: "7", typ: UInt32, wantKey: "7"},
		{text: "-7", typ: UInt32, wantErr: true},
		{text: "+7", typ: UInt64, wantErr: true},
		{text: "1.5", typ: Int32, wantErr: true},
		{text: "1.5", typ: Float64, wantKey: "1.5"},
		{text: "100", typ: Float64, wantKey: "100"},
		{text: "-0.25", typ: Float32, wantKey: "-0.25"},
		{text: "1e3", typ: Float64, wantErr: true},
		{text: "1.", typ: Float64, wantErr: true},
		{text: `"IBM"`, typ: String, wantKey: "IBM"},
		{text: `'it"s'`, typ: String, wantKey: `it"s`},
		{text: `""`, typ: String, wantKey: ""},
		{text: `IBM`, typ: String, wantErr: true},
		{text: `"IBM'`, typ: String, wantErr: true},
		{text: "  12  ", typ: Int64, wantKey: "12"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.text, func(t *testing.T) {
			v, err := ParseLiteral(tt.text, tt.typ)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, rferrors.ErrInvalidLiteralForType, rferrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ.Kind, v.Kind())
			assert.Equal(t, tt.wantKey, v.Key())
		})
	}
}

func TestParseListLiteral(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		elem    TypeTag
		want    []string
		wantErr bool
	}{
		{name: "ints", text: "[1, 2, 3]", elem: Int32, want: []string{"1", "2", "3"}},
		{name: "empty", text: "[ ]", elem: Int32, want: nil},
		{name: "strings", text: `["a", 'b']`, elem: String, want: []string{"a", "b"}},
		{name: "comma in string", text: `["a,b", "c"]`, elem: String, want: []string{"a,b", "c"}},
		{name: "embedded quote", text: `["it"s", "x"]`, elem: String, want: []string{`it"s`, "x"}},
		{name: "floats", text: "[1.5,2]", elem: Float64, want: []string{"1.5", "2"}},
		{name: "no brackets", text: "1, 2", elem: Int32, wantErr: true},
		{name: "empty element", text: "[1,,2]", elem: Int32, wantErr: true},
		{name: "bad element", text: "[1, x]", elem: Int32, wantErr: true},
		{name: "unterminated", text: `["a, "b]`, elem: String, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, err := ParseListLiteral(tt.text, tt.elem)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, rferrors.ErrMalformedListLiteral, rferrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			var keys []string
			for _, v := range vals {
				keys = append(keys, v.Key())
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestUnquote(t *testing.T) {
	s, ok := Unquote(`"abc"`)
	assert.True(t, ok)
	assert.Equal(t, "abc", s)

	_, ok = Unquote(`"`)
	assert.False(t, ok)

	_, ok = Unquote(`'abc"`)
	assert.False(t, ok)
}

func TestLooksNumeric(t *testing.T) {
	for _, s := range []string{"1", "-1.5", " 42 ", ".5", "1e10", "+3."} {
		assert.True(t, LooksNumeric(s), s)
	}
	for _, s := range []string{"", "abc", "1.2.3", "--1", "1e"} {
		assert.False(t, LooksNumeric(s), s)
	}
}
