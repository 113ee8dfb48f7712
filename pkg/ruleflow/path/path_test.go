package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

var testSchema = types.MustSchema(
	types.Field{Path: "price", Type: types.Float64},
	types.Field{Path: "priceLimit", Type: types.Float64},
	types.Field{Path: "address.city", Type: types.String},
	types.Field{Path: "counts", Type: types.ListOf(types.Int32)},
	types.Field{Path: "limits", Type: types.MapOf(types.String, types.Float64)},
	types.Field{Path: "tags", Type: types.SetOf(types.String)},
)

func TestMatchAttribute(t *testing.T) {
	tests := []struct {
		text    string
		pos     int
		want    string
		wantEnd int
		ok      bool
	}{
		{text: "price > 1", want: "price", wantEnd: 5, ok: true},
		{text: "priceLimit > 1", want: "priceLimit", wantEnd: 10, ok: true},
		{text: "price>1", want: "price", wantEnd: 5, ok: true},
		{text: "price", want: "price", wantEnd: 5, ok: true},
		{text: "counts[2]", want: "counts", wantEnd: 6, ok: true},
		{text: "a == 1 && address.city == 'x'", pos: 10, want: "address.city", wantEnd: 22, ok: true},
		{text: "priced > 1", ok: false},
		{text: "address > 1", ok: false},
		{text: "volume", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m, ok := MatchAttribute(testSchema, tt.text, tt.pos)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, m.Path)
			assert.Equal(t, tt.wantEnd, m.End)
		})
	}
}

func TestDelimiter(t *testing.T) {
	for _, c := range []byte(" [=!<>+-*/%\t") {
		assert.True(t, Delimiter(c), string(c))
	}
	for _, c := range []byte("a_.]{(") {
		assert.False(t, Delimiter(c), string(c))
	}
}

func TestScanSelector(t *testing.T) {
	tests := []struct {
		text    string
		want    string
		wantEnd int
		code    rferrors.ErrorCode
	}{
		{text: "[2]", want: "2", wantEnd: 3},
		{text: "[ 2 ] == 1", want: "2", wantEnd: 5},
		{text: `["eu"]`, want: `"eu"`, wantEnd: 6},
		{text: `["a]b"]`, want: `"a]b"`, wantEnd: 7},
		{text: "[]", code: rferrors.ErrInvalidIndexOrKey},
		{text: "[2", code: rferrors.ErrUnbalancedParenOrBracket},
		{text: `["eu]`, code: rferrors.ErrUnterminatedStringLiteral},
		{text: "2]", code: rferrors.ErrUnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			inner, end, err := ScanSelector(tt.text, 0)
			if tt.code != "" {
				assert.Equal(t, tt.code, rferrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, inner)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestParseSelector(t *testing.T) {
	v, err := ParseSelector("2", types.ListOf(types.Int32), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.Uint())

	v, err = ParseSelector(`"eu"`, types.MapOf(types.String, types.Float64), 0)
	require.NoError(t, err)
	assert.Equal(t, "eu", v.Str())

	_, err = ParseSelector("-1", types.ListOf(types.Int32), 7)
	require.Error(t, err)
	assert.Equal(t, rferrors.ErrInvalidIndexOrKey, rferrors.CodeOf(err))

	_, err = ParseSelector("eu", types.MapOf(types.String, types.Float64), 0)
	assert.Equal(t, rferrors.ErrInvalidIndexOrKey, rferrors.CodeOf(err))

	_, err = ParseSelector("0", types.SetOf(types.String), 0)
	assert.Equal(t, rferrors.ErrInvalidIndexOrKey, rferrors.CodeOf(err))
}
