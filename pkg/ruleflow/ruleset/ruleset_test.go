package ruleset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow"
	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/record"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/rulestore"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/template"
)

const ordersYAML = `
name: orders
rules:
  - name: high-value
    expression: price > ${min_price}
    description: large orders
    params:
      min_price: 100.0
  - name: allowed-symbol
    expression: symbol inCI ${symbols}
    params:
      symbols: [ibm, msft]
  - name: no-zero-qty
    expression: amount / 0 == 1
  - name: urgent
    expression: tags contains "urgent"
`

func testEngine() *ruleflow.Engine {
	return ruleflow.New(ruleflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func orderRecord() *record.Map {
	return record.MustFromMap(map[string]any{
		"price":  150.5,
		"symbol": "IBM",
		"amount": int64(3),
		"tags":   []string{"low"},
	})
}

func TestParse(t *testing.T) {
	rs, err := Parse([]byte(ordersYAML))
	require.NoError(t, err)

	assert.Equal(t, "orders", rs.Name())
	assert.Equal(t, 4, rs.Len())

	names := make([]string, 0, rs.Len())
	for _, r := range rs.Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"high-value", "allowed-symbol", "no-zero-qty", "urgent"}, names)

	text, ok := rs.Expression("high-value")
	require.True(t, ok)
	assert.Equal(t, "price > 100", text)

	text, ok = rs.Expression("allowed-symbol")
	require.True(t, ok)
	assert.Equal(t, `symbol inCI ["ibm", "msft"]`, text)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "rules: []", "missing name"},
		{"bad yaml", "name: [", "parse rule set"},
		{"unnamed rule", "name: s\nrules:\n  - expression: a == 1", "without a name"},
		{"empty expression", "name: s\nrules:\n  - name: r", "empty expression"},
		{"missing param", "name: s\nrules:\n  - name: r\n    expression: a > $lo", "undefined parameter: lo"},
		{"duplicate", "name: s\nrules:\n  - name: r\n    expression: a == 1\n  - name: r\n    expression: a == 2", "duplicate rule name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	var uve *template.UndefinedVariableError
	_, err := Parse([]byte("name: s\nrules:\n  - name: r\n    expression: a > $lo"))
	assert.True(t, errors.As(err, &uve))

	_, err = Parse([]byte("name: s\nrules:\n  - name: r\n    expression: a == 1\n  - name: r\n    expression: a == 2"))
	assert.ErrorIs(t, err, ErrDuplicateRule)
}

func TestEvaluate_ReportsEveryRule(t *testing.T) {
	rs, err := Parse([]byte(ordersYAML))
	require.NoError(t, err)

	report := rs.Evaluate(context.Background(), testEngine(), orderRecord(), false)
	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, "orders", report.Ruleset)

	byName := make(map[string]Outcome)
	for _, o := range report.Outcomes {
		byName[o.Rule] = o
	}

	assert.True(t, byName["high-value"].Result)
	assert.Equal(t, ruleflow.AllClear, byName["high-value"].Code)
	assert.True(t, byName["allowed-symbol"].Result)
	assert.False(t, byName["no-zero-qty"].Result)
	assert.Equal(t, rferrors.ErrDivideByZero, byName["no-zero-qty"].Code)
	assert.False(t, byName["urgent"].Result)
	assert.NoError(t, byName["urgent"].Err)

	assert.False(t, report.Passed())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "urgent", report.Failed()[0].Rule)
	require.Len(t, report.Errors(), 1)
	assert.Equal(t, "no-zero-qty", report.Errors()[0].Rule)
}

func TestEvaluate_AllPass(t *testing.T) {
	rs := New("small")
	require.NoError(t, rs.Add(Rule{Name: "a", Expression: "price > $lo", Params: map[string]any{"lo": 1}}))
	require.NoError(t, rs.Add(Rule{Name: "b", Expression: `symbol == "IBM"`}))

	report := rs.Evaluate(context.Background(), testEngine(), orderRecord(), false)
	assert.True(t, report.Passed())
	assert.Empty(t, report.Failed())
	assert.Empty(t, report.Errors())
}

func TestValidate(t *testing.T) {
	rs := New("checks")
	require.NoError(t, rs.Add(Rule{Name: "ok", Expression: "price > 1.0"}))
	require.NoError(t, rs.Add(Rule{Name: "unknown", Expression: "volume > 1"}))

	engine := testEngine()
	failures := rs.Validate(context.Background(), engine, orderRecord().Schema())
	require.Len(t, failures, 1)
	assert.Equal(t, rferrors.ErrUnknownAttribute, rferrors.CodeOf(failures["unknown"]))
	assert.Equal(t, 1, engine.CacheSize())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ordersYAML), 0o600))

	rs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	rs, err := Parse([]byte(ordersYAML))
	require.NoError(t, err)

	data, err := rs.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, rs.Len(), again.Len())
	for _, r := range rs.Rules() {
		want, _ := rs.Expression(r.Name)
		got, ok := again.Expression(r.Name)
		require.True(t, ok, r.Name)
		assert.Equal(t, want, got, r.Name)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range map[string]func(t *testing.T) rulestore.Store{
		"memory": func(t *testing.T) rulestore.Store { return rulestore.NewMemoryStore() },
		"sqlite": func(t *testing.T) rulestore.Store {
			s, err := rulestore.NewSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
	} {
		t.Run(name, func(t *testing.T) {
			s := store(t)
			defer s.Close()

			rs, err := Parse([]byte(ordersYAML))
			require.NoError(t, err)
			require.NoError(t, rs.Save(s))

			loaded, err := FromStore(s, "orders")
			require.NoError(t, err)
			require.Equal(t, rs.Len(), loaded.Len())
			for _, r := range rs.Rules() {
				want, _ := rs.Expression(r.Name)
				got, ok := loaded.Expression(r.Name)
				require.True(t, ok, r.Name)
				assert.Equal(t, want, got, r.Name)
			}

			_, err = FromStore(s, "absent")
			assert.ErrorIs(t, err, rulestore.ErrNotFound)
		})
	}
}
