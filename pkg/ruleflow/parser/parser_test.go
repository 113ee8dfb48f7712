package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/plan"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

func testSchema() *types.Schema {
	item := types.MustSchema(
		types.Field{Path: "sku", Type: types.String},
		types.Field{Path: "qty", Type: types.Int32},
	)
	return types.MustSchema(
		types.Field{Path: "a", Type: types.Int32},
		types.Field{Path: "b", Type: types.Int32},
		types.Field{Path: "c", Type: types.Int32},
		types.Field{Path: "d", Type: types.Int32},
		types.Field{Path: "e", Type: types.Int32},
		types.Field{Path: "qty", Type: types.Int32},
		types.Field{Path: "big", Type: types.UInt64},
		types.Field{Path: "flag", Type: types.Bool},
		types.Field{Path: "price", Type: types.Float64},
		types.Field{Path: "amount", Type: types.Float64},
		types.Field{Path: "symbol", Type: types.String},
		types.Field{Path: "address.city", Type: types.String},
		types.Field{Path: "counts", Type: types.ListOf(types.Int32)},
		types.Field{Path: "names", Type: types.ListOf(types.String)},
		types.Field{Path: "tags", Type: types.SetOf(types.String)},
		types.Field{Path: "limits", Type: types.MapOf(types.String, types.Float64)},
		types.Field{Path: "items", Type: types.ListOfRecord(item)},
	)
}

func TestParse_IDs(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		ids   []string
		inter []types.LogicalOp
		intra map[int]types.LogicalOp
		multi map[int][]string
	}{
		{
			name: "bare chain",
			expr: `price > 100.0 && symbol == "IBM"`,
			ids:  []string{"1.1"},
		},
		{
			name:  "two groups",
			expr:  "(a==1 || b==2) && (c==3 || d==4)",
			ids:   []string{"1.1", "2.1"},
			inter: []types.LogicalOp{types.LogicalAnd},
		},
		{
			name:  "enclosed singles",
			expr:  "(a==1) || (b==2) || (c==3)",
			ids:   []string{"1.1", "2.1", "3.1"},
			inter: []types.LogicalOp{types.LogicalOr, types.LogicalOr},
		},
		{
			name: "redundant parens",
			expr: "((a == 1 && b == 2))",
			ids:  []string{"1.1"},
		},
		{
			name:  "group members",
			expr:  "(a==1 && b==2 && (c==3 || d==4)) || (e==5)",
			ids:   []string{"1.1", "1.2", "2.1"},
			inter: []types.LogicalOp{types.LogicalOr},
			intra: map[int]types.LogicalOp{1: types.LogicalAnd},
		},
		{
			name:  "multi level",
			expr:  "(a==1 && (b==2 || (c==3 && d==4)))",
			ids:   []string{"1.1", "1.2.1", "1.2.2"},
			intra: map[int]types.LogicalOp{1: types.LogicalAnd},
			multi: map[int][]string{1: {"1.1", "1.2.1", "1.2.2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.expr, testSchema())
			require.NoError(t, err)
			assert.Equal(t, tt.ids, p.SortedIDs)
			assert.Equal(t, tt.inter, p.InterGroupOps)
			if tt.intra == nil {
				assert.Empty(t, p.IntraGroupOps)
			} else {
				assert.Equal(t, tt.intra, p.IntraGroupOps)
			}
			if tt.multi == nil {
				assert.Empty(t, p.MultiLevelGroups)
			} else {
				assert.Equal(t, tt.multi, p.MultiLevelGroups)
			}
			assert.Equal(t, tt.expr, p.Text)
			assert.Equal(t, testSchema().Fingerprint(), p.Fingerprint)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		expr string
		want rferrors.ErrorCode
	}{
		{"", rferrors.ErrEmptyExpression},
		{"   ", rferrors.ErrEmptyExpression},

		{"(a==1 && b==2 || c==3)", rferrors.ErrMixedOpsInGroup},
		{"a==1 && b==2 || c==3", rferrors.ErrMixedOpsInGroup},
		{"((a==1) && (b==2) || (c==3))", rferrors.ErrMixedOpsInGroup},
		{"(a==1) && (b==2) || (c==3)", rferrors.ErrMixedOpsAcrossGroups},

		{"a==1 && (b==2)", rferrors.ErrInconsistentParenUsage},
		{"(a==1) && b==2", rferrors.ErrInconsistentParenUsage},

		{"(a==1", rferrors.ErrUnbalancedParenOrBracket},
		{"a==1)", rferrors.ErrUnbalancedParenOrBracket},
		{"counts[1 == 2", rferrors.ErrUnbalancedParenOrBracket},
		{"qty in [1, 2", rferrors.ErrUnbalancedParenOrBracket},
		{`symbol == "IBM`, rferrors.ErrUnterminatedStringLiteral},

		{"nope == 1", rferrors.ErrUnknownAttribute},
		{"ab == 1", rferrors.ErrUnknownAttribute},
		{"1 == a", rferrors.ErrUnknownAttribute},

		{"a = 1", rferrors.ErrUnknownOperator},
		{"a like 1", rferrors.ErrUnknownOperator},
		{`tags containz "x"`, rferrors.ErrUnknownOperator},
		{`tags contains"x"x`, rferrors.ErrUnterminatedStringLiteral},
		{"a + 1 2", rferrors.ErrUnknownOperator},
		{"a + 1 && 2", rferrors.ErrUnknownOperator},

		{"counts == 1", rferrors.ErrMissingIndexOrKey},
		{"limits > 1.0", rferrors.ErrMissingIndexOrKey},

		{`tags[0] == "x"`, rferrors.ErrInvalidIndexOrKey},
		{"counts[x] == 1", rferrors.ErrInvalidIndexOrKey},
		{"counts[-1] == 1", rferrors.ErrInvalidIndexOrKey},
		{"price[0] == 1.0", rferrors.ErrInvalidIndexOrKey},
		{"counts[] == 1", rferrors.ErrInvalidIndexOrKey},

		{"flag > true", rferrors.ErrInvalidOperatorForType},
		{"symbol + 1 == 2", rferrors.ErrInvalidOperatorForType},
		{"items contains 1", rferrors.ErrInvalidOperatorForType},
		{"big in [1]", rferrors.ErrInvalidOperatorForType},
		{"qty inCI [1]", rferrors.ErrInvalidOperatorForType},
		{`counts containsCI "x"`, rferrors.ErrInvalidOperatorForType},
		{"counts[0] contains 1", rferrors.ErrInvalidOperatorForType},
		{`price startsWith "1"`, rferrors.ErrInvalidOperatorForType},

		{"a == 1 &&", rferrors.ErrUnexpectedToken},
		{"a ==", rferrors.ErrUnexpectedToken},
		{"a", rferrors.ErrUnexpectedToken},
		{"a == 1 b == 2", rferrors.ErrUnexpectedToken},
		{"()", rferrors.ErrUnexpectedToken},
		{"a + == 1", rferrors.ErrUnexpectedToken},
		{"items[0] == 1", rferrors.ErrUnexpectedToken},
		{"items[0].qty == 1", rferrors.ErrUnexpectedToken},

		{"items[0].{ nope == 1 }", rferrors.ErrUnknownAttribute},
		{"items[0].{ }", rferrors.ErrEmptyExpression},
		{"items[0].{ qty == 1 && sku == 'x' || qty == 2 }", rferrors.ErrMixedOpsInGroup},
		{"items[x].{ qty == 1 }", rferrors.ErrInvalidIndexOrKey},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Parse(tt.expr, testSchema())
			require.Error(t, err)
			assert.Equal(t, tt.want, rferrors.CodeOf(err), err.Error())
			assert.True(t, rferrors.IsValidation(err))
		})
	}
}

func TestParse_ErrorPositions(t *testing.T) {
	tests := []struct {
		expr string
		pos  int
	}{
		{"a == 1 && nope == 2", 10},
		{"(a==1 && b==2 || c==3)", 14},
		{"items[0].{ nope == 1 }", 11},
		{"a == 1 && (b == 2)", 10},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Parse(tt.expr, testSchema())
			var rfe *rferrors.Error
			require.ErrorAs(t, err, &rfe)
			assert.Equal(t, tt.pos, rfe.Position)
		})
	}
}

func TestParse_Clauses(t *testing.T) {
	s := testSchema()

	t.Run("arithmetic composite", func(t *testing.T) {
		p, err := Parse("counts[2] % 5 == 0", s)
		require.NoError(t, err)
		cl := p.Subexpressions["1.1"].Clauses[0]
		assert.Equal(t, "counts", cl.Path)
		require.NotNil(t, cl.Selector)
		assert.Equal(t, uint64(2), cl.Selector.Uint())
		assert.Equal(t, types.OpMod, cl.Op)
		assert.Equal(t, int64(5), cl.Operand.Int())
		assert.Equal(t, types.OpEQ, cl.PostOp)
		assert.Equal(t, int64(0), cl.RHS.Int())
		assert.Equal(t, "counts[2] % 5 == 0", cl.String())
	})

	t.Run("compact spacing", func(t *testing.T) {
		p, err := Parse("price>100.0&&qty<=3", s)
		require.NoError(t, err)
		ch := p.Subexpressions["1.1"]
		require.Len(t, ch.Clauses, 2)
		assert.Equal(t, types.OpGT, ch.Clauses[0].Op)
		assert.Equal(t, 100.0, ch.Clauses[0].RHS.Float())
		assert.Equal(t, types.OpLE, ch.Clauses[1].Op)
		assert.Equal(t, types.LogicalAnd, ch.Op)
	})

	t.Run("map key and nested path", func(t *testing.T) {
		p, err := Parse(`limits["eu"] >= 10.5 || address.city equalsCI 'armonk'`, s)
		require.NoError(t, err)
		ch := p.Subexpressions["1.1"]
		assert.Equal(t, "eu", ch.Clauses[0].Selector.Str())
		assert.Equal(t, "address.city", ch.Clauses[1].Path)
		assert.Equal(t, "armonk", ch.Clauses[1].RHS.Str())
	})

	t.Run("embedded quotes", func(t *testing.T) {
		p, err := Parse(`symbol == "it's "quoted"" && a == 1`, s)
		require.NoError(t, err)
		cl := p.Subexpressions["1.1"].Clauses[0]
		assert.Equal(t, `it's "quoted"`, cl.RHS.Str())
	})

	t.Run("membership list", func(t *testing.T) {
		p, err := Parse(`symbol inCI ['ibm', "a, b"] && qty in [1, 2, 3]`, s)
		require.NoError(t, err)
		ch := p.Subexpressions["1.1"]
		require.Len(t, ch.Clauses[0].List, 2)
		assert.Equal(t, "a, b", ch.Clauses[0].List[1].Str())
		assert.Len(t, ch.Clauses[1].List, 3)
	})

	t.Run("collection predicates", func(t *testing.T) {
		p, err := Parse(`tags contains "urgent" && names sizeGE 2 && limits contains "eu" && items sizeGT 0`, s)
		require.NoError(t, err)
		ch := p.Subexpressions["1.1"]
		require.Len(t, ch.Clauses, 4)
		assert.Equal(t, "urgent", ch.Clauses[0].RHS.Str())
		assert.Equal(t, uint64(2), ch.Clauses[1].RHS.Uint())
		assert.Equal(t, types.KindListOfRecord, ch.Clauses[3].Type.Kind)
	})

	t.Run("record reference", func(t *testing.T) {
		expr := "items[1].{ qty > 1 && sku startsWith 'B' } && a == 1"
		p, err := Parse(expr, s)
		require.NoError(t, err)
		cl := p.Subexpressions["1.1"].Clauses[0]
		assert.Equal(t, plan.RecordRef, cl.Kind)
		assert.Equal(t, uint64(1), cl.Selector.Uint())
		assert.Equal(t, "qty > 1 && sku startsWith 'B'", p.RefText(cl))
		assert.Equal(t, " qty > 1 && sku startsWith 'B' ", expr[cl.Ref.Start:cl.Ref.End])
	})
}

func TestParse_DeferredLiterals(t *testing.T) {
	s := testSchema()

	tests := []struct {
		expr string
		want rferrors.ErrorCode
	}{
		{"a == 2 && b == BOOM", rferrors.ErrInvalidLiteralForType},
		{"symbol == IBM", rferrors.ErrInvalidLiteralForType},
		{"big == -1", rferrors.ErrInvalidLiteralForType},
		{"price == 1e5", rferrors.ErrInvalidLiteralForType},
		{"flag == yes", rferrors.ErrInvalidLiteralForType},
		{"a * x > 1", rferrors.ErrInvalidLiteralForType},
		{"qty in 1", rferrors.ErrMalformedListLiteral},
		{"qty in [1, x]", rferrors.ErrMalformedListLiteral},
		{"names sizeEQ -1", rferrors.ErrInvalidLiteralForType},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Parse(tt.expr, s)
			require.NoError(t, err)
			var deferred error
			for _, cl := range p.Subexpressions["1.1"].Clauses {
				if cl.LiteralErr != nil {
					deferred = cl.LiteralErr
				}
			}
			require.Error(t, deferred)
			assert.Equal(t, tt.want, rferrors.CodeOf(deferred))

			_, err = Parse(tt.expr, s, WithStrictLiterals(true))
			assert.Equal(t, tt.want, rferrors.CodeOf(err))
		})
	}

	p, err := Parse("a == 2 && b == BOOM", s)
	require.NoError(t, err)
	assert.Nil(t, p.Subexpressions["1.1"].Clauses[0].LiteralErr)
}

func TestParse_Depth(t *testing.T) {
	s := testSchema()

	_, err := Parse("((a == 1))", s, WithMaxDepth(2))
	assert.NoError(t, err)

	_, err = Parse("(((a == 1)))", s, WithMaxDepth(2))
	assert.Equal(t, rferrors.ErrNestingTooDeep, rferrors.CodeOf(err))

	_, err = Parse("items[0].{ qty == 1 }", s, WithMaxDepth(1))
	assert.NoError(t, err)

	_, err = ParseElement("qty == 1", s, 2, WithMaxDepth(1))
	assert.Equal(t, rferrors.ErrNestingTooDeep, rferrors.CodeOf(err))

	_, err = Parse("a == 1", nil)
	assert.Equal(t, rferrors.ErrInternalInvariant, rferrors.CodeOf(err))
}

func TestCheckBalance(t *testing.T) {
	tests := []struct {
		text string
		want rferrors.ErrorCode
	}{
		{`name == "it's" && a == 1`, rferrors.AllClear},
		{`(symbol == "a)b")`, rferrors.AllClear},
		{`limits["k]"] == 1`, rferrors.AllClear},
		{`say == "he said "hi" ok"`, rferrors.AllClear},
		{`items[0].{ a == 1 }`, rferrors.AllClear},
		{`"abc`, rferrors.ErrUnterminatedStringLiteral},
		{`(]`, rferrors.ErrUnbalancedParenOrBracket},
		{`{a)`, rferrors.ErrUnbalancedParenOrBracket},
		{`((a)`, rferrors.ErrUnbalancedParenOrBracket},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, rferrors.CodeOf(CheckBalance(tt.text)))
		})
	}
}
