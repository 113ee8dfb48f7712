package plan

import (
	"strings"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// ClauseKind distinguishes ordinary clauses from list-of-record references.
type ClauseKind uint8

const (
	// Scalar compares one attribute value (optionally indexed) to a literal.
	Scalar ClauseKind = iota
	// RecordRef applies a nested predicate to one element of a list of
	// records. The predicate text is identified by Ref.
	RecordRef
)

// Span is a half-open byte range [Start, End) of the expression text.
type Span struct {
	Start int
	End   int
}

// Clause is one validated comparison.
type Clause struct {
	Kind ClauseKind

	// Path is the schema attribute and Type its declared type.
	Path string
	Type types.TypeTag

	// Selector is the parsed [index] or [key], nil when absent.
	Selector     *types.Value
	SelectorText string

	Op types.Operator

	// Arithmetic composite: Path <Op> Operand <PostOp> RHS.
	Operand     types.Value
	OperandText string
	PostOp      types.Operator

	// RHS is the converted literal; List holds the members of an in/inCI
	// list literal.
	RHS     types.Value
	RHSText string
	List    []types.Value

	// LiteralErr is a literal conversion failure recorded at validation
	// time. It is raised only when the clause is evaluated.
	LiteralErr error

	// Ref locates the element predicate of a RecordRef clause.
	Ref Span

	// Pos is the offset of the clause in the expression text.
	Pos int
}

// Target returns the type the operator is applied to: the declared type,
// or the element/value type when a selector is present.
func (c *Clause) Target() types.TypeTag {
	if c.Selector != nil {
		if t, ok := c.Type.Selected(); ok {
			return t
		}
	}
	return c.Type
}

// String renders the clause in canonical spacing. RecordRef clauses render
// their span offsets; use Plan.ClauseText for the predicate text itself.
func (c *Clause) String() string {
	var b strings.Builder
	b.WriteString(c.Path)
	if c.Selector != nil {
		b.WriteString("[" + c.SelectorText + "]")
	}
	if c.Kind == RecordRef {
		b.WriteString(".{@")
		b.WriteString(itoa(c.Ref.Start) + ":" + itoa(c.Ref.End) + "}")
		return b.String()
	}
	b.WriteString(" " + c.Op.String())
	if c.Op.IsArithmetic() {
		b.WriteString(" " + c.OperandText + " " + c.PostOp.String())
	}
	b.WriteString(" " + c.RHSText)
	return b.String()
}

// Chain is a subexpression: clauses joined by one logical operator.
type Chain struct {
	ID      string
	Op      types.LogicalOp
	Clauses []*Clause
}

// Node is an element of the plan tree. A node is either a leaf holding a
// Chain, or a group whose Children are joined by Op.
type Node struct {
	Op       types.LogicalOp
	Chain    *Chain
	Children []*Node
}

// Leaf wraps a chain in a node.
func Leaf(c *Chain) *Node {
	return &Node{Chain: c}
}

// IsLeaf reports whether n holds a chain.
func (n *Node) IsLeaf() bool {
	return n.Chain != nil
}
