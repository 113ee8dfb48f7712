// Package eval executes evaluation plans against records.
//
// Evaluation walks the plan tree once. Members of a group, clauses of a
// chain, and top-level units are folded left to right with their logical
// operator, stopping as soon as the result is decided: the first false under
// && and the first true under ||. Clauses that are never reached are never
// evaluated, so their data is never read and their deferred literal errors
// never surface.
//
// A list-of-record clause re-validates its element predicate against the
// selected element's own schema and evaluates it with the element as the
// record. Those element plans are not cached.
package eval

import (
	"errors"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/parser"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/plan"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/record"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Observer receives the outcome of every clause that is evaluated.
type Observer func(cl *plan.Clause, result bool, err error)

// Evaluator executes plans. The zero value is ready to use.
type Evaluator struct {
	// ParseOptions apply to element predicates of list-of-record clauses.
	ParseOptions []parser.Option
	// Observe, when set, is called after each clause.
	Observe Observer
}

// New returns an evaluator using opts for element predicates.
func New(opts ...parser.Option) *Evaluator {
	return &Evaluator{ParseOptions: opts}
}

// Evaluate runs p against r with a zero-value Evaluator.
func Evaluate(p *plan.Plan, r types.Record) (bool, error) {
	var e Evaluator
	return e.Evaluate(p, r)
}

// Evaluate runs p against r. On error the result is false.
func (e *Evaluator) Evaluate(p *plan.Plan, r types.Record) (bool, error) {
	return e.evaluate(p, r, 0)
}

func (e *Evaluator) evaluate(p *plan.Plan, r types.Record, depth int) (bool, error) {
	if p == nil || p.Root == nil {
		return false, rferrors.Newf(rferrors.ErrInternalInvariant, "nil plan")
	}
	if r == nil {
		return false, rferrors.Newf(rferrors.ErrInternalInvariant, "nil record")
	}
	return e.node(p, p.Root, r, depth)
}

func (e *Evaluator) node(p *plan.Plan, n *plan.Node, r types.Record, depth int) (bool, error) {
	if n.IsLeaf() {
		return e.chain(p, n.Chain, r, depth)
	}
	return fold(n.Op, len(n.Children), func(i int) (bool, error) {
		return e.node(p, n.Children[i], r, depth)
	})
}

func (e *Evaluator) chain(p *plan.Plan, c *plan.Chain, r types.Record, depth int) (bool, error) {
	return fold(c.Op, len(c.Clauses), func(i int) (bool, error) {
		cl := c.Clauses[i]
		ok, err := e.clause(p, cl, r, depth)
		if e.Observe != nil {
			e.Observe(cl, ok, err)
		}
		return ok, err
	})
}

// fold combines n results left to right under op, short-circuiting.
func fold(op types.LogicalOp, n int, result func(int) (bool, error)) (bool, error) {
	if n == 0 {
		return false, rferrors.Newf(rferrors.ErrInternalInvariant, "empty subexpression")
	}
	if n > 1 && op == types.LogicalNone {
		return false, rferrors.Newf(rferrors.ErrInternalInvariant, "%d members without a logical operator", n)
	}
	var acc bool
	for i := 0; i < n; i++ {
		v, err := result(i)
		if err != nil {
			return false, err
		}
		// Every earlier member was non-deciding, so v is the running result.
		acc = v
		if op.ShortCircuits(v) {
			return v, nil
		}
	}
	return acc, nil
}

func (e *Evaluator) clause(p *plan.Plan, cl *plan.Clause, r types.Record, depth int) (bool, error) {
	if cl.Kind == plan.RecordRef {
		return e.recordRef(p, cl, r, depth)
	}
	if cl.LiteralErr != nil {
		return false, cl.LiteralErr
	}

	v, err := record.Get(r, cl.Path, cl.Selector)
	if err != nil {
		return false, at(err, cl.Pos)
	}

	op := cl.Op
	switch {
	case op.IsRelational():
		return compare(v, cl.RHS, op)
	case op.IsArithmetic():
		res, err := arithmetic(v, cl.Operand, op)
		if err != nil {
			return false, at(err, cl.Pos)
		}
		return compare(res, cl.RHS, cl.PostOp)
	case op.IsExistence():
		return contains(v, cl.RHS, op), nil
	case op.IsStringPredicate():
		return stringPredicate(v, cl.RHS, op), nil
	case op.IsSize():
		return relate(compareOrdered(uint64(v.Len()), cl.RHS.Uint()), op.Relational()), nil
	case op.IsMembership():
		return member(v, cl.List, op), nil
	}
	return false, rferrors.New(rferrors.ErrInternalInvariant, "clause has no operator", cl.Pos)
}

func (e *Evaluator) recordRef(p *plan.Plan, cl *plan.Clause, r types.Record, depth int) (bool, error) {
	if cl.Selector == nil {
		return false, rferrors.New(rferrors.ErrInternalInvariant, "record reference without index", cl.Pos)
	}
	el, err := record.Element(r, cl.Path, cl.Selector.Uint())
	if err != nil {
		return false, at(err, cl.Pos)
	}
	inner, err := parser.ParseElement(p.Text[cl.Ref.Start:cl.Ref.End], el.Schema(), depth+1, e.ParseOptions...)
	if err != nil {
		return false, shift(err, cl.Ref.Start)
	}
	return e.evaluate(inner, el, depth+1)
}

// at attaches a clause position to an error raised without one.
func at(err error, pos int) error {
	var rfe *rferrors.Error
	if errors.As(err, &rfe) && rfe.Position < 0 {
		return rfe.At(pos)
	}
	return err
}

func shift(err error, offset int) error {
	var rfe *rferrors.Error
	if errors.As(err, &rfe) && rfe.Position >= 0 {
		return rfe.At(rfe.Position + offset)
	}
	return err
}
