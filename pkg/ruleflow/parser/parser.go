package parser

import (
	"errors"
	"strings"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/path"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/plan"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Parse validates text against schema s and builds its evaluation plan.
func Parse(text string, s *types.Schema, opts ...Option) (*plan.Plan, error) {
	return parse(text, s, buildOptions(opts), 0)
}

// ParseElement parses the predicate of a list-of-record clause against the
// element schema s. depth is the number of enclosing list-of-record
// predicates.
func ParseElement(text string, s *types.Schema, depth int, opts ...Option) (*plan.Plan, error) {
	o := buildOptions(opts)
	if depth > o.MaxDepth {
		return nil, rferrors.Newf(rferrors.ErrNestingTooDeep,
			"list-of-record predicates nested deeper than %d", o.MaxDepth)
	}
	return parse(text, s, o, depth)
}

func parse(text string, s *types.Schema, o Options, depth int) (*plan.Plan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, rferrors.New(rferrors.ErrEmptyExpression, "expression is empty", 0)
	}
	if s == nil {
		return nil, rferrors.Newf(rferrors.ErrInternalInvariant, "no schema to validate against")
	}
	if err := CheckBalance(text); err != nil {
		return nil, err
	}

	sc := &scanner{text: text, schema: s, opts: o, depth: depth}
	root, err := sc.run()
	if err != nil {
		return nil, err
	}
	p, err := plan.New(text, s.Fingerprint(), root)
	if err != nil {
		return nil, rferrors.Newf(rferrors.ErrInternalInvariant, "building plan: %v", err).WithCause(err)
	}
	return p, nil
}

type state uint8

const (
	awaitingLHS state = iota
	awaitingOperator
	awaitingRHS
	awaitingLogicalOp
)

// frame is one open parenthesis level; the root frame is the whole text.
type frame struct {
	members []*plan.Node
	// pending holds consecutive clauses not yet closed into a chain.
	pending []*plan.Clause
	op      types.LogicalOp
	groups  int
	clauses int
}

// scanner is the single-pass validator. It walks the text once, keeping
// one frame per open parenthesis, and emits the plan tree.
type scanner struct {
	text   string
	schema *types.Schema
	opts   Options
	depth  int

	pos    int
	state  state
	frames []*frame
	cur    *plan.Clause
}

func (sc *scanner) run() (*plan.Node, error) {
	sc.frames = []*frame{{}}
	for {
		sc.skipSpaces()
		if sc.pos >= len(sc.text) {
			break
		}
		var err error
		switch sc.state {
		case awaitingLHS:
			err = sc.lhs()
		case awaitingOperator:
			err = sc.operator()
		case awaitingRHS:
			err = sc.rhs()
		case awaitingLogicalOp:
			err = sc.logical()
		}
		if err != nil {
			return nil, err
		}
	}

	switch sc.state {
	case awaitingLHS:
		return nil, sc.errorf(rferrors.ErrUnexpectedToken, len(sc.text), "expression ends where a clause is expected")
	case awaitingOperator:
		return nil, sc.errorf(rferrors.ErrUnexpectedToken, len(sc.text), "clause on %s has no operator", sc.cur.Path)
	case awaitingRHS:
		return nil, sc.errorf(rferrors.ErrUnexpectedToken, len(sc.text), "clause on %s has no right-hand side", sc.cur.Path)
	}
	if len(sc.frames) != 1 {
		return nil, sc.errorf(rferrors.ErrUnbalancedParenOrBracket, len(sc.text), "unclosed '('")
	}

	root := sc.frames[0]
	root.flush()
	return &plan.Node{Op: root.op, Children: root.members}, nil
}

func (sc *scanner) top() *frame {
	return sc.frames[len(sc.frames)-1]
}

func (sc *scanner) atRoot() bool {
	return len(sc.frames) == 1
}

func (sc *scanner) lhs() error {
	f := sc.top()
	switch sc.text[sc.pos] {
	case '(':
		if sc.atRoot() && f.clauses > 0 {
			return sc.errorf(rferrors.ErrInconsistentParenUsage, sc.pos,
				"top-level groups must be all parenthesized or all bare")
		}
		if len(sc.frames) > sc.opts.MaxDepth {
			return sc.errorf(rferrors.ErrNestingTooDeep, sc.pos,
				"parentheses nested deeper than %d", sc.opts.MaxDepth)
		}
		f.flush()
		f.groups++
		sc.frames = append(sc.frames, &frame{})
		sc.pos++
		return nil
	case ')':
		return sc.errorf(rferrors.ErrUnexpectedToken, sc.pos, "expected a clause before ')'")
	}

	if sc.atRoot() && f.groups > 0 {
		return sc.errorf(rferrors.ErrInconsistentParenUsage, sc.pos,
			"top-level groups must be all parenthesized or all bare")
	}
	return sc.attribute()
}

func (sc *scanner) attribute() error {
	start := sc.pos
	m, ok := path.MatchAttribute(sc.schema, sc.text, start)
	if !ok {
		word := sc.word(start)
		return rferrors.New(rferrors.ErrUnknownAttribute,
			"no attribute named "+word, start).WithToken(word)
	}

	cl := &plan.Clause{Kind: plan.Scalar, Path: m.Path, Type: m.Type, Pos: start}
	sc.pos = m.End
	if sc.pos < len(sc.text) && sc.text[sc.pos] == '[' {
		inner, end, err := path.ScanSelector(sc.text, sc.pos)
		if err != nil {
			return err
		}
		sel, err := path.ParseSelector(inner, m.Type, sc.pos)
		if err != nil {
			return err
		}
		cl.Selector, cl.SelectorText = &sel, inner
		sc.pos = end
		if m.Type.Kind == types.KindListOfRecord {
			return sc.recordRef(cl)
		}
	}

	sc.cur = cl
	sc.state = awaitingOperator
	return nil
}

// recordRef parses ".{ predicate }" after an indexed list-of-record
// attribute. The predicate is validated against the element schema now
// and re-parsed at evaluation time.
func (sc *scanner) recordRef(cl *plan.Clause) error {
	if sc.pos >= len(sc.text) || sc.text[sc.pos] != '.' {
		return sc.errorf(rferrors.ErrUnexpectedToken, sc.pos,
			"expected '.{' after %s[%s]", cl.Path, cl.SelectorText)
	}
	open := sc.pos + 1
	for open < len(sc.text) && isSpace(sc.text[open]) {
		open++
	}
	if open >= len(sc.text) || sc.text[open] != '{' {
		return sc.errorf(rferrors.ErrUnexpectedToken, open,
			"expected '{' to open the element predicate of %s", cl.Path)
	}
	end, err := matching(sc.text, open)
	if err != nil {
		return err
	}
	if sc.depth+1 > sc.opts.MaxDepth {
		return sc.errorf(rferrors.ErrNestingTooDeep, open,
			"list-of-record predicates nested deeper than %d", sc.opts.MaxDepth)
	}

	cl.Kind = plan.RecordRef
	cl.Ref = plan.Span{Start: open + 1, End: end}
	if _, err := parse(sc.text[open+1:end], cl.Type.Schema, sc.opts, sc.depth+1); err != nil {
		return shift(err, open+1)
	}

	sc.pos = end + 1
	sc.top().add(cl)
	sc.state = awaitingLogicalOp
	return nil
}

func (sc *scanner) operator() error {
	start := sc.pos
	op, n, ok := readOperator(sc.text, start)
	if !ok {
		word := sc.word(start)
		return rferrors.New(rferrors.ErrUnknownOperator,
			"unknown operator "+word, start).WithToken(word)
	}

	cl := sc.cur
	if cl.Selector == nil && (cl.Type.Kind == types.KindList || cl.Type.Kind == types.KindMap) && !op.IndexFree() {
		return sc.errorf(rferrors.ErrMissingIndexOrKey, start,
			"%s is %s; %s needs an [index] or [key]", cl.Path, cl.Type, op)
	}
	target := cl.Target()
	if !types.Compatible(op, target) {
		return rferrors.New(rferrors.ErrInvalidOperatorForType,
			"operator "+op.String()+" cannot be applied to "+target.String(), start).WithToken(op.String())
	}
	cl.Op = op
	sc.pos += n

	if op.IsArithmetic() {
		return sc.arithmetic()
	}
	sc.state = awaitingRHS
	return nil
}

// arithmetic parses the operand and relational post-operator of a
// composite clause such as "qty * 2 > 10".
func (sc *scanner) arithmetic() error {
	cl := sc.cur
	sc.skipSpaces()
	start := sc.pos
	end := start
	for end < len(sc.text) && !isSpace(sc.text[end]) && !strings.ContainsRune("=!<>)&|", rune(sc.text[end])) {
		end++
	}
	if end == start {
		return sc.errorf(rferrors.ErrUnexpectedToken, start, "%s needs a numeric operand", cl.Op)
	}
	cl.OperandText = sc.text[start:end]
	v, err := types.ParseLiteral(cl.OperandText, cl.Target())
	if err != nil {
		if err := sc.literalError(cl, err, start); err != nil {
			return err
		}
	} else {
		cl.Operand = v
	}

	sc.pos = end
	sc.skipSpaces()
	post, n, ok := readOperator(sc.text, sc.pos)
	if !ok || !post.IsRelational() {
		word := sc.word(sc.pos)
		return rferrors.New(rferrors.ErrUnknownOperator,
			"arithmetic must be followed by a relational operator, got "+word, sc.pos).WithToken(word)
	}
	cl.PostOp = post
	sc.pos += n
	sc.state = awaitingRHS
	return nil
}

func (sc *scanner) rhs() error {
	cl := sc.cur
	start := sc.pos
	end := start

	switch c := sc.text[start]; {
	case cl.Op.IsMembership() && c == '[':
		closing, err := matching(sc.text, start)
		if err != nil {
			return err
		}
		end = closing + 1
	case types.IsQuote(c):
		e, err := scanLiteral(sc.text, start)
		if err != nil {
			return err
		}
		end = e
	default:
		end = bareEnd(sc.text, start)
	}
	if end == start {
		return sc.errorf(rferrors.ErrUnexpectedToken, start,
			"clause on %s has no right-hand side", cl.Path)
	}

	cl.RHSText = sc.text[start:end]
	if err := sc.convertRHS(cl, start); err != nil {
		return err
	}
	sc.pos = end
	sc.top().add(cl)
	sc.cur = nil
	sc.state = awaitingLogicalOp
	return nil
}

func (sc *scanner) convertRHS(cl *plan.Clause, pos int) error {
	target := cl.Target()
	var err error
	switch op := cl.Op; {
	case op.IsMembership():
		cl.List, err = types.ParseListLiteral(cl.RHSText, target)
	case op.IsSize():
		cl.RHS, err = types.ParseLiteral(cl.RHSText, types.UInt64)
	case op.IsExistence() && target.Kind != types.KindString:
		member, _ := target.MemberType()
		cl.RHS, err = types.ParseLiteral(cl.RHSText, member)
	case op.IsExistence() || op.IsStringPredicate():
		cl.RHS, err = types.ParseLiteral(cl.RHSText, types.String)
	default:
		cl.RHS, err = types.ParseLiteral(cl.RHSText, target)
	}
	if err != nil {
		return sc.literalError(cl, err, pos)
	}
	return nil
}

// literalError records a conversion failure on the clause, or returns it
// when literals are checked strictly.
func (sc *scanner) literalError(cl *plan.Clause, err error, pos int) error {
	var rfe *rferrors.Error
	if errors.As(err, &rfe) {
		err = rfe.At(pos)
	}
	if sc.opts.StrictLiterals {
		return err
	}
	if cl.LiteralErr == nil {
		cl.LiteralErr = err
	}
	return nil
}

func (sc *scanner) logical() error {
	f := sc.top()
	if sc.text[sc.pos] == ')' {
		if sc.atRoot() {
			return sc.errorf(rferrors.ErrUnbalancedParenOrBracket, sc.pos, "unexpected ')'")
		}
		f.flush()
		sc.frames = sc.frames[:len(sc.frames)-1]
		parent := sc.top()
		parent.members = append(parent.members, &plan.Node{Op: f.op, Children: f.members})
		sc.pos++
		return nil
	}

	var op types.LogicalOp
	switch {
	case strings.HasPrefix(sc.text[sc.pos:], "&&"):
		op = types.LogicalAnd
	case strings.HasPrefix(sc.text[sc.pos:], "||"):
		op = types.LogicalOr
	default:
		word := sc.word(sc.pos)
		return rferrors.New(rferrors.ErrUnexpectedToken,
			"expected '&&' or '||', got "+word, sc.pos).WithToken(word)
	}

	if f.op == types.LogicalNone {
		f.op = op
	} else if f.op != op {
		code := rferrors.ErrMixedOpsInGroup
		if sc.atRoot() && f.groups > 0 {
			code = rferrors.ErrMixedOpsAcrossGroups
		}
		return rferrors.New(code, "'"+f.op.String()+"' and '"+op.String()+"' mixed at one level", sc.pos).
			WithToken(op.String())
	}
	sc.pos += 2
	sc.state = awaitingLHS
	return nil
}

func (sc *scanner) skipSpaces() {
	for sc.pos < len(sc.text) && isSpace(sc.text[sc.pos]) {
		sc.pos++
	}
}

// word returns the token at pos for error messages.
func (sc *scanner) word(pos int) string {
	end := pos
	for end < len(sc.text) && !isSpace(sc.text[end]) && sc.text[end] != ')' {
		end++
	}
	if end == pos && pos < len(sc.text) {
		end++
	}
	return sc.text[pos:end]
}

func (sc *scanner) errorf(code rferrors.ErrorCode, pos int, format string, args ...any) error {
	return rferrors.Newf(code, format, args...).At(pos)
}

func (f *frame) add(cl *plan.Clause) {
	f.pending = append(f.pending, cl)
	f.clauses++
}

// flush closes the pending clauses into a chain member.
func (f *frame) flush() {
	if len(f.pending) == 0 {
		return
	}
	op := types.LogicalNone
	if len(f.pending) > 1 {
		op = f.op
	}
	f.members = append(f.members, plan.Leaf(&plan.Chain{Op: op, Clauses: f.pending}))
	f.pending = nil
}

func shift(err error, offset int) error {
	var rfe *rferrors.Error
	if errors.As(err, &rfe) && rfe.Position >= 0 {
		return rfe.At(rfe.Position + offset)
	}
	return err
}
