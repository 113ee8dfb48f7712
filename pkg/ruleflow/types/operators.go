package types

// Operator is a clause operator.
type Operator uint8

const (
	OpNone Operator = iota

	// Relational.
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE

	// Arithmetic; always followed by a relational post-operator.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	// Collection existence (also substring tests on strings).
	OpContains
	OpNotContains
	OpContainsCI
	OpNotContainsCI

	// String predicates.
	OpStartsWith
	OpEndsWith
	OpStartsWithCI
	OpEndsWithCI
	OpEqualsCI
	OpNotEqualsCI

	// Size predicates.
	OpSizeEQ
	OpSizeNE
	OpSizeLT
	OpSizeLE
	OpSizeGT
	OpSizeGE

	// Membership against an inline list literal.
	OpIn
	OpInCI
)

var operatorTokens = [...]string{
	OpNone:          "",
	OpEQ:            "==",
	OpNE:            "!=",
	OpLT:            "<",
	OpLE:            "<=",
	OpGT:            ">",
	OpGE:            ">=",
	OpAdd:           "+",
	OpSub:           "-",
	OpMul:           "*",
	OpDiv:           "/",
	OpMod:           "%",
	OpContains:      "contains",
	OpNotContains:   "notContains",
	OpContainsCI:    "containsCI",
	OpNotContainsCI: "notContainsCI",
	OpStartsWith:    "startsWith",
	OpEndsWith:      "endsWith",
	OpStartsWithCI:  "startsWithCI",
	OpEndsWithCI:    "endsWithCI",
	OpEqualsCI:      "equalsCI",
	OpNotEqualsCI:   "notEqualsCI",
	OpSizeEQ:        "sizeEQ",
	OpSizeNE:        "sizeNE",
	OpSizeLT:        "sizeLT",
	OpSizeLE:        "sizeLE",
	OpSizeGT:        "sizeGT",
	OpSizeGE:        "sizeGE",
	OpIn:            "in",
	OpInCI:          "inCI",
}

var wordOperators = func() map[string]Operator {
	m := make(map[string]Operator)
	for op := OpContains; op <= OpInCI; op++ {
		m[operatorTokens[op]] = op
	}
	return m
}()

// String returns the operator as written in expressions.
func (op Operator) String() string {
	if int(op) < len(operatorTokens) {
		return operatorTokens[op]
	}
	return "?"
}

// LookupWordOperator maps a word token such as "containsCI" to its operator.
func LookupWordOperator(word string) (Operator, bool) {
	op, ok := wordOperators[word]
	return op, ok
}

// IsRelational reports whether op is one of == != < <= > >=.
func (op Operator) IsRelational() bool { return op >= OpEQ && op <= OpGE }

// IsArithmetic reports whether op is one of + - * / %.
func (op Operator) IsArithmetic() bool { return op >= OpAdd && op <= OpMod }

// IsExistence reports whether op is a contains/notContains variant.
func (op Operator) IsExistence() bool { return op >= OpContains && op <= OpNotContainsCI }

// IsStringPredicate reports whether op is a prefix/suffix/CI-equality test.
func (op Operator) IsStringPredicate() bool { return op >= OpStartsWith && op <= OpNotEqualsCI }

// IsSize reports whether op is a sizeXX predicate.
func (op Operator) IsSize() bool { return op >= OpSizeEQ && op <= OpSizeGE }

// IsMembership reports whether op is in or inCI.
func (op Operator) IsMembership() bool { return op == OpIn || op == OpInCI }

// CaseInsensitive reports whether op folds case before comparing.
func (op Operator) CaseInsensitive() bool {
	switch op {
	case OpContainsCI, OpNotContainsCI, OpStartsWithCI, OpEndsWithCI, OpEqualsCI, OpNotEqualsCI, OpInCI:
		return true
	}
	return false
}

// Negated reports whether op inverts the underlying test.
func (op Operator) Negated() bool {
	return op == OpNotContains || op == OpNotContainsCI || op == OpNotEqualsCI
}

// Relational maps a size predicate to the relational operator applied to
// the length.
func (op Operator) Relational() Operator {
	if op.IsSize() {
		return OpEQ + (op - OpSizeEQ)
	}
	return op
}

// IndexFree reports whether op applies to a whole collection without an
// [index] or [key] selector.
func (op Operator) IndexFree() bool {
	return op.IsExistence() || op.IsSize()
}

// Compatible reports whether op may be applied to an LHS of type t. For
// indexed collections t is the selected element type.
func Compatible(op Operator, t TypeTag) bool {
	switch t.Kind {
	case KindBool:
		return op == OpEQ || op == OpNE
	case KindInt32, KindFloat64:
		return op.IsRelational() || op.IsArithmetic() || op == OpIn
	case KindUInt32, KindInt64, KindUInt64, KindFloat32:
		return op.IsRelational() || op.IsArithmetic()
	case KindString:
		return op.IsRelational() || op.IsExistence() || op.IsStringPredicate() ||
			op.IsSize() || op.IsMembership()
	case KindSet, KindList, KindMap:
		if op == OpContains || op == OpNotContains || op.IsSize() {
			return true
		}
		if op == OpContainsCI || op == OpNotContainsCI {
			m, ok := t.MemberType()
			return ok && m.Kind == KindString
		}
	case KindListOfRecord:
		return op.IsSize()
	}
	return false
}

// LogicalOp connects clauses and subexpressions.
type LogicalOp uint8

const (
	LogicalNone LogicalOp = iota
	LogicalAnd
	LogicalOr
)

// String returns "&&", "||" or "" for LogicalNone.
func (op LogicalOp) String() string {
	switch op {
	case LogicalAnd:
		return "&&"
	case LogicalOr:
		return "||"
	}
	return ""
}

// ShortCircuits reports whether result decides a fold under op: false for
// &&, true for ||.
func (op LogicalOp) ShortCircuits(result bool) bool {
	return (op == LogicalAnd && !result) || (op == LogicalOr && result)
}
