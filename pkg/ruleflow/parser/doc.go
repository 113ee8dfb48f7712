// Package parser validates predicate expressions against a schema and
// builds their evaluation plans.
//
// Parsing runs in two passes over the text. The first checks that
// parentheses, brackets and braces balance outside string literals. The
// second is a single left-to-right state machine (awaiting an attribute, an
// operator, a right-hand side, or a logical operator) that keeps one frame
// per open parenthesis and emits the plan tree as it goes.
//
// Grammar:
//
//	expr    := unit (("&&" | "||") unit)*
//	unit    := clause | "(" expr ")"
//	clause  := path ["[" selector "]"] op rhs
//	         | path "[" index "]" "." "{" expr "}"
//	op      := relational | arith operand relational | word
//
// The logical operators joining members of one parenthesis level must all
// be the same. Top-level units are either all parenthesized or all bare.
//
// String literals use ' or " and have no escapes. A quote ends a literal
// only when what follows it (ignoring spaces) is the end of the text, a
// closing delimiter, a comma, or a logical operator; any other quote is
// part of the literal.
package parser
