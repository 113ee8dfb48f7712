package parser

import (
	"strings"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Longer tokens first so "<=" is not read as "<".
var symbolicOperators = []struct {
	tok string
	op  types.Operator
}{
	{"==", types.OpEQ},
	{"!=", types.OpNE},
	{"<=", types.OpLE},
	{">=", types.OpGE},
	{"<", types.OpLT},
	{">", types.OpGT},
	{"+", types.OpAdd},
	{"-", types.OpSub},
	{"*", types.OpMul},
	{"/", types.OpDiv},
	{"%", types.OpMod},
}

// readOperator reads a symbolic or word operator at text[pos] and returns
// it with its length. A word operator must be followed by a space, '[' or
// a quote.
func readOperator(text string, pos int) (types.Operator, int, bool) {
	rest := text[pos:]
	for _, s := range symbolicOperators {
		if strings.HasPrefix(rest, s.tok) {
			return s.op, len(s.tok), true
		}
	}

	end := pos
	for end < len(text) && isLetter(text[end]) {
		end++
	}
	if end == pos {
		return types.OpNone, 0, false
	}
	op, ok := types.LookupWordOperator(text[pos:end])
	if !ok {
		return types.OpNone, 0, false
	}
	if end < len(text) && !isSpace(text[end]) && text[end] != '[' && !types.IsQuote(text[end]) {
		return types.OpNone, 0, false
	}
	return op, end - pos, true
}

// bareEnd returns the end of an unquoted literal starting at pos.
func bareEnd(text string, pos int) int {
	i := pos
	for i < len(text) {
		c := text[i]
		if isSpace(c) || c == ')' {
			break
		}
		if strings.HasPrefix(text[i:], "&&") || strings.HasPrefix(text[i:], "||") {
			break
		}
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
