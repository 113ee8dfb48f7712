package parser

import (
	"strings"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

// CheckBalance verifies that (), [] and {} nest correctly outside string
// literals and that every string literal is terminated.
func CheckBalance(text string) error {
	type open struct {
		c   byte
		pos int
	}
	var stack []open
	var quote byte
	quotePos := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote && ClosesLiteral(text, i) {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote, quotePos = c, i
		case '(', '[', '{':
			stack = append(stack, open{c: c, pos: i})
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1].c != closers[c] {
				return rferrors.New(rferrors.ErrUnbalancedParenOrBracket,
					"unexpected '"+string(c)+"'", i).WithToken(string(c))
			}
			stack = stack[:len(stack)-1]
		}
	}
	if quote != 0 {
		return rferrors.New(rferrors.ErrUnterminatedStringLiteral,
			"string literal is never closed", quotePos).WithToken(text[quotePos:])
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return rferrors.New(rferrors.ErrUnbalancedParenOrBracket,
			"'"+string(top.c)+"' is never closed", top.pos).WithToken(string(top.c))
	}
	return nil
}

// ClosesLiteral reports whether the quote at text[i] ends a string literal.
// It does when the next non-space character is a closing delimiter or a
// comma, when only spaces remain, or when a logical operator follows.
// Otherwise the quote is part of the literal.
func ClosesLiteral(text string, i int) bool {
	j := i + 1
	for j < len(text) && isSpace(text[j]) {
		j++
	}
	if j == len(text) {
		return true
	}
	switch text[j] {
	case ']', ')', '}', ',':
		return true
	}
	rest := text[j:]
	return strings.HasPrefix(rest, "&&") || strings.HasPrefix(rest, "||")
}

// scanLiteral returns the offset just past the string literal opening at
// text[pos].
func scanLiteral(text string, pos int) (int, error) {
	q := text[pos]
	for i := pos + 1; i < len(text); i++ {
		if text[i] == q && ClosesLiteral(text, i) {
			return i + 1, nil
		}
	}
	return len(text), rferrors.New(rferrors.ErrUnterminatedStringLiteral,
		"string literal is never closed", pos).WithToken(text[pos:])
}

// matching returns the offset of the delimiter closing the one at
// text[pos], skipping string literals.
func matching(text string, pos int) (int, error) {
	depth := 0
	for i := pos; i < len(text); i++ {
		c := text[i]
		switch {
		case types.IsQuote(c):
			end, err := scanLiteral(text, i)
			if err != nil {
				return 0, err
			}
			i = end - 1
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, rferrors.New(rferrors.ErrUnbalancedParenOrBracket,
		"'"+string(text[pos])+"' is never closed", pos)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
