package types

import (
	"regexp"
	"strconv"
	"strings"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
)

var (
	floatLiteral = regexp.MustCompile(`^[-+]?[0-9]+(\.[0-9]+)?$`)
	numericText  = regexp.MustCompile(`^\s*[-+]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][-+]?[0-9]+)?\s*$`)
)

// IsQuote reports whether c opens a string literal.
func IsQuote(c byte) bool { return c == '"' || c == '\'' }

// Unquote strips the outer quotes of a string literal. Embedded quotes are
// kept verbatim; there are no escape sequences.
func Unquote(text string) (string, bool) {
	if len(text) < 2 || !IsQuote(text[0]) || text[len(text)-1] != text[0] {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// LooksNumeric reports whether s parses as a decimal number.
func LooksNumeric(s string) bool {
	return numericText.MatchString(s)
}

// ParseLiteral converts literal text to a scalar value of type t.
func ParseLiteral(text string, t TypeTag) (Value, error) {
	text = strings.TrimSpace(text)
	switch t.Kind {
	case KindBool:
		switch text {
		case "true":
			return NewBool(true), nil
		case "false":
			return NewBool(false), nil
		}
	case KindInt32:
		if n, err := strconv.ParseInt(text, 10, 32); err == nil {
			return NewInt32(int32(n)), nil
		}
	case KindInt64:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return NewInt64(n), nil
		}
	case KindUInt32:
		if !strings.HasPrefix(text, "-") && !strings.HasPrefix(text, "+") {
			if n, err := strconv.ParseUint(text, 10, 32); err == nil {
				return NewUInt32(uint32(n)), nil
			}
		}
	case KindUInt64:
		if !strings.HasPrefix(text, "-") && !strings.HasPrefix(text, "+") {
			if n, err := strconv.ParseUint(text, 10, 64); err == nil {
				return NewUInt64(n), nil
			}
		}
	case KindFloat32, KindFloat64:
		if floatLiteral.MatchString(text) {
			bits := 64
			if t.Kind == KindFloat32 {
				bits = 32
			}
			if f, err := strconv.ParseFloat(text, bits); err == nil {
				if bits == 32 {
					return NewFloat32(float32(f)), nil
				}
				return NewFloat64(f), nil
			}
		}
	case KindString:
		if s, ok := Unquote(text); ok {
			return NewString(s), nil
		}
	}
	return Value{}, rferrors.Newf(rferrors.ErrInvalidLiteralForType,
		"%q is not a valid %s literal", text, t).WithToken(text)
}

// ParseListLiteral converts "[v1, v2, ...]" to values of type elem. Commas
// inside quoted elements do not split.
func ParseListLiteral(text string, elem TypeTag) ([]Value, error) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return nil, rferrors.Newf(rferrors.ErrMalformedListLiteral,
			"%q is not a bracketed list", text).WithToken(text)
	}
	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		return nil, nil
	}

	parts, ok := splitList(body)
	if !ok {
		return nil, rferrors.Newf(rferrors.ErrMalformedListLiteral,
			"unterminated string in list %q", text).WithToken(text)
	}
	out := make([]Value, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, rferrors.Newf(rferrors.ErrMalformedListLiteral,
				"empty element in list %q", text).WithToken(text)
		}
		v, err := ParseLiteral(p, elem)
		if err != nil {
			return nil, rferrors.Newf(rferrors.ErrMalformedListLiteral,
				"list %q: %v", text, err).WithToken(p)
		}
		out = append(out, v)
	}
	return out, nil
}

// splitList splits on commas outside quotes. A quote closes only when the
// next non-space character is a comma or the end of the body.
func splitList(body string) ([]string, bool) {
	var parts []string
	start := 0
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == quote {
				next := skipSpaces(body, i+1)
				if next == len(body) || body[next] == ',' {
					quote = 0
				}
			}
		case IsQuote(c):
			quote = c
		case c == ',':
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, false
	}
	return append(parts, body[start:]), true
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}
