// Package path implements the attribute-path grammar shared by predicate
// parsing and single-attribute fetches: a dotted schema path, optionally
// followed by an [index] or [key] selector.
package path

import (
	"strings"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Match is a schema path recognized at some offset of a text.
type Match struct {
	Path string
	Type types.TypeTag
	// End is the offset just past the path.
	End int
}

// Delimiter reports whether c may directly follow an attribute path.
func Delimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '[', '=', '!', '<', '>', '+', '-', '*', '/', '%':
		return true
	}
	return false
}

// MatchAttribute returns the longest schema path that starts at text[pos:]
// and is followed by the end of text or a Delimiter. A path that is only a
// prefix of a longer identifier ("price" in "priceLimit") does not match.
func MatchAttribute(s *types.Schema, text string, pos int) (Match, bool) {
	var best Match
	found := false
	rest := text[pos:]
	for _, f := range s.Fields() {
		if len(f.Path) <= len(best.Path) || !strings.HasPrefix(rest, f.Path) {
			continue
		}
		end := pos + len(f.Path)
		if end < len(text) && !Delimiter(text[end]) {
			continue
		}
		best = Match{Path: f.Path, Type: f.Type, End: end}
		found = true
	}
	return best, found
}

// ScanSelector reads a bracketed selector starting at text[pos] == '['.
// It returns the trimmed inner text and the offset just past ']'. Quoted
// keys may contain brackets; a quote closes when the next non-space
// character is ']'.
func ScanSelector(text string, pos int) (string, int, error) {
	if pos >= len(text) || text[pos] != '[' {
		return "", pos, rferrors.New(rferrors.ErrUnexpectedToken, "expected '['", pos)
	}
	var quote byte
	for i := pos + 1; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				j := i + 1
				for j < len(text) && text[j] == ' ' {
					j++
				}
				if j < len(text) && text[j] == ']' {
					quote = 0
				}
			}
		case types.IsQuote(c):
			quote = c
		case c == ']':
			inner := strings.TrimSpace(text[pos+1 : i])
			if inner == "" {
				return "", i + 1, rferrors.New(rferrors.ErrInvalidIndexOrKey, "empty selector", pos)
			}
			return inner, i + 1, nil
		}
	}
	if quote != 0 {
		return "", len(text), rferrors.New(rferrors.ErrUnterminatedStringLiteral, "unterminated key literal", pos)
	}
	return "", len(text), rferrors.New(rferrors.ErrUnbalancedParenOrBracket, "unclosed '['", pos)
}

// ParseSelector converts selector text to the index or key type of t.
func ParseSelector(inner string, t types.TypeTag, pos int) (types.Value, error) {
	st, ok := t.SelectorType()
	if !ok {
		return types.Value{}, rferrors.New(rferrors.ErrInvalidIndexOrKey,
			"attribute of type "+t.String()+" cannot be indexed", pos)
	}
	v, err := types.ParseLiteral(inner, st)
	if err != nil {
		return types.Value{}, rferrors.New(rferrors.ErrInvalidIndexOrKey,
			"invalid "+st.String()+" selector "+inner, pos).WithToken(inner)
	}
	return v, nil
}
