package eval

import (
	"strings"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// contains implements contains/notContains and their CI forms. On a string
// it is a substring test; on a set or list, membership; on a map, key
// presence.
func contains(v, rhs types.Value, op types.Operator) bool {
	var found bool
	switch {
	case v.Kind() == types.KindString:
		if op.CaseInsensitive() {
			found = strings.Contains(foldCase(v.Str()), foldCase(rhs.Str()))
		} else {
			found = strings.Contains(v.Str(), rhs.Str())
		}
	case op.CaseInsensitive():
		want := foldCase(rhs.Str())
		for _, m := range v.Members() {
			if foldCase(m.Str()) == want {
				found = true
				break
			}
		}
	default:
		found = v.Contains(rhs)
	}
	if op.Negated() {
		return !found
	}
	return found
}

func stringPredicate(v, rhs types.Value, op types.Operator) bool {
	s, want := v.Str(), rhs.Str()
	if op.CaseInsensitive() {
		s, want = foldCase(s), foldCase(want)
	}
	var ok bool
	switch op {
	case types.OpStartsWith, types.OpStartsWithCI:
		ok = strings.HasPrefix(s, want)
	case types.OpEndsWith, types.OpEndsWithCI:
		ok = strings.HasSuffix(s, want)
	case types.OpEqualsCI, types.OpNotEqualsCI:
		ok = s == want
	}
	if op.Negated() {
		return !ok
	}
	return ok
}

// member implements in and inCI against a parsed list literal. Equality
// uses canonical keys, so float members match by decimal form.
func member(v types.Value, list []types.Value, op types.Operator) bool {
	if op == types.OpInCI {
		want := foldCase(v.Str())
		for _, it := range list {
			if foldCase(it.Str()) == want {
				return true
			}
		}
		return false
	}
	want := v.Key()
	for _, it := range list {
		if it.Key() == want {
			return true
		}
	}
	return false
}
