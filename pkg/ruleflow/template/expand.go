package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholder matches ${name} or $name. The $name form ends at the first
// non-word character, so $min does not match inside $minimum.
var placeholder = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)\b`)

// Expander substitutes rule parameters into expression text.
//
// Safe for concurrent use after construction.
type Expander struct {
	missingAction MissingAction
	braceStyle    bool
	dollarStyle   bool
}

// NewExpander creates an Expander.
//
// Default configuration:
//   - MissingAction: MissingKeep
//   - BraceStyle: enabled (${name})
//   - DollarStyle: enabled ($name)
func NewExpander(opts ...Option) *Expander {
	e := &Expander{
		missingAction: MissingKeep,
		braceStyle:    true,
		dollarStyle:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand replaces placeholders in s with the literal text of params.
//
// Substitution is a single pass: text inserted for one placeholder is never
// scanned again. Values are rendered by Literal.
func (e *Expander) Expand(s string, params map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var (
		missing  []string
		firstErr error
	)
	out := placeholder.ReplaceAllStringFunc(s, func(match string) string {
		sub := placeholder.FindStringSubmatch(match)
		name, brace := sub[1], true
		if name == "" {
			name, brace = sub[2], false
		}
		if (brace && !e.braceStyle) || (!brace && !e.dollarStyle) {
			return match
		}

		val, ok := params[name]
		if !ok {
			switch e.missingAction {
			case MissingEmpty:
				return ""
			case MissingError:
				missing = append(missing, name)
			}
			return match
		}
		lit, err := Literal(val)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("parameter %q: %w", name, err)
			}
			return match
		}
		return lit
	})

	if firstErr != nil {
		return out, firstErr
	}
	if len(missing) > 0 {
		return out, &UndefinedVariableError{Names: missing}
	}
	return out, nil
}

// MustExpand is like Expand but panics on error.
func (e *Expander) MustExpand(s string, params map[string]any) string {
	out, err := e.Expand(s, params)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return out
}

// Placeholders returns the distinct parameter names referenced by s, in
// order of first appearance.
func Placeholders(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, sub := range placeholder.FindAllStringSubmatch(s, -1) {
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Literal renders a parameter value as expression text.
//
// Scalars render bare: strings are inserted as written, so the rule text
// supplies its own quotes. Lists render as a bracketed literal list with
// string elements double-quoted, ready for in and inCI.
func Literal(v any) (string, error) {
	if s, ok := scalarLiteral(v); ok {
		return s, nil
	}

	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case []string:
		items = make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
	case []int:
		items = make([]any, len(val))
		for i, n := range val {
			items[i] = n
		}
	case []float64:
		items = make([]any, len(val))
		for i, f := range val {
			items[i] = f
		}
	default:
		return "", fmt.Errorf("unsupported parameter type %T", v)
	}

	parts := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			parts[i] = `"` + s + `"`
			continue
		}
		lit, ok := scalarLiteral(item)
		if !ok {
			return "", fmt.Errorf("list element %d: unsupported type %T", i, item)
		}
		parts[i] = lit
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func scalarLiteral(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	}
	return "", false
}

// UndefinedVariableError is returned when MissingError is set and one or
// more parameters are not supplied.
type UndefinedVariableError struct {
	// Names lists the missing parameters in order of appearance.
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined parameter: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined parameters: %s", strings.Join(e.Names, ", "))
}

var defaultExpander = NewExpander()

// Expand expands s with the default expander, keeping unknown
// placeholders as written.
func Expand(s string, params map[string]any) (string, error) {
	return defaultExpander.Expand(s, params)
}
