/*
Package template substitutes parameters into rule expressions.

A rule can be written once and instantiated with different thresholds:

	exp := template.NewExpander(template.WithMissingAction(template.MissingError))
	text, err := exp.Expand(`price > ${min_price} && symbol in ${symbols}`, map[string]any{
	    "min_price": 100.5,
	    "symbols":   []any{"IBM", "MSFT"},
	})
	// text: price > 100.5 && symbol in ["IBM", "MSFT"]

Both ${name} and $name are recognized. Expansion happens before
validation, so the expanded text is what gets cached.

Scalars are inserted as written; a string parameter used as a string
literal needs quotes in the rule: symbol == "${sym}". Lists become
bracketed literal lists with quoted strings.
*/
package template
