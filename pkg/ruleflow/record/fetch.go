package record

import (
	"strings"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/path"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Fetch resolves a single attribute expression such as "price",
// "counts[2]", "limits['eu']" or "items[1].sku" against r. An indexed
// list-of-record attribute may be followed by ".path" to continue inside the
// selected element.
func Fetch(r types.Record, expr string) (types.Value, error) {
	return fetchAt(r, strings.TrimSpace(expr), 0)
}

func fetchAt(r types.Record, text string, offset int) (types.Value, error) {
	if text == "" {
		return types.Value{}, rferrors.New(rferrors.ErrEmptyExpression, "empty attribute path", offset)
	}
	m, ok := path.MatchAttribute(r.Schema(), text, 0)
	if !ok {
		return types.Value{}, rferrors.New(rferrors.ErrUnknownAttribute,
			"no attribute matches "+text, offset).WithToken(text)
	}
	pos := m.End
	if pos == len(text) {
		return Get(r, m.Path, nil)
	}
	if text[pos] != '[' {
		return types.Value{}, rferrors.New(rferrors.ErrUnexpectedToken,
			"unexpected text after attribute "+m.Path, offset+pos).WithToken(text[pos:])
	}

	inner, end, err := path.ScanSelector(text, pos)
	if err != nil {
		return types.Value{}, shift(err, offset)
	}
	sel, err := path.ParseSelector(inner, m.Type, offset+pos)
	if err != nil {
		return types.Value{}, err
	}

	if m.Type.Kind == types.KindListOfRecord {
		el, err := Element(r, m.Path, sel.Uint())
		if err != nil {
			return types.Value{}, err
		}
		if end == len(text) {
			return types.NewRecordList(m.Type.Schema, el), nil
		}
		if text[end] != '.' {
			return types.Value{}, rferrors.New(rferrors.ErrUnexpectedToken,
				"expected '.' after record selector", offset+end).WithToken(text[end:])
		}
		return fetchAt(el, text[end+1:], offset+end+1)
	}

	if end != len(text) {
		return types.Value{}, rferrors.New(rferrors.ErrUnexpectedToken,
			"unexpected text after selector", offset+end).WithToken(text[end:])
	}
	return Get(r, m.Path, &sel)
}

func shift(err error, offset int) error {
	if e, ok := err.(*rferrors.Error); ok && offset != 0 {
		return e.At(e.Position + offset)
	}
	return err
}
