package eval

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/text/cases"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

type number interface {
	constraints.Integer | constraints.Float
}

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// relate turns a three-way comparison into the result of a relational op.
func relate(c int, op types.Operator) bool {
	switch op {
	case types.OpEQ:
		return c == 0
	case types.OpNE:
		return c != 0
	case types.OpLT:
		return c < 0
	case types.OpLE:
		return c <= 0
	case types.OpGT:
		return c > 0
	case types.OpGE:
		return c >= 0
	}
	return false
}

// compare applies a relational operator to two values of the same type.
// Strings compare numerically when both sides look like numbers, and
// lexically otherwise.
func compare(a, b types.Value, op types.Operator) (bool, error) {
	if a.Kind() != b.Kind() {
		return false, rferrors.Newf(rferrors.ErrTypeMismatch, "cannot compare %s with %s", a.Type(), b.Type())
	}
	switch a.Kind() {
	case types.KindBool:
		eq := a.Bool() == b.Bool()
		switch op {
		case types.OpEQ:
			return eq, nil
		case types.OpNE:
			return !eq, nil
		}
		return false, rferrors.Newf(rferrors.ErrTypeMismatch, "operator %s is not defined on bool", op)
	case types.KindInt32, types.KindInt64:
		return relate(compareOrdered(a.Int(), b.Int()), op), nil
	case types.KindUInt32, types.KindUInt64:
		return relate(compareOrdered(a.Uint(), b.Uint()), op), nil
	case types.KindFloat32, types.KindFloat64:
		return relate(compareOrdered(a.Float(), b.Float()), op), nil
	case types.KindString:
		return relate(compareStrings(a.Str(), b.Str()), op), nil
	}
	return false, rferrors.Newf(rferrors.ErrTypeMismatch, "cannot compare values of type %s", a.Type())
}

func compareStrings(a, b string) int {
	if types.LooksNumeric(a) && types.LooksNumeric(b) {
		x, errX := strconv.ParseFloat(strings.TrimSpace(a), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errX == nil && errY == nil {
			return compareOrdered(x, y)
		}
	}
	return strings.Compare(a, b)
}

// arithmetic computes a <op> b in the type of a.
func arithmetic(a, b types.Value, op types.Operator) (types.Value, error) {
	switch a.Kind() {
	case types.KindInt32:
		r, err := apply(int32(a.Int()), int32(b.Int()), op, intMod[int32])
		return types.NewInt32(r), err
	case types.KindInt64:
		r, err := apply(a.Int(), b.Int(), op, intMod[int64])
		return types.NewInt64(r), err
	case types.KindUInt32:
		r, err := apply(uint32(a.Uint()), uint32(b.Uint()), op, intMod[uint32])
		return types.NewUInt32(r), err
	case types.KindUInt64:
		r, err := apply(a.Uint(), b.Uint(), op, intMod[uint64])
		return types.NewUInt64(r), err
	case types.KindFloat32:
		r, err := apply(float32(a.Float()), float32(b.Float()), op, floatMod[float32])
		return types.NewFloat32(r), err
	case types.KindFloat64:
		r, err := apply(a.Float(), b.Float(), op, floatMod[float64])
		return types.NewFloat64(r), err
	}
	return types.Value{}, rferrors.Newf(rferrors.ErrTypeMismatch, "arithmetic is not defined on %s", a.Type())
}

func apply[T number](a, b T, op types.Operator, mod func(T, T) T) (T, error) {
	switch op {
	case types.OpAdd:
		return a + b, nil
	case types.OpSub:
		return a - b, nil
	case types.OpMul:
		return a * b, nil
	case types.OpDiv:
		if b == 0 {
			return 0, rferrors.Newf(rferrors.ErrDivideByZero, "division by zero")
		}
		return a / b, nil
	case types.OpMod:
		if b == 0 {
			return 0, rferrors.Newf(rferrors.ErrDivideByZero, "modulo by zero")
		}
		return mod(a, b), nil
	}
	return 0, rferrors.Newf(rferrors.ErrInternalInvariant, "%s is not an arithmetic operator", op)
}

func intMod[T constraints.Integer](a, b T) T { return a % b }

func floatMod[T constraints.Float](a, b T) T { return T(math.Mod(float64(a), float64(b))) }

func foldCase(s string) string {
	return cases.Fold().String(s)
}
