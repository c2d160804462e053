// internal/rules/arithmetic.go
package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Scalar arithmetic primitives.
 *
 * Integer operands stay integral for + - * // % and ** with a non-negative
 * exponent; / always yields float64. Floor division and modulo round toward
 * negative infinity, so the remainder takes the sign of the divisor.
 *
 * Non-numeric forms:
 *   - string + string concatenates
 *   - sequence + sequence concatenates into a new []any
 *   - string * int and sequence * int repeat (negative counts give empty)
 */

// ApplyScalar applies op to two non-structure operands.
// Vector and table implementations call it once per element pair.
func ApplyScalar(op ElementOp, a, b any) (any, error) {
	switch op {
	case ElemEq:
		return looseEqual(a, b), nil
	case ElemLt:
		return scalarLess(a, b, false)
	case ElemLe:
		return scalarLess(a, b, true)
	case ElemGt:
		return scalarLess(b, a, false)
	case ElemGe:
		return scalarLess(b, a, true)
	case ElemAdd:
		return scalarAdd(a, b)
	case ElemMul:
		return scalarMul(a, b)
	}

	na, nb, ok := asNumbers(a, b)
	if !ok {
		return nil, mismatch(op.String(), a, b)
	}
	switch op {
	case ElemSub:
		if !na.isFloat && !nb.isFloat {
			return na.i - nb.i, nil
		}
		return na.float() - nb.float(), nil
	case ElemTrueDiv:
		if nb.isZero() {
			return nil, types.ErrDivisionByZero
		}
		return na.float() / nb.float(), nil
	case ElemFloorDiv:
		return floorDiv(na, nb)
	case ElemMod:
		return modulo(na, nb)
	case ElemPow:
		return power(na, nb)
	}
	return nil, fmt.Errorf("%w: unknown element operation %d", types.ErrTypeMismatch, int(op))
}

func scalarAdd(a, b any) (any, error) {
	if na, nb, ok := asNumbers(a, b); ok {
		if !na.isFloat && !nb.isFloat {
			return na.i + nb.i, nil
		}
		return na.float() + nb.float(), nil
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa + sb, nil
		}
	}
	if isSequence(a) && isSequence(b) {
		xs, _ := toSlice(a)
		ys, _ := toSlice(b)
		out := make([]any, 0, len(xs)+len(ys))
		out = append(out, xs...)
		return append(out, ys...), nil
	}
	return nil, mismatch("+", a, b)
}

func scalarMul(a, b any) (any, error) {
	if na, nb, ok := asNumbers(a, b); ok {
		if !na.isFloat && !nb.isFloat {
			return na.i * nb.i, nil
		}
		return na.float() * nb.float(), nil
	}
	// Repetition accepts the count on either side.
	if _, ok := toNumber(a); ok {
		a, b = b, a
	}
	n, ok := toNumber(b)
	if !ok || n.isFloat {
		return nil, mismatch("*", a, b)
	}
	count := n.i
	if count < 0 {
		count = 0
	}
	if s, ok := a.(string); ok {
		return strings.Repeat(s, count), nil
	}
	if xs, ok := toSlice(a); ok {
		out := make([]any, 0, len(xs)*count)
		for i := 0; i < count; i++ {
			out = append(out, xs...)
		}
		return out, nil
	}
	return nil, mismatch("*", a, b)
}

func floorDiv(a, b number) (any, error) {
	if b.isZero() {
		return nil, types.ErrDivisionByZero
	}
	if !a.isFloat && !b.isFloat {
		q := a.i / b.i
		if (a.i%b.i != 0) && ((a.i < 0) != (b.i < 0)) {
			q--
		}
		return q, nil
	}
	return math.Floor(a.float() / b.float()), nil
}

func modulo(a, b number) (any, error) {
	if b.isZero() {
		return nil, types.ErrDivisionByZero
	}
	if !a.isFloat && !b.isFloat {
		r := a.i % b.i
		if r != 0 && ((r < 0) != (b.i < 0)) {
			r += b.i
		}
		return r, nil
	}
	r := math.Mod(a.float(), b.float())
	if r != 0 && ((r < 0) != (b.float() < 0)) {
		r += b.float()
	}
	return r, nil
}

func power(a, b number) (any, error) {
	if !a.isFloat && !b.isFloat && b.i >= 0 {
		result, base, exp := 1, a.i, b.i
		for exp > 0 {
			if exp&1 == 1 {
				result *= base
			}
			base *= base
			exp >>= 1
		}
		return result, nil
	}
	if a.isZero() && b.float() < 0 {
		return nil, types.ErrDivisionByZero
	}
	return math.Pow(a.float(), b.float()), nil
}

// AbsScalar returns the absolute value of a numeric operand.
func AbsScalar(a any) (any, error) {
	n, ok := toNumber(a)
	if !ok {
		return nil, fmt.Errorf("%w: abs of %s", types.ErrTypeMismatch, typeName(a))
	}
	if n.isFloat {
		return math.Abs(n.f), nil
	}
	if n.i < 0 {
		return -n.i, nil
	}
	return n.i, nil
}

// negate returns the arithmetic negation of a numeric operand.
func negate(a any) (any, error) {
	n, ok := toNumber(a)
	if !ok {
		return nil, fmt.Errorf("%w: unary - of %s", types.ErrTypeMismatch, typeName(a))
	}
	if n.isFloat {
		return -n.f, nil
	}
	return -n.i, nil
}

func mismatch(symbol string, a, b any) error {
	return fmt.Errorf("%w: '%s' between %s and %s", types.ErrTypeMismatch, symbol, typeName(a), typeName(b))
}
