// internal/rules/compare.go
package rules

import (
	"fmt"
	"reflect"

	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Scalar comparison primitives.
 *
 * These run when no operand is a vector or table. Semantics:
 *   - Equality: numbers (including bool) compare numerically across widths,
 *     sequences and mappings compare element-wise, values of unrelated types
 *     are unequal. Equality never fails.
 *   - Ordering: numbers numerically, strings lexicographically by byte,
 *     sequences lexicographically by element. Any other pairing fails with
 *     ErrTypeMismatch, including nil operands.
 */

// looseEqual implements scalar ==.
func looseEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		if !na.isFloat && !nb.isFloat {
			return na.i == nb.i
		}
		return na.float() == nb.float()
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}

	ka, kb := Classify(a), Classify(b)
	switch {
	case ka == KindSequence && kb == KindSequence:
		xs, _ := toSlice(a)
		ys, _ := toSlice(b)
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !looseEqual(xs[i], ys[i]) {
				return false
			}
		}
		return true
	case ka == KindMapping && kb == KindMapping:
		return mappingsEqual(a, b)
	case ka == KindSequence || kb == KindSequence || ka == KindMapping || kb == KindMapping:
		return false
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func mappingsEqual(a, b any) bool {
	ma, oka := a.(map[string]any)
	mb, okb := b.(map[string]any)
	if !oka || !okb {
		return reflect.DeepEqual(a, b)
	}
	if len(ma) != len(mb) {
		return false
	}
	for k, va := range ma {
		vb, ok := mb[k]
		if !ok || !looseEqual(va, vb) {
			return false
		}
	}
	return true
}

// sameType reports whether a and b have identical dynamic types, the first half of ===.
func sameType(a, b any) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// scalarLess implements scalar < (orEqual false) and <= (orEqual true).
func scalarLess(a, b any, orEqual bool) (bool, error) {
	if na, nb, ok := asNumbers(a, b); ok {
		if !na.isFloat && !nb.isFloat {
			if orEqual {
				return na.i <= nb.i, nil
			}
			return na.i < nb.i, nil
		}
		if orEqual {
			return na.float() <= nb.float(), nil
		}
		return na.float() < nb.float(), nil
	}

	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			if orEqual {
				return sa <= sb, nil
			}
			return sa < sb, nil
		}
	}

	if isSequence(a) && isSequence(b) {
		xs, _ := toSlice(a)
		ys, _ := toSlice(b)
		for i := 0; i < len(xs) && i < len(ys); i++ {
			if looseEqual(xs[i], ys[i]) {
				continue
			}
			return scalarLess(xs[i], ys[i], false)
		}
		if orEqual {
			return len(xs) <= len(ys), nil
		}
		return len(xs) < len(ys), nil
	}

	symbol := "<"
	if orEqual {
		symbol = "<="
	}
	return false, fmt.Errorf("%w: '%s' between %s and %s", types.ErrTypeMismatch, symbol, typeName(a), typeName(b))
}

// typeName renders the dynamic type of v for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

func fmtValue(v any) string {
	return fmt.Sprint(v)
}
