// internal/frame/element.go
package frame

import (
	"fmt"
	"reflect"

	"github.com/solatis/bamboorules/internal/rules"
)

// apply combines one element pair. Missing values propagate through
// arithmetic and compare false.
func apply(op rules.ElementOp, x, y any, reflected bool) (any, error) {
	if x == nil || y == nil {
		if op.IsComparison() {
			return false, nil
		}
		return nil, nil
	}
	if reflected {
		return rules.ApplyScalar(op, y, x)
	}
	return rules.ApplyScalar(op, x, y)
}

// mirror returns the comparison that holds with operands swapped.
func mirror(op rules.ElementOp) rules.ElementOp {
	switch op {
	case rules.ElemLt:
		return rules.ElemGt
	case rules.ElemGt:
		return rules.ElemLt
	case rules.ElemLe:
		return rules.ElemGe
	case rules.ElemGe:
		return rules.ElemLe
	}
	return op
}

func asSlice(v any) []any {
	if xs, ok := v.([]any); ok {
		return xs
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// label renders a lookup key as a label. Integral floats print without a
// fraction, so a JSON 1 addresses label "1".
func label(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}

// boolMask returns keys as bools when every key is a bool.
func boolMask(keys []any) ([]bool, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	out := make([]bool, len(keys))
	for i, k := range keys {
		b, ok := k.(bool)
		if !ok {
			return nil, false
		}
		out[i] = b
	}
	return out, true
}

func maskAt(mask *Series, l string) bool {
	v, ok := mask.At(l)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// extremum returns the first non-nil value that no later value beats under op.
func extremum(values []any, op rules.ElementOp) (any, error) {
	var best any
	for _, v := range values {
		if v == nil {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		r, err := rules.ApplyScalar(op, v, best)
		if err != nil {
			return nil, err
		}
		if r == true {
			best = v
		}
	}
	return best, nil
}

func countPresent(values []any) int {
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}
