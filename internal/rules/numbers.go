// internal/rules/numbers.go
package rules

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

/*
 * Numeric coercion for arithmetic and comparison.
 *
 * Rules arrive from decoders (float64 or json.Number from encoding/json,
 * int from yaml.v3) and from host code (any Go numeric kind). Every operand
 * is coerced to a number that is either an exact integer or a float.
 *
 * Coercion modes:
 *   - Integers of every width: exact int (uint64 beyond MaxInt64 becomes float)
 *   - float32/float64: float
 *   - bool: int 0/1 (arithmetic on booleans counts them)
 *   - json.Number: int when it parses as one, float otherwise
 *   - strings and everything else: not numeric
 *
 * Integer results stay int; mixing with a float promotes to float64.
 */

// number is a coerced numeric operand.
type number struct {
	i       int
	f       float64
	isFloat bool
}

func intNumber(i int) number       { return number{i: i} }
func floatNumber(f float64) number { return number{f: f, isFloat: true} }

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) value() any {
	if n.isFloat {
		return n.f
	}
	return n.i
}

func (n number) isZero() bool {
	if n.isFloat {
		return n.f == 0
	}
	return n.i == 0
}

// toNumber coerces v to a number. Returns false for non-numeric values.
func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case float64:
		return floatNumber(n), true
	case int:
		return intNumber(n), true
	case int64:
		return intNumber(int(n)), true
	case bool:
		if n {
			return intNumber(1), true
		}
		return intNumber(0), true
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return intNumber(int(i)), true
		}
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return number{}, false
		}
		return floatNumber(f), true
	case nil, string:
		return number{}, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intNumber(int(rv.Int())), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return floatNumber(float64(u)), true
		}
		return intNumber(int(u)), true
	case reflect.Float32, reflect.Float64:
		return floatNumber(rv.Float()), true
	}
	return number{}, false
}

// isNumeric reports whether v coerces to a number.
func isNumeric(v any) bool {
	_, ok := toNumber(v)
	return ok
}

// asNumbers coerces both operands. Returns false unless both are numeric.
func asNumbers(a, b any) (number, number, bool) {
	na, oka := toNumber(a)
	nb, okb := toNumber(b)
	return na, nb, oka && okb
}

// toInt converts a numeric operand with an integral value to int.
func toInt(v any) (int, bool) {
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	if !n.isFloat {
		return n.i, true
	}
	if n.f != math.Trunc(n.f) || math.IsInf(n.f, 0) || math.IsNaN(n.f) {
		return 0, false
	}
	return int(n.f), true
}

// formatSegment renders a path operand as a dotted-path string.
// Integral floats print without a fraction so {"var": 1.0} addresses index 1.
func formatSegment(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	if n, ok := toNumber(v); ok {
		if !n.isFloat {
			return strconv.Itoa(n.i)
		}
		if n.f == math.Trunc(n.f) && !math.IsInf(n.f, 0) {
			return strconv.FormatFloat(n.f, 'f', -1, 64)
		}
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	return fmtValue(v)
}
