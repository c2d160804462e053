// internal/rules/classify.go
package rules

import (
	"reflect"
	"strconv"
)

/*
 * Value classification.
 *
 * Every runtime value falls into one of five kinds: scalar, sequence,
 * mapping, vector, table. Operator dispatch selects its branch from these
 * kinds, so the predicates below compose strictly by inclusion and must not
 * be reordered.
 *
 * Go mapping of kinds:
 *   - Table: implements Table (checked before Vector)
 *   - Vector: implements Vector
 *   - Sequence: []any, or any other slice/array except []byte
 *   - Mapping: map[string]any, or any other map
 *   - Scalar: everything else (nil, bool, numbers, strings, host objects)
 */

// Kind is the dispatch category of a runtime value.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	KindVector
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindVector:
		return "vector"
	case KindTable:
		return "table"
	default:
		return "scalar"
	}
}

// Classify returns the dispatch kind of v.
func Classify(v any) Kind {
	switch v.(type) {
	case nil:
		return KindScalar
	case Table:
		return KindTable
	case Vector:
		return KindVector
	case []any:
		return KindSequence
	case map[string]any:
		return KindMapping
	case string, bool, []byte:
		return KindScalar
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Map:
		return KindMapping
	default:
		return KindScalar
	}
}

func isMapping(v any) bool  { return Classify(v) == KindMapping }
func isSequence(v any) bool { return Classify(v) == KindSequence }
func isVector(v any) bool   { return Classify(v) == KindVector }
func isTable(v any) bool    { return Classify(v) == KindTable }
func isScalar(v any) bool   { return Classify(v) == KindScalar }

func isVectorOrScalar(v any) bool {
	return isVector(v) || isScalar(v)
}

func isTableOrVector(v any) bool {
	return isTable(v) || isVector(v)
}

func isTableVectorOrSequence(v any) bool {
	return isTableOrVector(v) || isSequence(v)
}

func isTableVectorSequenceOrScalar(v any) bool {
	return isTableVectorOrSequence(v) || isScalar(v)
}

// toSlice returns the elements of a sequence value.
// []any is returned as-is; other slices and arrays are copied element by element.
func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if !isSequence(v) {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// mapKey reads key from a mapping value.
// map[string]any takes the fast path; other maps need a string-convertible key type.
func mapKey(v any, key string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		val, found := m[key]
		return val, found
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}

// mapIntKey reads an integer-keyed mapping with key parsed from seg.
func mapIntKey(v any, seg string) (any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	kt := rv.Type().Key()
	key := reflect.New(kt).Elem()
	switch kt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(seg, 10, kt.Bits())
		if err != nil {
			return nil, false
		}
		key.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(seg, 10, kt.Bits())
		if err != nil {
			return nil, false
		}
		key.SetUint(n)
	default:
		return nil, false
	}
	val := rv.MapIndex(key)
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}

// lengthOf returns the length of sequences, mappings and strings.
func lengthOf(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return len(t), true
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}
