// internal/rules/variables.go
package rules

import (
	"strconv"
	"strings"
)

/*
 * Variable resolution against the data context.
 *
 * Path syntax: dot-separated segments, e.g. "user.addresses.0.city".
 * Numeric path operands are formatted first, so {"var": 1} reads index 1.
 *
 * Per segment, lookups are tried in order:
 *   - Structure: Get(segment)
 *   - Mapping: key access
 *   - Sequence: integer index, negative counts from the end
 *   - String: integer rune index
 *
 * Any failed segment yields the caller's default. A present key holding nil
 * resolves to nil, not to the default.
 */

// dataOp receives the data context along with evaluated operands.
type dataOp func(data any, args []any) (any, error)

// Resolve reads a dotted path from data.
// Returns false when any segment fails to resolve.
func Resolve(data any, path string) (any, bool) {
	cur := data
	for _, seg := range strings.Split(path, ".") {
		next, ok := lookupSegment(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func lookupSegment(v any, seg string) (any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.(Structure); ok {
		out, err := s.Get(seg)
		return out, err == nil
	}
	if isMapping(v) {
		if out, ok := mapKey(v, seg); ok {
			return out, true
		}
		return mapIntKey(v, seg)
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return nil, false
	}
	if s, ok := v.(string); ok {
		runes := []rune(s)
		if i, ok := normalizeIndex(idx, len(runes)); ok {
			return string(runes[i]), true
		}
		return nil, false
	}
	xs, ok := toSlice(v)
	if !ok {
		return nil, false
	}
	if i, ok := normalizeIndex(idx, len(xs)); ok {
		return xs[i], true
	}
	return nil, false
}

// normalizeIndex maps a possibly negative index onto [0, n).
func normalizeIndex(idx, n int) (int, bool) {
	if idx < 0 {
		idx += n
	}
	return idx, idx >= 0 && idx < n
}

func opVar(data any, args []any) (any, error) {
	if err := checkArity("var", args, 0, 2); err != nil {
		return nil, err
	}
	var path, def any
	if len(args) > 0 {
		path = args[0]
	}
	if len(args) > 1 {
		def = args[1]
	}
	if path == nil || path == "" {
		return data, nil
	}
	if v, ok := Resolve(data, formatSegment(path)); ok {
		return v, nil
	}
	return def, nil
}

// missingNames returns the names whose value is absent, nil or "".
func missingNames(data any, names []any) []any {
	out := []any{}
	for _, name := range names {
		if name == nil || name == "" {
			if data == nil || data == "" {
				out = append(out, name)
			}
			continue
		}
		v, ok := Resolve(data, formatSegment(name))
		if !ok || v == nil || v == "" {
			out = append(out, name)
		}
	}
	return out
}

func opMissing(data any, args []any) (any, error) {
	names := args
	if len(args) > 0 {
		if xs, ok := toSlice(args[0]); ok {
			names = xs
		}
	}
	return missingNames(data, names), nil
}

func opMissingSome(data any, args []any) (any, error) {
	if err := checkArity("missing_some", args, 2, 2); err != nil {
		return nil, err
	}
	need, ok := toNumber(args[0])
	if !ok {
		return nil, mismatch("missing_some", args[0], args[1])
	}
	names, ok := toSlice(args[1])
	if !ok {
		return nil, mismatch("missing_some", args[0], args[1])
	}
	missing := missingNames(data, names)
	if float64(len(names)-len(missing)) >= need.float() {
		return []any{}, nil
	}
	return missing, nil
}

// dataOps receive the data context in addition to their operands.
var dataOps = map[string]dataOp{
	"var":          opVar,
	"missing":      opMissing,
	"missing_some": opMissingSome,
}
