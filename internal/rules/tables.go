// internal/rules/tables.go
package rules

import (
	"fmt"

	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Table helpers outside the core logic format: count, get, query, set_index.
 * They run after the common operators and before dotted resolution.
 */

func opCount(_ *evaluator, args []any) (any, error) {
	if len(args) == 1 {
		if s, ok := args[0].(Structure); ok {
			return s.Count()
		}
	}
	n := 0
	for _, a := range args {
		t, err := Truthy(a)
		if err != nil {
			return nil, err
		}
		if t {
			n++
		}
	}
	return n, nil
}

// opGet indexes a structure, mapping, sequence or string.
// Unlike var, a failed lookup is an error.
func opGet(_ *evaluator, args []any) (any, error) {
	if err := checkArity("get", args, 2, 2); err != nil {
		return nil, err
	}
	obj, key := args[0], args[1]
	if s, ok := obj.(Structure); ok {
		return s.Get(key)
	}
	if isMapping(obj) {
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: mapping key must be a string, got %s", types.ErrTypeMismatch, typeName(key))
		}
		if v, found := mapKey(obj, k); found {
			return v, nil
		}
		return nil, fmt.Errorf("%w: %q", types.ErrLabelNotFound, k)
	}
	if _, isSeq := toSlice(obj); isSeq || isString(obj) {
		idx, ok := toInt(key)
		if !ok {
			return nil, fmt.Errorf("%w: index must be an integer, got %s", types.ErrTypeMismatch, typeName(key))
		}
		if v, found := lookupSegment(obj, fmt.Sprint(idx)); found {
			return v, nil
		}
		return nil, fmt.Errorf("%w: index %d out of range", types.ErrLabelNotFound, idx)
	}
	return nil, fmt.Errorf("%w: get on %s", types.ErrTypeMismatch, typeName(obj))
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func opQuery(_ *evaluator, args []any) (any, error) {
	if err := checkArity("query", args, 2, 2); err != nil {
		return nil, err
	}
	q, ok := args[0].(Querier)
	if !ok {
		return nil, fmt.Errorf("%w: query on %s", types.ErrTypeMismatch, typeName(args[0]))
	}
	expr, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: query expression must be a string, got %s", types.ErrTypeMismatch, typeName(args[1]))
	}
	return q.Query(expr)
}

func opSetIndex(_ *evaluator, args []any) (any, error) {
	if err := checkArity("set_index", args, 2, 2); err != nil {
		return nil, err
	}
	ix, ok := args[0].(Indexer)
	if !ok {
		return nil, fmt.Errorf("%w: set_index on %s", types.ErrTypeMismatch, typeName(args[0]))
	}
	return ix.SetIndex(formatSegment(args[1]))
}

// tableOps run after commonOps.
var tableOps = map[string]eagerOp{
	"count":     opCount,
	"get":       opGet,
	"query":     opQuery,
	"set_index": opSetIndex,
}
