// internal/rules/scoped.go
package rules

/*
 * Scoped operators: filter, map, reduce, all, none, some.
 *
 * The data operand is evaluated once against the ambient context. Each
 * element then becomes the entire context for one evaluation of the logic
 * operand; the ambient context is not visible inside. reduce exposes
 * {"accumulator", "current"} instead.
 *
 * Non-sequence data: filter and map give [], reduce gives the initial
 * value, all and some give false, none gives true.
 *
 * all stops at the first falsy element and is false for empty input.
 * none and some always evaluate every element through filter.
 */

// scopedOps is populated in init to break the initialization cycle through eval.
var scopedOps map[string]lazyOp

func init() {
	scopedOps = map[string]lazyOp{
		"filter": opFilter,
		"map":    opMap,
		"reduce": opReduce,
		"all":    opAll,
		"none":   opNone,
		"some":   opSome,
	}
}

// scopedSource checks arity and evaluates the data operand.
// Returns false when it is not a sequence.
func scopedSource(ev *evaluator, name string, data any, args []any, hi int) ([]any, bool, error) {
	if err := checkArity(name, args, 2, hi); err != nil {
		return nil, false, err
	}
	src, err := ev.eval(args[0], data)
	if err != nil {
		return nil, false, err
	}
	if !isSequence(src) {
		return nil, false, nil
	}
	xs, _ := toSlice(src)
	return xs, true, nil
}

func filter(ev *evaluator, name string, data any, args []any) ([]any, error) {
	xs, ok, err := scopedSource(ev, name, data, args, 2)
	if err != nil || !ok {
		return []any{}, err
	}
	out := []any{}
	for _, x := range xs {
		v, err := ev.eval(args[1], x)
		if err != nil {
			return nil, err
		}
		keep, err := Truthy(v)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, x)
		}
	}
	return out, nil
}

func opFilter(ev *evaluator, data any, args []any) (any, error) {
	out, err := filter(ev, "filter", data, args)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func opMap(ev *evaluator, data any, args []any) (any, error) {
	xs, ok, err := scopedSource(ev, "map", data, args, 2)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(xs))
	if !ok {
		return out, nil
	}
	for _, x := range xs {
		v, err := ev.eval(args[1], x)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// opReduce folds left to right. The initial operand is used as written.
func opReduce(ev *evaluator, data any, args []any) (any, error) {
	xs, ok, err := scopedSource(ev, "reduce", data, args, 3)
	if err != nil {
		return nil, err
	}
	var acc any
	if len(args) == 3 {
		acc = args[2]
	}
	if !ok {
		return acc, nil
	}
	for _, x := range xs {
		acc, err = ev.eval(args[1], map[string]any{"accumulator": acc, "current": x})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func opAll(ev *evaluator, data any, args []any) (any, error) {
	xs, ok, err := scopedSource(ev, "all", data, args, 2)
	if err != nil {
		return nil, err
	}
	if !ok || len(xs) == 0 {
		return false, nil
	}
	for _, x := range xs {
		v, err := ev.eval(args[1], x)
		if err != nil {
			return nil, err
		}
		t, err := Truthy(v)
		if err != nil {
			return nil, err
		}
		if !t {
			return false, nil
		}
	}
	return true, nil
}

func opNone(ev *evaluator, data any, args []any) (any, error) {
	out, err := filter(ev, "none", data, args)
	if err != nil {
		return nil, err
	}
	return len(out) == 0, nil
}

func opSome(ev *evaluator, data any, args []any) (any, error) {
	out, err := filter(ev, "some", data, args)
	if err != nil {
		return nil, err
	}
	return len(out) > 0, nil
}
