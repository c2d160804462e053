// internal/rules/logical.go
package rules

/*
 * Logical operators.
 *
 * These receive unevaluated operand rules and evaluate them on demand, so
 * a short-circuited branch is never evaluated.
 *
 *   if:   (cond, value)* [else]; nil when nothing matches and no else
 *   ?:    exactly (cond, then, else)
 *   and:  first falsy result, else the last; false with no operands
 *   or:   first truthy result, else the last; false with no operands
 */

// lazyOp receives unevaluated operand rules and evaluates them itself.
type lazyOp func(ev *evaluator, data any, args []any) (any, error)

// logicalOps is populated in init to break the initialization cycle through eval.
var logicalOps map[string]lazyOp

func init() {
	logicalOps = map[string]lazyOp{
		"if":  opIf,
		"?:":  opTernary,
		"and": opAnd,
		"or":  opOr,
	}
}

func opIf(ev *evaluator, data any, args []any) (any, error) {
	i := 0
	for ; i+1 < len(args); i += 2 {
		cond, err := ev.eval(args[i], data)
		if err != nil {
			return nil, err
		}
		ok, err := Truthy(cond)
		if err != nil {
			return nil, err
		}
		if ok {
			return ev.eval(args[i+1], data)
		}
	}
	if i < len(args) {
		return ev.eval(args[i], data)
	}
	return nil, nil
}

func opTernary(ev *evaluator, data any, args []any) (any, error) {
	if err := checkArity("?:", args, 3, 3); err != nil {
		return nil, err
	}
	return opIf(ev, data, args)
}

func opAnd(ev *evaluator, data any, args []any) (any, error) {
	return shortCircuit(ev, data, args, false)
}

func opOr(ev *evaluator, data any, args []any) (any, error) {
	return shortCircuit(ev, data, args, true)
}

// shortCircuit evaluates args in order and stops at the first result whose
// truth value equals stopOn.
func shortCircuit(ev *evaluator, data any, args []any, stopOn bool) (any, error) {
	var current any = false
	for _, arg := range args {
		v, err := ev.eval(arg, data)
		if err != nil {
			return nil, err
		}
		ok, err := Truthy(v)
		if err != nil {
			return nil, err
		}
		current = v
		if ok == stopOn {
			return current, nil
		}
	}
	return current, nil
}
