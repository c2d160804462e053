// internal/rules/operators.go
package rules

import (
	"fmt"
	"reflect"

	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Polymorphic operator library.
 *
 * Every binary operator follows the same three-way dispatch:
 *   1. Left operand owns the operation: a table with a broadcastable right
 *      side, or a vector with a vector/scalar right side. Delegate to
 *      left.Elementwise(op, right, false).
 *   2. Right operand owns it under the mirrored test. Comparisons swap the
 *      operator (< becomes >) and arithmetic passes reflected=true.
 *      Equality stays == since it is symmetric.
 *   3. Otherwise apply the primitive: a Structure on either side still
 *      receives the call, plain operands go through ApplyScalar.
 *
 * Comparisons broadcast tables against tables, vectors and sequences.
 * Arithmetic additionally broadcasts tables against scalars.
 *
 * > and >= are < and <= with swapped operands on every branch.
 */

// eagerOp receives operands that have already been evaluated.
type eagerOp func(ev *evaluator, args []any) (any, error)

func ownsComparison(a, b any) bool {
	return (isTable(a) && isTableVectorOrSequence(b)) || (isVector(a) && isVectorOrScalar(b))
}

func ownsArithmetic(a, b any) bool {
	return (isTable(a) && isTableVectorSequenceOrScalar(b)) || (isVector(a) && isVectorOrScalar(b))
}

func elementwise(owns func(a, b any) bool, op, mirrored ElementOp, reflected bool, a, b any) (any, error) {
	switch {
	case owns(a, b):
		return a.(Structure).Elementwise(op, b, false)
	case owns(b, a):
		return b.(Structure).Elementwise(mirrored, a, reflected)
	}
	if s, ok := a.(Structure); ok {
		return s.Elementwise(op, b, false)
	}
	if s, ok := b.(Structure); ok {
		return s.Elementwise(mirrored, a, reflected)
	}
	return ApplyScalar(op, a, b)
}

func equalTo(a, b any) (any, error) {
	return elementwise(ownsComparison, ElemEq, ElemEq, false, a, b)
}

func strictEqualTo(a, b any) (any, error) {
	if !sameType(a, b) {
		return false, nil
	}
	return equalTo(a, b)
}

func lessThan(a, b any) (any, error) {
	return elementwise(ownsComparison, ElemLt, ElemGt, false, a, b)
}

func lessThanOrEqual(a, b any) (any, error) {
	return elementwise(ownsComparison, ElemLe, ElemGe, false, a, b)
}

func arithmetic(op ElementOp) func(a, b any) (any, error) {
	return func(a, b any) (any, error) {
		return elementwise(ownsArithmetic, op, op, true, a, b)
	}
}

// Truthy reports the truth value of v. Falsy values are nil, false, numeric
// zero, the empty string, empty sequences and mappings, and nil pointers.
// Vectors and tables have no single truth value.
func Truthy(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case string:
		return t != "", nil
	case []any:
		return len(t) > 0, nil
	case map[string]any:
		return len(t) > 0, nil
	case Structure:
		return false, fmt.Errorf("%w: %s", types.ErrAmbiguousTruth, typeName(v))
	}
	if n, ok := toNumber(v); ok {
		return !n.isZero(), nil
	}
	if n, ok := lengthOf(v); ok {
		return n > 0, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil(), nil
	}
	return true, nil
}

// not negates a truth value or, for a boolean mask, each of its elements.
func not(v any) (any, error) {
	if s, ok := v.(Structure); ok {
		return s.Not()
	}
	t, err := Truthy(v)
	if err != nil {
		return nil, err
	}
	return !t, nil
}

func binary(name string, fn func(a, b any) (any, error)) eagerOp {
	return func(_ *evaluator, args []any) (any, error) {
		if err := checkArity(name, args, 2, 2); err != nil {
			return nil, err
		}
		return fn(args[0], args[1])
	}
}

func swapped(fn func(a, b any) (any, error)) func(a, b any) (any, error) {
	return func(a, b any) (any, error) { return fn(b, a) }
}

func negated(fn func(a, b any) (any, error)) func(a, b any) (any, error) {
	return func(a, b any) (any, error) {
		r, err := fn(a, b)
		if err != nil {
			return nil, err
		}
		return not(r)
	}
}

func opTruthy(_ *evaluator, args []any) (any, error) {
	if err := checkArity("!!", args, 1, 1); err != nil {
		return nil, err
	}
	return Truthy(args[0])
}

func opNot(_ *evaluator, args []any) (any, error) {
	if err := checkArity("!", args, 1, 1); err != nil {
		return nil, err
	}
	t, err := Truthy(args[0])
	if err != nil {
		return nil, err
	}
	return !t, nil
}

// opSub is binary subtraction, or negation with a single operand.
func opSub(_ *evaluator, args []any) (any, error) {
	if err := checkArity("-", args, 1, 2); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if s, ok := args[0].(Structure); ok {
			return s.Elementwise(ElemSub, 0, true)
		}
		return negate(args[0])
	}
	return arithmetic(ElemSub)(args[0], args[1])
}

func opAbs(_ *evaluator, args []any) (any, error) {
	if err := checkArity("abs", args, 1, 1); err != nil {
		return nil, err
	}
	if s, ok := args[0].(Structure); ok {
		return s.Abs()
	}
	return AbsScalar(args[0])
}

// extremum returns the first element x of the candidates for which no later
// element y satisfies better(y, x).
func extremum(name string, args []any, better func(a, b any) (any, error)) (any, error) {
	items := args
	if len(args) == 1 {
		if xs, ok := toSlice(args[0]); ok {
			items = xs
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s of an empty sequence", types.ErrArity, name)
	}
	best := items[0]
	for _, x := range items[1:] {
		r, err := better(x, best)
		if err != nil {
			return nil, err
		}
		ok, err := Truthy(r)
		if err != nil {
			return nil, err
		}
		if ok {
			best = x
		}
	}
	return best, nil
}

func opMin(_ *evaluator, args []any) (any, error) {
	return extremum("min", args, lessThan)
}

func opMax(_ *evaluator, args []any) (any, error) {
	return extremum("max", args, swapped(lessThan))
}

func opMinReduce(_ *evaluator, args []any) (any, error) {
	if err := checkArity("min_reduce", args, 1, 1); err != nil {
		return nil, err
	}
	if s, ok := args[0].(Structure); ok {
		return s.Min()
	}
	return nil, nil
}

func opMaxReduce(_ *evaluator, args []any) (any, error) {
	if err := checkArity("max_reduce", args, 1, 1); err != nil {
		return nil, err
	}
	if s, ok := args[0].(Structure); ok {
		return s.Max()
	}
	return nil, nil
}

// opMethod resolves a member of a host value and calls it when it is
// callable, otherwise returns it as a property value.
func opMethod(ev *evaluator, args []any) (any, error) {
	if err := checkArity("method", args, 2, 3); err != nil {
		return nil, err
	}
	name, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: method name must be a string, got %s", types.ErrTypeMismatch, typeName(args[1]))
	}
	var callArgs []any
	if len(args) == 3 && args[2] != nil {
		callArgs, ok = toSlice(args[2])
		if !ok {
			return nil, fmt.Errorf("%w: method arguments must be a sequence, got %s", types.ErrTypeMismatch, typeName(args[2]))
		}
	}

	reflection := ev.engine.allowReflection
	member, err := resolveMember(args[0], name, reflection)
	if err != nil {
		return nil, err
	}
	return callValue(member, callArgs, reflection)
}

// commonOps holds the comparison, arithmetic and reduction operators.
var commonOps = map[string]eagerOp{
	"==":         binary("==", equalTo),
	"===":        binary("===", strictEqualTo),
	"!=":         binary("!=", negated(equalTo)),
	"!==":        binary("!==", negated(strictEqualTo)),
	"<":          binary("<", lessThan),
	"<=":         binary("<=", lessThanOrEqual),
	">":          binary(">", swapped(lessThan)),
	">=":         binary(">=", swapped(lessThanOrEqual)),
	"!!":         opTruthy,
	"!":          opNot,
	"+":          binary("+", arithmetic(ElemAdd)),
	"-":          opSub,
	"*":          binary("*", arithmetic(ElemMul)),
	"/":          binary("/", arithmetic(ElemTrueDiv)),
	"//":         binary("//", arithmetic(ElemFloorDiv)),
	"%":          binary("%", arithmetic(ElemMod)),
	"**":         binary("**", arithmetic(ElemPow)),
	"abs":        opAbs,
	"min":        opMin,
	"min_reduce": opMinReduce,
	"max":        opMax,
	"max_reduce": opMaxReduce,
	"method":     opMethod,
}
