// internal/rules/members.go
package rules

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Host values: callables and member resolution.
 *
 * Callable forms, always recognized:
 *   - Function
 *   - func(...any) (any, error)
 *   - func(...any) any
 *
 * Members are resolved in order:
 *   1. Object.Member
 *   2. Built-in string members (split, upper, lower, strip, startswith,
 *      endswith, replace)
 *   3. Reflection, when the engine enables it: exported method or field by
 *      exact name, then with the first letter upper-cased
 *
 * With reflection enabled any Go func value is callable. Without it, other
 * func values fail with ErrNotInvocable. Arguments are
 * passed when assignable, or converted between numeric kinds; results may
 * be (), (T), (error) or (T, error).
 */

// Function is the native signature for custom operations.
type Function func(args ...any) (any, error)

// Object is implemented by host values that expose named members to the
// method operator and to dotted operation names. A member that is callable
// is invoked with the operands, anything else is returned as a value.
type Object interface {
	Member(name string) (any, error)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func isCallable(v any, allowReflection bool) bool {
	switch v.(type) {
	case Function, func(...any) (any, error), func(...any) any:
		return true
	case nil:
		return false
	}
	return allowReflection && reflect.TypeOf(v).Kind() == reflect.Func && !reflect.ValueOf(v).IsNil()
}

// callValue invokes v with args when it is callable and returns it otherwise.
// A Go func that needs reflection to be called is an error rather than a value.
func callValue(v any, args []any, allowReflection bool) (any, error) {
	if isCallable(v, allowReflection) {
		return invoke(v, args, allowReflection)
	}
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		return nil, fmt.Errorf("%w: %s requires reflection to be enabled", types.ErrNotInvocable, typeName(v))
	}
	return v, nil
}

// invoke calls fn with args.
func invoke(fn any, args []any, allowReflection bool) (any, error) {
	switch f := fn.(type) {
	case Function:
		return f(args...)
	case func(...any) (any, error):
		return f(args...)
	case func(...any) any:
		return f(args...), nil
	}
	if !allowReflection || !isCallable(fn, true) {
		return nil, fmt.Errorf("%w: %s", types.ErrNotInvocable, typeName(fn))
	}
	return invokeReflect(reflect.ValueOf(fn), args)
}

func invokeReflect(fn reflect.Value, args []any) (any, error) {
	t := fn.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: function takes at least %d, got %d", types.ErrArity, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: function takes %d, got %d", types.ErrArity, fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if i < fixed {
			want = t.In(i)
		} else {
			want = t.In(fixed).Elem()
		}
		v, err := convertArg(arg, want)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	out := fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	case 2:
		if t.Out(1) == errorType {
			return out[0].Interface(), asError(out[1])
		}
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch want.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", types.ErrTypeMismatch, want)
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if isNumericKind(v.Kind()) && isNumericKind(want.Kind()) {
		return v.Convert(want), nil
	}
	if want.Kind() == reflect.Slice {
		if xs, ok := toSlice(arg); ok {
			out := reflect.MakeSlice(want, len(xs), len(xs))
			for i, x := range xs {
				ev, err := convertArg(x, want.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: %s for %s", types.ErrTypeMismatch, v.Type(), want)
}

func isNumericKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// resolveMember looks up name on obj.
func resolveMember(obj any, name string, allowReflection bool) (any, error) {
	if o, ok := obj.(Object); ok {
		return o.Member(name)
	}
	if s, ok := obj.(string); ok {
		if m, ok := stringMember(s, name); ok {
			return m, nil
		}
	}
	if allowReflection && obj != nil {
		if m, ok := reflectMember(reflect.ValueOf(obj), name); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no member %q", types.ErrMemberNotFound, typeName(obj), name)
}

func reflectMember(v reflect.Value, name string) (any, bool) {
	candidates := []string{name}
	if r, size := utf8.DecodeRuneInString(name); unicode.IsLower(r) {
		candidates = append(candidates, string(unicode.ToUpper(r))+name[size:])
	}

	for _, c := range candidates {
		if m := v.MethodByName(c); m.IsValid() {
			return m.Interface(), true
		}
	}

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	for _, c := range candidates {
		sf, ok := v.Type().FieldByName(c)
		if ok && sf.IsExported() {
			return v.FieldByIndex(sf.Index).Interface(), true
		}
	}
	return nil, false
}

// stringMember exposes a small set of string methods.
func stringMember(s, name string) (Function, bool) {
	switch name {
	case "upper":
		return func(args ...any) (any, error) { return strings.ToUpper(s), nil }, true
	case "lower":
		return func(args ...any) (any, error) { return strings.ToLower(s), nil }, true
	case "strip":
		return func(args ...any) (any, error) {
			if len(args) > 0 && args[0] != nil {
				return strings.Trim(s, fmtValue(args[0])), nil
			}
			return strings.TrimSpace(s), nil
		}, true
	case "split":
		return func(args ...any) (any, error) {
			var parts []string
			if len(args) > 0 && args[0] != nil {
				parts = strings.Split(s, fmtValue(args[0]))
			} else {
				parts = strings.Fields(s)
			}
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		}, true
	case "startswith":
		return func(args ...any) (any, error) {
			if err := checkArity("startswith", args, 1, 1); err != nil {
				return nil, err
			}
			return strings.HasPrefix(s, fmtValue(args[0])), nil
		}, true
	case "endswith":
		return func(args ...any) (any, error) {
			if err := checkArity("endswith", args, 1, 1); err != nil {
				return nil, err
			}
			return strings.HasSuffix(s, fmtValue(args[0])), nil
		}, true
	case "replace":
		return func(args ...any) (any, error) {
			if err := checkArity("replace", args, 2, 3); err != nil {
				return nil, err
			}
			n := -1
			if len(args) == 3 {
				c, ok := toInt(args[2])
				if !ok {
					return nil, fmt.Errorf("%w: replace count %s", types.ErrTypeMismatch, typeName(args[2]))
				}
				n = c
			}
			return strings.Replace(s, fmtValue(args[0]), fmtValue(args[1]), n), nil
		}, true
	}
	return nil, false
}
