// internal/rules/engine_test.go
package rules

import (
	"errors"
	"reflect"
	"testing"

	"github.com/solatis/bamboorules/internal/types"
)

// rule builds {op: [args...]}.
func rule(op string, args ...any) map[string]any {
	if args == nil {
		args = []any{}
	}
	return map[string]any{op: args}
}

func v(path string) map[string]any {
	return map[string]any{"var": path}
}

type execCase struct {
	name string
	rule any
	data any
	want any
}

func runCases(t *testing.T, e *Engine, tests []execCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Execute(tt.rule, tt.data)
			if err != nil {
				t.Fatalf("Execute() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Execute() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExecute_Literals(t *testing.T) {
	ctx := map[string]any{"a": 1}
	runCases(t, NewEngine(), []execCase{
		{"sequence is returned unevaluated", []any{1, v("a")}, ctx, []any{1, v("a")}},
		{"empty sequence", []any{}, ctx, []any{}},
		{"multi-key mapping", map[string]any{"a": 1, "b": 2}, ctx, map[string]any{"a": 1, "b": 2}},
		{"empty mapping", map[string]any{}, ctx, map[string]any{}},
		{"integer", 5, ctx, 5},
		{"string", "var", ctx, "var"},
		{"nil", nil, ctx, nil},
		{"unary shorthand", map[string]any{"var": "a"}, ctx, 1},
	})
}

func TestExecute_Var(t *testing.T) {
	ctx := map[string]any{
		"a":     map[string]any{"b": []any{10, 20}},
		"list":  []any{1, 2, 3},
		"s":     "héllo",
		"empty": nil,
	}
	runCases(t, NewEngine(), []execCase{
		{"empty path returns context", v(""), ctx, ctx},
		{"no operands returns context", rule("var"), ctx, ctx},
		{"nested index", v("a.b.0"), ctx, 10},
		{"negative index", v("list.-1"), ctx, 3},
		{"rune index into string", v("s.1"), ctx, "é"},
		{"missing key gives nil", v("nope"), ctx, nil},
		{"missing key gives default", rule("var", "a.x", 7), ctx, 7},
		{"index out of range gives default", rule("var", "list.9", "d"), ctx, "d"},
		{"non-numeric index gives default", rule("var", "list.x", "d"), ctx, "d"},
		{"present nil is not defaulted", rule("var", "empty", 5), ctx, nil},
		{"numeric path on sequence context", rule("var", 1), []any{"x", "y"}, "y"},
		{"integral float path", rule("var", 1.0), []any{"x", "y"}, "y"},
		{"nil context becomes empty mapping", v(""), nil, map[string]any{}},
		{"computed path", rule("var", rule("if", true, "a.b.1")), ctx, 20},
	})
}

func TestExecute_Missing(t *testing.T) {
	ctx := map[string]any{"a": 1, "blank": "", "nothing": nil, "deep": map[string]any{"x": 1}}
	runCases(t, NewEngine(), []execCase{
		{"varargs", rule("missing", "a", "b"), ctx, []any{"b"}},
		{"single sequence", rule("missing", []any{"a", "b"}), ctx, []any{"b"}},
		{"empty string counts as missing", rule("missing", "blank"), ctx, []any{"blank"}},
		{"nil counts as missing", rule("missing", "nothing"), ctx, []any{"nothing"}},
		{"duplicates preserved", rule("missing", "b", "b"), ctx, []any{"b", "b"}},
		{"dotted names", rule("missing", "deep.x", "deep.y"), ctx, []any{"deep.y"}},
		{"nothing missing", rule("missing", "a"), ctx, []any{}},
		{"some met", rule("missing_some", 1, []any{"a", "b"}), ctx, []any{}},
		{"some unmet", rule("missing_some", 2, []any{"a", "b", "c"}), ctx, []any{"b", "c"}},
		{"some with zero needed", rule("missing_some", 0, []any{"b"}), ctx, []any{}},
	})
}

func TestExecute_Logical(t *testing.T) {
	runCases(t, NewEngine(), []execCase{
		{"if chain matches second pair", rule("if", false, 1, true, 2, 3), nil, 2},
		{"if falls to else", rule("if", false, 1, 3), nil, 3},
		{"if without else", rule("if", false, 1), nil, nil},
		{"if with no operands", rule("if"), nil, nil},
		{"if with one operand", rule("if", rule("+", 1, 2)), nil, 3},
		{"if with computed condition", rule("if", rule("<", v("n"), 10), "small", "big"), map[string]any{"n": 3}, "small"},
		{"ternary", rule("?:", true, "yes", "no"), nil, "yes"},
		{"ternary else", rule("?:", 0, "yes", "no"), nil, "no"},
		{"and returns first falsy", rule("and", 1, 0, 2), nil, 0},
		{"and returns last truthy", rule("and", 1, "a", 2), nil, 2},
		{"and with no operands", rule("and"), nil, false},
		{"or returns first truthy", rule("or", 0, false, 3), nil, 3},
		{"or returns last falsy", rule("or", 0, ""), nil, ""},
		{"or with no operands", rule("or"), nil, false},
		{"and short-circuits", rule("and", false, rule("not_an_operation")), nil, false},
		{"or short-circuits", rule("or", true, rule("not_an_operation")), nil, true},
		{"if skips untaken branch", rule("if", true, 1, rule("not_an_operation")), nil, 1},
	})
}

func TestExecute_Scoped(t *testing.T) {
	odd := rule("%", v(""), 2)
	sum := rule("+", v("accumulator"), v("current"))
	items := map[string]any{"items": []any{
		map[string]any{"price": 1},
		map[string]any{"price": 2},
	}}
	runCases(t, NewEngine(), []execCase{
		{"filter", rule("filter", []any{1, 2, 3, 4, 5}, odd), nil, []any{1, 3, 5}},
		{"map", rule("map", []any{1, 2, 3}, rule("*", v(""), 2)), nil, []any{2, 4, 6}},
		{"reduce", rule("reduce", []any{1, 2, 3, 4, 5}, sum, 0), nil, 15},
		{"reduce without initial", rule("reduce", []any{"a"}, rule("var", "current")), nil, "a"},
		{"reduce over non-sequence", rule("reduce", "x", sum, 7), nil, 7},
		{"all of empty is false", rule("all", []any{}, rule(">=", v(""), 1)), nil, false},
		{"all true", rule("all", []any{1, 2, 3}, rule(">=", v(""), 1)), nil, true},
		{"all false", rule("all", []any{1, 2, 3}, rule(">=", v(""), 2)), nil, false},
		{"none", rule("none", []any{1, 2, 3}, rule("==", v(""), 10)), nil, true},
		{"some", rule("some", []any{1, 2, 3}, rule("==", v(""), 3)), nil, true},
		{"some of empty", rule("some", []any{}, rule("==", v(""), 3)), nil, false},
		{"filter over non-sequence", rule("filter", 5, odd), nil, []any{}},
		{"map over non-sequence", rule("map", "x", odd), nil, []any{}},
		{"all over non-sequence", rule("all", 5, odd), nil, false},
		{"none over non-sequence", rule("none", 5, odd), nil, true},
		{"data operand reads ambient context", rule("map", v("items"), v("price")), items, []any{1, 2}},
		{"element context hides ambient context", rule("map", v("items"), v("items")), items, []any{nil, nil}},
	})
}

func TestExecute_Comparison(t *testing.T) {
	runCases(t, NewEngine(), []execCase{
		{"less", rule("<", 1, 2), nil, true},
		{"greater", rule(">", 1, 2), nil, false},
		{"less or equal", rule("<=", 2, 2), nil, true},
		{"greater or equal", rule(">=", 1, 2), nil, false},
		{"mixed int and float", rule("<", 1, 1.5), nil, true},
		{"strings", rule("<", "apple", "banana"), nil, true},
		{"sequences", rule("<", []any{1, 2}, []any{1, 3}), nil, true},
		{"equal across numeric types", rule("==", 1, 1.0), nil, true},
		{"bool equals one", rule("==", true, 1), nil, true},
		{"string is not number", rule("==", 1, "1"), nil, false},
		{"nil equals nil", rule("==", nil, nil), nil, true},
		{"sequence equality", rule("==", []any{1, "a"}, []any{1.0, "a"}), nil, true},
		{"strict equal same type", rule("===", 1, 1), nil, true},
		{"strict equal differing types", rule("===", 1, 1.0), nil, false},
		{"not equal", rule("!=", "a", "b"), nil, true},
		{"strict not equal", rule("!==", 1, "1"), nil, true},
		{"strict not equal same", rule("!==", "a", "a"), nil, false},
		{"double negation", rule("!!", []any{}), nil, false},
		{"double negation truthy", rule("!!", "x"), nil, true},
		{"negation", rule("!", 0), nil, true},
		{"negation of mapping", rule("!", v("")), map[string]any{"a": 1}, false},
	})
}

func TestExecute_Arithmetic(t *testing.T) {
	runCases(t, NewEngine(), []execCase{
		{"add ints", rule("+", 1, 2), nil, 3},
		{"add mixed", rule("+", 1, 2.5), nil, 3.5},
		{"add bool", rule("+", true, 1), nil, 2},
		{"concatenate strings", rule("+", "a", "b"), nil, "ab"},
		{"concatenate sequences", rule("+", []any{1}, []any{2}), nil, []any{1, 2}},
		{"negate", rule("-", 5), nil, -5},
		{"negate float", rule("-", 2.5), nil, -2.5},
		{"subtract", rule("-", 5, 3), nil, 2},
		{"multiply", rule("*", 2, 3), nil, 6},
		{"repeat string", rule("*", "ab", 2), nil, "abab"},
		{"repeat string count first", rule("*", 3, "x"), nil, "xxx"},
		{"true division", rule("/", 6, 3), nil, 2.0},
		{"true division fraction", rule("/", 1, 4), nil, 0.25},
		{"floor division", rule("//", 7, 2), nil, 3},
		{"floor division negative", rule("//", -7, 2), nil, -4},
		{"floor division float", rule("//", 7.5, 2), nil, 3.0},
		{"modulo negative dividend", rule("%", -7, 2), nil, 1},
		{"modulo negative divisor", rule("%", 7, -2), nil, -1},
		{"modulo float", rule("%", -1.5, 1), nil, 0.5},
		{"power", rule("**", 2, 10), nil, 1024},
		{"power negative exponent", rule("**", 2, -1), nil, 0.5},
		{"abs", rule("abs", -3), nil, 3},
		{"abs float", rule("abs", -1.5), nil, 1.5},
		{"min of operands", rule("min", 3, 1, 2), nil, 1},
		{"min of sequence", rule("min", []any{3, 1, 2}), nil, 1},
		{"max of operands", rule("max", 1, 5, 3), nil, 5},
		{"max keeps first of ties", rule("max", 1, 5.0, 5), nil, 5.0},
		{"max of strings", rule("max", "a", "c", "b"), nil, "c"},
		{"min_reduce of scalar", rule("min_reduce", 5), nil, nil},
		{"max_reduce of scalar", rule("max_reduce", 5), nil, nil},
		{"nested", rule("*", rule("+", v("a"), 1), 2), map[string]any{"a": 2}, 6},
	})
}

func TestExecute_MethodAndTableHelpers(t *testing.T) {
	ctx := map[string]any{"m": map[string]any{"k": 9}, "s": "  padded  "}
	runCases(t, NewEngine(), []execCase{
		{"method split", rule("method", "a b c", "split"), nil, []any{"a", "b", "c"}},
		{"method split with separator", rule("method", "a,b", "split", []any{","}), nil, []any{"a", "b"}},
		{"method upper", rule("method", "abc", "upper"), nil, "ABC"},
		{"method strip", rule("method", v("s"), "strip"), ctx, "padded"},
		{"method replace", rule("method", "a-b-c", "replace", []any{"-", "+", 1}), nil, "a+b-c"},
		{"method startswith", rule("method", "prefix", "startswith", []any{"pre"}), nil, true},
		{"count truthy operands", rule("count", 1, 0, "x", ""), nil, 2},
		{"get mapping key", rule("get", v("m"), "k"), ctx, 9},
		{"get sequence index", rule("get", []any{10, 20}, 1), nil, 20},
		{"get negative index", rule("get", []any{10, 20}, -1), nil, 20},
	})
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rule    any
		wantErr error
	}{
		{"unrecognized operation", rule("nope"), types.ErrUnrecognizedOperation},
		{"leading dot is not dotted", rule(".nope"), types.ErrUnrecognizedOperation},
		{"binary arity", rule("==", 1), types.ErrArity},
		{"var arity", rule("var", "a", 1, 2), types.ErrArity},
		{"ternary arity", rule("?:", true, 1), types.ErrArity},
		{"scoped arity", rule("filter", []any{1}), types.ErrArity},
		{"missing_some arity", rule("missing_some", 1), types.ErrArity},
		{"min of nothing", rule("min"), types.ErrArity},
		{"division by zero", rule("/", 1, 0), types.ErrDivisionByZero},
		{"floor division by zero", rule("//", 1, 0), types.ErrDivisionByZero},
		{"modulo by zero", rule("%", 1, 0.0), types.ErrDivisionByZero},
		{"ordering mismatch", rule("<", 1, "a"), types.ErrTypeMismatch},
		{"ordering nil", rule("<", nil, 1), types.ErrTypeMismatch},
		{"subtract string", rule("-", "a", 1), types.ErrTypeMismatch},
		{"negate string", rule("-", "a"), types.ErrTypeMismatch},
		{"unknown member", rule("method", "abc", "nope"), types.ErrMemberNotFound},
		{"get missing key", rule("get", rule("var", "m"), "x"), types.ErrLabelNotFound},
		{"query on scalar", rule("query", 1, "a > 1"), types.ErrTypeMismatch},
		{"error inside scoped logic", rule("map", []any{1}, rule("/", 1, 0)), types.ErrDivisionByZero},
		{"error in condition", rule("if", rule("nope"), 1), types.ErrUnrecognizedOperation},
	}

	e := NewEngine()
	ctx := map[string]any{"m": map[string]any{"k": 1}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(tt.rule, ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecute_MaxDepth(t *testing.T) {
	nested := rule("+", rule("+", rule("+", 1, 1), 1), 1)

	_, err := NewEngine(WithMaxDepth(2)).Execute(nested, nil)
	if !errors.Is(err, types.ErrMaxDepth) {
		t.Fatalf("Execute() error = %v, want ErrMaxDepth", err)
	}

	got, err := NewEngine(WithMaxDepth(3)).Execute(nested, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if got != 4 {
		t.Errorf("Execute() = %v, want 4", got)
	}
}

func TestExecute_ScopedDepthUnwinds(t *testing.T) {
	// Each element evaluation returns to the same depth, so long inputs
	// do not accumulate nesting.
	xs := make([]any, 100)
	for i := range xs {
		xs[i] = i
	}
	e := NewEngine(WithMaxDepth(3))
	got, err := e.Execute(rule("map", xs, rule("+", v(""), 1)), nil)
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if n := len(got.([]any)); n != 100 {
		t.Errorf("len = %d, want 100", n)
	}
}

func TestExecute_DoesNotMutateContext(t *testing.T) {
	ctx := map[string]any{"xs": []any{3, 1, 2}, "n": 1}
	e := NewEngine()
	_, err := e.Execute(rule("map", v("xs"), rule("+", v(""), 1)), ctx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := map[string]any{"xs": []any{3, 1, 2}, "n": 1}
	if !reflect.DeepEqual(ctx, want) {
		t.Errorf("context = %v, want %v", ctx, want)
	}
}
