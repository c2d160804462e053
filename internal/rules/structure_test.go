// internal/rules/structure_test.go
package rules_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/solatis/bamboorules/internal/frame"
	"github.com/solatis/bamboorules/internal/rules"
	"github.com/solatis/bamboorules/internal/types"
)

func op(name string, args ...any) map[string]any {
	return map[string]any{name: args}
}

func ref(path string) map[string]any {
	return map[string]any{"var": path}
}

func mustSeries(t *testing.T, labels []string, values ...any) *frame.Series {
	t.Helper()
	s, err := frame.NewSeries("x", labels, values)
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}
	return s
}

func prices(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.NewFrame(
		[]string{"sku", "price", "qty"},
		map[string][]any{
			"sku":   {"a1", "b2", "c3"},
			"price": {1.5, 4.0, -2.0},
			"qty":   {3, nil, 7},
		},
		nil,
	)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	return f
}

func TestStructure_VectorDispatch(t *testing.T) {
	s := mustSeries(t, []string{"a", "b", "c"}, 1, 5, 3)
	data := map[string]any{"s": s}

	tests := []struct {
		name string
		rule any
		want []any
	}{
		{"vector greater than scalar", op(">", ref("s"), 2), []any{false, true, true}},
		{"scalar less than vector mirrors", op("<", 2, ref("s")), []any{false, true, true}},
		{"scalar greater or equal mirrors", op(">=", 3, ref("s")), []any{true, false, true}},
		{"equality", op("==", ref("s"), 5), []any{false, true, false}},
		{"equality from the right", op("==", 5, ref("s")), []any{false, true, false}},
		{"negated equality is element-wise", op("!=", ref("s"), 5), []any{true, false, true}},
		{"reflected subtraction", op("-", 10, ref("s")), []any{9, 5, 7}},
		{"reflected division", op("/", 15, ref("s")), []any{15.0, 3.0, 5.0}},
		{"vector plus vector", op("+", ref("s"), ref("s")), []any{2, 10, 6}},
		{"vector times sequence", op("*", ref("s"), []any{1, 2, 3}), []any{1, 10, 9}},
		{"unary minus", op("-", ref("s")), []any{-1, -5, -3}},
		{"absolute value", op("abs", op("-", ref("s"))), []any{1, 5, 3}},
		{"mask selection", op("get", ref("s"), op(">", ref("s"), 2)), []any{5, 3}},
		{"label list selection", op("get", ref("s"), []any{"c", "a"}), []any{3, 1}},
	}

	e := rules.NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Execute(tt.rule, data)
			if err != nil {
				t.Fatalf("Execute() error = %v, want nil", err)
			}
			series, ok := got.(*frame.Series)
			if !ok {
				t.Fatalf("Execute() = %T, want *frame.Series", got)
			}
			if !reflect.DeepEqual(series.Values(), tt.want) {
				t.Errorf("values = %v, want %v", series.Values(), tt.want)
			}
		})
	}
}

func TestStructure_Reductions(t *testing.T) {
	s := mustSeries(t, nil, 4, nil, -2, 9)
	data := map[string]any{"s": s, "df": prices(t)}
	e := rules.NewEngine()

	tests := []struct {
		name string
		rule any
		want any
	}{
		{"min_reduce", op("min_reduce", ref("s")), -2},
		{"max_reduce", op("max_reduce", ref("s")), 9},
		{"count skips missing", op("count", ref("s")), 3},
		{"label access through var", ref("s.3"), 9},
		{"frame cell through var", ref("df.price.1"), 4.0},
		{"comparison against reduction", op(">", op("max_reduce", ref("s")), 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Execute(tt.rule, data)
			if err != nil {
				t.Fatalf("Execute() error = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("Execute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStructure_TableOperations(t *testing.T) {
	e := rules.NewEngine()
	data := map[string]any{"df": prices(t)}

	t.Run("query keeps matching rows", func(t *testing.T) {
		got, err := e.Execute(op("query", ref("df"), "price > 1.0"), data)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		f := got.(*frame.Frame)
		if rows, _ := f.Shape(); rows != 2 {
			t.Errorf("rows = %d, want 2", rows)
		}
		if !reflect.DeepEqual(f.Index(), []string{"0", "1"}) {
			t.Errorf("index = %v, want [0 1]", f.Index())
		}
	})

	t.Run("set_index promotes column", func(t *testing.T) {
		got, err := e.Execute(op("set_index", ref("df"), "sku"), data)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		f := got.(*frame.Frame)
		if !reflect.DeepEqual(f.Index(), []string{"a1", "b2", "c3"}) {
			t.Errorf("index = %v", f.Index())
		}
		if !reflect.DeepEqual(f.Columns(), []string{"price", "qty"}) {
			t.Errorf("columns = %v", f.Columns())
		}
	})

	t.Run("row mask from column comparison", func(t *testing.T) {
		rule := op("get", ref("df"), op(">", op("get", ref("df"), "price"), 0))
		got, err := e.Execute(rule, data)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if rows, cols := got.(*frame.Frame).Shape(); rows != 2 || cols != 3 {
			t.Errorf("shape = (%d, %d), want (2, 3)", rows, cols)
		}
	})

	t.Run("per-column reduction", func(t *testing.T) {
		got, err := e.Execute(op("max_reduce", op("get", ref("df"), []any{"price", "qty"})), data)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		want := map[string]any{"price": 4.0, "qty": 7}
		if m := got.(*frame.Series).Map(); !reflect.DeepEqual(m, want) {
			t.Errorf("max_reduce = %v, want %v", m, want)
		}
	})

	t.Run("frame arithmetic with scalar", func(t *testing.T) {
		got, err := e.Execute(op("*", 2, op("get", ref("df"), []any{"qty"})), data)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		col, _ := got.(*frame.Frame).Column("qty")
		if want := []any{6, nil, 14}; !reflect.DeepEqual(col.Values(), want) {
			t.Errorf("qty = %v, want %v", col.Values(), want)
		}
	})

	t.Run("structure as context", func(t *testing.T) {
		got, err := e.Execute(ref("price.2"), prices(t))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if got != -2.0 {
			t.Errorf("Execute() = %v, want -2", got)
		}
	})
}

func TestStructure_AmbiguousTruth(t *testing.T) {
	data := map[string]any{"s": mustSeries(t, nil, 1, 2)}
	e := rules.NewEngine()

	tests := []struct {
		name string
		rule any
	}{
		{"double negation", op("!!", ref("s"))},
		{"if condition", op("if", ref("s"), 1, 2)},
		{"and operand", op("and", ref("s"), true)},
		{"count among other operands", op("count", ref("s"), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(tt.rule, data)
			if !errors.Is(err, types.ErrAmbiguousTruth) {
				t.Errorf("Execute() error = %v, want ErrAmbiguousTruth", err)
			}
		})
	}
}
