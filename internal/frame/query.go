// internal/frame/query.go
package frame

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"

	"github.com/solatis/bamboorules/internal/types"
)

// identifier matches column names that can be bound as CEL variables.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Query implements rules.Querier. expr is a CEL expression over the row's
// columns, each bound as a dynamic variable; rows for which it yields true
// are kept. Columns whose names are not identifiers cannot be referenced.
// A row whose evaluation fails while it has missing cells is dropped, so a
// comparison against a missing value excludes the row.
func (f *Frame) Query(expr string) (any, error) {
	prg, err := f.compile(expr)
	if err != nil {
		return nil, err
	}

	keep := make([]bool, len(f.index))
	for i := range f.index {
		activation := make(map[string]any, len(f.columns))
		missing := false
		for _, c := range f.columns {
			if identifier.MatchString(c) {
				v := f.data[c][i]
				missing = missing || v == nil
				activation[c] = celValue(v)
			}
		}
		out, _, err := prg.Eval(activation)
		if err != nil && missing {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query %q, row %q: %w", expr, f.index[i], err)
		}
		b, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("%w: query %q yields %T, want bool", types.ErrTypeMismatch, expr, out.Value())
		}
		keep[i] = b
	}
	return f.selectRows(func(i int) bool { return keep[i] }), nil
}

func (f *Frame) compile(expr string) (cel.Program, error) {
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for _, c := range f.columns {
		if identifier.MatchString(c) {
			opts = append(opts, cel.Variable(c, cel.DynType))
		}
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating query environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compiling query %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("generating query program %q: %w", expr, err)
	}
	return prg, nil
}

// celValue normalizes decoder-specific values for the CEL type adapter.
func celValue(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case int:
		return int64(n)
	}
	return v
}
