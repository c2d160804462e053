// internal/frame/frame.go
package frame

import (
	"fmt"
	"sort"

	"github.com/solatis/bamboorules/internal/rules"
	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Labeled two-dimensional table.
 *
 * Storage is column-major: every column holds one value per row label.
 *
 * Element-wise operands:
 *   - *Frame: inner join on columns and on row labels, receiver order
 *   - *Series: series labels align against column names
 *   - sequence: one element per column, positional
 *   - scalar: broadcast to every cell
 */

// Frame is a table of named columns sharing row labels.
type Frame struct {
	index   []string
	columns []string
	data    map[string][]any
	pos     map[string]int
}

var (
	_ rules.Table   = (*Frame)(nil)
	_ rules.Querier = (*Frame)(nil)
	_ rules.Indexer = (*Frame)(nil)
)

// NewFrame creates a frame from column data. nil index numbers the rows from "0".
func NewFrame(columns []string, data map[string][]any, index []string) (*Frame, error) {
	rows := len(index)
	if index == nil {
		rows = -1
	}
	for _, c := range columns {
		col, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("%w: no data for column %q", types.ErrShapeMismatch, c)
		}
		if rows < 0 {
			rows = len(col)
		}
		if len(col) != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", types.ErrShapeMismatch, c, len(col), rows)
		}
	}
	if index == nil {
		index = positional(max(rows, 0))
	}
	cols := make(map[string][]any, len(columns))
	for _, c := range columns {
		cols[c] = data[c]
	}
	return newFrame(index, append([]string(nil), columns...), cols), nil
}

func newFrame(index, columns []string, data map[string][]any) *Frame {
	pos := make(map[string]int, len(index))
	for i := len(index) - 1; i >= 0; i-- {
		pos[index[i]] = i
	}
	return &Frame{index: index, columns: columns, data: data, pos: pos}
}

// FromRecords builds a frame from row mappings. Columns are the sorted union
// of keys; a key absent from a record is a missing value.
func FromRecords(records []map[string]any) *Frame {
	seen := make(map[string]bool)
	var columns []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	data := make(map[string][]any, len(columns))
	for _, c := range columns {
		col := make([]any, len(records))
		for i, r := range records {
			col[i] = r[c]
		}
		data[c] = col
	}
	return newFrame(positional(len(records)), columns, data)
}

// Shape implements rules.Table.
func (f *Frame) Shape() (rows, cols int) {
	return len(f.index), len(f.columns)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

// Index returns the row labels in order.
func (f *Frame) Index() []string { return append([]string(nil), f.index...) }

// Column returns the named column as a series labeled by the row index.
func (f *Frame) Column(name string) (*Series, bool) {
	col, ok := f.data[name]
	if !ok {
		return nil, false
	}
	return newSeries(name, f.index, col), true
}

// Records returns one mapping per row.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, len(f.index))
	for i := range f.index {
		row := make(map[string]any, len(f.columns))
		for _, c := range f.columns {
			row[c] = f.data[c][i]
		}
		out[i] = row
	}
	return out
}

// Map returns the frame as column -> row label -> value.
func (f *Frame) Map() map[string]any {
	out := make(map[string]any, len(f.columns))
	for _, c := range f.columns {
		s, _ := f.Column(c)
		out[c] = s.Map()
	}
	return out
}

// eachColumn builds a frame with the same index by transforming every column.
func (f *Frame) eachColumn(fn func(s *Series) (*Series, error)) (*Frame, error) {
	data := make(map[string][]any, len(f.columns))
	for _, c := range f.columns {
		s, _ := f.Column(c)
		out, err := fn(s)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
		data[c] = out.values
	}
	return newFrame(f.index, f.columns, data), nil
}

// Elementwise implements rules.Structure.
func (f *Frame) Elementwise(op rules.ElementOp, other any, reflected bool) (any, error) {
	switch o := other.(type) {
	case *Frame:
		return f.join(op, o, reflected)
	case *Series:
		var columns []string
		data := make(map[string][]any)
		for _, c := range f.columns {
			y, ok := o.At(c)
			if !ok {
				continue
			}
			s, _ := f.Column(c)
			out, err := s.broadcast(op, y, reflected)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", c, err)
			}
			columns = append(columns, c)
			data[c] = out.values
		}
		return newFrame(f.index, columns, data), nil
	case rules.Structure:
		return nil, fmt.Errorf("%w: '%s' between frame and %T", types.ErrTypeMismatch, op, other)
	}

	switch rules.Classify(other) {
	case rules.KindSequence:
		xs := asSlice(other)
		if len(xs) != len(f.columns) {
			return nil, fmt.Errorf("%w: sequence of %d against %d columns", types.ErrShapeMismatch, len(xs), len(f.columns))
		}
		at := make(map[string]any, len(xs))
		for i, c := range f.columns {
			at[c] = xs[i]
		}
		return f.eachColumn(func(s *Series) (*Series, error) {
			return s.broadcast(op, at[s.name], reflected)
		})
	case rules.KindMapping:
		return nil, fmt.Errorf("%w: '%s' between frame and mapping", types.ErrTypeMismatch, op)
	}
	return f.eachColumn(func(s *Series) (*Series, error) {
		return s.broadcast(op, other, reflected)
	})
}

func (f *Frame) join(op rules.ElementOp, o *Frame, reflected bool) (*Frame, error) {
	var index []string
	var rows []int
	for i, l := range f.index {
		if _, ok := o.pos[l]; ok {
			index = append(index, l)
			rows = append(rows, i)
		}
	}

	var columns []string
	data := make(map[string][]any)
	for _, c := range f.columns {
		theirs, ok := o.data[c]
		if !ok {
			continue
		}
		mine := f.data[c]
		col := make([]any, len(rows))
		for j, i := range rows {
			v, err := apply(op, mine[i], theirs[o.pos[f.index[i]]], reflected)
			if err != nil {
				return nil, fmt.Errorf("column %q, label %q: %w", c, f.index[i], err)
			}
			col[j] = v
		}
		columns = append(columns, c)
		data[c] = col
	}
	return newFrame(index, columns, data), nil
}

// Abs implements rules.Structure.
func (f *Frame) Abs() (any, error) {
	return f.eachColumn(func(s *Series) (*Series, error) {
		out, err := s.Abs()
		if err != nil {
			return nil, err
		}
		return out.(*Series), nil
	})
}

// Not implements rules.Structure.
func (f *Frame) Not() (any, error) {
	return f.eachColumn(func(s *Series) (*Series, error) {
		out, err := s.Not()
		if err != nil {
			return nil, err
		}
		return out.(*Series), nil
	})
}

// Min implements rules.Structure: per-column minimum labeled by column.
func (f *Frame) Min() (any, error) {
	return f.reduce(func(s *Series) (any, error) { return s.Min() })
}

// Max implements rules.Structure: per-column maximum labeled by column.
func (f *Frame) Max() (any, error) {
	return f.reduce(func(s *Series) (any, error) { return s.Max() })
}

// Count implements rules.Structure: non-missing values per column.
func (f *Frame) Count() (any, error) {
	return f.reduce(func(s *Series) (any, error) { return s.Count() })
}

func (f *Frame) reduce(fn func(s *Series) (any, error)) (*Series, error) {
	values := make([]any, len(f.columns))
	for i, c := range f.columns {
		s, _ := f.Column(c)
		v, err := fn(s)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
		values[i] = v
	}
	return newSeries("", f.Columns(), values), nil
}

// Get implements rules.Structure. A label selects a column, a sequence of
// labels selects columns, and a boolean mask (series aligned on row labels,
// or a sequence of bools) selects rows.
func (f *Frame) Get(key any) (any, error) {
	if mask, ok := key.(*Series); ok {
		return f.selectRows(func(i int) bool { return maskAt(mask, f.index[i]) }), nil
	}
	if rules.Classify(key) != rules.KindSequence {
		l := label(key)
		s, ok := f.Column(l)
		if !ok {
			return nil, fmt.Errorf("%w: column %q", types.ErrLabelNotFound, l)
		}
		return s, nil
	}

	keys := asSlice(key)
	if bools, ok := boolMask(keys); ok {
		if len(bools) != len(f.index) {
			return nil, fmt.Errorf("%w: mask of %d against %d rows", types.ErrShapeMismatch, len(bools), len(f.index))
		}
		return f.selectRows(func(i int) bool { return bools[i] }), nil
	}
	columns := make([]string, len(keys))
	data := make(map[string][]any, len(keys))
	for i, k := range keys {
		l := label(k)
		col, ok := f.data[l]
		if !ok {
			return nil, fmt.Errorf("%w: column %q", types.ErrLabelNotFound, l)
		}
		columns[i] = l
		data[l] = col
	}
	return newFrame(f.index, columns, data), nil
}

func (f *Frame) selectRows(keep func(i int) bool) *Frame {
	var index []string
	var rows []int
	for i, l := range f.index {
		if keep(i) {
			index = append(index, l)
			rows = append(rows, i)
		}
	}
	data := make(map[string][]any, len(f.columns))
	for _, c := range f.columns {
		col := make([]any, len(rows))
		for j, i := range rows {
			col[j] = f.data[c][i]
		}
		data[c] = col
	}
	return newFrame(index, f.columns, data)
}

// SetIndex implements rules.Indexer: the column's values become row labels.
func (f *Frame) SetIndex(column string) (any, error) {
	col, ok := f.data[column]
	if !ok {
		return nil, fmt.Errorf("%w: column %q", types.ErrLabelNotFound, column)
	}
	index := make([]string, len(col))
	for i, v := range col {
		index[i] = label(v)
	}
	columns := make([]string, 0, len(f.columns)-1)
	data := make(map[string][]any, len(f.columns)-1)
	for _, c := range f.columns {
		if c != column {
			columns = append(columns, c)
			data[c] = f.data[c]
		}
	}
	return newFrame(index, columns, data), nil
}
