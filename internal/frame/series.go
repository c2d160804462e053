// internal/frame/series.go
package frame

import (
	"fmt"
	"strconv"

	"github.com/solatis/bamboorules/internal/rules"
	"github.com/solatis/bamboorules/internal/types"
)

// Series is a labeled one-dimensional column of values.
// nil marks a missing value. Series values are never mutated after construction.
type Series struct {
	name   string
	labels []string
	values []any
	pos    map[string]int
}

var _ rules.Vector = (*Series)(nil)

// NewSeries creates a series. nil labels number the values from "0".
func NewSeries(name string, labels []string, values []any) (*Series, error) {
	if labels == nil {
		labels = positional(len(values))
	}
	if len(labels) != len(values) {
		return nil, fmt.Errorf("%w: %d labels for %d values", types.ErrShapeMismatch, len(labels), len(values))
	}
	return newSeries(name, labels, values), nil
}

func newSeries(name string, labels []string, values []any) *Series {
	pos := make(map[string]int, len(labels))
	for i := len(labels) - 1; i >= 0; i-- {
		pos[labels[i]] = i
	}
	return &Series{name: name, labels: labels, values: values, pos: pos}
}

func positional(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Labels returns the labels in order.
func (s *Series) Labels() []string { return append([]string(nil), s.labels...) }

// Values returns the values in label order.
func (s *Series) Values() []any { return append([]any(nil), s.values...) }

// Len returns the number of elements.
func (s *Series) Len() int { return len(s.values) }

// At returns the value for label.
func (s *Series) At(label string) (any, bool) {
	i, ok := s.pos[label]
	if !ok {
		return nil, false
	}
	return s.values[i], true
}

// Map returns the series as label -> value.
func (s *Series) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for i, l := range s.labels {
		out[l] = s.values[i]
	}
	return out
}

func (s *Series) withValues(values []any) *Series {
	return newSeries(s.name, s.labels, values)
}

// Elementwise implements rules.Structure.
func (s *Series) Elementwise(op rules.ElementOp, other any, reflected bool) (any, error) {
	switch o := other.(type) {
	case *Series:
		return s.join(op, o, reflected)
	case *Frame:
		if op.IsComparison() {
			return o.Elementwise(mirror(op), s, false)
		}
		return o.Elementwise(op, s, !reflected)
	case rules.Structure:
		return nil, fmt.Errorf("%w: '%s' between series and %T", types.ErrTypeMismatch, op, other)
	}

	switch rules.Classify(other) {
	case rules.KindSequence:
		xs := asSlice(other)
		if len(xs) != len(s.values) {
			return nil, fmt.Errorf("%w: sequence of %d against series of %d", types.ErrShapeMismatch, len(xs), len(s.values))
		}
		out := make([]any, len(s.values))
		for i, x := range s.values {
			v, err := apply(op, x, xs[i], reflected)
			if err != nil {
				return nil, fmt.Errorf("label %q: %w", s.labels[i], err)
			}
			out[i] = v
		}
		return s.withValues(out), nil
	case rules.KindMapping:
		return nil, fmt.Errorf("%w: '%s' between series and mapping", types.ErrTypeMismatch, op)
	}
	return s.broadcast(op, other, reflected)
}

func (s *Series) broadcast(op rules.ElementOp, scalar any, reflected bool) (*Series, error) {
	out := make([]any, len(s.values))
	for i, x := range s.values {
		v, err := apply(op, x, scalar, reflected)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", s.labels[i], err)
		}
		out[i] = v
	}
	return s.withValues(out), nil
}

// join applies op over the labels both series share, in receiver order.
func (s *Series) join(op rules.ElementOp, o *Series, reflected bool) (*Series, error) {
	labels := make([]string, 0, len(s.labels))
	values := make([]any, 0, len(s.values))
	for i, l := range s.labels {
		y, ok := o.At(l)
		if !ok {
			continue
		}
		v, err := apply(op, s.values[i], y, reflected)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", l, err)
		}
		labels = append(labels, l)
		values = append(values, v)
	}
	return newSeries(s.name, labels, values), nil
}

// Abs implements rules.Structure.
func (s *Series) Abs() (any, error) {
	out := make([]any, len(s.values))
	for i, x := range s.values {
		if x == nil {
			continue
		}
		v, err := rules.AbsScalar(x)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", s.labels[i], err)
		}
		out[i] = v
	}
	return s.withValues(out), nil
}

// Min implements rules.Structure. Missing values are skipped.
func (s *Series) Min() (any, error) {
	return extremum(s.values, rules.ElemLt)
}

// Max implements rules.Structure. Missing values are skipped.
func (s *Series) Max() (any, error) {
	return extremum(s.values, rules.ElemGt)
}

// Count implements rules.Structure.
func (s *Series) Count() (any, error) {
	return countPresent(s.values), nil
}

// Not implements rules.Structure.
func (s *Series) Not() (any, error) {
	out := make([]any, len(s.values))
	for i, x := range s.values {
		if x == nil {
			continue
		}
		t, err := rules.Truthy(x)
		if err != nil {
			return nil, err
		}
		out[i] = !t
	}
	return s.withValues(out), nil
}

// Get implements rules.Structure. key is a label, a sequence of labels, or
// a boolean mask given as a series or as a sequence of bools.
func (s *Series) Get(key any) (any, error) {
	if mask, ok := key.(*Series); ok {
		return s.selectWhere(func(i int) bool { return maskAt(mask, s.labels[i]) }), nil
	}
	if rules.Classify(key) != rules.KindSequence {
		l := label(key)
		v, ok := s.At(l)
		if !ok {
			return nil, fmt.Errorf("%w: %q", types.ErrLabelNotFound, l)
		}
		return v, nil
	}

	keys := asSlice(key)
	if bools, ok := boolMask(keys); ok {
		if len(bools) != len(s.values) {
			return nil, fmt.Errorf("%w: mask of %d against series of %d", types.ErrShapeMismatch, len(bools), len(s.values))
		}
		return s.selectWhere(func(i int) bool { return bools[i] }), nil
	}
	labels := make([]string, len(keys))
	values := make([]any, len(keys))
	for i, k := range keys {
		l := label(k)
		v, ok := s.At(l)
		if !ok {
			return nil, fmt.Errorf("%w: %q", types.ErrLabelNotFound, l)
		}
		labels[i], values[i] = l, v
	}
	return newSeries(s.name, labels, values), nil
}

func (s *Series) selectWhere(keep func(i int) bool) *Series {
	var labels []string
	var values []any
	for i := range s.values {
		if keep(i) {
			labels = append(labels, s.labels[i])
			values = append(values, s.values[i])
		}
	}
	return newSeries(s.name, labels, values)
}
