// internal/frame/frame_test.go
package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/bamboorules/internal/rules"
	"github.com/solatis/bamboorules/internal/types"
)

func orders() *Frame {
	return FromRecords([]map[string]any{
		{"id": "o1", "amount": 120.0, "region": "eu"},
		{"id": "o2", "amount": 80.0, "region": "us"},
		{"id": "o3", "amount": 200.0},
	})
}

func TestNewSeries_Validation(t *testing.T) {
	_, err := NewSeries("x", []string{"a"}, []any{1, 2})
	require.ErrorIs(t, err, types.ErrShapeMismatch)

	s, err := NewSeries("x", nil, []any{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, s.Labels())
	assert.Equal(t, 2, s.Len())
}

func TestNewFrame_Validation(t *testing.T) {
	_, err := NewFrame([]string{"a", "b"}, map[string][]any{"a": {1, 2}, "b": {1}}, nil)
	require.ErrorIs(t, err, types.ErrShapeMismatch)

	_, err = NewFrame([]string{"a"}, map[string][]any{}, nil)
	require.ErrorIs(t, err, types.ErrShapeMismatch)

	_, err = NewFrame([]string{"a"}, map[string][]any{"a": {1, 2}}, []string{"x"})
	require.ErrorIs(t, err, types.ErrShapeMismatch)

	f, err := NewFrame([]string{"a"}, map[string][]any{"a": {1, 2}}, []string{"x", "y"})
	require.NoError(t, err)
	rows, cols := f.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
}

func TestFromRecords(t *testing.T) {
	f := orders()
	assert.Equal(t, []string{"amount", "id", "region"}, f.Columns())
	assert.Equal(t, []string{"0", "1", "2"}, f.Index())

	records := f.Records()
	require.Len(t, records, 3)
	assert.Nil(t, records[2]["region"])
	assert.Equal(t, "o2", records[1]["id"])
}

func TestSeries_Join(t *testing.T) {
	a, _ := NewSeries("a", []string{"x", "y", "z"}, []any{1, 2, 3})
	b, _ := NewSeries("b", []string{"z", "x"}, []any{10, 20})

	got, err := a.Elementwise(rules.ElemAdd, b, false)
	require.NoError(t, err)
	s := got.(*Series)
	assert.Equal(t, []string{"x", "z"}, s.Labels())
	assert.Equal(t, []any{21, 13}, s.Values())

	got, err = a.Elementwise(rules.ElemSub, b, true)
	require.NoError(t, err)
	assert.Equal(t, []any{19, 7}, got.(*Series).Values())
}

func TestSeries_MissingValues(t *testing.T) {
	s, _ := NewSeries("x", nil, []any{1, nil, 3})

	got, err := s.Elementwise(rules.ElemMul, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []any{2, nil, 6}, got.(*Series).Values())

	got, err = s.Elementwise(rules.ElemEq, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []any{false, false, false}, got.(*Series).Values())

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	not, err := s.Not()
	require.NoError(t, err)
	assert.Equal(t, []any{false, nil, false}, not.(*Series).Values())
}

func TestSeries_Errors(t *testing.T) {
	s, _ := NewSeries("x", nil, []any{1, "a"})

	_, err := s.Elementwise(rules.ElemSub, 1, false)
	require.ErrorIs(t, err, types.ErrTypeMismatch)

	_, err = s.Elementwise(rules.ElemAdd, []any{1}, false)
	require.ErrorIs(t, err, types.ErrShapeMismatch)

	_, err = s.Elementwise(rules.ElemAdd, map[string]any{"a": 1}, false)
	require.ErrorIs(t, err, types.ErrTypeMismatch)

	_, err = s.Get("missing")
	require.ErrorIs(t, err, types.ErrLabelNotFound)

	_, err = s.Get([]any{true})
	require.ErrorIs(t, err, types.ErrShapeMismatch)
}

func TestSeries_GetPositionalMask(t *testing.T) {
	s, _ := NewSeries("x", []string{"a", "b", "c"}, []any{1, 2, 3})
	got, err := s.Get([]any{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got.(*Series).Labels())

	v, err := s.Get(1.0)
	require.ErrorIs(t, err, types.ErrLabelNotFound)
	assert.Nil(t, v)
}

func TestFrame_Elementwise(t *testing.T) {
	f, err := NewFrame([]string{"a", "b"}, map[string][]any{"a": {1, 2}, "b": {3, 4}}, nil)
	require.NoError(t, err)

	t.Run("scalar", func(t *testing.T) {
		got, err := f.Elementwise(rules.ElemLt, 3, false)
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"a": true, "b": false},
			{"a": true, "b": false},
		}, got.(*Frame).Records())
	})

	t.Run("sequence per column", func(t *testing.T) {
		got, err := f.Elementwise(rules.ElemMul, []any{10, 100}, false)
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"a": 10, "b": 300},
			{"a": 20, "b": 400},
		}, got.(*Frame).Records())
	})

	t.Run("series aligned on columns", func(t *testing.T) {
		s, _ := NewSeries("", []string{"b"}, []any{1})
		got, err := f.Elementwise(rules.ElemSub, s, true)
		require.NoError(t, err)
		out := got.(*Frame)
		assert.Equal(t, []string{"b"}, out.Columns())
		assert.Equal(t, []map[string]any{{"b": -2}, {"b": -3}}, out.Records())
	})

	t.Run("series receiver delegates to frame", func(t *testing.T) {
		s, _ := NewSeries("", []string{"a", "b"}, []any{2, 3})
		got, err := s.Elementwise(rules.ElemLt, f, false)
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"a": false, "b": false},
			{"a": false, "b": true},
		}, got.(*Frame).Records())
	})

	t.Run("frame joined on rows and columns", func(t *testing.T) {
		g, err := NewFrame([]string{"b", "c"}, map[string][]any{"b": {1}, "c": {9}}, []string{"1"})
		require.NoError(t, err)
		got, err := f.Elementwise(rules.ElemAdd, g, false)
		require.NoError(t, err)
		out := got.(*Frame)
		assert.Equal(t, []string{"1"}, out.Index())
		assert.Equal(t, []map[string]any{{"b": 5}}, out.Records())
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := f.Elementwise(rules.ElemAdd, []any{1, 2, 3}, false)
		require.ErrorIs(t, err, types.ErrShapeMismatch)
	})
}

func TestFrame_Reductions(t *testing.T) {
	f := orders()

	count, err := f.Count()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"amount": 3, "id": 3, "region": 2}, count.(*Series).Map())

	mins, err := f.Min()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"amount": 80.0, "id": "o1", "region": "eu"}, mins.(*Series).Map())
}

func TestFrame_Query(t *testing.T) {
	f := orders()

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"numeric comparison", "amount > 100.0", []string{"0", "2"}},
		{"cross-type numeric comparison", "amount > 100", []string{"0", "2"}},
		{"string equality", `region == "us"`, []string{"1"}},
		{"conjunction", `amount >= 80.0 && id != "o1"`, []string{"1", "2"}},
		{"null check", "region == null", []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Query(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.(*Frame).Index())
		})
	}

	t.Run("missing cell drops the row", func(t *testing.T) {
		sparse := FromRecords([]map[string]any{
			{"a": 1, "b": 1},
			{"b": 2},
			{"a": 5, "b": 3},
		})
		got, err := sparse.Query("a > 2")
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, got.(*Frame).Index())

		got, err = sparse.Query("b >= 2")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, got.(*Frame).Index())
	})

	t.Run("error on complete row still fails", func(t *testing.T) {
		_, err := f.Query("amount > id")
		require.Error(t, err)
	})

	t.Run("compile error", func(t *testing.T) {
		_, err := f.Query("amount >")
		require.Error(t, err)
	})

	t.Run("non-boolean result", func(t *testing.T) {
		_, err := f.Query("amount")
		require.ErrorIs(t, err, types.ErrTypeMismatch)
	})
}

func TestFrame_GetAndSetIndex(t *testing.T) {
	f := orders()

	_, err := f.Get("nope")
	require.ErrorIs(t, err, types.ErrLabelNotFound)

	indexed, err := f.SetIndex("id")
	require.NoError(t, err)
	g := indexed.(*Frame)
	assert.Equal(t, []string{"o1", "o2", "o3"}, g.Index())

	col, err := g.Get("amount")
	require.NoError(t, err)
	v, ok := col.(*Series).At("o2")
	require.True(t, ok)
	assert.Equal(t, 80.0, v)

	_, err = f.SetIndex("nope")
	require.ErrorIs(t, err, types.ErrLabelNotFound)
}

func TestExport(t *testing.T) {
	s, _ := NewSeries("x", []string{"a"}, []any{1})
	got := Export(map[string]any{"s": s, "list": []any{s, 2}})
	assert.Equal(t, map[string]any{
		"s":    map[string]any{"a": 1},
		"list": []any{map[string]any{"a": 1}, 2},
	}, got)
}
