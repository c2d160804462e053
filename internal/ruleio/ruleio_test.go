// internal/ruleio/ruleio_test.go
package ruleio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/bamboorules/internal/frame"
	"github.com/solatis/bamboorules/internal/types"
)

func TestDecode_JSONKeepsIntegers(t *testing.T) {
	v, err := DecodeBytes([]byte(`{"+": [1, 2.5, {"var": "a.0"}], "big": 9007199254740993}`), FormatJSON)
	require.NoError(t, err)

	m := v.(map[string]any)
	assert.Equal(t, []any{1, 2.5, map[string]any{"var": "a.0"}}, m["+"])
	assert.Equal(t, 9007199254740993, m["big"])
}

func TestDecode_YAML(t *testing.T) {
	doc := `
if:
  - {"<": [{var: temp}, 0]}
  - freezing
  - 1: one
`
	v, err := DecodeBytes([]byte(doc), FormatYAML)
	require.NoError(t, err)

	args := v.(map[string]any)["if"].([]any)
	assert.Equal(t, map[string]any{"<": []any{map[string]any{"var": "temp"}, 0}}, args[0])
	assert.Equal(t, "freezing", args[1])
	assert.Equal(t, map[string]any{"1": "one"}, args[2])
}

func TestDecode_EmptyYAML(t *testing.T) {
	v, err := DecodeBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDecode_Errors(t *testing.T) {
	_, err := DecodeBytes([]byte(`{`), FormatJSON)
	require.Error(t, err)

	_, err = DecodeBytes([]byte(`x`), Format("toml"))
	require.ErrorIs(t, err, types.ErrUnsupportedFormat)

	_, err = FormatOf("rules.txt")
	require.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestReadRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- {id: a, n: 1}\n- {id: b}\n"), 0o600))

	f, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "n"}, f.Columns())
	assert.Equal(t, []map[string]any{{"id": "a", "n": 1}, {"id": "b", "n": nil}}, f.Records())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"id": 1}`), 0o600))
	_, err = ReadRecords(bad)
	require.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestWithFrames(t *testing.T) {
	f := frame.FromRecords([]map[string]any{{"a": 1}})

	out, err := WithFrames(map[string]any{"x": 1}, map[string]*frame.Frame{"df": f})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "df": f}, out)

	out, err = WithFrames(nil, map[string]*frame.Frame{"df": f})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"df": f}, out)

	_, err = WithFrames([]any{1}, map[string]*frame.Frame{"df": f})
	require.ErrorIs(t, err, types.ErrTypeMismatch)

	out, err = WithFrames([]any{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, out)
}

func TestMarshal(t *testing.T) {
	f := frame.FromRecords([]map[string]any{{"a": 1}, {"a": 2}})
	b, err := Marshal(map[string]any{"rows": f}, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows": [{"a": 1}, {"a": 2}]}`, string(b))
}
