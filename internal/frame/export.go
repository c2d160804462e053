// internal/frame/export.go
package frame

// Export replaces every Series and Frame inside v with plain values:
// a series becomes label -> value, a frame becomes a list of row mappings.
// Sequences and mappings are copied as they are walked.
func Export(v any) any {
	switch t := v.(type) {
	case *Series:
		return t.Map()
	case *Frame:
		records := t.Records()
		out := make([]any, len(records))
		for i, r := range records {
			out[i] = r
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Export(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Export(x)
		}
		return out
	}
	return v
}
