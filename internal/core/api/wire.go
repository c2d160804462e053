package api

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/bamboorules/internal/frame"
	"github.com/solatis/bamboorules/internal/ruleio"
	"github.com/solatis/bamboorules/internal/types"
)

// maxExactInt bounds floats that convert back to integers losslessly.
const maxExactInt = 1 << 53

// fromWire converts a value decoded from google.protobuf.Value into engine
// values. Struct numbers are doubles; integral ones become int so integer
// arithmetic matches rules read from JSON documents.
func fromWire(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) <= maxExactInt {
			return int(t)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = fromWire(x)
		}
		return t
	case map[string]any:
		for k, x := range t {
			t[k] = fromWire(x)
		}
		return t
	}
	return v
}

// toWire converts an evaluation result into google.protobuf.Value.
// Values structpb cannot take directly go through their JSON encoding.
func toWire(result any) (*structpb.Value, error) {
	exported := frame.Export(result)
	if v, err := structpb.NewValue(exported); err == nil {
		return v, nil
	}
	encoded, err := ruleio.Marshal(exported, false)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	v := new(structpb.Value)
	if err := v.UnmarshalJSON(encoded); err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return v, nil
}

// request holds the decoded fields shared by both evaluation methods.
type request struct {
	rule any
	name string
	data any
}

// parseRequest reads rule or name, data and frames from req. Frames are
// bound into data by name.
func parseRequest(req *structpb.Struct) (*request, error) {
	fields := fromWire(req.AsMap()).(map[string]any)

	r := &request{rule: fields["rule"], data: fields["data"]}
	if name, ok := fields["name"]; ok {
		s, ok := name.(string)
		if !ok {
			return nil, fmt.Errorf("%w: name must be a string, got %T", types.ErrInvalidRuleName, name)
		}
		r.name = s
	}

	raw, ok := fields["frames"]
	if !ok || raw == nil {
		return r, nil
	}
	specs, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: frames must be a mapping of name to records", types.ErrTypeMismatch)
	}
	frames := make(map[string]*frame.Frame, len(specs))
	for name, spec := range specs {
		records, err := ruleio.Records(spec)
		if err != nil {
			return nil, fmt.Errorf("frame %q: %w", name, err)
		}
		frames[name] = frame.FromRecords(records)
	}

	data, err := ruleio.WithFrames(r.data, frames)
	if err != nil {
		return nil, err
	}
	r.data = data
	return r, nil
}
