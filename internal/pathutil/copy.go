// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pathutil

import (
	"encoding/json"
	"fmt"
)

// Normalize returns a structural copy of v made only of nil, bool, float64,
// string, []any and map[string]any. Every numeric kind becomes float64. Types
// outside that set (structs, typed slices and maps) go through a JSON round
// trip; values JSON cannot represent are an error.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		return t, nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return f, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			c, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case map[any]any:
		// msgpack and older YAML decoders produce these.
		out := make(map[string]any, len(t))
		for k, e := range t {
			c, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			c, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported value of type %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unsupported value of type %T: %w", v, err)
	}
	return out, nil
}

// DeepCopy is Normalize for values already known to be representable. It
// returns nil for anything Normalize rejects.
func DeepCopy(v any) any {
	out, err := Normalize(v)
	if err != nil {
		return nil
	}
	return out
}

// DeepCopyMap copies a whole document. A nil map yields an empty one.
func DeepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = DeepCopy(v)
	}
	return out
}
