// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pathutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "int", in: 5, want: 5.0},
		{name: "uint8", in: uint8(7), want: 7.0},
		{name: "json number", in: json.Number("1.5"), want: 1.5},
		{name: "string", in: "s", want: "s"},
		{name: "typed slice", in: []string{"a", "b"}, want: []any{"a", "b"}},
		{name: "typed map", in: map[string]int{"a": 1}, want: map[string]any{"a": 1.0}},
		{name: "struct", in: point{X: 1, Y: 2}, want: map[string]any{"x": 1.0, "y": 2.0}},
		{name: "any keyed map", in: map[any]any{"k": int64(3)}, want: map[string]any{"k": 3.0}},
		{
			name: "nested",
			in:   map[string]any{"list": []any{1, map[string]any{"b": true}}},
			want: map[string]any{"list": []any{1.0, map[string]any{"b": true}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Unsupported(t *testing.T) {
	_, err := Normalize(make(chan int))
	assert.Error(t, err)
	assert.Nil(t, DeepCopy(func() {}))
}

func TestDeepCopy_NoAliasing(t *testing.T) {
	inner := map[string]any{"v": 1.0}
	list := []any{"x"}
	orig := map[string]any{"inner": inner, "list": list}

	cp := DeepCopyMap(orig)
	assert.Equal(t, orig, cp)

	inner["v"] = 2.0
	list[0] = "y"
	assert.Equal(t, 1.0, cp["inner"].(map[string]any)["v"])
	assert.Equal(t, "x", cp["list"].([]any)[0])
}
