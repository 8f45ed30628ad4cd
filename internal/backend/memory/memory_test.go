// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendMemory(t *testing.T) {
	ctx := context.Background()
	be := NewBackendMemory("test")
	require.NoError(t, be.Connect(ctx))

	doc, err := be.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)

	require.NoError(t, be.Save(ctx, map[string]any{"a": 1.0, "doc": "stale"}))
	require.NoError(t, be.CreateObject(ctx, "doc", map[string]any{"x": 1}))

	doc, err = be.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, doc, "object creation drops the aggregate entry")

	keys, err := be.ListObjectKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, keys)

	v, ok, err := be.RetrieveObject(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"x": 1.0}, v)

	v.(map[string]any)["x"] = 2.0
	again, _, _ := be.RetrieveObject(ctx, "doc")
	assert.Equal(t, map[string]any{"x": 1.0}, again)

	existed, err := be.DeleteObject(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = be.DeleteObject(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, existed)

	_, ok, err = be.RetrieveObject(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, be.CreateObject(ctx, "a/b", 1))
}
