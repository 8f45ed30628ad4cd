// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bolt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/staranto/dotcache/internal/pathutil"
)

func newTestBackend(t *testing.T, dir string) *BackendBolt {
	t.Helper()
	be, err := NewBackendBolt("main", FromDir(dir), WithNoSync())
	require.NoError(t, err)
	require.NoError(t, be.Connect(context.Background()))
	t.Cleanup(func() { _ = be.Close() })
	return be
}

func TestBackendBolt_NotConnected(t *testing.T) {
	be, err := NewBackendBolt("main", FromDir(t.TempDir()))
	require.NoError(t, err)

	_, err = be.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, be.Close())
}

func TestBackendBolt_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	be := newTestBackend(t, dir)

	require.NoError(t, be.Connect(ctx), "connect is idempotent")

	doc, err := be.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)

	require.NoError(t, be.Save(ctx, map[string]any{"a": map[string]any{"n": 1}, "doc": "stale"}))
	require.NoError(t, be.CreateObject(ctx, "doc", map[string]any{"balance": 100, "tags": []any{"x"}}))

	doc, err = be.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"n": 1.0}}, doc)

	require.NoError(t, be.Close())

	reopened := newTestBackend(t, dir)
	keys, err := reopened.ListObjectKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, keys)

	v, ok, err := reopened.RetrieveObject(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"balance": 100.0, "tags": []any{"x"}}, v)

	existed, err := reopened.DeleteObject(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, existed)
	existed, err = reopened.DeleteObject(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, existed)

	size, err := reopened.Size(ctx)
	require.NoError(t, err)
	assert.Positive(t, size)
}

func TestBackendBolt_CorruptEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	be := newTestBackend(t, t.TempDir())

	require.NoError(t, be.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(objectsBucket).Put([]byte("bad"), []byte{0xc1})
	}))

	_, ok, err := be.RetrieveObject(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackendBolt_KeyValidation(t *testing.T) {
	ctx := context.Background()
	be := newTestBackend(t, t.TempDir())

	assert.ErrorIs(t, be.CreateObject(ctx, "", 1), pathutil.ErrEmptyKey)
	_, _, err := be.RetrieveObject(ctx, "a/b")
	assert.ErrorIs(t, err, pathutil.ErrKeySeparator)
}
