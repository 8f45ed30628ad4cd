// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOTCACHE_DIR", dir)

	got, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, dir, got)
}

func TestEnsureBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	t.Setenv("DOTCACHE_DIR", dir)

	got, ok, err := EnsureBaseDir()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, dir, got)
	assert.DirExists(t, dir)
}
