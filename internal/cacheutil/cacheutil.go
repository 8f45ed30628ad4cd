// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cacheutil resolves where file-based caches live by default.
package cacheutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir resolves the base cache directory.
// Precedence:
//  1. DOTCACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/dotcache
//
// Returns ("", false) if a base cannot be resolved.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("DOTCACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "dotcache"), true
	}
	return "", false
}

// EnsureBaseDir creates the base cache directory when one can be resolved.
// Returns the path, whether it is usable, and an error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}
