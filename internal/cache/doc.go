// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cache is a path-addressed key-value cache over a pluggable
// backend.
//
// Top-level keys are either aggregate entries, stored together in one
// document, or object-backed, stored one document per key. The cache keeps a
// working copy in memory, tracks what is dirty, and writes to the backend
// per call (write-through), on request (Sync), or on an interval. Object
// documents are loaded lazily the first time a path under them is touched.
//
// Values are JSON-shaped: nil, bool, float64, string, []any and
// map[string]any. Everything stored is copied in and everything returned is
// copied out, so callers never share memory with the cache.
package cache
