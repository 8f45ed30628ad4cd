// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import "errors"

var (
	// ErrMissingName is returned when Options.Name is empty.
	ErrMissingName = errors.New("cache name is required")
	// ErrNotInitialized is returned by operations issued before Init.
	ErrNotInitialized = errors.New("cache is not initialized")
	// ErrClosed is returned by operations issued after Close.
	ErrClosed = errors.New("cache is closed")
	// ErrDottedObjectKey is returned for object keys containing '.', which
	// paths would read as nesting.
	ErrDottedObjectKey = errors.New("object key must not contain '.'")
)
