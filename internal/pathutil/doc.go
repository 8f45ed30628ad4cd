// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package pathutil reads, writes and deletes values at dot-separated paths
// inside nested map[string]any documents, and deep-copies those documents.
// Nothing in this package holds state or performs I/O.
package pathutil
