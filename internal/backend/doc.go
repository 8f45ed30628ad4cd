// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package backend defines the storage contract a cache persists through and
// builds the concrete backends (memory, file, bolt and s3) by kind.
package backend
