// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package aws loads AWS SDK v2 configuration for the s3 backend.
package aws
