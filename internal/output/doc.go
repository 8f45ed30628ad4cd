// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package output renders cache values and listings for the command line in
// text, json, yaml or raw form.
package output
