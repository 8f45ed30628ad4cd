// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// dotcache is the command line front end for the dotcache engine. Each
// invocation opens a cache, runs one operation, syncs, and exits.
package main
