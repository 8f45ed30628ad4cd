// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/cache"
	"github.com/staranto/dotcache/internal/meta"
	"github.com/staranto/dotcache/internal/output"
)

// DiffCommandAction compares the cache with another cache on the same
// backend.
func DiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 1); err != nil {
		return err
	}
	other := cmd.Args().Get(0)

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		left, err := c.Snapshot(ctx)
		if err != nil {
			return err
		}

		opts := CacheOptions(cmd)
		opts.Name = other
		opts.FlushOnClose = false

		oc, err := cache.Open(ctx, opts, nil)
		if err != nil {
			return err
		}
		defer oc.Close(ctx) //nolint:errcheck

		right, err := oc.Snapshot(ctx)
		if err != nil {
			return err
		}

		_, err = output.DiffWriter(Writer(cmd), left, right, cmd.String("output"), cmd.Bool("color"))
		return err
	})
}

func DiffCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "diff",
		Usage:     "compare with another cache on the same backend",
		UsageText: "dotcache diff [options] <other-name>",
		Action:    DiffCommandAction,
		Meta:      meta,
	}).Build()
}
