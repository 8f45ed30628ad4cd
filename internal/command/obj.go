// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/cache"
	"github.com/staranto/dotcache/internal/meta"
)

// ObjCreateCommandAction stores a value as an object-backed key, replacing
// any aggregate entry of the same name.
func ObjCreateCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 2); err != nil {
		return err
	}
	key := cmd.Args().Get(0)
	value := ParseValue(cmd.Args().Get(1), cmd.Bool("string"))

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		return c.CreateObject(ctx, key, value)
	})
}

// ObjGetCommandAction prints an object-backed key.
func ObjGetCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 1); err != nil {
		return err
	}
	key := cmd.Args().Get(0)

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		v, ok, err := c.RetrieveObject(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("object %s: %w", key, ErrNotFound)
		}
		return Emit(cmd, v)
	})
}

// ObjDelCommandAction deletes a key and prints whether anything was removed.
func ObjDelCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 1); err != nil {
		return err
	}
	key := cmd.Args().Get(0)

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		removed, err := c.DeleteObject(ctx, key)
		if err != nil {
			return err
		}
		return Emit(cmd, removed)
	})
}

// ObjCommandBuilder groups the object-backed key commands under "obj".
func ObjCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "obj",
		Usage: "manage object-backed keys",
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			(&CommandBuilder{
				Name:      "create",
				Usage:     "store a value as its own object",
				UsageText: "dotcache obj create [options] <key> <value>",
				Flags:     []cli.Flag{newStringFlag()},
				Action:    ObjCreateCommandAction,
				Meta:      meta,
				Namespace: "obj",
			}).Build(),
			(&CommandBuilder{
				Name:      "get",
				Usage:     "print an object",
				UsageText: "dotcache obj get [options] <key>",
				Action:    ObjGetCommandAction,
				Meta:      meta,
				Namespace: "obj",
			}).Build(),
			(&CommandBuilder{
				Name:      "del",
				Aliases:   []string{"rm"},
				Usage:     "delete an object",
				UsageText: "dotcache obj del [options] <key>",
				Action:    ObjDelCommandAction,
				Meta:      meta,
				Namespace: "obj",
			}).Build(),
		},
	}
}
