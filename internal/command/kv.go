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

func newStringFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "string",
		Aliases:     []string{"s"},
		Usage:       "store the value as a string even when it parses as JSON",
		HideDefault: true,
	}
}

// GetCommandAction prints the value at a path.
func GetCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 1); err != nil {
		return err
	}
	path := cmd.Args().Get(0)

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		v, ok, err := c.Get(ctx, path)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Emit(cmd, v)
	})
}

// SetCommandAction stores a value at a path.
func SetCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 2); err != nil {
		return err
	}
	path := cmd.Args().Get(0)
	value := ParseValue(cmd.Args().Get(1), cmd.Bool("string"))

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		return c.Set(ctx, path, value)
	})
}

// DelCommandAction removes the value at a path and prints whether anything
// was removed.
func DelCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 1); err != nil {
		return err
	}
	path := cmd.Args().Get(0)

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		removed, err := c.Delete(ctx, path)
		if err != nil {
			return err
		}
		return Emit(cmd, removed)
	})
}

// HasCommandAction prints whether a value is stored at a path.
func HasCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 1); err != nil {
		return err
	}
	path := cmd.Args().Get(0)

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		ok, err := c.Has(ctx, path)
		if err != nil {
			return err
		}
		return Emit(cmd, ok)
	})
}

func GetCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "get",
		Usage:     "print the value at a path",
		UsageText: "dotcache get [options] <path>",
		Action:    GetCommandAction,
		Meta:      meta,
	}).Build()
}

func SetCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "set",
		Usage:     "store a value at a path",
		UsageText: "dotcache set [options] <path> <value>",
		Flags:     []cli.Flag{newStringFlag()},
		Action:    SetCommandAction,
		Meta:      meta,
	}).Build()
}

func DelCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "del",
		Aliases:   []string{"rm"},
		Usage:     "delete the value at a path",
		UsageText: "dotcache del [options] <path>",
		Action:    DelCommandAction,
		Meta:      meta,
	}).Build()
}

func HasCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "has",
		Usage:     "report whether a path holds a value",
		UsageText: "dotcache has [options] <path>",
		Action:    HasCommandAction,
		Meta:      meta,
	}).Build()
}
