// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/cache"
	"github.com/staranto/dotcache/internal/meta"
)

// AddCommandAction adds a delta to the number at a path and prints the
// result. Missing and non-numeric values count as 0.
func AddCommandAction(ctx context.Context, cmd *cli.Command) error {
	return arithmetic(ctx, cmd, false)
}

// SubCommandAction is AddCommandAction with the delta negated.
func SubCommandAction(ctx context.Context, cmd *cli.Command) error {
	return arithmetic(ctx, cmd, true)
}

func arithmetic(ctx context.Context, cmd *cli.Command, negate bool) error {
	if err := RequireArgs(cmd, 2); err != nil {
		return err
	}
	path := cmd.Args().Get(0)
	delta, err := ParseNumber(cmd.Args().Get(1))
	if err != nil {
		return err
	}

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		op := c.Add
		if negate {
			op = c.Subtract
		}
		n, err := op(ctx, path, delta)
		if err != nil {
			return err
		}
		return Emit(cmd, n)
	})
}

// PushCommandAction appends a value to the sequence at a path and prints the
// new length.
func PushCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 2); err != nil {
		return err
	}
	path := cmd.Args().Get(0)
	value := ParseValue(cmd.Args().Get(1), cmd.Bool("string"))

	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		n, err := c.Push(ctx, path, value)
		if err != nil {
			return err
		}
		return Emit(cmd, n)
	})
}

func AddCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "add",
		Aliases:   []string{"incr"},
		Usage:     "add to the number at a path",
		UsageText: "dotcache add [options] <path> <delta>",
		Action:    AddCommandAction,
		Meta:      meta,
	}).Build()
}

func SubCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "sub",
		Aliases:   []string{"decr"},
		Usage:     "subtract from the number at a path",
		UsageText: "dotcache sub [options] <path> <delta>",
		Action:    SubCommandAction,
		Meta:      meta,
	}).Build()
}

func PushCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "push",
		Usage:     "append a value to the sequence at a path",
		UsageText: "dotcache push [options] <path> <value>",
		Flags:     []cli.Flag{newStringFlag()},
		Action:    PushCommandAction,
		Meta:      meta,
	}).Build()
}
