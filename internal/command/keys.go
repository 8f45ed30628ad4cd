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

const (
	kindAggregate = "aggregate"
	kindObject    = "object"
)

// KeysCommandAction lists the top-level keys and whether each is stored in
// the aggregate document or as its own object.
func KeysCommandAction(ctx context.Context, cmd *cli.Command) error {
	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		rows := KeyRows(c)
		rows = output.FilterDataset(rows, cmd.String("filter"))
		output.SortDataset(rows, cmd.String("sort"))

		if cmd.String("output") != "text" || cmd.String("select") != "" {
			return Emit(cmd, rows)
		}

		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			table = append(table, []string{output.InterfaceToString(r["key"]), output.InterfaceToString(r["kind"])})
		}
		var headers []string
		if cmd.Bool("titles") {
			headers = []string{"KEY", "KIND"}
		}
		output.TableWriter(Writer(cmd), headers, table, cmd.Bool("color"))
		return nil
	})
}

// KeyRows describes every top-level key of c.
func KeyRows(c *cache.Cache) []map[string]interface{} {
	keys := c.Keys()
	rows := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		kind := kindAggregate
		if c.IsObject(k) {
			kind = kindObject
		}
		rows = append(rows, map[string]interface{}{"key": k, "kind": kind})
	}
	return rows
}

// CountCommandAction prints the number of top-level keys.
func CountCommandAction(ctx context.Context, cmd *cli.Command) error {
	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		return Emit(cmd, c.Count())
	})
}

func KeysCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "keys",
		Aliases:   []string{"ls"},
		Usage:     "list top-level keys",
		UsageText: "dotcache keys [options]",
		Flags: []cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("keys", meta.Config.Source, &cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "comma-separated filters on key and kind, e.g. kind=object,key^user",
			}),
			NameSpacedValueChainFlagFromConfigFile("keys", meta.Config.Source, &cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   "comma-separated list of columns to sort by, prefix - for descending",
				Value:   "key",
			}),
		},
		Action: KeysCommandAction,
		Meta:   meta,
	}).Build()
}

func CountCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "count",
		Usage:     "print the number of top-level keys",
		UsageText: "dotcache count [options]",
		Action:    CountCommandAction,
		Meta:      meta,
	}).Build()
}
