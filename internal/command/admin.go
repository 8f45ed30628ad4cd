// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/staranto/dotcache/internal/backend"
	"github.com/staranto/dotcache/internal/cache"
	"github.com/staranto/dotcache/internal/meta"
	"github.com/staranto/dotcache/internal/output"
	"github.com/staranto/dotcache/internal/pathutil"
)

// ClearCommandAction drops every key, including stored objects.
func ClearCommandAction(ctx context.Context, cmd *cli.Command) error {
	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		return c.Clear(ctx, cache.SyncNow(true))
	})
}

// ExportCommandAction prints the whole cache with objects inlined.
func ExportCommandAction(ctx context.Context, cmd *cli.Command) error {
	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		snap, err := c.Snapshot(ctx)
		if err != nil {
			return err
		}
		return Emit(cmd, snap)
	})
}

// ImportCommandAction loads a JSON or YAML mapping and stores each top-level
// key, as an object when --objects is set. "-" reads stdin.
func ImportCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := RequireArgs(cmd, 1); err != nil {
		return err
	}

	doc, err := readDocument(cmd.Args().Get(0))
	if err != nil {
		return err
	}

	asObjects := cmd.Bool("objects")
	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		for _, k := range sortedKeys(doc) {
			asObject := asObjects
			if asObject && strings.Contains(k, ".") {
				log.Warnf("importing %q into the aggregate: object keys must not contain '.'", k)
				asObject = false
			}
			if asObject {
				err = c.CreateObject(ctx, k, doc[k])
			} else {
				err = c.Set(ctx, pathutil.Join(k), doc[k])
			}
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", k, err)
			}
		}
		return Emit(cmd, len(doc))
	})
}

// readDocument parses path as YAML, which also accepts JSON.
func readDocument(path string) (map[string]any, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	v, err := pathutil.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	m, _ := v.(map[string]any)
	return m, nil
}

// snapshotDigest hashes the compact JSON form of the whole cache. Map keys
// marshal sorted, so equal contents give equal digests across backends.
func snapshotDigest(ctx context.Context, c *cache.Cache) (string, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(b)), nil
}

// InfoCommandAction prints the cache's bookkeeping and storage size.
func InfoCommandAction(ctx context.Context, cmd *cli.Command) error {
	return WithCache(ctx, cmd, func(c *cache.Cache) error {
		st := c.Stats()

		info := map[string]any{
			"name":           c.Name(),
			"backend":        c.Backend().String(),
			"keys":           st.AggregateKeys + st.ObjectKeys,
			"aggregate_keys": st.AggregateKeys,
			"object_keys":    st.ObjectKeys,
		}

		var size int64 = -1
		if sizer, ok := c.Backend().(backend.Sizer); ok {
			n, err := sizer.Size(ctx)
			if err != nil {
				return fmt.Errorf("failed to size %s: %w", c.Backend(), err)
			}
			size = n
			info["size"] = n
		}

		digest, err := snapshotDigest(ctx, c)
		if err != nil {
			return err
		}
		info["digest"] = digest

		if cmd.String("output") != "text" || cmd.String("select") != "" {
			return Emit(cmd, info)
		}

		rows := [][]string{
			{"name", c.Name()},
			{"backend", c.Backend().String()},
			{"keys", humanize.Comma(int64(st.AggregateKeys + st.ObjectKeys))},
			{"aggregate keys", humanize.Comma(int64(st.AggregateKeys))},
			{"object keys", humanize.Comma(int64(st.ObjectKeys))},
			{"digest", digest},
		}
		if size >= 0 {
			rows = append(rows, []string{"size", humanize.Bytes(uint64(size))})
		}

		var headers []string
		if cmd.Bool("titles") {
			headers = []string{"FIELD", "VALUE"}
		}
		output.TableWriter(Writer(cmd), headers, rows, cmd.Bool("color"))
		return nil
	})
}

func ClearCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "clear",
		Usage:     "delete every key and object",
		UsageText: "dotcache clear [options]",
		Action:    ClearCommandAction,
		Meta:      meta,
	}).Build()
}

func ExportCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "export",
		Usage:     "print the whole cache",
		UsageText: "dotcache export [options]",
		Action:    ExportCommandAction,
		Meta:      meta,
	}).Build()
}

func ImportCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "import",
		Usage:     "load top-level keys from a JSON or YAML file",
		UsageText: "dotcache import [options] <file|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "objects",
				Usage:       "store each top-level key as its own object",
				HideDefault: true,
			},
		},
		Action: ImportCommandAction,
		Meta:   meta,
	}).Build()
}

func InfoCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "info",
		Usage:     "describe the cache and its storage",
		UsageText: "dotcache info [options]",
		Action:    InfoCommandAction,
		Meta:      meta,
	}).Build()
}
