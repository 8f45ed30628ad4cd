// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/cache"
	"github.com/staranto/dotcache/internal/meta"
	"github.com/staranto/dotcache/internal/output"
)

// ErrNotFound is returned by read commands when nothing is stored at the
// requested path.
var ErrNotFound = errors.New("not found")

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// CacheOptions maps the global flags onto cache.Options.
func CacheOptions(cmd *cli.Command) cache.Options {
	return cache.Options{
		Name:         cmd.String("name"),
		Backend:      cmd.String("backend"),
		WriteThrough: cmd.Bool("write-through"),
		SyncInterval: cmd.Duration("interval"),
		FlushOnClose: true,
		Dir:          cmd.String("dir"),
		Bucket:       cmd.String("bucket"),
		Prefix:       cmd.String("prefix"),
		Region:       cmd.String("region"),
		Profile:      cmd.String("profile"),
		Endpoint:     cmd.String("endpoint"),
		Debug:        cmd.Bool("debug"),
	}
}

// WithCache opens the cache named by the flags, runs fn against it, and
// closes it. Close performs the final sync, so fn's changes are persisted
// when it succeeds.
func WithCache(ctx context.Context, cmd *cli.Command, fn func(*cache.Cache) error) (err error) {
	opts := CacheOptions(cmd)
	log.Debugf("opening cache %q on %s", opts.Name, opts.Backend)

	c, err := cache.Open(ctx, opts, nil)
	if err != nil {
		return fmt.Errorf("failed to open cache %s: %w", opts.Name, err)
	}

	defer func() {
		if cerr := c.Close(ctx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close cache %s: %w", opts.Name, cerr))
		}
	}()

	return fn(c)
}

// OutputOptions maps the output flags onto output.Options.
func OutputOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Format: cmd.String("output"),
		Select: cmd.String("select"),
		Color:  cmd.Bool("color"),
		Titles: cmd.Bool("titles"),
	}
}

// Emit writes v to the command's writer using the output flags.
func Emit(cmd *cli.Command, v any) error {
	return output.Emit(Writer(cmd), v, OutputOptions(cmd))
}

// Writer returns the root command's writer, stdout by default.
func Writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// RequireArgs fails unless exactly n positional arguments were given.
func RequireArgs(cmd *cli.Command, n int) error {
	if got := cmd.Args().Len(); got != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d. usage: %s", cmd.Name, n, got, cmd.UsageText)
	}
	return nil
}

// ParseValue reads a command line value as JSON when it is valid JSON, and
// as a plain string otherwise. asString skips the JSON attempt.
func ParseValue(s string, asString bool) any {
	if asString || !json.Valid([]byte(s)) {
		return s
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// ParseNumber parses a delta argument.
func ParseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// CommandBuilder constructs a cache command with the global flags, metadata
// and validators wired the same way for every subcommand.
type CommandBuilder struct {
	Name      string
	Aliases   []string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
	// Namespace overrides Name as the config namespace.
	Namespace string
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	ns := cb.Namespace
	if ns == "" {
		ns = cb.Name
	}

	return &cli.Command{
		Name:      cb.Name,
		Aliases:   cb.Aliases,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: append(cb.Flags, NewGlobalFlags(ns, cb.Meta.Config.Source)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: cb.Action,
	}
}
