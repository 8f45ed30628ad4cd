// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/config"
	"github.com/staranto/dotcache/internal/meta"
)

// Version is stamped at build time.
var Version = "dev"

// InitApp builds the root command. args[1], when it is not a flag, is the
// subcommand and doubles as the config namespace.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Debugf("no config: %v", err)
	}
	cfg.Namespace = ns
	config.Config.Namespace = ns

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:    "dotcache",
		Usage:   "path-addressed key-value cache",
		Version: Version,
		Metadata: map[string]any{
			"meta": meta,
		},
	}

	app.Commands = append(app.Commands,
		GetCommandBuilder(app, meta),
		SetCommandBuilder(app, meta),
		DelCommandBuilder(app, meta),
		HasCommandBuilder(app, meta),
		AddCommandBuilder(app, meta),
		SubCommandBuilder(app, meta),
		PushCommandBuilder(app, meta),
		KeysCommandBuilder(app, meta),
		CountCommandBuilder(app, meta),
		ObjCommandBuilder(app, meta),
		ClearCommandBuilder(app, meta),
		ExportCommandBuilder(app, meta),
		ImportCommandBuilder(app, meta),
		InfoCommandBuilder(app, meta),
		DiffCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	sortFlags(app.Commands)

	return app, nil
}

func sortFlags(cmds []*cli.Command) {
	for _, cmd := range cmds {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
		sortFlags(cmd.Commands)
	}
}
