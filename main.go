// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/dotcache/internal/cacheutil"
	"github.com/staranto/dotcache/internal/command"
	"github.com/staranto/dotcache/internal/config"
	mylog "github.com/staranto/dotcache/internal/log"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Best-effort: pre-create the default storage directory.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an argument set from the config file. "@name"
// anywhere after the command selects "<command>.<name>"; without one,
// "<command>.defaults" is used. Each entry is split on whitespace and
// inserted right after the command so explicit arguments still win.
func mangleArguments(args []string) []string {
	// Short-circuit for --help/-h. If help is requested, leave args alone.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	if strings.HasPrefix(args[1], "-") {
		return args
	}

	set := "defaults"
	rest := make([]string, 0, len(args)-2)
	for _, a := range args[2:] {
		if strings.HasPrefix(a, "@") && len(a) > 1 && set == "defaults" {
			set = a[1:]
			continue
		}
		rest = append(rest, a)
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)

	out := make([]string, 0, len(args)+len(setArgs))
	out = append(out, args[:2]...)
	for _, arg := range setArgs {
		out = append(out, strings.Fields(arg)...)
	}
	out = append(out, rest...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
