// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/command"
)

// Minimal doc generator:
// - Walks the dotcache command tree
// - Generates:
//   - docs/commands/<cmd>.md
//   - docs/man/share/man1/dotcache-<cmd>.1 via md2man

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	processed, err := generate(repoRoot, writeOnlyIfChanged)
	if err != nil {
		fatalf("%v", err)
	}
	if processed == 0 {
		fatalf("no commands found")
	}
}

func generate(repoRoot string, onlyIfChanged bool) (int, error) {
	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")

	for _, dir := range []string{commandsDir, manOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output dir %s: %w", dir, err)
		}
	}

	app, err := command.InitApp(context.Background(), []string{"dotcache"})
	if err != nil {
		return 0, err
	}

	var processed int
	for _, pc := range leafCommands(app.Commands, nil) {
		name := strings.Join(pc.path, "-")
		md := renderMarkdown(pc.path, pc.cmd)

		mdPath := filepath.Join(commandsDir, name+".md")
		if err := writeFileIfChanged(mdPath, md, onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing markdown for %s: %w", name, err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("dotcache-%s.1", name))
		if err := writeFileIfChanged(manPath, md2man.Render(md), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing man page for %s: %w", name, err)
		}

		processed++
	}
	return processed, nil
}

type pathCommand struct {
	path []string
	cmd  *cli.Command
}

// leafCommands flattens the tree; "obj create" becomes path [obj create].
func leafCommands(cmds []*cli.Command, parent []string) []pathCommand {
	var out []pathCommand
	for _, c := range cmds {
		path := append(append([]string{}, parent...), c.Name)
		if len(c.Commands) > 0 {
			out = append(out, leafCommands(c.Commands, path)...)
			continue
		}
		out = append(out, pathCommand{path: path, cmd: c})
	}
	return out
}

type usager interface {
	GetUsage() string
}

func renderMarkdown(path []string, cmd *cli.Command) []byte {
	var b strings.Builder

	name := strings.Join(path, "-")
	fmt.Fprintf(&b, "# dotcache-%s 1\n\n", name)

	b.WriteString("## NAME\n\n")
	fmt.Fprintf(&b, "dotcache %s - %s\n\n", strings.Join(path, " "), cmd.Usage)

	if cmd.UsageText != "" {
		b.WriteString("## SYNOPSIS\n\n")
		fmt.Fprintf(&b, "`%s`\n\n", cmd.UsageText)
	}

	if len(cmd.Flags) > 0 {
		b.WriteString("## OPTIONS\n\n")
		for _, f := range cmd.Flags {
			var names []string
			for _, n := range f.Names() {
				if len(n) == 1 {
					names = append(names, "-"+n)
				} else {
					names = append(names, "--"+n)
				}
			}
			usage := ""
			if u, ok := f.(usager); ok {
				usage = u.GetUsage()
			}
			fmt.Fprintf(&b, "**%s**\n: %s\n\n", strings.Join(names, ", "), usage)
		}
	}

	if len(cmd.Aliases) > 0 {
		b.WriteString("## ALIASES\n\n")
		fmt.Fprintf(&b, "%s\n", strings.Join(cmd.Aliases, ", "))
	}

	return []byte(b.String())
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}
