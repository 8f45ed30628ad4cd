// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/meta"
)

const bashCompletionScript = `# bash completion for dotcache
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_dotcache()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "get set del has add sub push keys count obj clear export import info diff completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--name -n --backend -b --dir -d --write-through --interval --debug --color -c --output -o --select -q --titles -t --bucket --prefix --region --profile --endpoint"

    case "$cmd" in
        set|push)
            local opts="$common --string -s"
            ;;
        keys)
            local opts="$common --filter -f --sort -s"
            ;;
        import)
            local opts="$common --objects"
            ;;
        obj)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "create get del" -- "$cur") )
                return 0
            fi
            local opts="$common --string -s"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml raw" -- "$cur") )
            return 0
            ;;
        --backend|-b)
            COMPREPLY=( $(compgen -W "memory file bolt s3" -- "$cur") )
            return 0
            ;;
        --dir|-d)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    fi
    return 0
}

complete -F _dotcache dotcache
`

const zshCompletionScript = `#compdef dotcache

_dotcache() {
  local -a cmds
  cmds=(
    'get:print the value at a path'
    'set:store a value at a path'
    'del:delete the value at a path'
    'has:report whether a path holds a value'
    'add:add to the number at a path'
    'sub:subtract from the number at a path'
    'push:append a value to the sequence at a path'
    'keys:list top-level keys'
    'count:print the number of top-level keys'
    'obj:manage object-backed keys'
    'clear:delete every key and object'
    'export:print the whole cache'
    'import:load top-level keys from a file'
    'info:describe the cache and its storage'
    'diff:compare with another cache'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-n --name)'{-n,--name}'[cache name]:name'
  '(-b --backend)'{-b,--backend}'[storage backend]:backend:(memory file bolt s3)'
  '(-d --dir)'{-d,--dir}'[storage directory]:dir:_directories'
  '--write-through[sync after every change]'
  '--interval[periodic sync interval]:duration'
  '--debug[debug logging]'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json yaml raw)'
  '(-q --select)'{-q,--select}'[gjson query]:query'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--bucket[s3 bucket]:bucket'
  '--prefix[s3 key prefix]:prefix'
  '--region[s3 region]:region'
  '--profile[aws profile]:profile'
  '--endpoint[s3 endpoint]:url'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'dotcache commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    set|push)
      _arguments -C $common '(-s --string)'{-s,--string}'[store as string]' ':path' ':value'
      ;;
    keys)
      _arguments -C $common '(-f --filter)'{-f,--filter}'[filters]:filters' '(-s --sort)'{-s,--sort}'[sort columns]:columns'
      ;;
    import)
      _arguments -C $common '--objects[store keys as objects]' ':file:_files'
      ;;
    obj)
      if (( CURRENT == 3 )); then
        _values 'obj command' create get del
        return
      fi
      _arguments -C $common '(-s --string)'{-s,--string}'[store as string]' ':key' '::value'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '::path'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _dotcache dotcache
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := Writer(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: dotcache completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "dotcache completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
