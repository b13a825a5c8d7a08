// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/meta"
)

const bashCompletionScript = `# bash completion for revctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_revctl_refs()
{
    git for-each-ref --format='%(refname:short)' refs/heads refs/tags 2>/dev/null
}

_revctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "cq lq tq ps completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --local -l --output -o --padding --sort -s --titles -t --where --schema --tldr"

    case "$prev" in
    --output|-o)
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
        ;;
    --engine)
        COMPREPLY=( $(compgen -W "exec gogit" -- "$cur") )
        return 0
        ;;
    --against)
        COMPREPLY=( $(compgen -W "prev tree branch:" -- "$cur") )
        return 0
        ;;
    --branch|-b)
        COMPREPLY=( $(compgen -W "$(_revctl_refs)" -- "$cur") )
        return 0
        ;;
    --format)
        COMPREPLY=( $(compgen -W "auto numstat stat name-status" -- "$cur") )
        return 0
        ;;
    --path|-p)
        COMPREPLY=( $(compgen -f -- "$cur") )
        return 0
        ;;
    esac

    case "$cmd" in
    cq)
        local opts="$common --engine --against --branch -b --limit --patch --path -p --pick --split --tree"
        ;;
    lq)
        local opts="$common --engine --limit"
        ;;
    tq)
        local opts="$common --engine"
        ;;
    ps)
        local opts="$common --format"
        ;;
    completion)
        COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
        return 0
        ;;
    *)
        local opts="$common"
        ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # Positionals are the RootDir (ps takes a file) and, for cq, revisions.
    case "$cmd" in
    ps)
        COMPREPLY=( $(compgen -f -- "$cur") )
        ;;
    cq)
        COMPREPLY=( $(compgen -o dirnames -- "$cur") $(compgen -W "$(_revctl_refs)" -- "$cur") )
        ;;
    *)
        COMPREPLY=( $(compgen -o dirnames -- "$cur") )
        ;;
    esac
    return 0
}

complete -F _revctl revctl
`

const zshCompletionScript = `#compdef revctl

_revctl() {
  local -a cmds
  cmds=(
    'cq:change-set query'
    'lq:revision list query'
    'tq:working tree query'
    'ps:parse stat text'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-l --local)'{-l,--local}'[show local timestamps]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '--padding[spaces between columns]:padding'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--where[HCL row expression]:expression'
  '--schema[list attributes]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'revctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    cq)
      _arguments -C \
        $common \
        '--engine[git engine]:engine:(exec gogit)' \
        '--against[comparison target]:target:(prev tree branch\:)' \
        '(-b --branch)'{-b,--branch}'[compare against branch]:branch' \
        '--limit[revisions to list]:limit' \
        '--patch[print unified diff]' \
        '(-p --path)'{-p,--path}'[restrict to one file]:path:_files' \
        '--pick[pick revisions interactively]' \
        '--split[list each revision separately]' \
        '--tree[compare against the working tree]' \
        '::RootDir:_directories' \
        '*:revision'
      ;;
    lq)
      _arguments -C \
        $common \
        '--engine[git engine]:engine:(exec gogit)' \
        '--limit[revisions to list]:limit' \
        '::RootDir:_directories'
      ;;
    tq)
      _arguments -C \
        $common \
        '--engine[git engine]:engine:(exec gogit)' \
        '::RootDir:_directories'
      ;;
    ps)
      _arguments -C \
        $common \
        '--format[input format]:format:(auto numstat stat name-status)' \
        '::stat-file:_files'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:directory:_directories'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys
# is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _revctl revctl
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			fmt.Fprint(stdout, zshCompletionScript)
		case strings.HasSuffix(sh, "bash"):
			fmt.Fprint(stdout, bashCompletionScript)
		default:
			fmt.Fprintln(stderr, "usage: revctl completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "revctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
