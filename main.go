// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tfctl/revctl/internal/cacheutil"
	"github.com/tfctl/revctl/internal/command"
	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/util"
	"github.com/tfctl/revctl/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

// handleVersion checks for --version/-v and returns whether it was handled.
func handleVersion(args []string) bool {
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return true
		}
	}
	return false
}

// handleNakedCommand appends --help if no command is provided.
func handleNakedCommand(args []string) []string {
	if len(args) <= 1 {
		return append(args, "--help")
	}
	return args
}

// processCommandArgs handles command-specific argument processing.
func processCommandArgs(args []string) []string {
	switch {
	case len(args) > 1 && args[1] == "completion":
		// Short-circuit completion: pass args directly.
		return args
	default:
		// For ps and other commands, process @set first.
		args = processSetOnly(args)
		log.Debugf("args after set processing: args=%v", args)

		// Sets and the command line may name the same flag. The last one wins.
		args = deduplicateFlags(args)

		if len(args) > 1 && args[1] == "ps" {
			args = processPsArgs(args)
		} else {
			args = processOtherArgs(args)
		}
		return args
	}
}

// deduplicateFlags drops all but the last occurrence of each flag in the
// args following the subcommand. A flag's value is the next arg unless the
// flag uses = or the next arg is itself a flag. Positionals are kept in place.
func deduplicateFlags(args []string) []string {
	if len(args) <= 2 {
		return args
	}

	type group struct {
		key  string
		args []string
	}

	var groups []group
	rest := args[2:]
	for i := 0; i < len(rest); i++ {
		a := rest[i]
		if !isFlag(a) {
			groups = append(groups, group{args: []string{a}})
			continue
		}

		name, _, hasValue := strings.Cut(a, "=")
		g := group{key: name, args: []string{a}}
		if !hasValue && i+1 < len(rest) && !isFlag(rest[i+1]) {
			g.args = append(g.args, rest[i+1])
			i++
		}
		groups = append(groups, g)
	}

	last := make(map[string]int, len(groups))
	for i, g := range groups {
		if g.key != "" {
			last[g.key] = i
		}
	}

	out := append([]string{}, args[:2]...)
	for i, g := range groups {
		if g.key != "" && last[g.key] != i {
			continue
		}
		out = append(out, g.args...)
	}
	return out
}

// isFlag reports whether a looks like a flag. A lone "-" is the stdin
// positional.
func isFlag(a string) bool {
	return len(a) > 1 && strings.HasPrefix(a, "-")
}

// processPsArgs handles argument processing for the ps command.
func processPsArgs(args []string) []string {
	// Ensure the argument immediately following "ps" is "-" or an existing file.
	if len(args) == 2 || (args[2] != "-" && !isExistingFile(args[2])) {
		args = append(args[:2], append([]string{"-"}, args[2:]...)...)
	}
	return args
}

// processOtherArgs handles argument processing for other commands.
func processOtherArgs(args []string) []string {
	rootDir, _ := os.Getwd()
	if len(args) > 2 {
		if _, _, err := util.ParseRootDir(args[2]); err == nil {
			rootDir = args[2]
		}
	}
	if len(args) == 2 {
		args = append(args, rootDir)
	} else if args[2] != rootDir {
		args = append(args[:2], append([]string{rootDir}, args[2:]...)...)
	}
	return args
}

// initAndRunApp initializes the app and runs it, returning the exit code.
func initAndRunApp(args []string) int {
	// Pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("cache ensure err: err=%v", err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app init err: err=%v", err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app run err: err=%v", err)
		return 2
	}

	return 0
}

func realMain() int {
	log.InitLogger()

	args := os.Args
	log.Debugf("args captured: args=%v", args)

	if handleVersion(args) {
		return 0
	}

	args = handleNakedCommand(args)

	// If --help appears anywhere, skip command processing and let the CLI handle it.
	helpFound := false
	for _, a := range args {
		if a == "--help" || a == "-h" {
			helpFound = true
			break
		}
	}

	if !helpFound {
		args = processCommandArgs(args)
	}

	return initAndRunApp(args)
}

// isExistingFile checks if the given path exists and is a file.
func isExistingFile(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return true
	}
	return false
}

// processSetOnly handles the @set logic for all commands, expanding set
// arguments at the @set position. Sets are read from "<verb>.<set>" in config.
func processSetOnly(args []string) []string {
	if len(args) < 3 {
		return args
	}

	// Look for an explicit @set argument starting from index 2.
	idx := 2
	for i, a := range args[idx:] {
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set := a[1:]
			removeIdx := idx + i
			args = append(args[:removeIdx], args[removeIdx+1:]...)
			entries, _ := config.GetStringSlice(args[1] + "." + set)
			log.Debugf("set %s: entries=%v", set, entries)
			return injectConfigSet(args, entries, removeIdx)
		}
	}
	return args
}

// injectConfigSet splits each entry on whitespace and inserts the resulting
// args at insertIdx.
func injectConfigSet(args []string, entries []string, insertIdx int) []string {
	if len(entries) == 0 {
		return args
	}

	var expanded []string
	for _, entry := range entries {
		expanded = append(expanded, strings.Fields(entry)...)
	}

	return append(args[:insertIdx:insertIdx], append(expanded, args[insertIdx:]...)...)
}
