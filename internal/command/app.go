// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/meta"
	"github.com/tfctl/revctl/internal/util"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {

	// Save the CWD at startup and then defer restoring it so we're tidy.
	sd, _ := os.Getwd()
	defer func() {
		if err := os.Chdir(sd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to restore directory: %v\n", err)
		}
	}()

	// The arg[1] immediately following the binary (arg[0]) is the revctl
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing config file is fine; every key has a default.
	cfg, _ := config.Load() //nolint
	config.SetNamespace(ns)
	cfg.Namespace = ns

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	// See if the arg immediately following the command might be a directory.
	// If it begins with - it's a flag and the CWD is the RootDir. Otherwise
	// it's a RootDir spec, optionally carrying a ::ref suffix. completion and
	// ps take a plain positional argument instead.
	if (ns != "completion" && ns != "ps") && len(args) > 2 && !strings.HasPrefix(args[2], "-") {
		if wd, ref, err := util.ParseRootDir(args[2]); err == nil {
			meta.RootDir = wd
			meta.Ref = ref
		} else {
			return nil, fmt.Errorf("failed to parse rootDir (%s): %w", args[2], err)
		}
	} else {
		meta.RootDir = sd
	}

	app := &cli.Command{
		Name:  "revctl",
		Usage: "git revision change-set control",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "revctl version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		cqCommandBuilder(meta),
		lqCommandBuilder(meta),
		psCommandBuilder(meta),
		tqCommandBuilder(meta),
		completionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
