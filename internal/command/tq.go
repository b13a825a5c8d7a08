// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/meta"
)

// tqCommandAction lists uncommitted changes in the working tree, staged or
// not, including untracked files.
func tqCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := NewQueryActionRunner("tq", cqDefaultAttrs,
		func(ctx context.Context, cmd *cli.Command) ([]*changeset.FileChangeRecord, error) {
			_, engine, err := InitEngine(ctx, cmd)
			if err != nil {
				return nil, err
			}

			records, err := engine.WorkingTreeChanges(ctx)
			if err != nil {
				warn(err)
				return nil, nil
			}

			cmd.Metadata["empty"] = "no changes"
			if len(records) > 0 {
				cmd.Metadata["footer"] = summary(records)
			}
			return pointers(records), nil
		})

	return runner.Run(ctx, cmd)
}

// tqCommandBuilder constructs the cli.Command for "tq".
func tqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "tq",
		Usage:     "working tree query",
		UsageText: "revctl tq [RootDir] [options]",
		Meta:      meta,
		Action:    tqCommandAction,
	}).Build()
}
