// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/backend"
	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/meta"
)

var lqDefaultAttrs = []string{".id:id::7", "author", "timestamp::T", "message::60"}

// lqCommandAction lists the revisions reachable from the ref in RootDir, or
// HEAD, newest first.
func lqCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := NewQueryActionRunner("lq", lqDefaultAttrs,
		func(ctx context.Context, cmd *cli.Command) ([]*changeset.Revision, error) {
			m := GetMeta(cmd)

			be, err := backend.NewBackend(ctx, cmd)
			if err != nil {
				return nil, err
			}

			list, err := be.RevisionList(ctx, m.Ref, cmd.Int("limit"))
			if err != nil {
				return nil, fmt.Errorf("failed to list revisions: %w", err)
			}
			log.Debugf("lq: %d revisions from %q", len(list), m.Ref)

			cmd.Metadata["empty"] = "no revisions"
			return pointers(list), nil
		})

	return runner.Run(ctx, cmd)
}

// lqCommandBuilder constructs the cli.Command for "lq".
func lqCommandBuilder(meta meta.Meta) *cli.Command {
	limit, _ := config.GetInt("limit", 25)

	return (&QueryCommandBuilder{
		Name:      "lq",
		Usage:     "revision list query",
		UsageText: "revctl lq [RootDir[::ref]] [options]",
		Meta:      meta,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum revisions to list, 0 for all",
				Value: limit,
			},
		},
		Action: lqCommandAction,
	}).Build()
}
