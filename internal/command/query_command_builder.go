// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/meta"
)

// QueryCommandBuilder constructs the cli.Command for query subcommands (cq,
// lq, tq) using a consistent pattern. The builder wires metadata, adds the
// tldr, schema and engine flags plus the global flags, and sets up
// validators.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	common := []cli.Flag{
		tldrFlag,
		schemaFlag,
		NewEngineFlag(qcb.Name, qcb.Meta.Config.Source),
	}

	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: append(qcb.Flags, append(common, NewGlobalFlags(qcb.Name)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			config.SetNamespace(qcb.Name)
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: qcb.Action,
	}
}
