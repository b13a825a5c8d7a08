// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/differ"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/meta"
	"github.com/tfctl/revctl/internal/selection"
	"github.com/tfctl/revctl/internal/util"
)

// cqDefaultAttrs are the columns shown for a change-set.
var cqDefaultAttrs = []string{".id:path", "status", "additions", "deletions"}

// cqCommandAction is the action handler for the "cq" subcommand. It resolves
// the revision specs against the revision list, computes the change-set for
// the chosen target and emits it.
func cqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "cq") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(changeset.FileChangeRecord{})) {
		return nil
	}

	target, err := cqTarget(cmd)
	if err != nil {
		return err
	}

	be, engine, err := InitEngine(ctx, cmd)
	if err != nil {
		return err
	}
	log.Debugf("be: %v target: %s", be, target)

	limit := cmd.Int("limit")
	list, err := be.RevisionList(ctx, m.Ref, limit)
	if err != nil {
		return fmt.Errorf("failed to list revisions: %w", err)
	}
	if len(list) == 0 {
		return fmt.Errorf("no revisions found in %s", m.RootDir)
	}

	sel, err := selection.FromSpecs(list, revSpecs(cmd)...)
	if err != nil {
		return err
	}

	req := differ.Request{
		Selection: sel.Snapshot(),
		Target:    target,
		Path:      cmd.String("path"),
		Patch:     cmd.Bool("patch"),
		Split:     cmd.Bool("split"),
	}

	var cs changeset.ChangeSet
	if cmd.Bool("pick") {
		res, err := differ.Pick(ctx, engine, list, differ.PickOptions{
			Target:   target,
			Branch:   pickBranch(cmd),
			Path:     req.Path,
			WatchDir: gitDir(m.RootDir),
			Reload: func(ctx context.Context) ([]changeset.Revision, error) {
				return be.RevisionList(ctx, m.Ref, limit)
			},
		})
		if errors.Is(err, differ.ErrPickAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		req.Path = res.Path
		cs = res.ChangeSet
		// The picker computes without --patch, so fetch the text again.
		if req.Patch && cs.Diff == "" && res.Selection.Len() > 0 {
			req.Selection, req.Target = res.Selection, res.Target
			cs = engine.Compute(ctx, req)
		}
	} else {
		cs = engine.Compute(ctx, req)
	}

	return emitChangeSet(cmd, cs, req)
}

// emitChangeSet writes cs as diff text with --patch, otherwise as records.
// A failed query is reported as a warning and is not an error.
func emitChangeSet(cmd *cli.Command, cs changeset.ChangeSet, req differ.Request) error {
	if cs.Failed() {
		warn(cs.Warning)
		return nil
	}

	if req.Patch && cs.Diff != "" {
		_, err := io.WriteString(stdout, cs.Diff)
		return err
	}

	defaults := cqDefaultAttrs
	if req.Split {
		defaults = append([]string{"revision::7"}, defaults...)
	}
	attrs := BuildAttrs(cmd, defaults...)
	log.Debugf("attrs: %v", attrs.String())

	cmd.Metadata["empty"] = "no changes"
	if len(cs.Records) > 0 {
		cmd.Metadata["footer"] = summary(cs.Records)
	}

	return EmitJSONAPISlice(pointers(cs.Records), attrs, cmd)
}

// cqTarget picks the comparison target. --branch and --tree win over
// --against, which may come from config.
func cqTarget(cmd *cli.Command) (changeset.ComparisonTarget, error) {
	switch {
	case cmd.String("branch") != "":
		return changeset.NamedBranch(cmd.String("branch")), nil
	case cmd.Bool("tree"):
		return changeset.WorkingTree(), nil
	}
	return changeset.ParseTarget(cmd.String("against"))
}

// revSpecs returns the positional revision specs. The first positional is
// always the RootDir.
func revSpecs(cmd *cli.Command) []string {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return nil
	}
	return args[1:]
}

// pickBranch is the branch the picker offers as a target.
func pickBranch(cmd *cli.Command) string {
	if b := cmd.String("branch"); b != "" {
		return b
	}
	b, _ := config.GetString("branch", "")
	return b
}

// gitDir returns the .git directory enclosing rootDir, or "" when there is
// none so the picker skips ref watching.
func gitDir(rootDir string) string {
	root, err := util.FindRepoRoot(rootDir)
	if err != nil {
		return ""
	}
	return filepath.Join(root, ".git")
}

// cqCommandBuilder constructs the cli.Command for "cq", wiring metadata,
// flags, and action/validator handlers.
func cqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "cq",
		Usage:     "change-set query",
		UsageText: "revctl cq [RootDir] [REV...] [options]",
		Meta:      meta,
		Flags: []cli.Flag{
			NewAgainstFlag("cq", meta.Config.Source),
			&cli.StringFlag{
				Name:    "branch",
				Aliases: []string{"b"},
				Usage:   "compare against the named branch",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "revisions to list when resolving specs",
				Value: defaultLimit(),
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "restrict the change-set to one file",
			},
			&cli.BoolFlag{
				Name:        "patch",
				Usage:       "print unified diff text instead of records",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "pick",
				Usage:       "pick revisions interactively",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "split",
				Usage:       "list each revision's own changes",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "tree",
				Usage:       "compare against the working tree",
				HideDefault: true,
			},
		},
		Action: cqCommandAction,
	}).Build()
}

// defaultLimit reads the revision list limit from config.
func defaultLimit() int {
	limit, _ := config.GetInt("limit", 1000)
	return limit
}
