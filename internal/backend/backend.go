// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/backend/gitcli"
	"github.com/tfctl/revctl/internal/backend/gogit"
	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/meta"
)

// Engine names accepted by --engine and the backend config key.
const (
	EngineExec  = "exec"
	EngineGoGit = "gogit"
)

// EngineNames lists the selectable engines, default first.
var EngineNames = []string{EngineExec, EngineGoGit}

// Backend abstracts the git queries the comparison engine needs. Textual
// methods return git's own output format so the changeset parsers apply to
// every implementation.
type Backend interface {
	// Show returns `git show` output for a single revision.
	Show(ctx context.Context, rev string, flags ...string) (string, error)
	// Diff returns `git diff` output. An empty rangeSpec diffs the working
	// tree against the index, an empty path means the whole tree.
	Diff(ctx context.Context, flags []string, rangeSpec, path string) (string, error)
	// FileExistsAt reports whether path exists at rev. rev "" is the working
	// tree.
	FileExistsAt(ctx context.Context, rev, path string) (bool, error)
	ReadWorkingFile(ctx context.Context, path string) ([]byte, error)
	WorkingTreeStatus(ctx context.Context) ([]changeset.StatusEntry, error)
	// RevisionList returns up to limit revisions reachable from branch,
	// newest first. branch "" means HEAD and limit <= 0 means no limit.
	RevisionList(ctx context.Context, branch string, limit int) ([]changeset.Revision, error)
	String() string
	Type() (string, error)
}

// NewBackend returns the Backend selected by --engine, falling back to the
// backend config key, rooted at the resolved root dir in command metadata.
func NewBackend(ctx context.Context, cmd *cli.Command) (Backend, error) {
	rootDir := "."
	if cmd != nil && cmd.Metadata != nil {
		if m, ok := cmd.Metadata["meta"].(meta.Meta); ok && m.RootDir != "" {
			rootDir = m.RootDir
		}
	}

	engine := ""
	if cmd != nil {
		engine = cmd.String("engine")
	}
	if engine == "" {
		engine, _ = config.GetString("backend", EngineExec)
	}
	log.Debugf("NewBackend: engine: %s rootDir: %s", engine, rootDir)

	exec, err := gitcli.NewBackendGitCLI(ctx, cmd,
		gitcli.FromRootDir(rootDir),
		gitcli.WithCache(),
	)
	if err != nil {
		return nil, err
	}

	switch engine {
	case EngineExec:
		return exec, nil
	case EngineGoGit:
		be, err := gogit.NewBackendGoGit(ctx, cmd,
			gogit.FromRootDir(exec.RootDir),
			gogit.WithExec(exec),
		)
		if err != nil {
			return nil, err
		}
		return be, nil
	default:
		return nil, fmt.Errorf("unknown engine %s", engine)
	}
}
