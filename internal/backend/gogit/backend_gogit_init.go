// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gogit

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/backend/gitcli"
	"github.com/tfctl/revctl/internal/log"
)

// BackendGoGitOption configures a BackendGoGit.
type BackendGoGitOption = func(ctx context.Context, cmd *cli.Command, be *BackendGoGit) error

// NewBackendGoGit opens the repository enclosing the root dir. Textual show
// and diff output comes from a gitcli backend on the same root, built here
// unless WithExec supplies one.
func NewBackendGoGit(ctx context.Context, cmd *cli.Command, options ...BackendGoGitOption) (*BackendGoGit, error) {
	be := &BackendGoGit{Ctx: ctx, Cmd: cmd}

	for _, opt := range options {
		if err := opt(ctx, cmd, be); err != nil {
			return nil, err
		}
	}

	if be.repo == nil {
		if err := FromRootDir(".")(ctx, cmd, be); err != nil {
			return nil, err
		}
	}

	if be.exec == nil {
		exec, err := gitcli.NewBackendGitCLI(ctx, cmd, gitcli.FromRootDir(be.RootDir))
		if err != nil {
			return nil, err
		}
		be.exec = exec
	}

	return be, nil
}

// FromRootDir opens the repository at or above dir.
func FromRootDir(dir string) BackendGoGitOption {
	return func(ctx context.Context, cmd *cli.Command, be *BackendGoGit) error {
		repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return fmt.Errorf("failed to open repository at %s: %w", dir, err)
		}

		wt, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("bare repositories are not supported: %w", err)
		}

		be.repo = repo
		be.RootDir = wt.Filesystem.Root()
		log.Debugf("gogit FromRootDir(): rootDir = %s", be.RootDir)
		return nil
	}
}

// WithExec supplies the backend used for textual show and diff output.
func WithExec(exec *gitcli.BackendGitCLI) BackendGoGitOption {
	return func(ctx context.Context, cmd *cli.Command, be *BackendGoGit) error {
		be.exec = exec
		return nil
	}
}
