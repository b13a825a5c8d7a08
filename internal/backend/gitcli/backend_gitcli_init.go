// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gitcli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/cacheutil"
	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/util"
)

// BackendGitCLIOption configures a BackendGitCLI. cmd may be nil when the
// backend is built outside a CLI action.
type BackendGitCLIOption = func(ctx context.Context, cmd *cli.Command, be *BackendGitCLI) error

// NewBackendGitCLI returns a BackendGitCLI rooted at the enclosing repository
// of the working directory unless FromRootDir says otherwise.
func NewBackendGitCLI(ctx context.Context, cmd *cli.Command, options ...BackendGitCLIOption) (*BackendGitCLI, error) {
	options = append([]BackendGitCLIOption{WithDefaults()}, options...)

	be := &BackendGitCLI{Ctx: ctx, Cmd: cmd}

	for _, opt := range options {
		if err := opt(ctx, cmd, be); err != nil {
			return nil, err
		}
	}

	if be.RootDir == "" {
		return nil, fmt.Errorf("no repository root")
	}

	return be, nil
}

// WithDefaults sets the git binary from config and an exec runner.
func WithDefaults() BackendGitCLIOption {
	return func(ctx context.Context, cmd *cli.Command, be *BackendGitCLI) error {
		gitBin, _ := config.GetString("git", "git")
		be.Runner = NewExecRunner(gitBin)
		return nil
	}
}

// FromRootDir resolves dir, relative or absolute, to its enclosing repository
// root.
func FromRootDir(dir string) BackendGitCLIOption {
	return func(ctx context.Context, cmd *cli.Command, be *BackendGitCLI) error {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		root, err := util.FindRepoRoot(abs)
		if err != nil {
			return err
		}
		be.RootDir = root
		log.Debugf("gitcli FromRootDir(): rootDir = %s", be.RootDir)
		return nil
	}
}

// WithRunner replaces the git runner.
func WithRunner(r Runner) BackendGitCLIOption {
	return func(ctx context.Context, cmd *cli.Command, be *BackendGitCLI) error {
		be.Runner = r
		return nil
	}
}

// WithGitBin replaces the runner with one executing gitBin.
func WithGitBin(gitBin string) BackendGitCLIOption {
	return func(ctx context.Context, cmd *cli.Command, be *BackendGitCLI) error {
		if gitBin != "" {
			be.Runner = NewExecRunner(gitBin)
		}
		return nil
	}
}

// WithCache enables the output cache for immutable queries. When
// cache.s3.bucket is configured a shared S3 tier sits behind the disk tier.
func WithCache() BackendGitCLIOption {
	return func(ctx context.Context, cmd *cli.Command, be *BackendGitCLI) error {
		if !cacheutil.Enabled() {
			return nil
		}
		be.cache = true

		bucket, _ := config.GetString("cache.s3.bucket", "")
		if bucket == "" {
			return nil
		}

		remote, err := newRemoteCache(ctx, bucket)
		if err != nil {
			// A broken shared tier only costs speed.
			log.WithError(err).Warn("remote cache disabled")
			return nil
		}
		be.remote = remote
		return nil
	}
}
