// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gitcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/cacheutil"
	"github.com/tfctl/revctl/internal/changeset"
)

// BackendGitCLI answers change queries by running the git binary.
type BackendGitCLI struct {
	Ctx     context.Context
	Cmd     *cli.Command
	RootDir string
	Runner  Runner

	cache  bool
	remote *cacheutil.Remote
}

// baseArgs pin the settings that change git's textual output so cached
// output is the same no matter whose config produced it.
var baseArgs = []string{
	"-c", "core.quotepath=off",
	"-c", "color.ui=never",
	"-c", "diff.renames=true",
	"-c", "diff.noprefix=false",
}

func (be *BackendGitCLI) git(ctx context.Context, args ...string) (string, error) {
	full := make([]string, 0, len(baseArgs)+len(args))
	full = append(full, baseArgs...)
	full = append(full, args...)
	return be.Runner.Run(ctx, be.RootDir, full...)
}

// Show runs "git show" for a single revision with the commit header
// suppressed, so the output is just the change in the requested flags'
// format. Merges are shown against their first parent.
func (be *BackendGitCLI) Show(ctx context.Context, rev string, flags ...string) (string, error) {
	args := []string{"show", "--format=", "--no-ext-diff", "--diff-merges=first-parent"}
	args = append(args, flags...)
	args = append(args, rev, "--")
	return be.hit(ctx, isFullID(rev), args...)
}

// Diff runs "git diff flags rangeSpec -- path". An empty rangeSpec compares
// the index with the working tree and a single revision compares it with the
// working tree.
func (be *BackendGitCLI) Diff(ctx context.Context, flags []string, rangeSpec, path string) (string, error) {
	args := []string{"diff", "--no-ext-diff"}
	args = append(args, flags...)
	if rangeSpec != "" {
		args = append(args, rangeSpec)
	}
	args = append(args, "--")
	if path != "" {
		args = append(args, path)
	}
	return be.hit(ctx, isImmutableRange(rangeSpec), args...)
}

// exitCoder matches *exec.ExitError without constructing one in tests.
type exitCoder interface {
	ExitCode() int
}

// FileExistsAt reports whether path exists at rev. An empty rev means the
// working tree.
func (be *BackendGitCLI) FileExistsAt(ctx context.Context, rev, path string) (bool, error) {
	if rev == "" {
		_, err := os.Stat(filepath.Join(be.RootDir, path))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, os.ErrNotExist):
			return false, nil
		default:
			return false, err
		}
	}

	_, err := be.git(ctx, "cat-file", "-e", rev+":"+path)
	if err != nil {
		// Non-zero exit means no such object, including an unknown rev.
		var ec exitCoder
		if errors.As(err, &ec) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadWorkingFile returns the working tree content of path.
func (be *BackendGitCLI) ReadWorkingFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(be.RootDir, path))
}

// WorkingTreeStatus runs "git status --porcelain -z". NUL separated output
// leaves paths unquoted, so they match numstat paths and can be read from
// disk as is.
func (be *BackendGitCLI) WorkingTreeStatus(ctx context.Context) ([]changeset.StatusEntry, error) {
	out, err := be.git(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return ParsePorcelain(out), nil
}

// ParsePorcelain parses NUL separated "XY path" records. A rename or copy is
// followed by one more record holding the old path. Newline separated
// output, with quoted paths and "old -> new", is accepted as well.
func ParsePorcelain(out string) []changeset.StatusEntry {
	if !strings.Contains(out, "\x00") {
		return parsePorcelainLines(out)
	}

	var entries []changeset.StatusEntry
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if len(f) < 4 || f[2] != ' ' {
			continue
		}

		e := changeset.StatusEntry{
			Index:    f[0:1],
			Worktree: f[1:2],
			Path:     f[3:],
		}
		if isRenameCode(e.Index) || isRenameCode(e.Worktree) {
			if i+1 < len(fields) {
				e.OldPath = fields[i+1]
				i++
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func parsePorcelainLines(out string) []changeset.StatusEntry {
	var entries []changeset.StatusEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 || line[2] != ' ' {
			continue
		}

		e := changeset.StatusEntry{
			Index:    line[0:1],
			Worktree: line[1:2],
			Path:     line[3:],
		}
		if old, nu, ok := strings.Cut(e.Path, " -> "); ok {
			e.OldPath, e.Path = changeset.UnquotePath(old), nu
		}
		e.Path = changeset.UnquotePath(e.Path)
		entries = append(entries, e)
	}
	return entries
}

func isRenameCode(c string) bool {
	return c == "R" || c == "C"
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
	logFormat = "%H%x1f%P%x1f%an%x1f%aI%x1f%D%x1f%s%x1e"
)

// RevisionList returns up to limit revisions reachable from branch, newest
// first. An empty branch means HEAD and a non-positive limit means all.
func (be *BackendGitCLI) RevisionList(ctx context.Context, branch string, limit int) ([]changeset.Revision, error) {
	if branch == "" {
		branch = changeset.HeadMarker
	}

	args := []string{"log", "--decorate=short", "--format=" + logFormat}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	args = append(args, branch, "--")

	out, err := be.git(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseLog(out)
}

// ParseLog parses output produced with logFormat.
func ParseLog(out string) ([]changeset.Revision, error) {
	var revs []changeset.Revision
	for _, rec := range strings.Split(out, recordSep) {
		rec = strings.Trim(rec, "\r\n")
		if rec == "" {
			continue
		}

		f := strings.SplitN(rec, fieldSep, 6)
		if len(f) != 6 {
			return nil, fmt.Errorf("malformed log record %q", rec)
		}

		ts, err := time.Parse(time.RFC3339, f[3])
		if err != nil {
			return nil, fmt.Errorf("bad timestamp in log record: %w", err)
		}

		revs = append(revs, changeset.NewRevision(f[0], f[5], f[2], ts, strings.Fields(f[1]), parseDecorations(f[4])))
	}
	return revs, nil
}

// parseDecorations turns "HEAD -> main, tag: v1, origin/main" into
// [HEAD main v1 origin/main].
func parseDecorations(d string) []string {
	var refs []string
	for _, part := range strings.Split(d, ", ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if head, branch, ok := strings.Cut(part, " -> "); ok {
			refs = append(refs, head, branch)
			continue
		}
		refs = append(refs, strings.TrimPrefix(part, "tag: "))
	}
	return refs
}

func (be *BackendGitCLI) String() string {
	return fmt.Sprintf("gitcli(%s)", be.RootDir)
}

// Type implements backend.Backend.
func (be *BackendGitCLI) Type() (string, error) {
	return "exec", nil
}
