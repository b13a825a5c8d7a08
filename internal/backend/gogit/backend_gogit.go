// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gogit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/backend/gitcli"
	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/log"
)

// BackendGoGit reads revisions, trees and status in-process with go-git.
// Show and Diff text is produced by git itself, go-git's patch output does
// not match git's byte for byte.
type BackendGoGit struct {
	Ctx     context.Context
	Cmd     *cli.Command
	RootDir string

	repo *git.Repository
	exec *gitcli.BackendGitCLI
}

// Show implements backend.Backend.
func (be *BackendGoGit) Show(ctx context.Context, rev string, flags ...string) (string, error) {
	return be.exec.Show(ctx, rev, flags...)
}

// Diff implements backend.Backend.
func (be *BackendGoGit) Diff(ctx context.Context, flags []string, rangeSpec, path string) (string, error) {
	return be.exec.Diff(ctx, flags, rangeSpec, path)
}

// FileExistsAt reports whether path is a file in rev's tree, or in the
// working tree when rev is empty. An unresolvable rev counts as absent.
func (be *BackendGoGit) FileExistsAt(_ context.Context, rev, path string) (bool, error) {
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

	hash, err := be.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		log.Debugf("gogit: cannot resolve %s: %v", rev, err)
		return false, nil
	}

	commit, err := be.commitFor(*hash)
	if err != nil {
		return false, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return false, fmt.Errorf("failed to read tree of %s: %w", hash, err)
	}

	if _, err := tree.File(filepath.ToSlash(path)); err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// commitFor returns the commit for hash, peeling an annotated tag.
func (be *BackendGoGit) commitFor(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := be.repo.CommitObject(hash)
	if err == nil {
		return commit, nil
	}
	if tag, tagErr := be.repo.TagObject(hash); tagErr == nil {
		return tag.Commit()
	}
	return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
}

// ReadWorkingFile implements backend.Backend.
func (be *BackendGoGit) ReadWorkingFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(be.RootDir, path))
}

// WorkingTreeStatus maps go-git status codes, which are the porcelain
// letters, onto status entries sorted by path.
func (be *BackendGoGit) WorkingTreeStatus(_ context.Context) ([]changeset.StatusEntry, error) {
	wt, err := be.repo.Worktree()
	if err != nil {
		return nil, err
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	entries := make([]changeset.StatusEntry, 0, len(status))
	for path, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		e := changeset.StatusEntry{
			Path:     path,
			Index:    string(rune(fs.Staging)),
			Worktree: string(rune(fs.Worktree)),
		}
		if fs.Staging == git.Renamed || fs.Staging == git.Copied {
			e.OldPath = fs.Extra
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// RevisionList walks history from branch, or HEAD, in committer time order.
func (be *BackendGoGit) RevisionList(ctx context.Context, branch string, limit int) ([]changeset.Revision, error) {
	var from plumbing.Hash
	if branch == "" || branch == changeset.HeadMarker {
		head, err := be.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
		}
		from = head.Hash()
	} else {
		h, err := be.repo.ResolveRevision(plumbing.Revision(branch))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", branch, err)
		}
		from = *h
	}

	refs, err := be.refsByCommit()
	if err != nil {
		return nil, err
	}

	iter, err := be.repo.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}
	defer iter.Close()

	var revs []changeset.Revision
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && len(revs) >= limit {
			return storer.ErrStop
		}

		parents := make([]string, len(c.ParentHashes))
		for i, p := range c.ParentHashes {
			parents[i] = p.String()
		}

		subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
		revs = append(revs, changeset.NewRevision(
			c.Hash.String(), subject, c.Author.Name, c.Author.When, parents, refs[c.Hash],
		))
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}

	return revs, nil
}

// refsByCommit maps commit hashes to the short names pointing at them, HEAD
// first. Annotated tags are peeled to their commit.
func (be *BackendGoGit) refsByCommit() (map[plumbing.Hash][]string, error) {
	out := map[plumbing.Hash][]string{}

	if head, err := be.repo.Head(); err == nil {
		out[head.Hash()] = []string{changeset.HeadMarker}
	}

	iter, err := be.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer iter.Close()

	named := map[plumbing.Hash][]string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		if !name.IsBranch() && !name.IsTag() && !name.IsRemote() {
			return nil
		}

		hash := ref.Hash()
		if name.IsTag() {
			if c, err := be.commitFor(hash); err == nil {
				hash = c.Hash
			}
		}
		named[hash] = append(named[hash], name.Short())
		return nil
	})
	if err != nil {
		return nil, err
	}

	for hash, names := range named {
		sort.Strings(names)
		out[hash] = append(out[hash], names...)
	}
	return out, nil
}

func (be *BackendGoGit) String() string {
	return fmt.Sprintf("gogit(%s)", be.RootDir)
}

// Type implements backend.Backend.
func (be *BackendGoGit) Type() (string, error) {
	return "gogit", nil
}
