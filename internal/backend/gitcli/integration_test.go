// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package gitcli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/gittest"
)

func TestGitIntegration(t *testing.T) {
	repo := gittest.New(t)
	repo.Write("a.txt", "one\n")
	c1 := repo.Commit("first")
	repo.Write("a.txt", "one\ntwo\n")
	repo.Write("b.txt", "bee\n")
	c2 := repo.Commit("second")
	repo.Git("tag", "v1")

	t.Setenv("REVCTL_CACHE", "0")
	ctx := context.Background()
	be, err := NewBackendGitCLI(ctx, nil, FromRootDir(repo.Dir))
	require.NoError(t, err)

	revs, err := be.RevisionList(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, c2, revs[0].ID)
	assert.Equal(t, "second", revs[0].Message)
	assert.Contains(t, revs[0].Refs, "v1")
	assert.True(t, revs[0].IsHead())
	assert.Equal(t, []string{c1}, revs[0].Parents)
	assert.True(t, revs[1].IsRoot())

	out, err := be.Show(ctx, c2, "--numstat")
	require.NoError(t, err)
	recs := changeset.ParseNumericStat(out)
	require.Len(t, recs, 2)
	assert.Equal(t, changeset.FileChangeRecord{Path: "a.txt", Additions: 1, TotalChanges: 1, Status: changeset.StatusAdded}, recs[0])

	out, err = be.Show(ctx, c1, "--name-status")
	require.NoError(t, err)
	assert.Equal(t, []changeset.FileChangeRecord{{Path: "a.txt", Status: changeset.StatusAdded}}, changeset.ParseNameStatus(out))

	out, err = be.Diff(ctx, []string{"--numstat"}, changeset.EmptyTree+".."+c2, "")
	require.NoError(t, err)
	assert.Len(t, changeset.ParseNumericStat(out), 2)

	ok, err := be.FileExistsAt(ctx, c1, "b.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = be.FileExistsAt(ctx, c2, "b.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = be.FileExistsAt(ctx, "no-such-branch", "b.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	repo.Write("c.txt", "new\n")
	repo.Write("a.txt", "changed\n")
	st, err := be.WorkingTreeStatus(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []changeset.StatusEntry{
		{Path: "a.txt", Index: " ", Worktree: "M"},
		{Path: "c.txt", Index: "?", Worktree: "?"},
	}, st)

	repo.Write("a b.txt", "x\n")
	st, err = be.WorkingTreeStatus(ctx)
	require.NoError(t, err)
	assert.Contains(t, st, changeset.StatusEntry{Path: "a b.txt", Index: "?", Worktree: "?"})

	_, err = be.Show(ctx, "deadbeef", "--numstat")
	assert.Error(t, err)
}
