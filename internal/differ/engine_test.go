// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package differ

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/selection"
)

// fakeBackend answers from tables. Missing show/diff keys return "" and
// missing existence keys return false.
type fakeBackend struct {
	mu     sync.Mutex
	show   map[string]string // "rev flags"
	diff   map[string]string // "flags|range|path"
	exists map[string]bool   // "rev:path"
	files  map[string]string
	status []changeset.StatusEntry
	// fail makes every call whose key contains it return errBoom.
	fail  string
	calls []string
}

var errBoom = errors.New("exit status 128")

func (f *fakeBackend) record(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if f.fail != "" && strings.Contains(key, f.fail) {
		return errBoom
	}
	return nil
}

func (f *fakeBackend) Show(_ context.Context, rev string, flags ...string) (string, error) {
	key := strings.TrimSpace(rev + " " + strings.Join(flags, " "))
	if err := f.record("show " + key); err != nil {
		return "", err
	}
	return f.show[key], nil
}

func (f *fakeBackend) Diff(_ context.Context, flags []string, rangeSpec, path string) (string, error) {
	key := strings.Join(flags, " ") + "|" + rangeSpec + "|" + path
	if err := f.record("diff " + key); err != nil {
		return "", err
	}
	return f.diff[key], nil
}

func (f *fakeBackend) FileExistsAt(_ context.Context, rev, path string) (bool, error) {
	key := rev + ":" + path
	if err := f.record("exists " + key); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists[key], nil
}

func (f *fakeBackend) ReadWorkingFile(_ context.Context, path string) ([]byte, error) {
	if err := f.record("read " + path); err != nil {
		return nil, err
	}
	content, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

func (f *fakeBackend) WorkingTreeStatus(context.Context) ([]changeset.StatusEntry, error) {
	if err := f.record("status"); err != nil {
		return nil, err
	}
	return f.status, nil
}

func (f *fakeBackend) RevisionList(context.Context, string, int) ([]changeset.Revision, error) {
	return nil, f.record("log")
}

func (f *fakeBackend) String() string        { return "fake" }
func (f *fakeBackend) Type() (string, error) { return "fake", nil }

func (f *fakeBackend) called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func rev(id string, parents ...string) changeset.Revision {
	return changeset.NewRevision(id, "commit "+id, "Test", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), parents, nil)
}

func head(id string, parents ...string) changeset.Revision {
	r := rev(id, parents...)
	r.Refs = []string{changeset.HeadMarker, "main"}
	return r
}

func request(target changeset.ComparisonTarget, path string, revs ...changeset.Revision) Request {
	return Request{Selection: selection.NewSnapshot(revs...), Target: target, Path: path}
}

func TestComputePreviousRevision(t *testing.T) {
	tests := []struct {
		name   string
		be     *fakeBackend
		req    Request
		want   []changeset.FileChangeRecord
		noShow bool
	}{
		{
			name: "single revision shows numstat",
			be:   &fakeBackend{show: map[string]string{"c1 --numstat": "3\t2\tfoo.txt\n"}},
			req:  request(changeset.PreviousRevision(), "", rev("c1", "c0")),
			want: []changeset.FileChangeRecord{{Path: "foo.txt", Additions: 3, Deletions: 2, TotalChanges: 5, Status: changeset.StatusModified}},
		},
		{
			name: "range is one two-endpoint diff from the oldest parent",
			be:   &fakeBackend{diff: map[string]string{"--numstat|c0..c3|": "1\t0\tbar.txt\n"}},
			req:  request(changeset.PreviousRevision(), "", rev("c3", "c2"), rev("c2", "c1"), rev("c1", "c0")),
			want: []changeset.FileChangeRecord{{Path: "bar.txt", Additions: 1, TotalChanges: 1, Status: changeset.StatusAdded}},
			noShow: true,
		},
		{
			name:   "range starting at a root commit uses the empty tree",
			be:     &fakeBackend{diff: map[string]string{"--numstat|" + changeset.EmptyTree + "..c1|": "2\t0\ta.txt\n"}},
			req:    request(changeset.PreviousRevision(), "", rev("c1", "c0"), rev("c0")),
			want:   []changeset.FileChangeRecord{{Path: "a.txt", Additions: 2, TotalChanges: 2, Status: changeset.StatusAdded}},
			noShow: true,
		},
		{
			name: "net zero range yields no records",
			be:   &fakeBackend{diff: map[string]string{"--numstat|c0..c2|": ""}},
			req:  request(changeset.PreviousRevision(), "", rev("c2", "c1"), rev("c1", "c0")),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewEngine(tt.be).Compute(context.Background(), tt.req)
			require.NoError(t, cs.Warning)
			assert.Equal(t, tt.want, cs.Records)
			if tt.noShow {
				assert.False(t, tt.be.called("show"), "per-revision records must not be summed")
			}
		})
	}
}

func TestComputePreviousRevisionWithPath(t *testing.T) {
	patch := "diff --git a/foo.txt b/foo.txt\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/foo.txt\n" +
		"+++ b/foo.txt\n" +
		"@@ -1,2 +1,2 @@\n" +
		"-old\n" +
		"+new\n" +
		" same\n"
	be := &fakeBackend{diff: map[string]string{"|c0..c1|foo.txt": patch}}

	cs := NewEngine(be).Compute(context.Background(), request(changeset.PreviousRevision(), "foo.txt", rev("c1", "c0")))

	require.NoError(t, cs.Warning)
	assert.Equal(t, patch, cs.Diff)
	require.Len(t, cs.Records, 1)
	assert.Equal(t, changeset.FileChangeRecord{Path: "foo.txt", Additions: 1, Deletions: 1, TotalChanges: 2, Status: changeset.StatusModified}, cs.Records[0])
}

func TestComputeNamedBranch(t *testing.T) {
	patch := "diff --git a/foo.txt b/foo.txt\n" +
		"--- a/foo.txt\n" +
		"+++ b/foo.txt\n" +
		"@@ -1 +1,2 @@\n" +
		" keep\n" +
		"+more\n"

	t.Run("absent on both sides is empty", func(t *testing.T) {
		be := &fakeBackend{}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.NamedBranch("main"), "ghost.txt", rev("c1", "c0")))

		require.NoError(t, cs.Warning)
		assert.True(t, cs.Empty())
		assert.True(t, be.called("exists c1:ghost.txt"))
		assert.True(t, be.called("exists main:ghost.txt"))
		assert.False(t, be.called("diff"))
	})

	t.Run("present on one side diffs the file", func(t *testing.T) {
		be := &fakeBackend{
			exists: map[string]bool{"main:foo.txt": true},
			diff:   map[string]string{"|main..c1|foo.txt": patch},
		}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.NamedBranch("main"), "foo.txt", rev("c1", "c0")))

		require.NoError(t, cs.Warning)
		assert.Equal(t, patch, cs.Diff)
		require.Len(t, cs.Records, 1)
		assert.Equal(t, 1, cs.Records[0].Additions)
		assert.Equal(t, changeset.StatusModified, cs.Records[0].Status)
	})

	t.Run("single revision without path falls back to numstat", func(t *testing.T) {
		be := &fakeBackend{diff: map[string]string{"--numstat|main..c1|": "4\t1\tx.go\n"}}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.NamedBranch("main"), "", rev("c1", "c0")))

		require.NoError(t, cs.Warning)
		require.Len(t, cs.Records, 1)
		assert.Equal(t, 5, cs.Records[0].TotalChanges)
		assert.False(t, be.called("exists"))
	})

	t.Run("range diffs branch to the newest revision", func(t *testing.T) {
		be := &fakeBackend{diff: map[string]string{"--numstat|dev..c2|": "1\t1\ty.go\n"}}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.NamedBranch("dev"), "", rev("c2", "c1"), rev("c1", "c0")))

		require.NoError(t, cs.Warning)
		require.Len(t, cs.Records, 1)
		assert.Equal(t, "y.go", cs.Records[0].Path)
	})
}

func TestComputeWorkingTree(t *testing.T) {
	t.Run("untracked new file is synthesized", func(t *testing.T) {
		be := &fakeBackend{
			exists: map[string]bool{":new.txt": true},
			files:  map[string]string{"new.txt": "one\ntwo\nthree\n"},
		}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.WorkingTree(), "new.txt", head("c1", "c0")))

		require.NoError(t, cs.Warning)
		assert.Contains(t, cs.Diff, "--- /dev/null\n+++ b/new.txt\n@@ -0,0 +1,3 @@\n+one\n+two\n+three\n")
		require.Len(t, cs.Records, 1)
		assert.Equal(t, changeset.FileChangeRecord{Path: "new.txt", Additions: 3, TotalChanges: 3, Status: changeset.StatusAdded}, cs.Records[0])
		assert.False(t, be.called("diff"))
	})

	t.Run("tracked file diffs against HEAD", func(t *testing.T) {
		be := &fakeBackend{
			exists: map[string]bool{"HEAD:a.txt": true, ":a.txt": true},
			diff:   map[string]string{"|HEAD|a.txt": "--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-x\n+y\n"},
		}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.WorkingTree(), "a.txt", head("c1", "c0")))

		require.NoError(t, cs.Warning)
		require.Len(t, cs.Records, 1)
		assert.Equal(t, 2, cs.Records[0].TotalChanges)
	})

	t.Run("missing everywhere is empty", func(t *testing.T) {
		be := &fakeBackend{}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.WorkingTree(), "none.txt", head("c1", "c0")))

		require.NoError(t, cs.Warning)
		assert.True(t, cs.Empty())
	})

	t.Run("historical revision is reversed", func(t *testing.T) {
		be := &fakeBackend{diff: map[string]string{"|c1..HEAD|foo.txt": "+foo\n-bar"}}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.WorkingTree(), "foo.txt", rev("c1", "c0")))

		require.NoError(t, cs.Warning)
		assert.Equal(t, "-foo\n+bar", cs.Diff)
	})

	t.Run("historical revision without path reverses counts", func(t *testing.T) {
		be := &fakeBackend{diff: map[string]string{"--numstat|c1..HEAD|": "5\t0\tadded.txt\n1\t3\tmixed.txt\n"}}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.WorkingTree(), "", rev("c1", "c0")))

		require.NoError(t, cs.Warning)
		require.Len(t, cs.Records, 2)
		assert.Equal(t, changeset.StatusDeleted, cs.Records[0].Status)
		assert.Equal(t, 5, cs.Records[0].Deletions)
		assert.Equal(t, 3, cs.Records[1].Additions)
		assert.Equal(t, 1, cs.Records[1].Deletions)
	})

	t.Run("range diffs the oldest parent to HEAD", func(t *testing.T) {
		be := &fakeBackend{diff: map[string]string{"--numstat|c0..HEAD|": "2\t2\tz.txt\n"}}
		cs := NewEngine(be).Compute(context.Background(), request(changeset.WorkingTree(), "", rev("c2", "c1"), rev("c1", "c0")))

		require.NoError(t, cs.Warning)
		require.Len(t, cs.Records, 1)
		assert.Equal(t, 4, cs.Records[0].TotalChanges)
	})
}

func TestComputeSplit(t *testing.T) {
	be := &fakeBackend{show: map[string]string{
		"c2 --numstat": "1\t0\ta.txt\n2\t2\tlib/b.txt\n",
		"c1 --numstat": "0\t4\ta.txt\n",
	}}
	req := request(changeset.PreviousRevision(), "", rev("c2", "c1"), rev("c1", "c0"))
	req.Split = true

	cs := NewEngine(be).Compute(context.Background(), req)

	require.NoError(t, cs.Warning)
	require.Len(t, cs.Records, 3)
	assert.Equal(t, "c2", cs.Records[0].Revision)
	assert.Equal(t, "c2", cs.Records[1].Revision)
	assert.Equal(t, "c1", cs.Records[2].Revision)
	assert.Equal(t, 4, cs.Records[2].Deletions)

	req.Path = "lib"
	cs = NewEngine(be).Compute(context.Background(), req)
	require.Len(t, cs.Records, 1)
	assert.Equal(t, "lib/b.txt", cs.Records[0].Path)
}

func TestComputeBackendFailure(t *testing.T) {
	tests := []struct {
		name string
		fail string
		req  Request
	}{
		{"show", "show", request(changeset.PreviousRevision(), "", rev("c1", "c0"))},
		{"range diff", "diff", request(changeset.PreviousRevision(), "", rev("c2", "c1"), rev("c1", "c0"))},
		{"existence", "exists main", request(changeset.NamedBranch("main"), "f.txt", rev("c1", "c0"))},
		{"status", "status", request(changeset.WorkingTree(), "", head("c1", "c0"))},
		{"split", "show c1", Request{Selection: selection.NewSnapshot(rev("c2", "c1"), rev("c1", "c0")), Split: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &fakeBackend{fail: tt.fail, show: map[string]string{"c2 --numstat": "1\t1\tx\n"}}

			var cs changeset.ChangeSet
			require.NotPanics(t, func() {
				cs = NewEngine(be).Compute(context.Background(), tt.req)
			})

			assert.True(t, cs.Failed())
			assert.True(t, cs.Empty())
			assert.ErrorIs(t, cs.Warning, changeset.ErrBackend)
			assert.ErrorIs(t, cs.Warning, errBoom)

			var be2 *BackendError
			require.ErrorAs(t, cs.Warning, &be2)
			assert.NotEmpty(t, be2.Op)
		})
	}
}

// Ranges run from the oldest selected revision's parent to the newest one,
// whatever order the rows were picked in.
func TestComputeRangeOrientation(t *testing.T) {
	list := []changeset.Revision{rev("c3", "c2"), rev("c2", "c1"), rev("c1", "c0"), rev("c0")}

	tests := []struct {
		name   string
		target changeset.ComparisonTarget
		key    string
	}{
		{"previous", changeset.PreviousRevision(), "--numstat|c0..c3|"},
		{"branch", changeset.NamedBranch("main"), "--numstat|main..c3|"},
		{"tree", changeset.WorkingTree(), "--numstat|c0.." + changeset.HeadMarker + "|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := selection.New(list)
			require.True(t, sel.SelectSingle("c1"))
			require.True(t, sel.Toggle("c3"))

			be := &fakeBackend{diff: map[string]string{tt.key: "1\t0\tz.txt\n"}}
			cs := NewEngine(be).Compute(context.Background(), Request{Selection: sel.Snapshot(), Target: tt.target})

			require.NoError(t, cs.Warning)
			require.Len(t, cs.Records, 1)
			assert.True(t, be.called("diff "+tt.key))
		})
	}
}

// Empty git output is a comparison with no changes, not a failure.
func TestComputeEmptyOutput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"single revision", request(changeset.PreviousRevision(), "", rev("c1", "c0"))},
		{"range", request(changeset.PreviousRevision(), "", rev("c2", "c1"), rev("c1", "c0"))},
		{"branch", request(changeset.NamedBranch("main"), "", rev("c1", "c0"))},
		{"clean tree", request(changeset.WorkingTree(), "", head("c1", "c0"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewEngine(&fakeBackend{}).Compute(context.Background(), tt.req)

			assert.NoError(t, cs.Warning)
			assert.False(t, cs.Failed())
			assert.True(t, cs.Empty())
		})
	}
}

func TestComputeEmptySelection(t *testing.T) {
	be := &fakeBackend{}
	cs := NewEngine(be).Compute(context.Background(), Request{Target: changeset.WorkingTree()})

	assert.True(t, cs.Empty())
	assert.False(t, cs.Failed())
	assert.Empty(t, be.calls)
}

func TestWorkingTreeChanges(t *testing.T) {
	status := []changeset.StatusEntry{
		{Path: "mod.txt", Index: " ", Worktree: "M"},
		{Path: "new.txt", Index: "?", Worktree: "?"},
		{Path: "to.txt", OldPath: "from.txt", Index: "R", Worktree: " "},
	}

	t.Run("merges counts", func(t *testing.T) {
		be := &fakeBackend{
			status: status,
			diff:   map[string]string{"--numstat|HEAD|": "2\t1\tmod.txt\n0\t0\tto.txt\n"},
			files:  map[string]string{"new.txt": "a\nb\n"},
		}
		records, err := NewEngine(be).WorkingTreeChanges(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, changeset.FileChangeRecord{Path: "mod.txt", Additions: 2, Deletions: 1, TotalChanges: 3, Status: changeset.StatusModified}, records[0])
		assert.Equal(t, changeset.StatusUnknown, records[1].Status)
		assert.Equal(t, 2, records[1].Additions)
		assert.Equal(t, changeset.StatusRenamed, records[2].Status)
		assert.Equal(t, "from.txt", records[2].OldPath)
	})

	t.Run("unborn HEAD falls back to the empty tree", func(t *testing.T) {
		be := &fakeBackend{
			status: status[:1],
			fail:   "|HEAD|",
			diff:   map[string]string{"--numstat|" + changeset.EmptyTree + "|": "7\t0\tmod.txt\n"},
		}
		records, err := NewEngine(be).WorkingTreeChanges(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 7, records[0].Additions)
	})

	t.Run("clean tree", func(t *testing.T) {
		be := &fakeBackend{}
		records, err := NewEngine(be).WorkingTreeChanges(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.False(t, be.called("diff"))
	})
}

func TestBackendError(t *testing.T) {
	err := fmt.Errorf("compute: %w", &BackendError{Op: "show c1", Err: errBoom})

	assert.True(t, IsBackendError(err))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "compute: show c1: exit status 128", err.Error())
	assert.False(t, IsBackendError(errBoom))
}
