// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package changeset

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		token string
		want  Status
	}{
		{"A", StatusAdded},
		{"D", StatusDeleted},
		{"M", StatusModified},
		{"R", StatusRenamed},
		{"C", StatusCopied},
		{"U", StatusUnmerged},
		{"?", StatusUnknown},
		{" D", StatusDeleted},
		{"??", StatusUnknown},
		{"AM", StatusAdded},
		{"MD", StatusDeleted},
		{"UU", StatusUnmerged},
		{"AU", StatusUnmerged},
		{"R100", StatusRenamed},
		{"C050", StatusCopied},
		{"added", StatusAdded},
		{"Deleted", StatusDeleted},
		{"new file", StatusAdded},
		{"renamed", StatusRenamed},
		{"both modified (conflict)", StatusUnmerged},
		{"Untracked", StatusUnknown},
		{"changed", StatusModified},
		{"", StatusModified},
		{"   ", StatusModified},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.token))
		})
	}
}

func TestFromStatusEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry StatusEntry
		want  FileChangeRecord
	}{
		{"untracked", StatusEntry{Path: "n.go", Index: "?", Worktree: "?"}, FileChangeRecord{Path: "n.go", Status: StatusUnknown}},
		{"worktree modified", StatusEntry{Path: "m.go", Index: " ", Worktree: "M"}, FileChangeRecord{Path: "m.go", Status: StatusModified}},
		{"staged add", StatusEntry{Path: "a.go", Index: "A", Worktree: " "}, FileChangeRecord{Path: "a.go", Status: StatusAdded}},
		{"conflict", StatusEntry{Path: "c.go", Index: "U", Worktree: "U"}, FileChangeRecord{Path: "c.go", Status: StatusUnmerged}},
		{"rename", StatusEntry{Path: "a.go => b.go", Index: "R", Worktree: " "}, FileChangeRecord{Path: "b.go", OldPath: "a.go", Status: StatusRenamed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatusEntry(tt.entry))
		})
	}
}

func TestStatusText(t *testing.T) {
	b, err := json.Marshal(FileChangeRecord{Path: "x", Status: StatusRenamed})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"Renamed"`)

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("deleted")))
	assert.Equal(t, StatusDeleted, s)
	require.NoError(t, s.UnmarshalText([]byte("R100")))
	assert.Equal(t, StatusRenamed, s)

	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestTarget(t *testing.T) {
	tests := []struct {
		in      string
		kind    TargetKind
		branch  string
		wantErr bool
	}{
		{"prev", TargetPrevious, "", false},
		{"", TargetPrevious, "", false},
		{"tree", TargetWorkingTree, "", false},
		{"branch:main", TargetBranch, "main", false},
		{"branch:", TargetPrevious, "", true},
		{"sideways", TargetPrevious, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.branch, got.Branch())
		})
	}

	assert.Equal(t, "branch:dev", NamedBranch("dev").String())
}

func TestRevision(t *testing.T) {
	r := NewRevision("0123456789abcdef", "msg", "me", time.Time{}, nil, []string{"HEAD", "main"})
	assert.Equal(t, "0123456", r.Short)
	assert.True(t, r.IsHead())
	assert.True(t, r.IsRoot())

	assert.True(t, Revision{ID: HeadMarker}.IsHead())
	assert.False(t, Revision{ID: "abc", Parents: []string{"def"}}.IsHead())
}

func TestChangeSet(t *testing.T) {
	cs := Failed(errors.New("exit status 128"))
	assert.True(t, cs.Failed())
	assert.True(t, cs.Empty())
	assert.ErrorIs(t, cs.Warning, ErrBackend)

	ok := ChangeSet{}
	assert.False(t, ok.Failed())
	assert.True(t, ok.Empty())

	recs := Dedupe([]FileChangeRecord{{Path: "a", Additions: 1}, {Path: "b"}, {Path: "a", Additions: 9}})
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Additions)
	assert.Equal(t, "b", recs[1].Path)
}
