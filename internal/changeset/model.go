// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package changeset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// HeadMarker is the pseudo revision id naming the checked out revision.
const HeadMarker = "HEAD"

// EmptyTree is the well-known id of git's empty tree. It stands in for the
// parent of a root revision.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// ErrBackend marks a failed version-control invocation. A change-set that
// carries it is empty because the query failed, not because nothing changed.
var ErrBackend = errors.New("backend invocation failed")

// Revision is a single entry of a revision list.
type Revision struct {
	ID        string    `jsonapi:"primary,revisions" json:"id"`
	Short     string    `jsonapi:"attr,short" json:"short"`
	Message   string    `jsonapi:"attr,message" json:"message"`
	Author    string    `jsonapi:"attr,author" json:"author"`
	Timestamp time.Time `jsonapi:"attr,timestamp,iso8601" json:"timestamp"`
	Parents   []string  `jsonapi:"attr,parents" json:"parents"`
	Refs      []string  `jsonapi:"attr,refs" json:"refs"`
}

// NewRevision returns a Revision with Short derived from id.
func NewRevision(id, message, author string, ts time.Time, parents, refs []string) Revision {
	return Revision{
		ID:        id,
		Short:     ShortID(id),
		Message:   message,
		Author:    author,
		Timestamp: ts,
		Parents:   parents,
		Refs:      refs,
	}
}

// ShortID returns the first seven characters of id.
func ShortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// IsHead reports whether the revision is the checked out one.
func (r Revision) IsHead() bool {
	return r.ID == HeadMarker || slices.Contains(r.Refs, HeadMarker)
}

// IsRoot reports whether the revision has no parents.
func (r Revision) IsRoot() bool {
	return len(r.Parents) == 0
}

// Status is the closed set of per-file change kinds.
type Status int

// Status values.
const (
	StatusModified Status = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusCopied
	StatusUnmerged
	StatusUnknown
)

var statusNames = [...]string{
	StatusModified: "Modified",
	StatusAdded:    "Added",
	StatusDeleted:  "Deleted",
	StatusRenamed:  "Renamed",
	StatusCopied:   "Copied",
	StatusUnmerged: "Unmerged",
	StatusUnknown:  "Unknown",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText renders the status by name so JSON, YAML and JSON:API payloads
// carry "Added" rather than an ordinal.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts a status name or any token ClassifyStatus understands.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if strings.EqualFold(name, string(b)) {
			*s = Status(i)
			return nil
		}
	}
	*s = ClassifyStatus(string(b))
	return nil
}

// FileChangeRecord is the normalized per-file change.
//
// TotalChanges == Additions + Deletions for text files. Binary files are
// all-zero with StatusModified and Binary set.
type FileChangeRecord struct {
	Path         string `jsonapi:"primary,files" json:"path"`
	OldPath      string `jsonapi:"attr,old-path,omitempty" json:"old_path,omitempty"`
	Additions    int    `jsonapi:"attr,additions" json:"additions"`
	Deletions    int    `jsonapi:"attr,deletions" json:"deletions"`
	TotalChanges int    `jsonapi:"attr,total-changes" json:"total_changes"`
	Status       Status `jsonapi:"attr,status" json:"status"`
	Binary       bool   `jsonapi:"attr,binary" json:"binary"`
	Revision     string `jsonapi:"attr,revision,omitempty" json:"revision,omitempty"`
}

// NewTextRecord builds a text record, inferring the status from the counts.
func NewTextRecord(path string, additions, deletions int) FileChangeRecord {
	return FileChangeRecord{
		Path:         path,
		Additions:    additions,
		Deletions:    deletions,
		TotalChanges: additions + deletions,
		Status:       statusFromCounts(additions, deletions),
	}
}

// NewBinaryRecord builds the all-zero record used for binary files.
func NewBinaryRecord(path string) FileChangeRecord {
	return FileChangeRecord{
		Path:   path,
		Status: StatusModified,
		Binary: true,
	}
}

func statusFromCounts(additions, deletions int) Status {
	switch {
	case deletions == 0 && additions > 0:
		return StatusAdded
	case additions == 0 && deletions > 0:
		return StatusDeleted
	default:
		return StatusModified
	}
}

// ChangeSet is the result of one comparison.
type ChangeSet struct {
	Records []FileChangeRecord
	// Diff is the raw unified diff for single-file requests.
	Diff string
	// Warning is set when a backend invocation failed. Records and Diff are
	// empty in that case.
	Warning error
}

// Failed builds the empty change-set returned for a failed query.
func Failed(err error) ChangeSet {
	if !errors.Is(err, ErrBackend) {
		err = fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return ChangeSet{Warning: err}
}

// Empty reports whether the change-set carries neither records nor diff text.
func (cs ChangeSet) Empty() bool {
	return len(cs.Records) == 0 && cs.Diff == ""
}

// Failed reports whether the change-set is empty because a query failed.
func (cs ChangeSet) Failed() bool {
	return cs.Warning != nil
}

// Dedupe returns records with one entry per path, keeping the first
// occurrence and the original order.
func Dedupe(records []FileChangeRecord) []FileChangeRecord {
	if len(records) < 2 {
		return records
	}
	seen := make(map[string]bool, len(records))
	out := make([]FileChangeRecord, 0, len(records))
	for _, r := range records {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r)
	}
	return out
}

// TargetKind discriminates ComparisonTarget.
type TargetKind int

// Target kinds.
const (
	TargetPrevious TargetKind = iota
	TargetBranch
	TargetWorkingTree
)

// ComparisonTarget is the baseline a selection is compared against.
type ComparisonTarget struct {
	kind   TargetKind
	branch string
}

// PreviousRevision compares each selection against its parent.
func PreviousRevision() ComparisonTarget { return ComparisonTarget{kind: TargetPrevious} }

// NamedBranch compares the selection against branch.
func NamedBranch(branch string) ComparisonTarget {
	return ComparisonTarget{kind: TargetBranch, branch: branch}
}

// WorkingTree compares the selection against the live working tree.
func WorkingTree() ComparisonTarget { return ComparisonTarget{kind: TargetWorkingTree} }

// Kind returns the target discriminator.
func (t ComparisonTarget) Kind() TargetKind { return t.kind }

// Branch returns the branch name of a NamedBranch target.
func (t ComparisonTarget) Branch() string { return t.branch }

func (t ComparisonTarget) String() string {
	switch t.kind {
	case TargetBranch:
		return "branch:" + t.branch
	case TargetWorkingTree:
		return "tree"
	default:
		return "prev"
	}
}

// ParseTarget parses "prev", "tree" or "branch:<name>".
func ParseTarget(s string) (ComparisonTarget, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "prev" || s == "previous":
		return PreviousRevision(), nil
	case s == "tree" || s == "worktree":
		return WorkingTree(), nil
	case strings.HasPrefix(s, "branch:"):
		name := strings.TrimPrefix(s, "branch:")
		if name == "" {
			return ComparisonTarget{}, fmt.Errorf("empty branch name in target %q", s)
		}
		return NamedBranch(name), nil
	}
	return ComparisonTarget{}, fmt.Errorf("unknown comparison target %q", s)
}

// StatusEntry is one line of working-tree status. OldPath is set for renames
// and copies.
type StatusEntry struct {
	Path     string
	OldPath  string
	Index    string
	Worktree string
}
