// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tfctl/revctl/internal/backend"
	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/selection"
)

// splitLimit bounds the concurrent show calls issued in split mode.
const splitLimit = 4

var numstatFlags = []string{"--numstat"}

// BackendError records which backend operation failed. It matches
// changeset.ErrBackend under errors.Is.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports whether target is changeset.ErrBackend.
func (e *BackendError) Is(target error) bool {
	return target == changeset.ErrBackend
}

// Request is one comparison. Selection is a snapshot taken when the request
// was built so later selection edits cannot leak into a running query.
type Request struct {
	Selection selection.Snapshot
	Target    changeset.ComparisonTarget
	// Path restricts the comparison to one file. With a single selected
	// revision it also switches the engine to diff text mode.
	Path string
	// Patch asks for the unified diff in whole-tree modes as well.
	Patch bool
	// Split lists each selected revision's own records, tagged with the
	// revision id, instead of the net change across the range.
	Split bool
}

// Engine computes change-sets. It holds no state between calls and is safe
// for concurrent use when its Backend is.
type Engine struct {
	Backend backend.Backend
}

// NewEngine returns an Engine querying be.
func NewEngine(be backend.Backend) *Engine {
	return &Engine{Backend: be}
}

// Compute runs req. A backend failure yields an empty change-set whose
// Warning wraps changeset.ErrBackend; Compute itself never fails.
func (e *Engine) Compute(ctx context.Context, req Request) changeset.ChangeSet {
	if req.Selection.Len() == 0 {
		return changeset.ChangeSet{}
	}

	log.Debugf("Compute: %s target=%s path=%q split=%t", req.Selection.Key(), req.Target, req.Path, req.Split)

	cs, err := e.dispatch(ctx, req)
	if err != nil {
		log.WithError(err).Warn("comparison failed")
		return changeset.Failed(err)
	}
	return cs
}

func (e *Engine) dispatch(ctx context.Context, req Request) (changeset.ChangeSet, error) {
	if req.Split {
		return e.split(ctx, req)
	}

	single := req.Selection.Len() == 1

	switch req.Target.Kind() {
	case changeset.TargetPrevious:
		if single {
			return e.previousSingle(ctx, req)
		}
		return e.rangeNumstat(ctx, req, base(req.Selection.Last())+".."+req.Selection.First().ID)

	case changeset.TargetBranch:
		if single {
			return e.branchSingle(ctx, req)
		}
		return e.rangeNumstat(ctx, req, req.Target.Branch()+".."+req.Selection.First().ID)

	case changeset.TargetWorkingTree:
		switch {
		case !single:
			return e.rangeNumstat(ctx, req, base(req.Selection.Last())+".."+changeset.HeadMarker)
		case req.Selection.First().IsHead():
			return e.treeHead(ctx, req)
		default:
			return e.treeHistorical(ctx, req)
		}
	}

	return changeset.ChangeSet{}, fmt.Errorf("unknown comparison target %s", req.Target)
}

// base is the baseline of a range ending at the oldest selected revision:
// its first parent, or the empty tree for a root commit.
func base(oldest changeset.Revision) string {
	if oldest.IsRoot() {
		return changeset.EmptyTree
	}
	return oldest.Parents[0]
}

func (e *Engine) previousSingle(ctx context.Context, req Request) (changeset.ChangeSet, error) {
	rev := req.Selection.First()

	if req.Path != "" {
		return e.fileDiff(ctx, base(rev)+".."+rev.ID, req.Path)
	}

	out, err := e.show(ctx, rev.ID, numstatFlags...)
	if err != nil {
		return changeset.ChangeSet{}, err
	}
	cs := changeset.ChangeSet{Records: changeset.ParseNumericStat(out)}

	if req.Patch {
		if cs.Diff, err = e.show(ctx, rev.ID, "--patch"); err != nil {
			return changeset.ChangeSet{}, err
		}
	}
	return cs, nil
}

func (e *Engine) branchSingle(ctx context.Context, req Request) (changeset.ChangeSet, error) {
	rev := req.Selection.First()
	branch := req.Target.Branch()
	rangeSpec := branch + ".." + rev.ID

	if req.Path == "" {
		return e.rangeNumstat(ctx, req, rangeSpec)
	}

	atRev, atBranch, err := e.existsBoth(ctx, rev.ID, branch, req.Path)
	if err != nil {
		return changeset.ChangeSet{}, err
	}
	if !atRev && !atBranch {
		log.Debugf("branchSingle: %s absent at %s and %s", req.Path, rev.Short, branch)
		return changeset.ChangeSet{}, nil
	}

	return e.fileDiff(ctx, rangeSpec, req.Path)
}

func (e *Engine) treeHead(ctx context.Context, req Request) (changeset.ChangeSet, error) {
	if req.Path == "" {
		records, err := e.WorkingTreeChanges(ctx)
		if err != nil {
			return changeset.ChangeSet{}, err
		}
		cs := changeset.ChangeSet{Records: records}
		if req.Patch {
			if cs.Diff, err = e.diff(ctx, nil, changeset.HeadMarker, ""); err != nil {
				return changeset.ChangeSet{}, err
			}
		}
		return cs, nil
	}

	atHead, inTree, err := e.existsBoth(ctx, changeset.HeadMarker, "", req.Path)
	if err != nil {
		return changeset.ChangeSet{}, err
	}

	switch {
	case !atHead && !inTree:
		return changeset.ChangeSet{}, nil
	case !atHead:
		content, err := e.Backend.ReadWorkingFile(ctx, req.Path)
		if err != nil {
			return changeset.ChangeSet{}, &BackendError{Op: "read " + req.Path, Err: err}
		}
		text := NewFileDiff(req.Path, content)
		return changeset.ChangeSet{Records: RecordsFromPatch(text), Diff: text}, nil
	default:
		return e.fileDiff(ctx, changeset.HeadMarker, req.Path)
	}
}

// treeHistorical diffs a historical revision against HEAD and flips the
// result so the selected revision reads as the baseline.
func (e *Engine) treeHistorical(ctx context.Context, req Request) (changeset.ChangeSet, error) {
	rangeSpec := req.Selection.First().ID + ".." + changeset.HeadMarker

	if req.Path == "" {
		out, err := e.diff(ctx, numstatFlags, rangeSpec, "")
		if err != nil {
			return changeset.ChangeSet{}, err
		}
		cs := changeset.ChangeSet{Records: ReverseRecords(changeset.ParseNumericStat(out))}
		if req.Patch {
			text, err := e.diff(ctx, nil, rangeSpec, "")
			if err != nil {
				return changeset.ChangeSet{}, err
			}
			cs.Diff = Reverse(text)
		}
		return cs, nil
	}

	text, err := e.diff(ctx, nil, rangeSpec, req.Path)
	if err != nil {
		return changeset.ChangeSet{}, err
	}
	text = Reverse(text)
	return changeset.ChangeSet{Records: RecordsFromPatch(text), Diff: text}, nil
}

// rangeNumstat is the net change across rangeSpec as one two-endpoint diff.
func (e *Engine) rangeNumstat(ctx context.Context, req Request, rangeSpec string) (changeset.ChangeSet, error) {
	out, err := e.diff(ctx, numstatFlags, rangeSpec, req.Path)
	if err != nil {
		return changeset.ChangeSet{}, err
	}
	cs := changeset.ChangeSet{Records: changeset.ParseNumericStat(out)}

	if req.Patch {
		if cs.Diff, err = e.diff(ctx, nil, rangeSpec, req.Path); err != nil {
			return changeset.ChangeSet{}, err
		}
	}
	return cs, nil
}

func (e *Engine) fileDiff(ctx context.Context, rangeSpec, p string) (changeset.ChangeSet, error) {
	text, err := e.diff(ctx, nil, rangeSpec, p)
	if err != nil {
		return changeset.ChangeSet{}, err
	}
	return changeset.ChangeSet{Records: RecordsFromPatch(text), Diff: text}, nil
}

// split shows every selected revision on its own. Results keep selection
// order regardless of completion order.
func (e *Engine) split(ctx context.Context, req Request) (changeset.ChangeSet, error) {
	revs := req.Selection.Revisions()
	parts := make([][]changeset.FileChangeRecord, len(revs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(splitLimit)
	for i, rev := range revs {
		g.Go(func() error {
			out, err := e.show(gctx, rev.ID, numstatFlags...)
			if err != nil {
				return err
			}
			records := filterPath(changeset.ParseNumericStat(out), req.Path)
			for j := range records {
				records[j].Revision = rev.ID
			}
			parts[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return changeset.ChangeSet{}, err
	}

	var cs changeset.ChangeSet
	for _, p := range parts {
		cs.Records = append(cs.Records, p...)
	}
	return cs, nil
}

// existsBoth checks path at two revisions concurrently.
func (e *Engine) existsBoth(ctx context.Context, revA, revB, p string) (bool, bool, error) {
	var a, b bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = e.exists(gctx, revA, p)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = e.exists(gctx, revB, p)
		return err
	})

	err := g.Wait()
	return a, b, err
}

// WorkingTreeChanges merges porcelain status with numstat counts against
// HEAD, or against the empty tree before the first commit.
func (e *Engine) WorkingTreeChanges(ctx context.Context) ([]changeset.FileChangeRecord, error) {
	entries, err := e.Backend.WorkingTreeStatus(ctx)
	if err != nil {
		return nil, &BackendError{Op: "status", Err: err}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	// Before the first commit HEAD does not resolve and the empty tree
	// stands in for it.
	out, err := e.diff(ctx, numstatFlags, changeset.HeadMarker, "")
	if err != nil {
		log.WithError(err).Debug("WorkingTreeChanges: falling back to the empty tree")
		out, err = e.diff(ctx, numstatFlags, changeset.EmptyTree, "")
	}
	if err != nil {
		return nil, err
	}

	counts := map[string]changeset.FileChangeRecord{}
	for _, r := range changeset.ParseNumericStat(out) {
		counts[r.Path] = r
	}

	records := make([]changeset.FileChangeRecord, 0, len(entries))
	for _, entry := range entries {
		r := changeset.FromStatusEntry(entry)
		if c, ok := counts[r.Path]; ok {
			r.Additions, r.Deletions, r.TotalChanges = c.Additions, c.Deletions, c.TotalChanges
			r.Binary = c.Binary
		} else if r.Status == changeset.StatusUnknown || r.Status == changeset.StatusAdded {
			r = e.countUntracked(ctx, r)
		}
		records = append(records, r)
	}
	return changeset.Dedupe(records), nil
}

// countUntracked fills counts for a file git diff cannot see yet.
func (e *Engine) countUntracked(ctx context.Context, r changeset.FileChangeRecord) changeset.FileChangeRecord {
	content, err := e.Backend.ReadWorkingFile(ctx, r.Path)
	if err != nil {
		log.WithError(err).Debugf("countUntracked: %s", r.Path)
		return r
	}
	n := countLines(content)
	r.Additions, r.TotalChanges = n, n
	return r
}

func (e *Engine) show(ctx context.Context, rev string, flags ...string) (string, error) {
	out, err := e.Backend.Show(ctx, rev, flags...)
	if err != nil {
		return "", &BackendError{Op: "show " + rev, Err: err}
	}
	return out, nil
}

func (e *Engine) diff(ctx context.Context, flags []string, rangeSpec, p string) (string, error) {
	out, err := e.Backend.Diff(ctx, flags, rangeSpec, p)
	if err != nil {
		return "", &BackendError{Op: "diff " + rangeSpec, Err: err}
	}
	return out, nil
}

// exists checks p at rev.
func (e *Engine) exists(ctx context.Context, rev, p string) (bool, error) {
	ok, err := e.Backend.FileExistsAt(ctx, rev, p)
	if err != nil {
		return false, &BackendError{Op: "exists " + rev, Err: err}
	}
	return ok, nil
}

// filterPath keeps records for p or anything below it. An empty p keeps
// everything.
func filterPath(records []changeset.FileChangeRecord, p string) []changeset.FileChangeRecord {
	if p == "" {
		return records
	}
	p = path.Clean(p)
	out := records[:0]
	for _, r := range records {
		if under(r.Path, p) || (r.OldPath != "" && under(r.OldPath, p)) {
			out = append(out, r)
		}
	}
	return out
}

func under(file, dir string) bool {
	return file == dir || strings.HasPrefix(file, dir+"/")
}

// IsBackendError reports whether err came from a failed backend call.
func IsBackendError(err error) bool {
	return errors.Is(err, changeset.ErrBackend)
}
