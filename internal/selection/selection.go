// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"sort"
	"strings"

	"github.com/tfctl/revctl/internal/changeset"
)

// Selection is a set of revision ids drawn from one revision list plus the
// anchor used to seed range extension. It is owned by a single caller and is
// not safe for concurrent use. Hand Snapshot values to other goroutines.
type Selection struct {
	list    []changeset.Revision
	pos     map[string]int
	members map[string]bool
	anchor  string
}

// New returns an empty Selection over list.
func New(list []changeset.Revision) *Selection {
	s := &Selection{}
	s.Refresh(list)
	return s
}

// Refresh installs a new revision list. The current selection and anchor are
// discarded.
func (s *Selection) Refresh(list []changeset.Revision) {
	s.list = list
	s.pos = make(map[string]int, len(list))
	for i, r := range list {
		if _, dup := s.pos[r.ID]; !dup {
			s.pos[r.ID] = i
		}
	}
	s.members = map[string]bool{}
	s.anchor = ""
}

// List returns the revision list the selection is built over.
func (s *Selection) List() []changeset.Revision {
	return s.list
}

// Position returns the list position of id.
func (s *Selection) Position(id string) (int, bool) {
	p, ok := s.pos[id]
	return p, ok
}

// SelectSingle clears the selection and selects id. It is a no-op returning
// false when id is not in the list.
func (s *Selection) SelectSingle(id string) bool {
	if _, ok := s.pos[id]; !ok {
		return false
	}
	s.members = map[string]bool{id: true}
	s.anchor = id
	return true
}

// Toggle flips membership of id and makes it the anchor.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.pos[id]; !ok {
		return false
	}
	if s.members[id] {
		delete(s.members, id)
	} else {
		s.members[id] = true
	}
	s.anchor = id
	return true
}

// ExtendRange adds every revision between the anchor and id, inclusive, to
// the selection. Existing members are kept. Without an anchor, or when either
// end is not in the list, it does nothing and returns false.
func (s *Selection) ExtendRange(id string) bool {
	if s.anchor == "" {
		return false
	}
	p0, ok := s.pos[s.anchor]
	if !ok {
		return false
	}
	p1, ok := s.pos[id]
	if !ok {
		return false
	}

	lo, hi := min(p0, p1), max(p0, p1)
	for i := lo; i <= hi; i++ {
		s.members[s.list[i].ID] = true
	}
	return true
}

// Anchor returns the most recently clicked id.
func (s *Selection) Anchor() string {
	return s.anchor
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	return s.members[id]
}

// Len returns the number of selected revisions.
func (s *Selection) Len() int {
	return len(s.members)
}

// Clear empties the selection and forgets the anchor.
func (s *Selection) Clear() {
	s.members = map[string]bool{}
	s.anchor = ""
}

// Ordered returns the selected revisions by list position, newest first.
func (s *Selection) Ordered() []changeset.Revision {
	positions := make([]int, 0, len(s.members))
	for id := range s.members {
		positions = append(positions, s.pos[id])
	}
	sort.Ints(positions)

	out := make([]changeset.Revision, 0, len(positions))
	for _, p := range positions {
		out = append(out, s.list[p])
	}
	return out
}

// Snapshot returns an immutable copy of the current selection.
func (s *Selection) Snapshot() Snapshot {
	return Snapshot{revisions: s.Ordered()}
}

// Snapshot is a value copy of a Selection, ordered newest first.
type Snapshot struct {
	revisions []changeset.Revision
}

// NewSnapshot builds a Snapshot from revisions already ordered newest first.
func NewSnapshot(revisions ...changeset.Revision) Snapshot {
	return Snapshot{revisions: append([]changeset.Revision(nil), revisions...)}
}

// Len returns the number of revisions in the snapshot.
func (sn Snapshot) Len() int { return len(sn.revisions) }

// Revisions returns a copy of the revisions, newest first.
func (sn Snapshot) Revisions() []changeset.Revision {
	return append([]changeset.Revision(nil), sn.revisions...)
}

// First returns the newest selected revision.
func (sn Snapshot) First() changeset.Revision {
	if len(sn.revisions) == 0 {
		return changeset.Revision{}
	}
	return sn.revisions[0]
}

// Last returns the oldest selected revision.
func (sn Snapshot) Last() changeset.Revision {
	if len(sn.revisions) == 0 {
		return changeset.Revision{}
	}
	return sn.revisions[len(sn.revisions)-1]
}

// IDs returns the selected ids, newest first.
func (sn Snapshot) IDs() []string {
	ids := make([]string, len(sn.revisions))
	for i, r := range sn.revisions {
		ids[i] = r.ID
	}
	return ids
}

// Key identifies the snapshot's membership. Two snapshots with the same key
// select the same revisions.
func (sn Snapshot) Key() string {
	return strings.Join(sn.IDs(), ",")
}
