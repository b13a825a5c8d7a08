// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package changeset

import (
	"strings"
)

var exactStatus = map[string]Status{
	"A": StatusAdded,
	"D": StatusDeleted,
	"M": StatusModified,
	"T": StatusModified,
	"R": StatusRenamed,
	"C": StatusCopied,
	"U": StatusUnmerged,
	"?": StatusUnknown,
	"X": StatusUnknown,
}

// Short-token priority. A conflict or an untracked marker outranks anything
// else that appears alongside it in a porcelain pair such as "AU" or "??".
var tokenPriority = []struct {
	r      rune
	status Status
}{
	{'?', StatusUnknown},
	{'U', StatusUnmerged},
	{'R', StatusRenamed},
	{'C', StatusCopied},
	{'A', StatusAdded},
	{'D', StatusDeleted},
}

// Free-text words, checked in order. "untracked" must precede "unmerged"
// style checks so it is never read as a conflict.
var statusWords = []struct {
	words  []string
	status Status
}{
	{[]string{"untracked", "unknown"}, StatusUnknown},
	{[]string{"unmerged", "conflict"}, StatusUnmerged},
	{[]string{"renamed", "rename"}, StatusRenamed},
	{[]string{"copied", "copy"}, StatusCopied},
	{[]string{"added", "new file"}, StatusAdded},
	{[]string{"deleted", "removed"}, StatusDeleted},
}

// ClassifyStatus maps a raw status token onto Status. It accepts single
// letter codes, porcelain pairs, scored codes like R100 and free text such
// as "deleted". Anything it cannot place is Modified.
func ClassifyStatus(token string) Status {
	t := strings.TrimSpace(token)
	if t == "" {
		return StatusModified
	}

	if s, ok := exactStatus[t]; ok {
		return s
	}

	if isShortToken(t) {
		for _, p := range tokenPriority {
			if strings.ContainsRune(t, p.r) {
				return p.status
			}
		}
		return StatusModified
	}

	lower := strings.ToLower(t)
	for _, w := range statusWords {
		for _, word := range w.words {
			if strings.Contains(lower, word) {
				return w.status
			}
		}
	}

	return StatusModified
}

// isShortToken reports whether t looks like a status code rather than prose:
// a few upper-case code letters optionally followed by a similarity score.
func isShortToken(t string) bool {
	if len(t) > 5 {
		return false
	}
	for _, r := range t {
		switch {
		case strings.ContainsRune("ADMRCUTX?! ", r):
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// FromStatusEntry converts one working-tree status entry into a record with
// zero counts. The index and worktree tokens are classified as one pair.
func FromStatusEntry(e StatusEntry) FileChangeRecord {
	path, old := e.Path, e.OldPath
	if old == "" {
		path, old = splitRename(e.Path)
	}
	status := ClassifyStatus(e.Index + e.Worktree)
	return FileChangeRecord{
		Path:    path,
		OldPath: old,
		Status:  status,
	}
}
