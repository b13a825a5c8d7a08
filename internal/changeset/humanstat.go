// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package changeset

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	humanLine     = regexp.MustCompile(`^\s*(.+?)\s+\|\s+(.*?)\s*$`)
	humanBinary   = regexp.MustCompile(`^Bin\b`)
	humanTotal    = regexp.MustCompile(`^(\d+)\b`)
	humanSummary  = regexp.MustCompile(`^\s*\d+\s+files?\s+changed`)
	insertionsRe  = regexp.MustCompile(`(\d+)\s+insertions?\(\+\)`)
	deletionsRe   = regexp.MustCompile(`(\d+)\s+deletions?\(-\)`)
	bareAddedRe   = regexp.MustCompile(`(?:^|\s)(\d+)\+`)
	bareDeletedRe = regexp.MustCompile(`(?:^|\s)(\d+)-`)
	leadingToken  = regexp.MustCompile(`^([ADMRCUTX?]{1,2})\d*\t+(.+)$`)
)

// ParseHumanStat parses "<path> | <N> <glyphs>" lines and stops at the
// "N files changed" footer.
//
// The glyph column is scaled to the terminal width, so it is never counted.
// Counts come from "N insertions(+)"/"N deletions(-)" or bare "N+"/"N-"
// tokens when present. Otherwise the total is split evenly, floor(N/2)
// additions and the remainder deletions.
func ParseHumanStat(text string) []FileChangeRecord {
	var records []FileChangeRecord

	for _, line := range lines(text) {
		if humanSummary.MatchString(line) {
			break
		}

		m := humanLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		segment, detail := m[1], m[2]

		token := ""
		if t := leadingToken.FindStringSubmatch(segment); t != nil {
			token, segment = t[1], t[2]
		}
		p, old := splitRename(strings.TrimSpace(segment))
		if p == "" {
			continue
		}

		if humanBinary.MatchString(detail) {
			rec := NewBinaryRecord(p)
			rec.OldPath = old
			records = append(records, rec)
			continue
		}

		t := humanTotal.FindStringSubmatch(detail)
		if t == nil {
			continue
		}
		total, err := strconv.Atoi(t[1])
		if err != nil {
			continue
		}

		added, deleted := humanCounts(total, detail)
		rec := NewTextRecord(p, added, deleted)
		rec.OldPath = old

		switch {
		case old != "":
			rec.Status = StatusRenamed
		case rec.Status == StatusModified && token != "":
			rec.Status = ClassifyStatus(token)
		}

		records = append(records, rec)
	}

	return records
}

// humanCounts splits a total into additions and deletions using whatever the
// rest of the line states explicitly, falling back to an even split.
func humanCounts(total int, rest string) (int, int) {
	added, hasAdded := firstInt(insertionsRe, rest)
	deleted, hasDeleted := firstInt(deletionsRe, rest)
	if !hasAdded && !hasDeleted {
		added, hasAdded = firstInt(bareAddedRe, rest)
		deleted, hasDeleted = firstInt(bareDeletedRe, rest)
	}

	switch {
	case hasAdded && hasDeleted:
		return added, deleted
	case hasAdded:
		return added, max(total-added, 0)
	case hasDeleted:
		return max(total-deleted, 0), deleted
	}

	return total / 2, total - total/2
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
