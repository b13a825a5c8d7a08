// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package changeset

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

const binaryMarker = "-"

var numstatLine = regexp.MustCompile(`^\s*(\d+|-)\s+(\d+|-)\s+(\S.*?)\s*$`)

// ParseNumericStat parses "<added>\t<deleted>\t<path>" lines.
func ParseNumericStat(text string) []FileChangeRecord {
	var records []FileChangeRecord

	for _, line := range lines(text) {
		m := numstatLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		p, old := splitRename(UnquotePath(m[3]))

		var rec FileChangeRecord
		if m[1] == binaryMarker || m[2] == binaryMarker {
			rec = NewBinaryRecord(p)
		} else {
			added, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			deleted, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			rec = NewTextRecord(p, added, deleted)
			if old != "" {
				rec.Status = StatusRenamed
			}
		}
		rec.OldPath = old

		records = append(records, rec)
	}

	return records
}

// splitRename resolves git's rename notation. "a => b" yields (b, a) and
// "dir/{a => b}/f" yields ("dir/b/f", "dir/a/f"). A plain path is returned
// unchanged with an empty old path.
func splitRename(p string) (string, string) {
	if !strings.Contains(p, " => ") {
		return p, ""
	}

	lo := strings.Index(p, "{")
	hi := strings.LastIndex(p, "}")
	if lo >= 0 && hi > lo {
		inner := p[lo+1 : hi]
		parts := strings.SplitN(inner, " => ", 2)
		if len(parts) == 2 {
			prefix, suffix := p[:lo], p[hi+1:]
			return cleanJoin(prefix + parts[1] + suffix), cleanJoin(prefix + parts[0] + suffix)
		}
	}

	parts := strings.SplitN(p, " => ", 2)
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
}

// UnquotePath undoes git's C style quoting of paths holding spaces, quotes,
// control or non-ASCII bytes, as in "a\tb" or "\303\251.txt".
// Unquoted or malformed input is returned unchanged.
func UnquotePath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if u, err := strconv.Unquote(p); err == nil {
		return u
	}
	return p
}

// cleanJoin collapses the doubled separators left by an empty side of a
// brace rename such as "{ => sub}/f".
func cleanJoin(p string) string {
	return strings.TrimPrefix(path.Clean(p), "/")
}

// lines splits text on newlines, tolerating CRLF and a missing final newline.
func lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
