// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package changeset

import (
	"regexp"
	"strings"
)

var nameStatusCode = regexp.MustCompile(`^(\?\?|[ADMRCUTX?!])(\d*)$`)

// ParseNameStatus parses "<code>[score]\t<path>" lines. Only the leading
// letter of the code is significant.
//
// Rename and copy lines carry two paths, "R100\told\tnew". Both are kept:
// Path is the new name and OldPath the old one. A rename or copy line with a
// single path is taken as-is with OldPath empty.
func ParseNameStatus(text string) []FileChangeRecord {
	var records []FileChangeRecord

	for _, line := range lines(text) {
		fields := nameStatusFields(line)
		if len(fields) < 2 {
			continue
		}

		m := nameStatusCode.FindStringSubmatch(fields[0])
		if m == nil {
			continue
		}

		rec := FileChangeRecord{Status: ClassifyStatus(m[1])}
		switch {
		case (rec.Status == StatusRenamed || rec.Status == StatusCopied) && len(fields) >= 3:
			rec.OldPath, rec.Path = fields[1], fields[2]
		default:
			rec.Path = fields[1]
		}
		if rec.Path == "" {
			continue
		}

		records = append(records, rec)
	}

	return records
}

// nameStatusFields splits on tabs, which is what git emits. Hand-written
// input separated by spaces is accepted when it has no tabs at all, in which
// case the path must not contain whitespace.
func nameStatusFields(line string) []string {
	line = strings.TrimRight(line, " \r")
	if strings.Contains(line, "\t") {
		raw := strings.Split(strings.TrimLeft(line, " "), "\t")
		fields := raw[:0]
		for _, f := range raw {
			if f != "" {
				fields = append(fields, f)
			}
		}
		return fields
	}
	return strings.Fields(line)
}
