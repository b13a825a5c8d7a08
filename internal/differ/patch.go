// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"golang.org/x/crypto/blake2b"

	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/log"
)

const devNull = "/dev/null"

var hunkHeader = regexp.MustCompile(`^@@ -(\S+) \+(\S+) @@(.*)$`)

// NewFileDiff renders content as the unified diff of a newly added file.
// The index line carries a short blake2b digest of the content in place of a
// blob id.
func NewFileDiff(path string, content []byte) string {
	sum := blake2b.Sum256(content)

	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", path, path)
	sb.WriteString("new file mode 100644\n")
	fmt.Fprintf(&sb, "index 0000000..%s\n", hex.EncodeToString(sum[:])[:7])
	sb.WriteString("--- " + devNull + "\n")
	fmt.Fprintf(&sb, "+++ b/%s\n", path)

	lines := splitLines(content)
	if len(lines) == 0 {
		return sb.String()
	}

	fmt.Fprintf(&sb, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, l := range lines {
		sb.WriteString("+" + l + "\n")
	}
	if content[len(content)-1] != '\n' {
		sb.WriteString("\\ No newline at end of file\n")
	}
	return sb.String()
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func countLines(content []byte) int {
	return len(splitLines(content))
}

// Reverse flips the polarity of a unified diff: added and removed lines
// trade prefixes, the ---/+++ header pair and hunk ranges swap sides, and
// file level headers are inverted to match.
func Reverse(text string) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inHunk := false

	for i := 0; i < len(lines); i++ {
		l := lines[i]

		switch {
		case strings.HasPrefix(l, "diff "):
			inHunk = false
			out = append(out, reverseGitHeader(l))

		case strings.HasPrefix(l, "@@ "):
			inHunk = true
			if m := hunkHeader.FindStringSubmatch(l); m != nil {
				l = "@@ -" + m[2] + " +" + m[1] + " @@" + m[3]
			}
			out = append(out, l)

		case !inHunk && strings.HasPrefix(l, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ "):
			out = append(out,
				"--- "+flipSide(lines[i+1][4:]),
				"+++ "+flipSide(l[4:]),
			)
			i++

		case !inHunk && strings.HasPrefix(l, "rename from ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "rename to "):
			out = append(out,
				"rename from "+strings.TrimPrefix(lines[i+1], "rename to "),
				"rename to "+strings.TrimPrefix(l, "rename from "),
			)
			i++

		case !inHunk && strings.HasPrefix(l, "old mode ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "new mode "):
			out = append(out,
				"old mode "+strings.TrimPrefix(lines[i+1], "new mode "),
				"new mode "+strings.TrimPrefix(l, "old mode "),
			)
			i++

		case !inHunk && strings.HasPrefix(l, "new file mode "):
			out = append(out, "deleted file mode "+strings.TrimPrefix(l, "new file mode "))

		case !inHunk && strings.HasPrefix(l, "deleted file mode "):
			out = append(out, "new file mode "+strings.TrimPrefix(l, "deleted file mode "))

		case !inHunk && strings.HasPrefix(l, "index "):
			out = append(out, reverseIndex(l))

		case strings.HasPrefix(l, "+"):
			out = append(out, "-"+l[1:])

		case strings.HasPrefix(l, "-"):
			out = append(out, "+"+l[1:])

		default:
			out = append(out, l)
		}
	}

	return strings.Join(out, "\n")
}

func reverseGitHeader(l string) string {
	const prefix = "diff --git a/"
	if !strings.HasPrefix(l, prefix) {
		return l
	}
	idx := strings.LastIndex(l, " b/")
	if idx < len(prefix) {
		return l
	}
	return prefix + l[idx+3:] + " b/" + l[len(prefix):idx]
}

// reverseIndex turns "index abc..def 100644" into "index def..abc 100644".
func reverseIndex(l string) string {
	fields := strings.Fields(l)
	if len(fields) < 2 {
		return l
	}
	from, to, ok := strings.Cut(fields[1], "..")
	if !ok {
		return l
	}
	fields[1] = to + ".." + from
	return strings.Join(fields, " ")
}

func flipSide(name string) string {
	switch {
	case strings.HasPrefix(name, "a/"):
		return "b/" + name[2:]
	case strings.HasPrefix(name, "b/"):
		return "a/" + name[2:]
	default:
		return name
	}
}

// ReverseRecords flips numstat records the same way Reverse flips diff
// text.
func ReverseRecords(records []changeset.FileChangeRecord) []changeset.FileChangeRecord {
	out := make([]changeset.FileChangeRecord, len(records))
	for i, r := range records {
		r.Additions, r.Deletions = r.Deletions, r.Additions
		switch r.Status {
		case changeset.StatusAdded:
			r.Status = changeset.StatusDeleted
		case changeset.StatusDeleted:
			r.Status = changeset.StatusAdded
		case changeset.StatusRenamed:
			r.Path, r.OldPath = r.OldPath, r.Path
		}
		out[i] = r
	}
	return out
}

// RecordsFromPatch derives per-file records from unified diff text. Text
// that does not parse yields no records.
func RecordsFromPatch(text string) []changeset.FileChangeRecord {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err != nil {
		log.WithError(err).Debug("RecordsFromPatch: unparseable diff")
		return nil
	}

	records := make([]changeset.FileChangeRecord, 0, len(files))
	for _, f := range files {
		name := f.NewName
		if f.IsDelete || name == "" {
			name = f.OldName
		}

		if f.IsBinary {
			records = append(records, changeset.NewBinaryRecord(name))
			continue
		}

		var added, deleted int
		for _, frag := range f.TextFragments {
			added += int(frag.LinesAdded)
			deleted += int(frag.LinesDeleted)
		}

		r := changeset.NewTextRecord(name, added, deleted)
		switch {
		case f.IsNew:
			r.Status = changeset.StatusAdded
		case f.IsDelete:
			r.Status = changeset.StatusDeleted
		case f.IsRename:
			r.Status = changeset.StatusRenamed
			r.OldPath = f.OldName
		case f.IsCopy:
			r.Status = changeset.StatusCopied
			r.OldPath = f.OldName
		default:
			r.Status = changeset.StatusModified
		}
		records = append(records, r)
	}
	return records
}
