// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package changeset holds the normalized change model shared by every revctl
// verb and the parsers that produce it.
//
// Three textual formats are understood:
//
//   - numeric stat: "<added>\t<deleted>\t<path>" as printed by --numstat
//   - human stat: "<path> | <N> ++--" as printed by --stat, with a trailing
//     "N files changed" footer
//   - name-status: "<code>[score]\t<path>" as printed by --name-status
//
// Parsers are line tolerant. A line that does not fit the expected shape is
// skipped and parsing continues, so malformed input only ever yields fewer
// records, never an error.
//
// Human stat glyph columns are scaled by git and cannot be trusted as counts.
// When a human stat line carries neither an insertion/deletion summary nor
// explicit N+/N- counts, the total is split evenly: floor(N/2) additions and
// the remainder as deletions.
package changeset
