// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package filters narrows change records and revisions before they are
// rendered.
//
// --filter takes comma separated key-operator-value entries where the key is
// an output column name:
//
//   - = : exact match (negate with !=)
//   - ~ : case insensitive match
//   - ^ : prefix match
//   - @ : substring, or membership for list values
//   - / : regular expression match
//   - < and > : numeric comparison for counts, lexical otherwise
//
// A bare key keeps rows whose value is present, non-zero and not false.
// REVCTL_FILTER_DELIM overrides the comma for values that contain one.
//
// Examples:
//
//   - "status=Added"
//   - "path^internal/,additions>10"
//   - "binary!=true"
//
// --where takes a single HCL expression evaluated per row, for cases the
// entry syntax cannot express:
//
//	status == "Added" || (additions + deletions > 100 && endswith(path, ".go"))
package filters
