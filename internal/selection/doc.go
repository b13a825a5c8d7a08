// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package selection tracks which revisions of a revision list are chosen for
// comparison. A Selection is only meaningful against the list it was built
// over. Installing a new list discards it rather than reinterpreting ids
// against different positions.
//
// The list is reverse-chronological, position 0 is the newest revision. The
// "first" selected revision is therefore the newest and the "last" the
// oldest.
package selection
