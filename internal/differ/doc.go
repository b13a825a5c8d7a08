// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package differ computes change-sets for a selection of revisions against
// a comparison target (the previous revision, a named branch or the working
// tree) and hosts the interactive revision picker.
package differ
