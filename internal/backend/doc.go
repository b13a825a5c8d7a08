// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package backend defines the git query contract used by the comparison
// engine and selects between the exec (git binary) and gogit (pure Go)
// implementations.
package backend
