// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package output turns JSON:API documents into text tables, JSON or YAML. It
// applies --attrs, --filter, --where and --sort along the way.
package output
