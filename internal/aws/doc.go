// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package aws loads AWS configuration and wraps the few S3 object operations
// the shared cache tier uses.
package aws
