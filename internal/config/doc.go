// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package config provides loading and typed accessors for revctl's user
// configuration. The configuration is a YAML document named by REVCTL_CFG_FILE
// or located in the user's configuration directory, typically:
//   - Linux: $XDG_CONFIG_HOME/revctl.yaml or $HOME/.config/revctl.yaml
//   - macOS: $HOME/Library/Application Support/revctl.yaml
//   - Windows: %APPDATA%/revctl.yaml
//
// Keys are dotted paths. While a verb runs its name is the namespace, so
// "cq.limit" is preferred over "limit" for cq.
package config
