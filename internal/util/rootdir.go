// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotRepo is returned when no enclosing git repository can be found.
var ErrNotRepo = errors.New("not a git repository")

// ParseRootDir parses a RootDir string of the form "dir[::ref]" and returns
// the absolute directory and the optional ref. It returns an error if the fs
// entry does not exist, is empty or is not a directory.
func ParseRootDir(rootDir string) (string, string, error) {
	if rootDir == "" {
		return "", "", os.ErrInvalid
	}

	var dir, ref string

	// Split off the ::ref suffix first. Refs never contain "::".
	parts := strings.SplitN(rootDir, "::", 2)
	if len(parts) > 1 {
		ref = parts[1]
	}
	if parts[0] == "" {
		parts[0] = "."
	}

	dir, err := filepath.Abs(parts[0])
	if err != nil {
		return "", "", err
	}

	if r, err := os.Stat(dir); err != nil {
		return "", "", err
	} else if !r.IsDir() {
		return "", "", os.ErrInvalid
	}

	return dir, ref, nil
}

// FindRepoRoot walks up from dir until it finds a directory holding .git and
// returns it.
func FindRepoRoot(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(start); err == nil && !fi.IsDir() {
		start = filepath.Dir(start)
	}

	for cur := start; ; {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return "", fmt.Errorf("%w: %s", ErrNotRepo, dir)
}
