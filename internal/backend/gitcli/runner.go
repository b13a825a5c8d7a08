// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/tfctl/revctl/internal/log"
)

// Runner abstracts executing git. Tests substitute a scripted Runner.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner executes the configured git binary.
type ExecRunner struct {
	GitBin string
}

// NewExecRunner returns an ExecRunner, defaulting to "git" from PATH.
func NewExecRunner(gitBin string) *ExecRunner {
	if strings.TrimSpace(gitBin) == "" {
		gitBin = "git"
	}
	return &ExecRunner{GitBin: gitBin}
}

// Run executes git in dir and returns stdout. On failure the error carries
// git's first stderr line and wraps the *exec.ExitError.
func (e *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.GitBin, args...)
	if strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	log.Tracef("exec: %s %s", e.GitBin, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := firstLine(errb.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s: %w", summarizeArgs(args), msg, err)
	}

	return out.String(), nil
}

var safeWord = regexp.MustCompile(`^[a-z][a-z-]*$`)

// summarizeArgs names the git subcommand for error messages, skipping leading
// "-c key=value" pairs and stopping before anything that looks like a path.
func summarizeArgs(args []string) string {
	for len(args) >= 2 && args[0] == "-c" {
		args = args[2:]
	}
	if len(args) == 0 {
		return "<no-args>"
	}

	safe := make([]string, 0, 2)
	for _, a := range args {
		if !safeWord.MatchString(a) {
			break
		}
		safe = append(safe, a)
		if len(safe) == 2 {
			break
		}
	}
	if len(safe) == 0 {
		return "<redacted>"
	}
	return strings.Join(safe, " ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
