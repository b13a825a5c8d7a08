// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"

	"github.com/dustin/go-humanize/english"
	"github.com/hashicorp/jsonapi"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/attrs"
	"github.com/tfctl/revctl/internal/backend"
	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/differ"
	"github.com/tfctl/revctl/internal/meta"
	"github.com/tfctl/revctl/internal/output"
)

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// DumpSchemaIfRequested writes the attribute list for the provided type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema("", t, stdout)
		return true
	}
	return false
}

// EmitJSONAPISlice marshals a slice of pointers as JSON:API and passes it to
// the common output routine.
func EmitJSONAPISlice(results any, al attrs.AttrList, cmd *cli.Command) error {
	var raw bytes.Buffer
	if err := jsonapi.MarshalPayload(&raw, results); err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return output.SliceDiceSpit(raw, al, cmd, "data", stdout, nil)
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr revctl-<subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "revctl-"+subcmd)
			c.Stdout = stdout
			c.Stderr = stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// InitEngine builds the backend selected for cmd and wraps it in a
// comparison engine.
func InitEngine(ctx context.Context, cmd *cli.Command) (backend.Backend, *differ.Engine, error) {
	be, err := backend.NewBackend(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	return be, differ.NewEngine(be), nil
}

// pointers adapts a value slice to the []*T form jsonapi marshals.
func pointers[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}

// summary renders the git style totals line for records.
func summary(records []changeset.FileChangeRecord) string {
	var adds, dels int
	for _, r := range records {
		adds += r.Additions
		dels += r.Deletions
	}
	return fmt.Sprintf("%s changed, %s(+), %s(-)",
		english.Plural(len(records), "file", ""),
		english.Plural(adds, "insertion", ""),
		english.Plural(dels, "deletion", ""))
}

// warn reports a non-fatal problem on stderr without failing the verb.
func warn(err error) {
	fmt.Fprintf(stderr, "warning: %v\n", err)
}
