// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/changeset"
	"github.com/tfctl/revctl/internal/log"
	"github.com/tfctl/revctl/internal/meta"
)

// ansiColorRegex matches ANSI escape sequences used for coloring terminal
// output, as left by `git diff --stat --color`.
var ansiColorRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stdin is swapped out by tests.
var stdin io.Reader = os.Stdin

// psCommandAction is the action handler for the "ps" subcommand. It reads
// stat text from a file or stdin, parses it in the given or detected format
// and displays the records.
func psCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "ps") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(changeset.FileChangeRecord{})) {
		return nil
	}

	format, err := changeset.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	header := "\nChange summary"
	if cmd.String("filter") != "" || cmd.String("where") != "" {
		header += " (filtered)"
	}
	header += ":"
	cmd.Metadata["header"] = header

	statInput := cmd.Args().First()
	if statInput == "" {
		statInput = "-"
	}

	var input io.Reader
	if statInput == "-" {
		input = stdin
	} else {
		if info, err := os.Stat(statInput); err != nil {
			return fmt.Errorf("stat file does not exist: %s", statInput)
		} else if info.IsDir() {
			return fmt.Errorf("stat input cannot be a directory: %s", statInput)
		}
		f, err := os.Open(statInput)
		if err != nil {
			return fmt.Errorf("failed to open stat file: %w", err)
		}
		defer f.Close()
		input = f
	}

	records, err := parseStatInput(input, format)
	if err != nil {
		return err
	}

	attrs := BuildAttrs(cmd, cqDefaultAttrs...)
	cmd.Metadata["empty"] = "no changes"
	if len(records) > 0 {
		cmd.Metadata["footer"] = summary(records)
	}

	return EmitJSONAPISlice(pointers(records), attrs, cmd)
}

// parseStatInput reads all of input, strips color codes and parses it.
func parseStatInput(input io.Reader, format changeset.Format) ([]changeset.FileChangeRecord, error) {
	b, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("error reading stat input: %w", err)
	}

	text := ansiColorRegex.ReplaceAllString(string(b), "")
	if format == changeset.FormatAuto {
		format = changeset.DetectFormat(text)
		log.Debugf("ps: detected format %s", format)
	}

	return changeset.Parse(text, format), nil
}

// psCommandBuilder constructs the "ps" subcommand.
func psCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "ps",
		Usage:     "parse stat text",
		UsageText: "revctl ps [stat-file|-] [options]",
		Metadata:  map[string]any{"meta": meta},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "input format (auto, numstat, stat, name-status)",
				Value: "auto",
				Validator: func(value string) error {
					return FlagValidators(value, FormatValidator)
				},
			},
			schemaFlag,
			tldrFlag,
		}, NewGlobalFlags("ps")...),
		Action: psCommandAction,
	}
}
