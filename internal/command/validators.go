// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/backend"
	"github.com/tfctl/revctl/internal/changeset"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// GlobalFlagsValidator checks flag combinations that single flag validators
// cannot see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	set := 0
	for _, name := range []string{"branch", "tree"} {
		if c.IsSet(name) {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("--branch and --tree are mutually exclusive")
	}

	if c.Bool("pick") && c.Bool("split") {
		return fmt.Errorf("--pick and --split are mutually exclusive")
	}

	return nil
}

func OutputValidator(value any) error {
	return oneOf(value, []string{"text", "json", "raw", "yaml"})
}

func EngineValidator(value any) error {
	if value == "" {
		return nil
	}
	return oneOf(value, backend.EngineNames)
}

func TargetValidator(value any) error {
	s, _ := value.(string)
	_, err := changeset.ParseTarget(s)
	return err
}

func FormatValidator(value any) error {
	s, _ := value.(string)
	_, err := changeset.ParseFormat(s)
	return err
}

func oneOf(value any, valid []string) error {
	s, ok := value.(string)
	if !ok || !slices.Contains(valid, s) {
		return fmt.Errorf("must be one of %v", valid)
	}
	return nil
}
