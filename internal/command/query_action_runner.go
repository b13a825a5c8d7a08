// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/log"
)

// QueryActionRunner[T] encapsulates the common query action pattern for all
// query subcommands: GetMeta, --tldr and --schema short-circuits, BuildAttrs
// and output emission, with data fetching provided by FetchFn. T is the
// JSON:API model type; FetchFn returns pointers to it.
type QueryActionRunner[T any] struct {
	CommandName  string
	SchemaType   reflect.Type
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command) ([]*T, error)
}

// Run executes the query action with the provided context and command.
func (qar *QueryActionRunner[T]) Run(
	ctx context.Context,
	cmd *cli.Command,
) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, qar.CommandName) {
		return nil
	}
	if DumpSchemaIfRequested(cmd, qar.SchemaType) {
		return nil
	}

	attrs := BuildAttrs(cmd, qar.DefaultAttrs...)
	log.Debugf("attrs: %v", attrs.String())

	results, err := qar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}
	// A nil result means FetchFn already wrote its output.
	if results == nil {
		return nil
	}

	return EmitJSONAPISlice(results, attrs, cmd)
}

// NewQueryActionRunner creates a QueryActionRunner with the provided
// configuration.
func NewQueryActionRunner[T any](
	commandName string,
	defaultAttrs []string,
	fetchFn func(context.Context, *cli.Command) ([]*T, error),
) *QueryActionRunner[T] {
	return &QueryActionRunner[T]{
		CommandName:  commandName,
		SchemaType:   reflect.TypeOf((*T)(nil)).Elem(),
		DefaultAttrs: defaultAttrs,
		FetchFn:      fetchFn,
	}
}
