// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tfctl/revctl/internal/changeset"
)

// Resolve takes a revision list plus specs and returns the revisions that
// match the specs, in spec order. The list is newest first. A spec can be -
//
//	empty   - the newest revision.
//	~N      - the revision N positions back, also HEAD~N.
//	0, -N   - same as ~N.
//	ref     - the revision a branch or tag points at.
//	prefix  - the first revision whose id starts with prefix.
//	A..B    - every revision between A and B inclusive.
func Resolve(list []changeset.Revision, specs ...string) ([]changeset.Revision, error) {
	var result = []changeset.Revision{}

	// Short circuit if no spec was provided and return the most recent.
	if len(specs) == 0 {
		specs = []string{"~0"}
	}

	for _, spec := range specs {
		lo, hi, err := resolveRange(spec, list)
		if err != nil {
			return nil, err
		}
		result = append(result, list[lo:hi+1]...)
	}

	return result, nil
}

// FromSpecs builds a Selection over list the way a user would by clicking:
// the first spec is a single select, later specs are added, and a range spec
// anchors on its first end and extends to the other.
func FromSpecs(list []changeset.Revision, specs ...string) (*Selection, error) {
	sel := New(list)
	if len(specs) == 0 {
		specs = []string{"~0"}
	}

	for i, spec := range specs {
		lo, hi, err := resolveRange(spec, list)
		if err != nil {
			return nil, err
		}

		from, to := lo, hi
		if a, _, ok := strings.Cut(spec, ".."); ok {
			// Anchor on the end the user named first.
			if p, err := resolveSpec(a, list); err == nil && p == hi {
				from, to = hi, lo
			}
		}

		first := list[from].ID
		switch {
		case i == 0:
			sel.SelectSingle(first)
		case !sel.Contains(first):
			sel.Toggle(first)
		}
		if from != to {
			sel.ExtendRange(list[to].ID)
		}
	}

	return sel, nil
}

// resolveRange returns the inclusive position range a spec covers.
func resolveRange(spec string, list []changeset.Revision) (int, int, error) {
	a, b, ok := strings.Cut(spec, "..")
	if !ok {
		p, err := resolveSpec(spec, list)
		return p, p, err
	}

	if a == "" {
		a = "~0"
	}
	if b == "" {
		b = "~0"
	}

	p0, err := resolveSpec(a, list)
	if err != nil {
		return 0, 0, err
	}
	p1, err := resolveSpec(b, list)
	if err != nil {
		return 0, 0, err
	}

	return min(p0, p1), max(p0, p1), nil
}

// resolveSpec takes a single spec string and returns the matching list
// position.
func resolveSpec(spec string, list []changeset.Revision) (int, error) {
	spec = strings.TrimSpace(spec)
	if len(list) == 0 {
		return 0, fmt.Errorf("no revisions to resolve %q against", spec)
	}

	switch {
	case spec == "":
		return 0, nil

	case strings.HasPrefix(spec, "~"):
		return resolveRelativeSpec(spec[1:], list)

	case strings.HasPrefix(strings.ToUpper(spec), changeset.HeadMarker+"~"):
		return resolveRelativeSpec(spec[len(changeset.HeadMarker)+1:], list)

	case isNonPositive(spec):
		return resolveRelativeSpec(strings.TrimPrefix(spec, "-"), list)
	}

	if p, ok := resolveRefSpec(spec, list); ok {
		return p, nil
	}

	return resolveIDSpec(spec, list)
}

// resolveRelativeSpec handles ~N specs.
func resolveRelativeSpec(n string, list []changeset.Revision) (int, error) {
	index, err := strconv.Atoi(n)
	if err != nil {
		return 0, fmt.Errorf("invalid relative index: %s", n)
	}

	if index < 0 || index > len(list)-1 {
		return 0, fmt.Errorf("index %d out of range for revision list of length %d", index, len(list))
	}

	return index, nil
}

// resolveRefSpec handles branch, tag and HEAD names.
func resolveRefSpec(spec string, list []changeset.Revision) (int, bool) {
	for i, r := range list {
		if slices.Contains(r.Refs, spec) {
			return i, true
		}
	}
	if strings.EqualFold(spec, changeset.HeadMarker) {
		for i, r := range list {
			if r.IsHead() {
				return i, true
			}
		}
		return 0, true
	}
	return 0, false
}

// resolveIDSpec handles revision id prefix specs.
func resolveIDSpec(spec string, list []changeset.Revision) (int, error) {
	for i, r := range list {
		if strings.HasPrefix(r.ID, spec) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("failed to find revision with id prefix %s in the listed revisions", spec)
}

// isNonPositive reports whether s is 0 or a negative integer. Positive
// numbers are left for id prefix matching.
func isNonPositive(s string) bool {
	i, err := strconv.Atoi(s)
	return err == nil && i <= 0
}
