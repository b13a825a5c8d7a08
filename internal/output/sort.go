// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sort"
	"strings"
)

type sortKey struct {
	field         string
	descending    bool
	caseSensitive bool
}

// parseSortSpec turns "-additions,!path" into keys. A leading '-' sorts
// descending and '!' compares strings case sensitively. The prefixes may be
// combined in either order.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, f := range strings.Split(spec, ",") {
		f = strings.TrimSpace(f)
		k := sortKey{}
		for len(f) > 0 && (f[0] == '-' || f[0] == '!') {
			if f[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			f = f[1:]
		}
		if f == "" {
			continue
		}
		k.field = f
		keys = append(keys, k)
	}
	return keys
}

// SortDataset stably sorts rows by the fields named in spec. Numbers compare
// numerically, everything else by its string form.
func SortDataset(resultSet []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(resultSet, func(one, two int) bool {
		for _, k := range keys {
			c := compareValues(resultSet[one][k.field], resultSet[two][k.field], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}, caseSensitive bool) int {
	an, aOk := a.(float64)
	bn, bOk := b.(float64)
	if aOk && bOk {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}

	as, bs := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		as, bs = strings.ToLower(as), strings.ToLower(bs)
	}
	return strings.Compare(as, bs)
}
