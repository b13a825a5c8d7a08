// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// segment matches one dotted path element with an optional index: "refs",
// "parents[0]", "parents[-1]" or "refs[*]".
var segment = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(\[(-?\d+|\*)?\])?$`)

// Driller navigates JSON using a dot path that understands array indexes.
// A single element array is unwrapped when no index is given, "[-1]" selects
// the last element and "[*]" or "[]" keeps the whole array.
func Driller(jsonData string, path string) gjson.Result {
	current := gjson.Parse(jsonData)

	for _, p := range strings.Split(path, ".") {
		m := segment.FindStringSubmatch(p)
		if m == nil {
			return gjson.Result{}
		}

		val := current.Get(m[1])
		if !val.IsArray() {
			current = val
			continue
		}

		arr := val.Array()
		switch idx := m[3]; idx {
		case "*":
		case "":
			if m[2] == "" && len(arr) == 1 {
				val = arr[0]
			}
		default:
			i, err := strconv.Atoi(idx)
			if err != nil {
				return gjson.Result{}
			}
			if i < 0 {
				i += len(arr)
			}
			if i < 0 || i >= len(arr) {
				return gjson.Result{}
			}
			val = arr[i]
		}

		current = val
	}

	return current
}
