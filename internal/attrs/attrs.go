// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package attrs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tfctl/revctl/internal/log"
)

var lengthSpec = regexp.MustCompile(`-?\d+`)

// Attr is one column of output. Key is the gjson path into a JSON:API
// resource, OutputKey names the column and TransformSpec shapes the value.
type Attr struct {
	Key string `yaml:"key" json:"Key"`
	// Include is false for attrs that only feed --filter and --sort.
	Include       bool   `yaml:"include" json:"Include"`
	OutputKey     string `yaml:"outputKey" json:"OutputKey"`
	TransformSpec string `yaml:"transformSpec" json:"TransformSpec"`
}

// Transform applies the transform spec to value. Strings understand t (local
// time), T (time ago), l/u (case) and a length (N truncates, -N elides the
// middle). Numbers understand h (thousands separators). Lists understand j
// (join with commas) and are then treated as strings.
func (a *Attr) Transform(value interface{}) interface{} {
	switch v := value.(type) {
	case float64:
		return a.transformNumber(v)
	case []interface{}:
		if !strings.Contains(a.TransformSpec, "j") {
			return v
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return a.transformString(strings.Join(parts, ","))
	case string:
		return a.transformString(v)
	default:
		log.Tracef("untransformed value: %v", value)
		return value
	}
}

func (a *Attr) transformNumber(v float64) interface{} {
	if strings.Contains(a.TransformSpec, "h") && v == math.Trunc(v) {
		return humanize.Comma(int64(v))
	}
	return v
}

func (a *Attr) transformString(result string) string {
	if strings.ContainsAny(a.TransformSpec, "tT") {
		result = transformTime(result, strings.Contains(a.TransformSpec, "T"))
	}

	// The last case letter wins so a per-attr spec can override a global one,
	// e.g. --attrs '*::U,path::l'.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")
	switch {
	case lastL > lastU:
		result = strings.ToLower(result)
	case lastU > lastL:
		result = strings.ToUpper(result)
	}

	// Same rule for lengths: the last one wins.
	match := lengthSpec.FindAllString(a.TransformSpec, -1)
	if len(match) == 0 {
		return result
	}
	l, _ := strconv.Atoi(match[len(match)-1])
	abs := int(math.Abs(float64(l)))
	if abs == 0 || len(result) <= abs {
		return result
	}
	if l > 0 {
		return result[:l]
	}

	// Elide the middle, keeping both ends of long paths visible.
	keep := abs/2 - 1
	if keep < 1 {
		return result[:abs]
	}
	return result[:keep] + ".." + result[len(result)-keep:]
}

func transformTime(value string, ago bool) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	local := t.In(time.Now().Location())
	if ago {
		return humanize.Time(local)
	}
	return local.Format("2006-01-02T15:04:05MST")
}

// AttrList is the ordered set of columns for a query.
type AttrList []Attr

// Set parses a --attrs value and merges it into the list. Each comma separated
// entry is key[:output[:transform]]. A leading '!' hides the attr, a leading
// '.' addresses the resource root (".id") instead of its attributes and '*'
// carries a transform applied to every attr.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

	log.Debugf("attrs spec: %s", value)

specloop:
	for _, spec := range strings.Split(value, ",") {
		attr := Attr{Include: true}

		fields := strings.Split(spec, ":")

		attr.Key = strings.TrimSpace(fields[jsonIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "*" {
			attr.Include = false
		}

		switch {
		case len(fields) == 1:
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		case strings.TrimSpace(fields[outputIdx]) != "":
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		default:
			attr.OutputKey = attr.Key
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// Entries naming an existing attr, typically a verb default, restyle it
		// in place.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				log.Tracef("attr restyled: %s", attr.Key)
				continue specloop
			}
		}

		if strings.HasPrefix(attr.Key, ".") {
			attr.Key = attr.Key[1:]
		} else if attr.Key != "*" {
			attr.Key = "attributes." + attr.Key
		}

		*a = append(*a, attr)
		log.Tracef("attr added: %s as %s", attr.Key, attr.OutputKey)
	}

	return nil
}

// SetGlobalTransformSpec prepends the '*' transform, if any, to every attr.
func (a *AttrList) SetGlobalTransformSpec() error {
	spec := ""
	for _, attr := range *a {
		if attr.Key == "*" {
			spec = attr.TransformSpec
			break
		}
	}
	if spec == "" {
		return nil
	}

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}
	log.Debugf("global transform: %s", spec)

	return nil
}

// Included returns the attrs that produce output columns.
func (a AttrList) Included() AttrList {
	out := make(AttrList, 0, len(a))
	for _, attr := range a {
		if attr.Include && attr.Key != "*" {
			out = append(out, attr)
		}
	}
	return out
}

// String renders the list back as a --attrs value.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Type returns the flag type for use with the flag.Value interface.
func (a *AttrList) Type() string { return "list" }
