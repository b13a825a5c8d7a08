// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/tfctl/revctl/internal/log"
)

// schemaTag is one jsonapi struct tag discovered for --schema.
type schemaTag struct {
	Kind     string
	Name     string
	Encoding string
}

// NewTag parses a jsonapi tag value. h, if set, prefixes the attribute name.
// The primary key is reported as ".id" since that is how --attrs addresses it.
func NewTag(h string, s string) schemaTag {
	tag := schemaTag{}

	parts := strings.Split(s, ",")
	switch parts[0] {
	case "primary":
		tag.Kind = "primary"
		tag.Name = ".id"
		return tag
	case "attr":
		tag.Kind = "attr"
	default:
		return tag
	}

	if len(parts) > 1 {
		tag.Name = parts[1]
		if h != "" {
			tag.Name = h + "." + parts[1]
		}
	}
	for _, opt := range parts[min(len(parts), 2):] {
		if opt != "omitempty" {
			tag.Encoding = opt
		}
	}

	return tag
}

// DumpSchema writes the attrs available to --attrs for typ, primary key
// first. If w is nil, os.Stdout is used.
func DumpSchema(prefix string, typ reflect.Type, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}

	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	fmt.Fprintln(w,
		`Attributes available to the --attrs, --filter, --sort and --where flags.
The resource id is addressed as .id; use --output=raw to see whole documents.`)
	fmt.Fprintln(w, "")

	tags := dumpSchemaWalker(prefix, typ)
	if len(tags) == 0 {
		log.Debugf("no jsonapi tags on %s", typ.Name())
		return
	}

	// "attr" < "primary", so sort primary keys to the front explicitly.
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].Kind != tags[j].Kind {
			return tags[i].Kind == "primary"
		}
		return tags[i].Name < tags[j].Name
	})

	for _, tag := range tags {
		if tag.Encoding != "" {
			fmt.Fprintf(w, "%s (%s)\n", tag.Name, tag.Encoding)
			continue
		}
		fmt.Fprintln(w, tag.Name)
	}
}

// dumpSchemaWalker collects the jsonapi tags of typ's fields.
func dumpSchemaWalker(holder string, typ reflect.Type) []schemaTag {
	tags := make([]schemaTag, 0, typ.NumField())

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagValue, ok := field.Tag.Lookup("jsonapi")
		if !ok {
			continue
		}

		tag := NewTag(holder, tagValue)
		if tag.Kind == "" {
			continue
		}
		log.Tracef("schema field %s -> %s", field.Name, tag.Name)

		tags = append(tags, tag)
	}

	return tags
}
