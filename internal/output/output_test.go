// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/tfctl/revctl/internal/attrs"
	"github.com/tfctl/revctl/internal/changeset"
)

const document = `{"data":[
  {"id":"README.md","type":"files","attributes":{"status":"Modified","additions":3,"deletions":1,"total-changes":4,"binary":false}},
  {"id":"internal/a.go","type":"files","attributes":{"status":"Added","additions":1200,"deletions":0,"total-changes":1200,"binary":false}},
  {"id":"logo.png","type":"files","attributes":{"status":"Modified","additions":0,"deletions":0,"total-changes":0,"binary":true}}
]}`

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Value: "text"},
		&cli.StringFlag{Name: "filter"},
		&cli.StringFlag{Name: "where"},
		&cli.StringFlag{Name: "sort"},
		&cli.BoolFlag{Name: "titles"},
		&cli.BoolFlag{Name: "color"},
		&cli.BoolFlag{Name: "local"},
		&cli.IntFlag{Name: "padding", Value: 2},
	}
}

// spit runs SliceDiceSpit inside a parsed command so flag lookups behave as
// they do for real verbs.
func spit(t *testing.T, spec string, metadata map[string]any, args ...string) (string, error) {
	t.Helper()

	var al attrs.AttrList
	require.NoError(t, al.Set(spec))

	var buf bytes.Buffer
	var spitErr error
	cmd := &cli.Command{
		Name:     "cq",
		Flags:    outputFlags(),
		Metadata: metadata,
		Action: func(_ context.Context, cmd *cli.Command) error {
			raw := bytes.NewBufferString(document)
			spitErr = SliceDiceSpit(*raw, al, cmd, "data", &buf, nil)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"cq"}, args...)))
	return buf.String(), spitErr
}

func TestSliceDiceSpitJSON(t *testing.T) {
	out, err := spit(t, ".id:path,status,additions", nil, "--output", "json", "--sort", "-additions")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "internal/a.go", rows[0]["path"])
	assert.Equal(t, float64(1200), rows[0]["additions"])
	assert.Equal(t, "logo.png", rows[2]["path"])
}

func TestSliceDiceSpitYAML(t *testing.T) {
	out, err := spit(t, ".id:path,status", nil, "--output", "yaml", "--filter", "status=Added")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "internal/a.go", rows[0]["path"])
}

func TestSliceDiceSpitRaw(t *testing.T) {
	out, err := spit(t, ".id:path", nil, "--output", "raw")
	require.NoError(t, err)
	assert.Equal(t, document, out)
}

func TestSliceDiceSpitWhere(t *testing.T) {
	out, err := spit(t, ".id:path,additions,binary", nil, "--output", "json", "--where", "!binary && additions < 100")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "README.md", rows[0]["path"])
}

func TestSliceDiceSpitBadWhere(t *testing.T) {
	_, err := spit(t, ".id:path", nil, "--output", "json", "--where", "path ==")
	assert.Error(t, err)
}

func TestSliceDiceSpitEmptyJSONIsList(t *testing.T) {
	out, err := spit(t, ".id:path", nil, "--output", "json", "--filter", "path=nope")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestSliceDiceSpitText(t *testing.T) {
	out, err := spit(t, ".id:path,status,additions::h", map[string]any{"footer": "3 files changed"},
		"--titles", "--sort", "path")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines[0], "path")
	assert.Contains(t, lines[0], "additions")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "README.md")
	assert.Contains(t, lines[len(lines)-1], "3 files changed")
}

func TestSliceDiceSpitTextEmpty(t *testing.T) {
	out, err := spit(t, ".id:path", map[string]any{"empty": "no changes"}, "--filter", "path=nope")
	require.NoError(t, err)
	assert.Equal(t, "no changes\n", out)
}

func TestSortDataset(t *testing.T) {
	rows := func() []map[string]interface{} {
		return []map[string]interface{}{
			{"path": "b.go", "additions": float64(10)},
			{"path": "A.go", "additions": float64(2)},
			{"path": "c.go", "additions": float64(10)},
		}
	}
	paths := func(rs []map[string]interface{}) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r["path"].(string))
		}
		return out
	}

	tests := []struct {
		name string
		spec string
		want []string
	}{
		{"no spec keeps order", "", []string{"b.go", "A.go", "c.go"}},
		{"case insensitive", "path", []string{"A.go", "b.go", "c.go"}},
		{"case sensitive", "!path", []string{"A.go", "b.go", "c.go"}},
		{"descending", "-path", []string{"c.go", "b.go", "A.go"}},
		{"numeric", "additions", []string{"A.go", "b.go", "c.go"}},
		{"numeric then string", "-additions,-path", []string{"c.go", "b.go", "A.go"}},
		{"stable on ties", "-additions", []string{"b.go", "c.go", "A.go"}},
		{"combined prefixes", "-!path", []string{"c.go", "b.go", "A.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := rows()
			SortDataset(rs, tt.spec)
			assert.Equal(t, tt.want, paths(rs))
		})
	}
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		empty []string
		want  string
	}{
		{"nil", nil, nil, ""},
		{"nil custom empty", nil, []string{"-"}, "-"},
		{"zero number", float64(0), []string{"-"}, "-"},
		{"string", "a.go", nil, "a.go"},
		{"int", 7, nil, "7"},
		{"float", float64(12), nil, "12"},
		{"bool", true, nil, "true"},
		{"list", []interface{}{"main", "dev"}, nil, `["main","dev"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterfaceToString(tt.value, tt.empty...))
		})
	}
}

func TestNewTag(t *testing.T) {
	assert.Equal(t, schemaTag{Kind: "primary", Name: ".id"}, NewTag("", "primary,files"))
	assert.Equal(t, schemaTag{Kind: "attr", Name: "additions"}, NewTag("", "attr,additions"))
	assert.Equal(t, schemaTag{Kind: "attr", Name: "timestamp", Encoding: "iso8601"}, NewTag("", "attr,timestamp,iso8601"))
	assert.Equal(t, schemaTag{Kind: "attr", Name: "rev.short"}, NewTag("rev", "attr,short"))
	assert.Equal(t, schemaTag{Kind: "attr", Name: "old-path"}, NewTag("", "attr,old-path,omitempty"))
	assert.Equal(t, schemaTag{}, NewTag("", "relation,parent"))
}

func TestDumpSchema(t *testing.T) {
	var buf bytes.Buffer
	DumpSchema("", reflect.TypeOf(&changeset.FileChangeRecord{}), &buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Greater(t, len(lines), 3)
	names := lines[3:]

	require.NotEmpty(t, names)
	assert.Equal(t, ".id", names[0])
	assert.Contains(t, names, "additions")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "old-path")
}

func TestDumpSchemaRevision(t *testing.T) {
	var buf bytes.Buffer
	DumpSchema("", reflect.TypeOf(changeset.Revision{}), &buf)
	assert.Contains(t, buf.String(), "timestamp (iso8601)")
	assert.Contains(t, buf.String(), "message")
}

func TestGetColors(t *testing.T) {
	header, even, odd := getColors("colors")
	assert.NotNil(t, header)
	assert.NotNil(t, even)
	assert.NotNil(t, odd)
}

func TestStatusColor(t *testing.T) {
	_, ok := statusColor("Added")
	assert.True(t, ok)
	_, ok = statusColor("-")
	assert.False(t, ok)
}
