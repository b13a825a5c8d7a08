// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tfctl/revctl/internal/attrs"
)

const records = `[
  {"id":"README.md","type":"files","attributes":{"status":"Modified","additions":3,"deletions":1,"binary":false}},
  {"id":"internal/a.go","type":"files","attributes":{"status":"Added","additions":40,"deletions":0,"binary":false}},
  {"id":"logo.png","type":"files","attributes":{"status":"Added","additions":0,"deletions":0,"binary":true}},
  {"id":"internal/b.go","type":"files","attributes":{"status":"Deleted","additions":0,"deletions":12,"binary":false}}
]`

func recordAttrs(t *testing.T) attrs.AttrList {
	t.Helper()
	var al attrs.AttrList
	require.NoError(t, al.Set(".id:path,status,additions,deletions,binary"))
	return al
}

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name  string
		spec  string
		delim string
		want  []Filter
	}{
		{"empty", "", "", nil},
		{"single", "status=Added", "", []Filter{{Key: "status", Operand: "=", Value: "Added"}}},
		{"negated", "status!=Deleted", "", []Filter{{Key: "status", Negate: true, Operand: "=", Value: "Deleted"}}},
		{"bare key", "binary", "", []Filter{{Key: "binary"}}},
		{"multiple", "path^internal/, additions>10", "", []Filter{
			{Key: "path", Operand: "^", Value: "internal/"},
			{Key: "additions", Operand: ">", Value: "10"},
		}},
		{"empty key skipped", "=A,status=M", "", []Filter{{Key: "status", Operand: "=", Value: "M"}}},
		{"custom delimiter", "path@a,b;status=A", ";", []Filter{
			{Key: "path", Operand: "@", Value: "a,b"},
			{Key: "status", Operand: "=", Value: "A"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delim != "" {
				t.Setenv("REVCTL_FILTER_DELIM", tt.delim)
			}
			assert.Equal(t, tt.want, BuildFilters(tt.spec))
		})
	}
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, "status!=Deleted", Filter{Key: "status", Negate: true, Operand: "=", Value: "Deleted"}.String())
	assert.Equal(t, "binary", Filter{Key: "binary"}.String())
}

func TestCheckStringOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		filter Filter
		want   bool
	}{
		{"equal", "M", Filter{Operand: "=", Value: "M"}, true},
		{"not equal", "M", Filter{Operand: "=", Value: "M", Negate: true}, false},
		{"fold", "readme.md", Filter{Operand: "~", Value: "README.MD"}, true},
		{"prefix", "internal/a.go", Filter{Operand: "^", Value: "internal/"}, true},
		{"contains", "internal/a.go", Filter{Operand: "@", Value: "/a"}, true},
		{"greater", "b", Filter{Operand: ">", Value: "a"}, true},
		{"less", "b", Filter{Operand: "<", Value: "a"}, false},
		{"regex", "internal/a.go", Filter{Operand: "/", Value: `\.go$`}, true},
		{"bad regex", "x", Filter{Operand: "/", Value: `(`}, false},
		{"bare present", "true", Filter{}, true},
		{"bare false", "false", Filter{}, false},
		{"unknown operand", "x", Filter{Operand: "?"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkStringOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckNumericOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		filter Filter
		want   bool
	}{
		{"equal", 3, Filter{Operand: "=", Value: "3"}, true},
		{"not equal", 3, Filter{Operand: "=", Value: "3", Negate: true}, false},
		{"greater", 40, Filter{Operand: ">", Value: "10"}, true},
		{"less", 40, Filter{Operand: "<", Value: "10"}, false},
		{"bare nonzero", 1, Filter{}, true},
		{"bare zero", 0, Filter{}, false},
		{"not a number", 1, Filter{Operand: "=", Value: "one"}, false},
		{"unsupported", 1, Filter{Operand: "^", Value: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkNumericOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckContainsOperand(t *testing.T) {
	assert.True(t, checkContainsOperand([]any{"main", "dev"}, Filter{Operand: "@", Value: "dev"}))
	assert.False(t, checkContainsOperand([]any{"main"}, Filter{Operand: "@", Value: "dev"}))
	assert.True(t, checkContainsOperand([]any{"main"}, Filter{Operand: "@", Value: "dev", Negate: true}))
	assert.True(t, checkContainsOperand(map[string]any{"k": 1}, Filter{Operand: "@", Value: "k"}))
	assert.False(t, checkContainsOperand(42, Filter{Operand: "@", Value: "k"}))
}

func TestFilterDataset(t *testing.T) {
	al := recordAttrs(t)

	tests := []struct {
		name string
		spec string
		want []string
	}{
		{"no filter", "", []string{"README.md", "internal/a.go", "logo.png", "internal/b.go"}},
		{"status", "status=Added", []string{"internal/a.go", "logo.png"}},
		{"numeric", "additions>2", []string{"README.md", "internal/a.go"}},
		{"bool", "binary=true", []string{"logo.png"}},
		{"bare bool", "binary", []string{"logo.png"}},
		{"combined", "path^internal/,status!=Deleted", []string{"internal/a.go"}},
		{"unknown key ignored", "nope=1,status=Deleted", []string{"internal/b.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := FilterDataset(gjson.Parse(records), al, tt.spec)
			got := make([]string, 0, len(rows))
			for _, r := range rows {
				got = append(got, r["path"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterDatasetRowShape(t *testing.T) {
	rows := FilterDataset(gjson.Parse(records), recordAttrs(t), "path=README.md")
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]interface{}{
		"path":      "README.md",
		"status":    "Modified",
		"additions": float64(3),
		"deletions": float64(1),
		"binary":    false,
	}, rows[0])
}
