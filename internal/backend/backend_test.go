// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/gittest"
	"github.com/tfctl/revctl/internal/meta"
)

func withConfig(t *testing.T, data map[string]interface{}) {
	t.Helper()
	saved := config.Config
	config.Config = config.Type{Source: "test", Data: data}
	t.Cleanup(func() { config.Config = saved })
}

func TestNewBackend(t *testing.T) {
	repo := gittest.New(t)
	repo.Write("a.txt", "one\n")
	repo.Commit("first")
	t.Setenv("REVCTL_CACHE", "0")

	tests := []struct {
		name    string
		engine  string
		want    string
		wantErr bool
	}{
		{"default", "", EngineExec, false},
		{"exec", "exec", EngineExec, false},
		{"gogit", "gogit", EngineGoGit, false},
		{"unknown", "svn", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]interface{}{"cache": map[string]interface{}{}}
			if tt.engine != "" {
				data["backend"] = tt.engine
			}
			withConfig(t, data)

			cmd := &cli.Command{
				Name:     "cq",
				Metadata: map[string]any{"meta": meta.Meta{RootDirSpec: meta.RootDirSpec{RootDir: repo.Dir}}},
			}

			be, err := NewBackend(context.Background(), cmd)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, be)
				return
			}
			require.NoError(t, err)

			typ, err := be.Type()
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ)

			revs, err := be.RevisionList(context.Background(), "", 0)
			require.NoError(t, err)
			assert.Len(t, revs, 1)
		})
	}
}

func TestNewBackendNotRepo(t *testing.T) {
	withConfig(t, map[string]interface{}{"backend": "exec"})
	cmd := &cli.Command{
		Metadata: map[string]any{"meta": meta.Meta{RootDirSpec: meta.RootDirSpec{RootDir: t.TempDir()}}},
	}

	_, err := NewBackend(context.Background(), cmd)
	assert.Error(t, err)
}
