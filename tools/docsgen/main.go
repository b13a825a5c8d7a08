// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// docsgen renders the markdown, man and tldr pages for each revctl verb from
// docs/templates/revctl.yaml. The tldr pages are what --tldr shows.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Subcommands []Subcommand `yaml:"subcommands"`
	Common      Common       `yaml:"common"`
}

type Common struct {
	Flags []Flag `yaml:"flags"`
}

type Subcommand struct {
	ID          string    `yaml:"id"`
	Short       string    `yaml:"short"`
	Description string    `yaml:"description"`
	Usage       string    `yaml:"usage"`
	Flags       []Flag    `yaml:"flags"`
	Examples    []Example `yaml:"examples"`
	Notes       []string  `yaml:"notes,omitempty"`
}

type Flag struct {
	ID          string `yaml:"id"`
	Syntax      string `yaml:"syntax"`
	Description string `yaml:"description"`
	Default     string `yaml:"default,omitempty"`
	More        string `yaml:"more,omitempty"`
}

type Example struct {
	Command     string `yaml:"command"`
	Description string `yaml:"description"`
}

type TemplateData struct {
	Subcommand
	Date    string
	Version string
	IDUpper string
}

type Outputs struct {
	Template string
	Folder   string
	Prefix   string
	Suffix   string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: docsgen <docs-dir>")
		os.Exit(1)
	}

	generated, err := generate(os.Args[1], time.Now(), getVersion())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, g := range generated {
		fmt.Println("Generated", g)
	}
}

// generate renders every output type for every subcommand and returns the
// files written.
func generate(docs string, now time.Time, version string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(docs, "templates", "revctl.yaml"))
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse revctl.yaml: %w", err)
	}

	types := []Outputs{
		{Template: "revctl.md.tmpl", Folder: "commands"},
		{Template: "revctl.man.tmpl", Folder: filepath.Join("man", "share", "man1"), Prefix: "revctl-", Suffix: ".1"},
		{Template: "revctl.tldr.tmpl", Folder: "tldr", Prefix: "revctl-"},
	}

	var generated []string
	for _, sub := range config.Subcommands {
		// Copy so one verb's flags never leak into the next.
		mergedFlags := append([]Flag{}, config.Common.Flags...)
		mergedFlags = append(mergedFlags, sub.Flags...)

		sort.Slice(mergedFlags, func(i, j int) bool {
			return mergedFlags[i].ID < mergedFlags[j].ID
		})
		sub.Flags = mergedFlags

		metadata := TemplateData{
			Subcommand: sub,
			Date:       now.Format("January 2, 2006"),
			Version:    version,
			IDUpper:    strings.ToUpper(sub.ID),
		}

		for _, t := range types {
			suffix := t.Suffix
			if suffix == "" {
				suffix = ".md"
			}
			path := filepath.Join(docs, t.Folder, t.Prefix+sub.ID+suffix)
			if err := render(filepath.Join(docs, "templates", t.Template), path, metadata); err != nil {
				return generated, err
			}
			generated = append(generated, path)
		}
	}

	return generated, nil
}

func render(tmplPath, path string, metadata TemplateData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return tmpl.Execute(file, metadata)
}

// getVersion returns the version string from git tags, stripping the leading
// "v" prefix. Falls back to "dev" if git describe fails.
func getVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--abbrev=0").Output()
	if err != nil {
		return "dev"
	}

	version := strings.TrimSpace(string(out))
	return strings.TrimPrefix(version, "v")
}
