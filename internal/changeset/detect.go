// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package changeset

import (
	"fmt"
	"strings"
)

// Format names one of the textual change formats.
type Format int

// Formats. FormatAuto asks Parse to detect the format.
const (
	FormatAuto Format = iota
	FormatNumStat
	FormatHumanStat
	FormatNameStatus
)

func (f Format) String() string {
	switch f {
	case FormatNumStat:
		return "numstat"
	case FormatHumanStat:
		return "stat"
	case FormatNameStatus:
		return "name-status"
	default:
		return "auto"
	}
}

// FormatNames lists the names ParseFormat accepts.
var FormatNames = []string{"auto", "numstat", "stat", "name-status"}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "numstat", "num":
		return FormatNumStat, nil
	case "stat", "human":
		return FormatHumanStat, nil
	case "name-status", "namestatus", "ns":
		return FormatNameStatus, nil
	}
	return FormatAuto, fmt.Errorf("unknown stat format %q", s)
}

// DetectFormat returns the format of the first line that fits one, or
// FormatAuto when no line does.
func DetectFormat(text string) Format {
	for _, line := range lines(text) {
		switch {
		case strings.TrimSpace(line) == "":
		case numstatLine.MatchString(line):
			return FormatNumStat
		case humanLine.MatchString(line):
			return FormatHumanStat
		case len(nameStatusFields(line)) >= 2 && nameStatusCode.MatchString(nameStatusFields(line)[0]):
			return FormatNameStatus
		}
	}
	return FormatAuto
}

// Parse parses text in the given format, detecting it first for FormatAuto.
// Undetectable text yields no records.
func Parse(text string, format Format) []FileChangeRecord {
	if format == FormatAuto {
		format = DetectFormat(text)
	}

	switch format {
	case FormatNumStat:
		return ParseNumericStat(text)
	case FormatHumanStat:
		return ParseHumanStat(text)
	case FormatNameStatus:
		return ParseNameStatus(text)
	}
	return nil
}
