// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tfctl/revctl/internal/attrs"
	"github.com/tfctl/revctl/internal/driller"
	"github.com/tfctl/revctl/internal/log"
)

// filterRegex splits a --filter entry into key, operator and target. The
// operator is one of = ^ ~ < > @ or /, optionally negated with a leading '!'.
// "status=A", "path^internal/", "additions>10" and "binary!=true" are all
// valid entries.
var filterRegex = regexp.MustCompile(`^([^!?=^~<>@/]*)(!?[=^~<>@/])?(.*)$`)

// Filter is a single parsed --filter entry.
type Filter struct {
	Key     string `yaml:"key" json:"Key"`
	Negate  bool   `yaml:"negate" json:"Negate"`
	Operand string `yaml:"operand" json:"Operand"`
	Value   string `yaml:"value" json:"Value"`
}

// String renders the filter back into its --filter form.
func (f Filter) String() string {
	neg := ""
	if f.Negate {
		neg = "!"
	}
	return f.Key + neg + f.Operand + f.Value
}

// BuildFilters parses a filter spec into a slice of Filter. Entries with an
// empty key are reported and skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Paths may legitimately contain commas.
	delim := ","
	if d, ok := os.LookupEnv("REVCTL_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, entry := range strings.Split(spec, delim) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := filterRegex.FindStringSubmatch(entry)
		if parts == nil {
			log.Errorf("invalid filter: %s", entry)
			continue
		}

		key := strings.TrimSpace(parts[1])
		if key == "" {
			log.Errorf("invalid filter: empty key in %s", entry)
			continue
		}

		operand := parts[2]
		negate := strings.HasPrefix(operand, "!")
		operand = strings.TrimPrefix(operand, "!")

		filters = append(filters, Filter{
			Key:     key,
			Negate:  negate,
			Operand: operand,
			Value:   parts[3],
		})
	}

	return filters
}

// FilterDataset returns one row per candidate that satisfies every filter in
// spec. Each row carries the value of every attr under its OutputKey; transforms
// are left to the output phase.
func FilterDataset(candidates gjson.Result, attrs attrs.AttrList, spec string) []map[string]interface{} {
	//nolint:prealloc
	var rows []map[string]interface{}

	filters := BuildFilters(spec)

	for _, candidate := range candidates.Array() {
		if !applyFilters(candidate, attrs, filters) {
			continue
		}

		row := make(map[string]interface{}, len(attrs))
		for _, attr := range attrs {
			row[attr.OutputKey] = driller.Driller(candidate.Raw, attr.Key).Value()
		}
		rows = append(rows, row)
	}

	return rows
}

// applyFilters reports whether candidate passes all filters. A filter whose
// key names no attr is reported once per row and otherwise ignored.
func applyFilters(candidate gjson.Result, attrs attrs.AttrList, filters []Filter) bool {
	for _, filter := range filters {
		key := keyFor(attrs, filter.Key)
		if key == "" {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Errorf("%s", msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}

		value := driller.Driller(candidate.Raw, key).Value()
		if value == nil {
			return false
		}

		if !matches(value, filter) {
			return false
		}
	}

	return true
}

// keyFor maps a filter key, which uses output names, to the JSON path of the
// matching attr.
func keyFor(attrs attrs.AttrList, name string) string {
	for _, attr := range attrs {
		if attr.OutputKey == name {
			return attr.Key
		}
	}
	return ""
}

func matches(value interface{}, filter Filter) bool {
	switch v := value.(type) {
	case string:
		return checkStringOperand(v, filter)
	case bool:
		return checkStringOperand(strconv.FormatBool(v), filter)
	case float64:
		return checkNumericOperand(v, filter)
	case int:
		return checkNumericOperand(float64(v), filter)
	case int64:
		return checkNumericOperand(float64(v), filter)
	}

	if filter.Operand == "@" {
		return checkContainsOperand(value, filter)
	}
	return true
}

// checkContainsOperand handles '@' against list and map values.
func checkContainsOperand(value interface{}, filter Filter) bool {
	switch val := value.(type) {
	case []any:
		for _, item := range val {
			if fmt.Sprint(item) == filter.Value {
				return !filter.Negate
			}
		}
		return filter.Negate
	case map[string]any:
		_, found := val[filter.Value]
		return found == !filter.Negate
	default:
		log.Errorf("unsupported type for contains filtering: %T", value)
		return false
	}
}

// checkNumericOperand supports = > and <, each optionally negated.
func checkNumericOperand(value float64, filter Filter) bool {
	if filter.Operand == "" {
		return (value != 0) == !filter.Negate
	}

	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Value), 64)
	if err != nil {
		log.Errorf("invalid numeric value: %s", filter.Value)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		log.Errorf("unsupported numeric operand: %s", filter.Operand)
		return false
	}
}

func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return (value == filter.Value) == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Value) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Value) == !filter.Negate
	case ">":
		return (value > filter.Value) == !filter.Negate
	case "<":
		return (value < filter.Value) == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Value) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Value, value)
		if err != nil {
			log.Errorf("invalid regex: %s", filter.Value)
			return false
		}
		return matched == !filter.Negate
	case "":
		// Bare key. Keep rows where the value is present and not false.
		return (value != "" && value != "false") == !filter.Negate
	default:
		log.Errorf("unsupported filtering operand: %s", filter.Operand)
		return false
	}
}
