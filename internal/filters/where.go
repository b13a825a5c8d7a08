// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/tfctl/revctl/internal/log"
)

// Predicate is a compiled --where expression.
type Predicate struct {
	source string
	expr   hclsyntax.Expression
}

// Compile parses an HCL boolean expression such as
//
//	additions > 10 && startswith(path, "internal/")
//
// Row values are exposed as variables named by their output keys.
func Compile(source string) (*Predicate, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(source), "where", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid --where expression: %s", diags.Error())
	}
	return &Predicate{source: source, expr: expr}, nil
}

// Match evaluates the predicate against a single row. A null result is
// treated as false.
func (p *Predicate) Match(row map[string]interface{}) (bool, error) {
	ctx := &hcl.EvalContext{
		Variables: variables(row, p.expr),
		Functions: functions(),
	}

	val, diags := p.expr.Value(ctx)
	if diags.HasErrors() {
		return false, fmt.Errorf("evaluating %q: %s", p.source, diags.Error())
	}

	if val.IsNull() || !val.IsKnown() {
		return false, nil
	}
	if !val.Type().Equals(cty.Bool) {
		return false, fmt.Errorf("--where %q yields %s, want bool", p.source, val.Type().FriendlyName())
	}
	return val.True(), nil
}

// Where keeps the rows for which expr holds. An empty expr keeps everything.
func Where(rows []map[string]interface{}, expr string) ([]map[string]interface{}, error) {
	if strings.TrimSpace(expr) == "" {
		return rows, nil
	}

	p, err := Compile(expr)
	if err != nil {
		return nil, err
	}

	kept := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		ok, err := p.Match(row)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, row)
		}
	}

	log.Debugf("where %q kept %d of %d rows", expr, len(kept), len(rows))
	return kept, nil
}

// variables converts a row into cty values. Every variable the expression
// references gets a value so a missing key evaluates to null instead of
// failing.
func variables(row map[string]interface{}, expr hclsyntax.Expression) map[string]cty.Value {
	vars := make(map[string]cty.Value, len(row))
	for k, v := range row {
		vars[k] = toCty(v)
	}
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := vars[name]; !ok {
			vars[name] = cty.NullVal(cty.DynamicPseudoType)
		}
	}
	return vars
}

func toCty(val interface{}) cty.Value {
	switch v := val.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case bool:
		return cty.BoolVal(v)
	case int:
		return cty.NumberIntVal(int64(v))
	case int64:
		return cty.NumberIntVal(v)
	case float64:
		return cty.NumberFloatVal(v)
	case string:
		return cty.StringVal(v)
	case []interface{}:
		if len(v) == 0 {
			return cty.EmptyTupleVal
		}
		vals := make([]cty.Value, len(v))
		for i, item := range v {
			vals[i] = toCty(item)
		}
		return cty.TupleVal(vals)
	case map[string]interface{}:
		if len(v) == 0 {
			return cty.EmptyObjectVal
		}
		vals := make(map[string]cty.Value, len(v))
		for k, item := range v {
			vals[k] = toCty(item)
		}
		return cty.ObjectVal(vals)
	default:
		return cty.StringVal(fmt.Sprintf("%v", v))
	}
}

func stringPredicate(fn func(s, arg string) bool) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "str", Type: cty.String},
			{Name: "arg", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.BoolVal(fn(args[0].AsString(), args[1].AsString())), nil
		},
	})
}

func functions() map[string]function.Function {
	return map[string]function.Function{
		"abs":         stdlib.AbsoluteFunc,
		"max":         stdlib.MaxFunc,
		"min":         stdlib.MinFunc,
		"lower":       stdlib.LowerFunc,
		"upper":       stdlib.UpperFunc,
		"strlen":      stdlib.StrlenFunc,
		"length":      stdlib.LengthFunc,
		"regexall":    stdlib.RegexAllFunc,
		"contains":    stdlib.ContainsFunc,
		"trimprefix":  stdlib.TrimPrefixFunc,
		"split":       stdlib.SplitFunc,
		"startswith":  stringPredicate(strings.HasPrefix),
		"endswith":    stringPredicate(strings.HasSuffix),
		"strcontains": stringPredicate(strings.Contains),
		"can":         tryfunc.CanFunc,
		"try":         tryfunc.TryFunc,
	}
}
