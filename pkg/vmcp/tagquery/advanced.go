// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELResolver evaluates $advanced expressions as CEL boolean expressions
// over a `tags` map(string, bool) variable. It supplements spec §4.3, which
// leaves the advanced resolver out of core scope: stored presets with
// strategy "advanced" persist a human-authored CEL expression as
// tagExpression/$advanced (spec §6 "Persisted state"), and this resolver is
// the piece that makes those presets actually evaluate instead of always
// returning false.
type CELResolver struct {
	env *cel.Env
}

// NewCELResolver builds a resolver with a single `tags` variable in scope.
func NewCELResolver() (*CELResolver, error) {
	env, err := cel.NewEnv(
		cel.Variable("tags", cel.MapType(cel.StringType, cel.BoolType)),
	)
	if err != nil {
		return nil, fmt.Errorf("building CEL environment: %w", err)
	}
	return &CELResolver{env: env}, nil
}

// Evaluate compiles (uncached) and runs expr against tags. Compilation
// failures and non-boolean results are reported as errors, which
// EvaluateWithResolver treats as a tolerant false per spec §4.3.
func (r *CELResolver) Evaluate(expr string, tags map[string]bool) (bool, error) {
	ast, issues := r.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compiling advanced tag expression %q: %w", expr, issues.Err())
	}

	prg, err := r.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("building program for %q: %w", expr, err)
	}

	celTags := make(map[string]interface{}, len(tags))
	for k, v := range tags {
		celTags[k] = v
	}

	out, _, err := prg.Eval(map[string]interface{}{"tags": celTags})
	if err != nil {
		return false, fmt.Errorf("evaluating %q: %w", expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("advanced tag expression %q did not evaluate to bool", expr)
	}
	return result, nil
}
