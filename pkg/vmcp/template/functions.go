// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"path"
	"strings"
)

// PipelineFunc is one entry in the closed pipeline-function registry (spec
// §4.2 "Function registry"). Functions are pure and total, except truncate
// with a non-positive count.
type PipelineFunc func(input string, args []string) (string, error)

// Registry is the fixed, stable set of pipeline functions. It is not meant
// to be extended at runtime — the contract in spec §4.2 is a closed set.
var Registry = map[string]PipelineFunc{
	"upper":    fnUpper,
	"lower":    fnLower,
	"basename": fnBasename,
	"truncate": fnTruncate,
	"default":  fnDefault,
	"replace":  fnReplace,
}

// errUnknownFunction matches spec §4.2's exact wire message format.
func errUnknownFunction(name string) error {
	return fmt.Errorf("Template function '%s' failed: unknown", name) //nolint:stylecheck // wire-format message
}

// ApplyPipeline folds calls left-to-right over input, per spec §4.2
// "Rendering discipline".
func ApplyPipeline(input string, calls []FunctionCall) (string, error) {
	out := input
	for _, call := range calls {
		fn, ok := Registry[call.Name]
		if !ok {
			return "", errUnknownFunction(call.Name)
		}
		var err error
		out, err = fn(out, call.Args)
		if err != nil {
			return "", fmt.Errorf("Template function '%s' failed: %w", call.Name, err)
		}
	}
	return out, nil
}

func fnUpper(input string, _ []string) (string, error) {
	return strings.ToUpper(input), nil
}

func fnLower(input string, _ []string) (string, error) {
	return strings.ToLower(input), nil
}

func fnBasename(input string, _ []string) (string, error) {
	if input == "" {
		return "", nil
	}
	return path.Base(input), nil
}

func fnTruncate(input string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("truncate requires exactly one argument")
	}
	var n int
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
		return "", fmt.Errorf("truncate argument must be an integer: %w", err)
	}
	if n <= 0 {
		return "", fmt.Errorf("truncate requires a positive length")
	}
	runes := []rune(input)
	if len(runes) <= n {
		return input, nil
	}
	return string(runes[:n]) + "...", nil
}

func fnDefault(input string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("default requires exactly one argument")
	}
	if input == "" {
		return args[0], nil
	}
	return input, nil
}

func fnReplace(input string, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("replace requires exactly two arguments")
	}
	return strings.Replace(input, args[0], args[1], 1), nil
}
