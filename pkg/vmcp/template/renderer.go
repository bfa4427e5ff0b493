// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

// ErrorSentinel is substituted for a placeholder whose pipeline function
// fails in non-strict mode (spec §4.2 "Failure of a single function yields
// ... a sentinel"). An unresolved path with no default, and a syntax error,
// fall back to the literal placeholder text instead (spec §3, §4.1).
const ErrorSentinel = "[ERROR]"

// unresolvedError marks a reference whose path didn't resolve and had no
// default, distinguishing it from a pipeline-function failure: in
// non-strict mode the former falls back to the literal placeholder text,
// the latter to ErrorSentinel.
type unresolvedError struct {
	path string
}

func (e *unresolvedError) Error() string {
	return fmt.Sprintf("unresolved variable %q", e.path)
}

// RenderOptions controls failure handling for Render.
type RenderOptions struct {
	// Strict, when true, makes any unresolved placeholder or pipeline
	// function failure abort the whole render with an error. When false,
	// failures are recorded as warnings: a pipeline-function failure
	// replaces the placeholder with ErrorSentinel, while an unresolved
	// variable or a syntax error leaves the literal placeholder text.
	Strict bool
}

// RenderResult is C2's output: the config with every placeholder replaced,
// plus the hash instance-sharing decisions key off of and any non-fatal
// warnings collected in non-strict mode.
type RenderResult struct {
	Config       *vmcp.ServerConfig
	RenderedHash string
	Warnings     []string
}

// renderFailure carries the field name so strict-mode callers get an actionable
// error; it is never exposed outside this package.
type renderFailure struct {
	field string
	ref   Reference
	err   error
}

func (f *renderFailure) Error() string {
	return fmt.Sprintf("field %s: placeholder %q: %v", f.field, f.ref.Raw, f.err)
}

// Render substitutes every placeholder in cfg with its resolved value from
// ctx, applying each reference's pipeline left-to-right, and returns the
// rendered config plus its content-addressed hash (spec §4.2). Rendering
// never touches the network or filesystem.
func Render(cfg *vmcp.ServerConfig, ctx *vmcp.Context, opts RenderOptions) (*RenderResult, error) {
	ctxJSON, err := marshalContext(ctx)
	if err != nil {
		return nil, err
	}

	out := cfg.Clone()
	var warnings []string

	renderField := func(field, s string) (string, error) {
		rendered, fieldWarnings, err := renderString(field, s, ctxJSON, opts)
		warnings = append(warnings, fieldWarnings...)
		return rendered, err
	}

	if out.Command, err = renderField("command", out.Command); err != nil {
		return nil, err
	}
	for i, a := range out.Args {
		if out.Args[i], err = renderField(fmt.Sprintf("args[%d]", i), a); err != nil {
			return nil, err
		}
	}
	for k, v := range out.Env {
		rendered, rerr := renderField(fmt.Sprintf("env[%s]", k), v)
		if rerr != nil {
			return nil, rerr
		}
		out.Env[k] = rendered
	}
	if out.Cwd, err = renderField("cwd", out.Cwd); err != nil {
		return nil, err
	}
	if out.URL, err = renderField("url", out.URL); err != nil {
		return nil, err
	}
	for k, v := range out.Headers {
		rendered, rerr := renderField(fmt.Sprintf("headers[%s]", k), v)
		if rerr != nil {
			return nil, rerr
		}
		out.Headers[k] = rendered
	}

	return &RenderResult{
		Config:       out,
		RenderedHash: hashRenderedConfig(out),
		Warnings:     warnings,
	}, nil
}

// renderString replaces every placeholder found in s. A whole-string
// placeholder (s is exactly one reference, no surrounding text) and an
// interpolated placeholder (one reference among other text) are substituted
// identically here, since every renderable field in ServerConfig is already
// string-typed.
func renderString(field, s string, ctxJSON []byte, opts RenderOptions) (string, []string, error) {
	refs, err := ParseReferences(s)
	if err != nil {
		if opts.Strict {
			return "", nil, err
		}
		// Spec §4.1 "Errors": a syntax error yields the literal placeholder
		// text in non-strict mode rather than aborting the whole render.
		return s, []string{fmt.Sprintf("%s: %v", field, err)}, nil
	}
	if len(refs) == 0 {
		return s, nil, nil
	}

	var warnings []string
	out := s
	for _, ref := range refs {
		value, werr := renderReference(ref, ctxJSON)
		if werr != nil {
			if opts.Strict {
				return "", nil, &renderFailure{field: field, ref: ref, err: werr}
			}
			warnings = append(warnings, fmt.Sprintf("%s: placeholder %q: %v", field, ref.Raw, werr))
			var unresolved *unresolvedError
			if errors.As(werr, &unresolved) {
				// No default and nothing to resolve against: leave the
				// literal placeholder in place (spec §3).
				value = ref.Raw
			} else {
				// Pipeline function failure (spec §4.2).
				value = ErrorSentinel
			}
		}
		out = strings.Replace(out, ref.Raw, value, 1)
	}
	return out, warnings, nil
}

// renderReference resolves ref against ctxJSON and folds its pipeline,
// falling back to ref.Default when the path doesn't resolve.
func renderReference(ref Reference, ctxJSON []byte) (string, error) {
	value, ok := resolvePath(ctxJSON, ref.Path)
	if !ok {
		if ref.HasDefault {
			value = ref.Default
		} else {
			return "", &unresolvedError{path: ref.Path}
		}
	}
	return ApplyPipeline(value, ref.Functions)
}

// hashRenderedConfig digests the canonical JSON form of cfg. Because cfg's
// only variable content is the substituted placeholder values, this hash
// changes exactly when a referenced variable's resolved value changes —
// never on unrelated context fields (spec §8 invariant 4).
func hashRenderedConfig(cfg *vmcp.ServerConfig) string {
	b, err := json.Marshal(cfg)
	if err != nil {
		b = []byte(err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
