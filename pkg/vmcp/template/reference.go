// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package template implements C1 (variable extraction) and C2 (rendering):
// parsing `{namespace.path[:default] [| fn(args) …]}` placeholders out of a
// server config, resolving them against a session context, and folding the
// pipeline-function registry over the result.
package template

// FunctionCall is one stage of a reference's pipeline, e.g. `truncate(8)`.
type FunctionCall struct {
	Name string
	Args []string
}

// Reference is one parsed `{...}` placeholder (spec §4.1 "Template variable
// reference").
type Reference struct {
	// Raw is the exact substring matched, braces included, so the renderer
	// can do a literal string replace.
	Raw string
	// Namespace is the first dot-segment of Path (project/user/environment)
	// or a recognized scalar (sessionId, timestamp, version, client).
	Namespace string
	// Path is the full dot-joined path, e.g. "project.path".
	Path string
	// Default is the `:default` fallback, if present.
	Default    string
	HasDefault bool
	Functions  []FunctionCall
	// Position is the byte offset in the original config string the
	// placeholder started at; used for error reporting.
	Position int
}
