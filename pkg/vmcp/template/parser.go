// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"
)

// SyntaxError reports a placeholder parse failure with enough context
// (position, path, one-line reason) to act on, per spec §4.1 "Errors".
type SyntaxError struct {
	Position int
	Path     string
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template placeholder at position %d (%q): %s", e.Position, e.Path, e.Reason)
}

// validRoots are the recognized first path segments: the three namespaces
// from spec §3 plus the scalar context fields and the client descriptor.
var validRoots = map[string]bool{
	"project":     true,
	"user":        true,
	"environment": true,
	"sessionId":   true,
	"timestamp":   true,
	"version":     true,
	"client":      true,
}

// ParseReferences scans s for `{namespace.path[:default] [| fn(args) …]}`
// placeholders. Braces inside quoted default values are not supported
// (spec §4.1): parsing treats the first `}` after a `{` as the terminator;
// there is no escape syntax.
func ParseReferences(s string) ([]Reference, error) {
	var refs []Reference
	i := 0
	for i < len(s) {
		start := strings.IndexByte(s[i:], '{')
		if start < 0 {
			break
		}
		start += i

		rel := strings.IndexByte(s[start+1:], '}')
		if rel < 0 {
			return nil, &SyntaxError{Position: start, Reason: "unterminated placeholder"}
		}
		end := start + 1 + rel

		content := s[start+1 : end]
		ref, err := parseContent(content, start)
		if err != nil {
			return nil, err
		}
		ref.Raw = s[start : end+1]
		refs = append(refs, ref)

		i = end + 1
	}
	return refs, nil
}

func parseContent(content string, pos int) (Reference, error) {
	segments := splitTopLevel(content, '|')
	if len(segments) == 0 || strings.TrimSpace(segments[0]) == "" {
		return Reference{}, &SyntaxError{Position: pos, Path: content, Reason: "missing variable path"}
	}

	path, def, hasDefault := parsePathAndDefault(segments[0])
	if path == "" {
		return Reference{}, &SyntaxError{Position: pos, Path: content, Reason: "missing variable path"}
	}

	root := path
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		root = path[:idx]
	}
	if !validRoots[root] {
		return Reference{}, &SyntaxError{
			Position: pos, Path: path,
			Reason: fmt.Sprintf("unrecognized namespace %q", root),
		}
	}

	ref := Reference{
		Namespace:  root,
		Path:       path,
		Default:    def,
		HasDefault: hasDefault,
		Position:   pos,
	}

	for _, seg := range segments[1:] {
		fn, err := parseFunctionCall(seg, pos)
		if err != nil {
			return Reference{}, err
		}
		ref.Functions = append(ref.Functions, fn)
	}

	return ref, nil
}

func parsePathAndDefault(seg string) (path, def string, hasDefault bool) {
	seg = strings.TrimSpace(seg)
	idx := strings.IndexByte(seg, ':')
	if idx < 0 {
		return seg, "", false
	}
	return strings.TrimSpace(seg[:idx]), unquote(strings.TrimSpace(seg[idx+1:])), true
}

func parseFunctionCall(seg string, pos int) (FunctionCall, error) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return FunctionCall{}, &SyntaxError{Position: pos, Reason: "empty pipeline stage"}
	}

	open := strings.IndexByte(seg, '(')
	if open < 0 {
		return FunctionCall{Name: seg}, nil
	}
	if !strings.HasSuffix(seg, ")") {
		return FunctionCall{}, &SyntaxError{Position: pos, Path: seg, Reason: "unclosed function arguments"}
	}

	name := strings.TrimSpace(seg[:open])
	argsStr := strings.TrimSpace(seg[open+1 : len(seg)-1])

	var args []string
	if argsStr != "" {
		for _, a := range splitTopLevel(argsStr, ',') {
			args = append(args, unquote(strings.TrimSpace(a)))
		}
	}
	return FunctionCall{Name: name, Args: args}, nil
}

// splitTopLevel splits s on sep, ignoring occurrences inside double-quoted
// substrings or parenthesized groups — used both to split pipeline stages
// on '|' and function arguments on ','.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inQuote = !inQuote
		case c == '(' && !inQuote:
			depth++
		case c == ')' && !inQuote:
			depth--
		case c == sep && !inQuote && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
