// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
	"github.com/mcpgateway/vmcp/pkg/vmcp/template"
)

// Validator checks a loaded Document for syntax and semantic errors beyond
// what YAML unmarshaling itself catches: unknown transports, missing
// primary fields, malformed placeholders, and duplicate names.
type Validator struct{}

// NewValidator constructs a Validator.
func NewValidator() *Validator { return &Validator{} }

// Validate runs every check and returns the first failure; a full lint
// report is out of scope.
func (*Validator) Validate(doc *Document) error {
	if doc.Name == "" {
		return fmt.Errorf("document name is required")
	}

	seen := make(map[string]bool)
	extractor := template.NewExtractor()

	all := make([]ServerEntry, 0, len(doc.Static)+len(doc.Templates))
	all = append(all, doc.Static...)
	all = append(all, doc.Templates...)

	for _, e := range all {
		if e.Name == "" {
			return fmt.Errorf("server entry missing name")
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate server name %q", e.Name)
		}
		seen[e.Name] = true

		if e.Disabled {
			continue
		}

		switch e.Transport {
		case vmcp.TransportStdio, vmcp.TransportHTTP, vmcp.TransportSSE:
		default:
			return fmt.Errorf("server %q: unrecognized transport %q", e.Name, e.Transport)
		}

		if e.PrimaryField() == "" {
			return fmt.Errorf("server %q: missing primary field for transport %q", e.Name, e.Transport)
		}

		if _, err := extractor.Extract(&e.ServerConfig); err != nil {
			return fmt.Errorf("server %q: invalid placeholder: %w", e.Name, err)
		}
	}

	return nil
}

// ValidatePreset checks a single preset definition: its tag query must be
// well formed, and an explicit servers list must be non-empty when given.
func ValidatePreset(p *filter.Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset missing name")
	}
	if p.Servers != nil && len(p.Servers) == 0 {
		return fmt.Errorf("preset %q: servers list, if present, must be non-empty", p.Name)
	}
	result := tagquery.Validate(p.TagQuery)
	if !result.OK {
		return fmt.Errorf("preset %q: invalid tag query: %v", p.Name, result.Errors)
	}
	return nil
}
