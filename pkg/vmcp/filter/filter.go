// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter implements C4: resolving a session's filter criteria (tags,
// mode, or a stored preset name) to a concrete tag query, and selecting the
// template entries whose tags satisfy it.
package filter

import (
	"fmt"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
)

// Preset is a persisted named tag query (spec §6 "Presets file").
type Preset struct {
	Name          string            `json:"name" yaml:"name"`
	Strategy      tagquery.Strategy `json:"strategy" yaml:"strategy"`
	Servers       []string          `json:"servers,omitempty" yaml:"servers,omitempty"`
	TagQuery      tagquery.Query    `json:"tagQuery" yaml:"tagQuery"`
	TagExpression string            `json:"tagExpression,omitempty" yaml:"tagExpression,omitempty"`
	Created       string            `json:"created,omitempty" yaml:"created,omitempty"`
	LastModified  string            `json:"lastModified,omitempty" yaml:"lastModified,omitempty"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
}

// PresetStore looks up persisted presets by name.
type PresetStore interface {
	GetPreset(name string) (*Preset, bool)
}

// Filter is an inbound session's raw filter criteria, as supplied over the
// transport (spec §4.4).
type Filter struct {
	Tags          []string
	TagFilterMode vmcp.TagFilterMode
	PresetName    string
	// AdvancedQuery is used verbatim when TagFilterMode is "advanced".
	AdvancedQuery tagquery.Query
}

// Resolve turns f into a concrete tag query per spec §4.4.
func Resolve(f Filter, presets PresetStore) (tagquery.Query, error) {
	switch f.TagFilterMode {
	case vmcp.FilterModePreset:
		if presets == nil {
			return tagquery.Query{}, vmcp.ErrPresetNotFound
		}
		preset, ok := presets.GetPreset(f.PresetName)
		if !ok {
			return tagquery.Query{}, fmt.Errorf("%w: %s", vmcp.ErrPresetNotFound, f.PresetName)
		}
		return preset.TagQuery, nil

	case vmcp.FilterModeAny:
		return tagquery.StringToQuery(joinTags(f.Tags), tagquery.StrategyOr), nil

	case vmcp.FilterModeAll:
		return tagquery.StringToQuery(joinTags(f.Tags), tagquery.StrategyAnd), nil

	case vmcp.FilterModeAdvanced:
		result := tagquery.Validate(f.AdvancedQuery)
		if !result.OK {
			return tagquery.Query{}, fmt.Errorf("%w: %v", vmcp.ErrInvalidTagQuery, result.Errors)
		}
		return f.AdvancedQuery, nil

	default:
		// No filter criteria supplied: match nothing, same as an empty query.
		return tagquery.Query{}, nil
	}
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

// TemplateEntry pairs a declared template name with its config, as carried
// through getMatchingTemplates.
type TemplateEntry struct {
	Name   string
	Config *vmcp.ServerConfig
}

// GetMatchingTemplates iterates templates in declared order, drops entries
// missing their transport's primary field, and returns those whose tags
// satisfy query (spec §4.4). Order is preserved: it determines downstream
// tool-namespace allocation.
func GetMatchingTemplates(templates []TemplateEntry, query tagquery.Query) []TemplateEntry {
	var out []TemplateEntry
	for _, entry := range templates {
		if entry.Config == nil || entry.Config.PrimaryField() == "" {
			continue
		}
		if tagquery.EvaluateTags(query, entry.Config.Tags) {
			out = append(out, entry)
		}
	}
	return out
}
