// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package serverview implements C8: materializing the "what is configured"
// view an inbound session sees, combining statically declared servers with
// the templates matched by its filter and detecting name collisions
// between the two.
package serverview

import (
	"sort"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
)

// View is a session's resolved server set (spec §4.8).
type View struct {
	StaticServers   []filter.TemplateEntry
	TemplateServers []filter.TemplateEntry
	// ConflictWarning, if non-empty, names every static entry dropped
	// because a template rendered to the same name for this session.
	ConflictWarning string
}

// Resolve builds a session's View: static servers minus any whose name
// collides with a matched template name, plus the matched templates
// themselves (spec §4.8, invariant "Static and template entries are
// disjoint at materialization").
func Resolve(staticServers []filter.TemplateEntry, templatesView []filter.TemplateEntry, query tagquery.Query) View {
	templateServers := filter.GetMatchingTemplates(templatesView, query)

	templateNames := make(map[string]bool, len(templateServers))
	for _, t := range templateServers {
		templateNames[t.Name] = true
	}

	var kept []filter.TemplateEntry
	var collided []string
	for _, s := range staticServers {
		if s.Config != nil && s.Config.Disabled {
			continue
		}
		if templateNames[s.Name] {
			collided = append(collided, s.Name)
			continue
		}
		kept = append(kept, s)
	}

	view := View{StaticServers: kept, TemplateServers: templateServers}
	if len(collided) > 0 {
		sort.Strings(collided)
		view.ConflictWarning = conflictMessage(collided)
	}
	return view
}

func conflictMessage(names []string) string {
	msg := "static server(s) dropped due to template name collision: "
	for i, n := range names {
		if i > 0 {
			msg += ", "
		}
		msg += n
	}
	return msg
}

// InferTransport determines the outbound transport kind for a static
// server entry from the fields present, honoring an explicit override
// (spec §6 "Outbound transports").
func InferTransport(cfg *vmcp.ServerConfig) vmcp.TransportKind {
	if cfg.Transport != "" {
		return cfg.Transport
	}
	switch {
	case cfg.Command != "":
		return vmcp.TransportStdio
	case cfg.URL != "":
		return vmcp.TransportHTTP
	default:
		return ""
	}
}
