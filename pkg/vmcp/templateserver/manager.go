// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package templateserver implements C6: bridging the templates a session's
// filter matched (C4) into pool reservations (C5), and keeping the
// session→template→renderedHash routing table current.
package templateserver

import (
	"context"
	"sync"

	"github.com/mcpgateway/vmcp/pkg/logger"
	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
	"github.com/mcpgateway/vmcp/pkg/vmcp/pool"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
	"github.com/mcpgateway/vmcp/pkg/vmcp/template"
)

// Registration is one materialized template-backed backend for a session,
// ready for C9 to fold into its outbound view.
type Registration struct {
	TemplateName string
	OutboundKey  string
	Instance     *pool.Instance
}

// OutboundKey is the C9-facing view key for a template-backed backend (spec
// §4.6 step d): shareable instances are addressed by template+renderedHash;
// per-client instances by template+sessionID, since at most one render is
// live per session at a time.
func OutboundKey(templateName, renderedHash string, shareable bool, sessionID string) string {
	if shareable {
		return templateName + ":" + renderedHash
	}
	return templateName + ":" + sessionID
}

// Manager is C6.
type Manager struct {
	pool      *pool.Pool
	extractor *template.Extractor

	mu      sync.Mutex
	routing map[string]map[string]string // sessionID -> templateName -> renderedHash
}

// New constructs a Manager backed by p, using extractor for C1/C2 work.
func New(p *pool.Pool, extractor *template.Extractor) *Manager {
	return &Manager{
		pool:      p,
		extractor: extractor,
		routing:   make(map[string]map[string]string),
	}
}

// CreateTemplateBasedServers materializes every template that matches query
// for sessionID, reserving a pooled instance per match and recording the
// routing-table entry (spec §4.6 "createTemplateBasedServers"). A failure
// materializing one template is logged and skipped; others continue.
func (m *Manager) CreateTemplateBasedServers(
	ctx context.Context,
	sessionID string,
	sessionCtx *vmcp.Context,
	query tagquery.Query,
	templatesView []filter.TemplateEntry,
) []Registration {
	matches := filter.GetMatchingTemplates(templatesView, query)

	var registrations []Registration
	for _, match := range matches {
		reg, err := m.materialize(ctx, sessionID, sessionCtx, match)
		if err != nil {
			logger.Warnw("skipping template for session", "template", match.Name, "session", sessionID, "error", err)
			continue
		}
		registrations = append(registrations, reg)
	}
	return registrations
}

func (m *Manager) materialize(ctx context.Context, sessionID string, sessionCtx *vmcp.Context, match filter.TemplateEntry) (Registration, error) {
	used, err := m.extractor.GetUsed(match.Config, sessionCtx)
	if err != nil {
		return Registration{}, err
	}
	variableHash := template.CreateVariableHash(used)

	result, err := template.Render(match.Config, sessionCtx, template.RenderOptions{Strict: false})
	if err != nil {
		return Registration{}, err
	}

	rendered := &vmcp.RenderedConfig{
		Config:       result.Config,
		RenderedHash: result.RenderedHash,
		VariableHash: variableHash,
	}
	for _, w := range result.Warnings {
		logger.Warnw("template render warning", "template", match.Name, "session", sessionID, "warning", w)
	}

	shareable := match.Config.Template.IsShareable()
	instance, err := m.pool.GetOrCreateInstance(ctx, match.Name, rendered, sessionID, shareable, sessionID)
	if err != nil {
		return Registration{}, err
	}

	m.mu.Lock()
	if m.routing[sessionID] == nil {
		m.routing[sessionID] = make(map[string]string)
	}
	m.routing[sessionID][match.Name] = rendered.RenderedHash
	m.mu.Unlock()

	return Registration{
		TemplateName: match.Name,
		OutboundKey:  OutboundKey(match.Name, rendered.RenderedHash, shareable, sessionID),
		Instance:     instance,
	}, nil
}

// CleanupTemplateServers releases sessionID's reference to every template
// instance it holds and forgets its routing-table entry (spec §4.6
// "cleanupTemplateServers"). It reports, per template, whether the
// underlying instance is now unreferenced (so C9 knows to drop the
// outbound-connection entry).
func (m *Manager) CleanupTemplateServers(sessionID string) []Registration {
	m.mu.Lock()
	entries := m.routing[sessionID]
	delete(m.routing, sessionID)
	m.mu.Unlock()

	var drained []Registration
	for templateName, renderedHash := range entries {
		shareKey := pool.Key(templateName, renderedHash, true, sessionID)
		perClientKey := pool.Key(templateName, renderedHash, false, sessionID)

		key := shareKey
		shareable := true
		if _, ok := m.pool.Lookup(shareKey); !ok {
			key = perClientKey
			shareable = false
		}

		m.pool.RemoveClient(key, sessionID)
		inst, _ := m.pool.Lookup(key)

		drained = append(drained, Registration{
			TemplateName: templateName,
			OutboundKey:  OutboundKey(templateName, renderedHash, shareable, sessionID),
			Instance:     inst,
		})
	}
	return drained
}

// RenderedHash returns the routing-table entry for sessionID/templateName,
// used to reconstruct a request's outbound key (spec §3 "Session routing
// table").
func (m *Manager) RenderedHash(sessionID, templateName string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byTemplate, ok := m.routing[sessionID]
	if !ok {
		return "", false
	}
	hash, ok := byTemplate[templateName]
	return hash, ok
}
