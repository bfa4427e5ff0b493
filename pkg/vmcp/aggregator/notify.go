// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package aggregator

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/mcpgateway/vmcp/pkg/logger"
)

// HandleListChanged re-lists outboundKey's capabilities and fans the
// refresh out to every session that currently has it in scope (spec §4.9
// "Notifications"). Per-session failures are logged and swallowed
// (KindTransient); one session's failure never blocks another's refresh.
func (a *Aggregator) HandleListChanged(ctx context.Context, outboundKey string) {
	sessionIDs := a.sessionsWithBackend(outboundKey)
	if len(sessionIDs) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, sessionID := range sessionIDs {
		sessionID := sessionID
		g.Go(func() error {
			if err := a.refreshBackend(gctx, sessionID, outboundKey); err != nil {
				logger.Warnw("refreshing backend capabilities after list_changed",
					"session", sessionID, "backend", outboundKey, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// refreshBackend re-lists outboundKey's capabilities for sessionID and
// replaces its namespaced entries in place.
func (a *Aggregator) refreshBackend(ctx context.Context, sessionID, outboundKey string) error {
	a.mu.Lock()
	view, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return nil
	}

	view.mu.RLock()
	backend, ok := view.backends[outboundKey]
	view.mu.RUnlock()
	if !ok {
		return nil
	}

	tools, resources, prompts, err := listCapabilities(ctx, backend.Client)
	if err != nil {
		return err
	}

	view.mu.Lock()
	defer view.mu.Unlock()
	replaceBackendEntries(view, backend, tools, resources, prompts)
	return nil
}

func replaceBackendEntries(view *SessionView, backend Backend, tools []mcp.Tool, resources []mcp.Resource, prompts []mcp.Prompt) {
	for name, entry := range view.tools {
		if entry.outboundKey == backend.OutboundKey {
			delete(view.tools, name)
		}
	}
	var keptTools []mcp.Tool
	for _, t := range view.toolList {
		if _, stillOwned := view.tools[t.Name]; stillOwned {
			keptTools = append(keptTools, t)
		}
	}
	view.toolList = keptTools
	for _, tl := range tools {
		name := backend.Name + NamespaceSeparator + tl.Name
		if _, exists := view.tools[name]; exists {
			continue
		}
		view.tools[name] = namespacedEntry{outboundKey: backend.OutboundKey, localName: tl.Name}
		namespacedTool := tl
		namespacedTool.Name = name
		view.toolList = append(view.toolList, namespacedTool)
	}

	for name, entry := range view.resources {
		if entry.outboundKey == backend.OutboundKey {
			delete(view.resources, name)
		}
	}
	var keptResources []mcp.Resource
	for _, r := range view.resourceLst {
		if _, stillOwned := view.resources[r.URI]; stillOwned {
			keptResources = append(keptResources, r)
		}
	}
	view.resourceLst = keptResources
	for _, r := range resources {
		name := backend.Name + NamespaceSeparator + r.URI
		if _, exists := view.resources[name]; exists {
			continue
		}
		view.resources[name] = namespacedEntry{outboundKey: backend.OutboundKey, localName: r.URI}
		namespacedResource := r
		namespacedResource.URI = name
		view.resourceLst = append(view.resourceLst, namespacedResource)
	}

	for name, entry := range view.prompts {
		if entry.outboundKey == backend.OutboundKey {
			delete(view.prompts, name)
		}
	}
	var keptPrompts []mcp.Prompt
	for _, p := range view.promptList {
		if _, stillOwned := view.prompts[p.Name]; stillOwned {
			keptPrompts = append(keptPrompts, p)
		}
	}
	view.promptList = keptPrompts
	for _, p := range prompts {
		name := backend.Name + NamespaceSeparator + p.Name
		if _, exists := view.prompts[name]; exists {
			continue
		}
		view.prompts[name] = namespacedEntry{outboundKey: backend.OutboundKey, localName: p.Name}
		namespacedPrompt := p
		namespacedPrompt.Name = name
		view.promptList = append(view.promptList, namespacedPrompt)
	}
}
