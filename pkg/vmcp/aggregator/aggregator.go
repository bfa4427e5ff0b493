// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package aggregator implements C9: per-session capability aggregation over
// the backend instances materialized by C6/C8, namespacing, and request
// routing back to the correct keyed outbound connection.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

// NamespaceSeparator joins a backend's name to the capability name it
// contributes, e.g. "fs__read_file".
const NamespaceSeparator = "__"

// Backend is one backend instance visible to a session, as materialized by
// C6 (template-backed) or C8 (static).
type Backend struct {
	Name        string
	OutboundKey string
	Client      *client.Client
}

// namespacedEntry records which backend a namespaced capability name maps
// to, for routing.
type namespacedEntry struct {
	outboundKey string
	localName   string
}

// SessionView is the namespaced capability view and outbound-connection map
// for one inbound session (spec §3 "Outbound connection key").
type SessionView struct {
	mu          sync.RWMutex
	backends    map[string]Backend // outboundKey -> backend
	tools       map[string]namespacedEntry
	resources   map[string]namespacedEntry
	prompts     map[string]namespacedEntry
	toolList    []mcp.Tool
	resourceLst []mcp.Resource
	promptList  []mcp.Prompt
}

// Aggregator is C9.
type Aggregator struct {
	mu       sync.Mutex
	sessions map[string]*SessionView
}

// New constructs an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{sessions: make(map[string]*SessionView)}
}

// SetupCapabilities lists tools/resources/prompts from every backend and
// builds the session's namespaced view (spec §4.9 "setupCapabilities").
// Backends are processed in the given order; a name collision is resolved
// in favor of the first backend to claim it, and reported as a warning.
func (a *Aggregator) SetupCapabilities(ctx context.Context, sessionID string, backends []Backend) ([]string, error) {
	view := &SessionView{
		backends:  make(map[string]Backend, len(backends)),
		tools:     make(map[string]namespacedEntry),
		resources: make(map[string]namespacedEntry),
		prompts:   make(map[string]namespacedEntry),
	}

	var warnings []string
	var anySucceeded bool
	for _, b := range backends {
		view.backends[b.OutboundKey] = b

		tools, resources, prompts, err := listCapabilities(ctx, b.Client)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("backend %s: listing capabilities failed: %v", b.Name, err))
			continue
		}
		anySucceeded = true

		for _, tl := range tools {
			name := b.Name + NamespaceSeparator + tl.Name
			if _, exists := view.tools[name]; exists {
				warnings = append(warnings, fmt.Sprintf("tool name collision: %s", name))
				continue
			}
			view.tools[name] = namespacedEntry{outboundKey: b.OutboundKey, localName: tl.Name}
			namespacedTool := tl
			namespacedTool.Name = name
			view.toolList = append(view.toolList, namespacedTool)
		}
		for _, r := range resources {
			name := b.Name + NamespaceSeparator + r.URI
			if _, exists := view.resources[name]; exists {
				warnings = append(warnings, fmt.Sprintf("resource name collision: %s", name))
				continue
			}
			view.resources[name] = namespacedEntry{outboundKey: b.OutboundKey, localName: r.URI}
			namespacedResource := r
			namespacedResource.URI = name
			view.resourceLst = append(view.resourceLst, namespacedResource)
		}
		for _, p := range prompts {
			name := b.Name + NamespaceSeparator + p.Name
			if _, exists := view.prompts[name]; exists {
				warnings = append(warnings, fmt.Sprintf("prompt name collision: %s", name))
				continue
			}
			view.prompts[name] = namespacedEntry{outboundKey: b.OutboundKey, localName: p.Name}
			namespacedPrompt := p
			namespacedPrompt.Name = name
			view.promptList = append(view.promptList, namespacedPrompt)
		}
	}

	if len(backends) > 0 && !anySucceeded {
		return warnings, vmcp.NewError(vmcp.KindBackendUnavailable, "no backend capabilities could be listed for session "+sessionID, nil)
	}

	a.mu.Lock()
	a.sessions[sessionID] = view
	a.mu.Unlock()

	return warnings, nil
}

func listCapabilities(ctx context.Context, c *client.Client) ([]mcp.Tool, []mcp.Resource, []mcp.Prompt, error) {
	toolsRes, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, nil, nil, err
	}
	resourcesRes, err := c.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		// Not every backend implements resources; treat as empty rather
		// than failing the whole backend.
		resourcesRes = &mcp.ListResourcesResult{}
	}
	promptsRes, err := c.ListPrompts(ctx, mcp.ListPromptsRequest{})
	if err != nil {
		promptsRes = &mcp.ListPromptsResult{}
	}
	return toolsRes.Tools, resourcesRes.Resources, promptsRes.Prompts, nil
}

// CallTool strips name's namespace prefix, resolves the owning backend, and
// forwards the call (spec §4.9 "Routing").
func (a *Aggregator) CallTool(ctx context.Context, sessionID, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	view, entry, err := a.resolve(sessionID, name, func(v *SessionView) map[string]namespacedEntry { return v.tools }, vmcp.ErrToolNotFound)
	if err != nil {
		return nil, err
	}
	backend := view.backends[entry.outboundKey]

	req := mcp.CallToolRequest{}
	req.Params.Name = entry.localName
	req.Params.Arguments = args

	result, err := backend.Client.CallTool(ctx, req)
	if err != nil {
		return nil, vmcp.NewError(vmcp.KindBackendUnavailable, "calling tool "+name, err)
	}
	return result, nil
}

// ReadResource strips uri's namespace prefix, resolves the owning backend,
// and forwards the read.
func (a *Aggregator) ReadResource(ctx context.Context, sessionID, uri string) ([]mcp.ResourceContents, error) {
	view, entry, err := a.resolve(sessionID, uri, func(v *SessionView) map[string]namespacedEntry { return v.resources }, vmcp.ErrResourceNotFound)
	if err != nil {
		return nil, err
	}
	backend := view.backends[entry.outboundKey]

	req := mcp.ReadResourceRequest{}
	req.Params.URI = entry.localName

	result, err := backend.Client.ReadResource(ctx, req)
	if err != nil {
		return nil, vmcp.NewError(vmcp.KindBackendUnavailable, "reading resource "+uri, err)
	}
	return result.Contents, nil
}

// GetPrompt strips name's namespace prefix, resolves the owning backend,
// and forwards the request.
func (a *Aggregator) GetPrompt(ctx context.Context, sessionID, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	view, entry, err := a.resolve(sessionID, name, func(v *SessionView) map[string]namespacedEntry { return v.prompts }, vmcp.ErrPromptNotFound)
	if err != nil {
		return nil, err
	}
	backend := view.backends[entry.outboundKey]

	req := mcp.GetPromptRequest{}
	req.Params.Name = entry.localName
	req.Params.Arguments = args

	result, err := backend.Client.GetPrompt(ctx, req)
	if err != nil {
		return nil, vmcp.NewError(vmcp.KindBackendUnavailable, "getting prompt "+name, err)
	}
	return result, nil
}

func (a *Aggregator) resolve(sessionID, name string, index func(*SessionView) map[string]namespacedEntry, notFound error) (*SessionView, namespacedEntry, error) {
	a.mu.Lock()
	view, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return nil, namespacedEntry{}, vmcp.ErrSessionNotFound
	}

	view.mu.RLock()
	defer view.mu.RUnlock()
	entry, ok := index(view)[name]
	if !ok {
		return nil, namespacedEntry{}, notFound
	}
	return view, entry, nil
}

// Tools returns the session's namespaced tool list, in registration order.
func (a *Aggregator) Tools(sessionID string) []mcp.Tool {
	a.mu.Lock()
	view, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	view.mu.RLock()
	defer view.mu.RUnlock()
	return append([]mcp.Tool(nil), view.toolList...)
}

// Resources returns the session's namespaced resource list.
func (a *Aggregator) Resources(sessionID string) []mcp.Resource {
	a.mu.Lock()
	view, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	view.mu.RLock()
	defer view.mu.RUnlock()
	return append([]mcp.Resource(nil), view.resourceLst...)
}

// Prompts returns the session's namespaced prompt list.
func (a *Aggregator) Prompts(sessionID string) []mcp.Prompt {
	a.mu.Lock()
	view, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	view.mu.RLock()
	defer view.mu.RUnlock()
	return append([]mcp.Prompt(nil), view.promptList...)
}

// Teardown drops the session's view entirely (called from disconnect).
func (a *Aggregator) Teardown(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

// sessionsWithBackend returns every session id whose view currently
// includes outboundKey, used to fan out list_changed notifications.
func (a *Aggregator) sessionsWithBackend(outboundKey string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []string
	for sessionID, view := range a.sessions {
		view.mu.RLock()
		_, ok := view.backends[outboundKey]
		view.mu.RUnlock()
		if ok {
			out = append(out, sessionID)
		}
	}
	sort.Strings(out)
	return out
}
