// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// newHandlerServer builds the per-session handler advertised to the inbound
// client (spec §4.7 step 1): its tool list is exactly the session's
// namespaced aggregator view, and every call is forwarded through the
// aggregator's router rather than handled locally. Grounded on the
// register-then-forward pattern used by the aggregator server in the
// wider example pack (AddTools + a routing handler per tool), adapted so
// vmcp's own C9 component stays the single source of truth for namespacing
// and collision resolution.
func (m *Manager) newHandlerServer(sessionID string) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("vmcp", "dev")

	for _, tool := range m.agg.Tools(sessionID) {
		tool := tool
		srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := req.Params.Arguments.(map[string]interface{})
			return m.agg.CallTool(ctx, sessionID, req.Params.Name, args)
		})
	}
	for _, resource := range m.agg.Resources(sessionID) {
		resource := resource
		srv.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return m.agg.ReadResource(ctx, sessionID, req.Params.URI)
		})
	}
	for _, prompt := range m.agg.Prompts(sessionID) {
		prompt := prompt
		srv.AddPrompt(prompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			return m.agg.GetPrompt(ctx, sessionID, req.Params.Name, req.Params.Arguments)
		})
	}
	return srv
}
