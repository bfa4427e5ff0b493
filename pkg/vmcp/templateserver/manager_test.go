// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package templateserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
	"github.com/mcpgateway/vmcp/pkg/vmcp/pool"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
	"github.com/mcpgateway/vmcp/pkg/vmcp/template"
	vmcptransport "github.com/mcpgateway/vmcp/pkg/vmcp/transport"
)

func startBackend(t *testing.T) string {
	t.Helper()
	srv := mcpserver.NewMCPServer("templateserver-test-backend", "1.0.0")
	ts := httptest.NewServer(mcpserver.NewStreamableHTTPServer(srv))
	t.Cleanup(ts.Close)
	return ts.URL
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	p := pool.New(pool.Config{IdleTimeout: time.Hour, CleanupInterval: time.Hour}, pool.ConnectorFunc(
		func(ctx context.Context, cfg *vmcp.ServerConfig, opts vmcptransport.DialOptions) (*client.Client, error) {
			return vmcptransport.Dial(ctx, cfg, opts)
		},
	), nil)
	t.Cleanup(p.Close)
	return New(p, template.NewExtractor())
}

func TestManager_CreateTemplateBasedServers_SharedAcrossSessions(t *testing.T) {
	t.Parallel()

	url := startBackend(t)
	m := newTestManager(t)

	templates := []filter.TemplateEntry{
		{Name: "fs", Config: &vmcp.ServerConfig{
			Transport: vmcp.TransportHTTP,
			URL:       url + "/{project.name}",
			Tags:      []string{"web"},
		}},
	}
	sessionCtx := &vmcp.Context{Project: &vmcp.ProjectContext{Name: ""}}

	regsA := m.CreateTemplateBasedServers(context.Background(), "sessionA", sessionCtx, tagquery.Tag("web"), templates)
	regsB := m.CreateTemplateBasedServers(context.Background(), "sessionB", sessionCtx, tagquery.Tag("web"), templates)

	require.Len(t, regsA, 1)
	require.Len(t, regsB, 1)
	assert.Same(t, regsA[0].Instance, regsB[0].Instance)
	assert.Equal(t, 2, regsA[0].Instance.ReferenceCount)

	hashA, ok := m.RenderedHash("sessionA", "fs")
	require.True(t, ok)
	hashB, ok := m.RenderedHash("sessionB", "fs")
	require.True(t, ok)
	assert.Equal(t, hashA, hashB)
}

func TestManager_CleanupTemplateServers_ReleasesReference(t *testing.T) {
	t.Parallel()

	url := startBackend(t)
	m := newTestManager(t)

	templates := []filter.TemplateEntry{
		{Name: "fs", Config: &vmcp.ServerConfig{Transport: vmcp.TransportHTTP, URL: url, Tags: []string{"web"}}},
	}
	sessionCtx := &vmcp.Context{}

	regs := m.CreateTemplateBasedServers(context.Background(), "sessionA", sessionCtx, tagquery.Tag("web"), templates)
	require.Len(t, regs, 1)
	assert.Equal(t, 1, regs[0].Instance.ReferenceCount)

	drained := m.CleanupTemplateServers("sessionA")
	require.Len(t, drained, 1)
	assert.Equal(t, 0, drained[0].Instance.ReferenceCount)

	_, ok := m.RenderedHash("sessionA", "fs")
	assert.False(t, ok)
}

func TestManager_SkipsTemplateOnMaterializeFailure(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	templates := []filter.TemplateEntry{
		{Name: "broken", Config: &vmcp.ServerConfig{Transport: vmcp.TransportHTTP, URL: "http://127.0.0.1:0", Tags: []string{"web"}}},
	}

	regs := m.CreateTemplateBasedServers(context.Background(), "sessionA", &vmcp.Context{}, tagquery.Tag("web"), templates)
	assert.Empty(t, regs)
}
