// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package serverview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
)

func TestResolve_ConflictDropsStaticEntry(t *testing.T) {
	t.Parallel()

	static := []filter.TemplateEntry{
		{Name: "fs", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "fs-static"}},
		{Name: "db", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "db-static"}},
	}
	templates := []filter.TemplateEntry{
		{Name: "fs", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "fs-template", Tags: []string{"web"}}},
	}

	view := Resolve(static, templates, tagquery.Tag("web"))

	require.Len(t, view.StaticServers, 1)
	assert.Equal(t, "db", view.StaticServers[0].Name)
	require.Len(t, view.TemplateServers, 1)
	assert.Equal(t, "fs", view.TemplateServers[0].Name)
	assert.Contains(t, view.ConflictWarning, "fs")
}

func TestResolve_NoConflictNoWarning(t *testing.T) {
	t.Parallel()

	static := []filter.TemplateEntry{
		{Name: "db", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "db-static"}},
	}
	view := Resolve(static, nil, tagquery.Query{})
	assert.Empty(t, view.ConflictWarning)
	assert.Len(t, view.StaticServers, 1)
}

func TestResolve_DropsDisabledStaticServers(t *testing.T) {
	t.Parallel()

	static := []filter.TemplateEntry{
		{Name: "db", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "db-static", Disabled: true}},
	}
	view := Resolve(static, nil, tagquery.Query{})
	assert.Empty(t, view.StaticServers)
}

func TestInferTransport(t *testing.T) {
	t.Parallel()

	assert.Equal(t, vmcp.TransportStdio, InferTransport(&vmcp.ServerConfig{Command: "tool"}))
	assert.Equal(t, vmcp.TransportHTTP, InferTransport(&vmcp.ServerConfig{URL: "https://example.com"}))
	assert.Equal(t, vmcp.TransportKind(""), InferTransport(&vmcp.ServerConfig{}))
	assert.Equal(t, vmcp.TransportSSE, InferTransport(&vmcp.ServerConfig{Transport: vmcp.TransportSSE, URL: "https://example.com"}))
}
