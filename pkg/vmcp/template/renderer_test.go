// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

func testContext() *vmcp.Context {
	return &vmcp.Context{
		Project:   &vmcp.ProjectContext{Name: "demo", Path: "/work/demo"},
		User:      &vmcp.UserContext{Name: "ada", Email: "ada@example.com"},
		SessionID: "sess-1",
	}
}

func TestRender_SubstitutesPlaceholders(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Name:      "demo-server",
		Transport: vmcp.TransportStdio,
		Command:   "/usr/bin/tool",
		Args:      []string{"--project={project.name}", "--dir={project.path | basename}"},
		Env: map[string]string{
			"USER_EMAIL": "{user.email}",
		},
	}

	result, err := Render(cfg, testContext(), RenderOptions{Strict: true})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	assert.Equal(t, "--project=demo", result.Config.Args[0])
	assert.Equal(t, "--dir=demo", result.Config.Args[1])
	assert.Equal(t, "ada@example.com", result.Config.Env["USER_EMAIL"])
	assert.NotEmpty(t, result.RenderedHash)

	// the original config is untouched.
	assert.Equal(t, "--project={project.name}", cfg.Args[0])
}

func TestRender_DefaultFallback(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportHTTP,
		URL:       "https://example.com/{environment.name:staging}",
	}

	result, err := Render(cfg, &vmcp.Context{}, RenderOptions{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/staging", result.Config.URL)
}

func TestRender_NonStrictUsesErrorSentinelOnPipelineFailure(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportStdio,
		Command:   "{project.name | nope}",
	}

	result, err := Render(cfg, testContext(), RenderOptions{Strict: false})
	require.NoError(t, err)
	assert.Equal(t, ErrorSentinel, result.Config.Command)
	assert.Len(t, result.Warnings, 1)
}

func TestRender_NonStrictLeavesLiteralPlaceholderOnUnresolvedVariable(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportHTTP,
		URL:       "https://example.com/{environment.name}",
	}

	result, err := Render(cfg, &vmcp.Context{}, RenderOptions{Strict: false})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/{environment.name}", result.Config.URL)
	assert.Len(t, result.Warnings, 1)
}

func TestRender_NonStrictLeavesLiteralPlaceholderOnSyntaxError(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportStdio,
		Command:   "{unterminated",
	}

	result, err := Render(cfg, testContext(), RenderOptions{Strict: false})
	require.NoError(t, err)
	assert.Equal(t, "{unterminated", result.Config.Command)
	assert.Len(t, result.Warnings, 1)
}

func TestRender_StrictFailsOnUnresolvedVariable(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportHTTP,
		URL:       "https://example.com/{environment.name}",
	}

	_, err := Render(cfg, &vmcp.Context{}, RenderOptions{Strict: true})
	require.Error(t, err)
}

func TestRender_StrictFailsOnUnknownFunction(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportStdio,
		Command:   "{project.name | nope}",
	}

	_, err := Render(cfg, testContext(), RenderOptions{Strict: true})
	require.Error(t, err)
}

func TestRender_HashStableAcrossUnrelatedContextChanges(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportStdio,
		Command:   "/usr/bin/tool",
		Args:      []string{"--project={project.name}"},
	}

	ctxA := testContext()
	ctxB := testContext()
	ctxB.User.Email = "someone-else@example.com" // unreferenced field

	resultA, err := Render(cfg, ctxA, RenderOptions{Strict: true})
	require.NoError(t, err)
	resultB, err := Render(cfg, ctxB, RenderOptions{Strict: true})
	require.NoError(t, err)

	assert.Equal(t, resultA.RenderedHash, resultB.RenderedHash)
}

func TestRender_HashChangesWhenReferencedValueChanges(t *testing.T) {
	t.Parallel()

	cfg := &vmcp.ServerConfig{
		Transport: vmcp.TransportStdio,
		Command:   "/usr/bin/tool",
		Args:      []string{"--project={project.name}"},
	}

	ctxA := testContext()
	ctxB := testContext()
	ctxB.Project.Name = "other-project"

	resultA, err := Render(cfg, ctxA, RenderOptions{Strict: true})
	require.NoError(t, err)
	resultB, err := Render(cfg, ctxB, RenderOptions{Strict: true})
	require.NoError(t, err)

	assert.NotEqual(t, resultA.RenderedHash, resultB.RenderedHash)
}
