// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

type mapEnv map[string]string

func (m mapEnv) Getenv(key string) string { return m[key] }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vmcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestYAMLLoader_Load(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
name: demo
host: 0.0.0.0
port: 9000
staticServers:
  - name: fs
    transport: stdio
    command: "${FS_BINARY}"
    args: ["--root", "/data"]
templates:
  - name: gh
    transport: http
    url: "https://{project.name}.example.com/mcp"
    tags: ["vcs"]
`)

	loader := NewYAMLLoader(path, mapEnv{"FS_BINARY": "/usr/bin/fs-server"})
	doc, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "demo", doc.Name)
	assert.Equal(t, 9000, doc.Port)
	require.Len(t, doc.Static, 1)
	assert.Equal(t, "/usr/bin/fs-server", doc.Static[0].Command)
	assert.Equal(t, vmcp.TransportStdio, doc.Static[0].Transport)

	require.Len(t, doc.Templates, 1)
	assert.Equal(t, vmcp.TransportHTTP, doc.Templates[0].Transport)
}

func TestYAMLLoader_Load_MissingFile(t *testing.T) {
	t.Parallel()

	loader := NewYAMLLoader(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	_, err := loader.Load()
	assert.Error(t, err)
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     *Document
		wantErr string
	}{
		{
			name:    "missing document name",
			doc:     &Document{},
			wantErr: "document name is required",
		},
		{
			name: "duplicate server name",
			doc: &Document{
				Name: "demo",
				Static: []ServerEntry{
					{ServerConfig: vmcp.ServerConfig{Name: "a", Transport: vmcp.TransportHTTP, URL: "http://a"}},
				},
				Templates: []ServerEntry{
					{ServerConfig: vmcp.ServerConfig{Name: "a", Transport: vmcp.TransportHTTP, URL: "http://a"}},
				},
			},
			wantErr: `duplicate server name "a"`,
		},
		{
			name: "unknown transport",
			doc: &Document{
				Name: "demo",
				Static: []ServerEntry{
					{ServerConfig: vmcp.ServerConfig{Name: "a", Transport: "carrier-pigeon"}},
				},
			},
			wantErr: "unrecognized transport",
		},
		{
			name: "missing primary field",
			doc: &Document{
				Name: "demo",
				Static: []ServerEntry{
					{ServerConfig: vmcp.ServerConfig{Name: "a", Transport: vmcp.TransportHTTP}},
				},
			},
			wantErr: "missing primary field",
		},
		{
			name: "disabled entry skips validation",
			doc: &Document{
				Name: "demo",
				Static: []ServerEntry{
					{ServerConfig: vmcp.ServerConfig{Name: "a", Transport: "bogus", Disabled: true}},
				},
			},
		},
		{
			name: "valid document",
			doc: &Document{
				Name: "demo",
				Static: []ServerEntry{
					{ServerConfig: vmcp.ServerConfig{Name: "a", Transport: vmcp.TransportHTTP, URL: "http://a"}},
				},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewValidator().Validate(tt.doc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
