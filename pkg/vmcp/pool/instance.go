// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool implements C5: the outbound instance pool. It keys pooled
// backend connections by template identity and rendered config, shares
// them across sessions when the template allows it, and evicts idle
// instances on a timer.
package pool

import (
	"time"

	"github.com/mark3labs/mcp-go/client"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

// Instance is one pooled outbound backend connection.
type Instance struct {
	Key          string
	TemplateName string
	Client       *client.Client
	Config       *vmcp.ServerConfig
	VariableHash string
	RenderedHash string

	Status         vmcp.InstanceStatus
	ReferenceCount int
	ClientIDs      map[string]bool
	LastUsedAt     time.Time
	CreatedAt      time.Time
}

// Key derives the pool key for a template instance per spec §4.5 "Key
// derivation". Shareable instances are keyed on template+renderedHash only;
// per-client instances additionally key on sessionID.
func Key(templateName string, renderedHash string, shareable bool, sessionID string) string {
	if shareable {
		return templateName + ":" + renderedHash
	}
	return templateName + ":" + renderedHash + ":" + sessionID
}
