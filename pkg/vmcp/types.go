// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package vmcp holds the shared data model for the virtual MCP aggregating
// proxy: the per-session context, the server configuration union, sessions,
// pooled instances, and the routing tables that connect them. Subpackages
// (template, tagquery, filter, pool, templateserver, session, serverview,
// aggregator) implement the nine components built on top of this model.
package vmcp

import "time"

// ProjectContext is the "project" namespace available to templates.
type ProjectContext struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// UserContext is the "user" namespace available to templates.
type UserContext struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// EnvironmentContext is the "environment" namespace available to templates.
type EnvironmentContext struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// ClientDescriptor optionally identifies the inbound client.
type ClientDescriptor struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Context is the immutable per-session record templates render against. It
// is built once at connect time (spec §3 "Context") and never mutated for
// the lifetime of the session.
type Context struct {
	Project     *ProjectContext     `json:"project,omitempty" yaml:"project,omitempty"`
	User        *UserContext        `json:"user,omitempty" yaml:"user,omitempty"`
	Environment *EnvironmentContext `json:"environment,omitempty" yaml:"environment,omitempty"`
	SessionID   string              `json:"sessionId,omitempty" yaml:"sessionId,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Version     string              `json:"version,omitempty" yaml:"version,omitempty"`
	Client      *ClientDescriptor   `json:"client,omitempty" yaml:"client,omitempty"`
}

// RecognizedNamespaces lists the three nested context namespaces (spec §3
// "Context"). A variable reference's path may start with one of these or
// with a scalar field (sessionId, timestamp, version) or client; the
// template parser keeps its own list of accepted first segments.
var RecognizedNamespaces = map[string]bool{
	"project":     true,
	"user":        true,
	"environment": true,
}

// TransportKind discriminates the tagged union of server transport configs.
type TransportKind string

// Transport kinds recognized by ServerConfig (spec §3 "Server config entry").
const (
	TransportStdio TransportKind = "stdio"
	TransportHTTP  TransportKind = "http"
	TransportSSE   TransportKind = "sse"
)

// TemplatePolicy controls pool-sharing behavior for a template-backed server
// (spec §3, §4.5 "Key derivation").
type TemplatePolicy struct {
	// Shareable defaults to true; an explicit false forces per-client.
	Shareable *bool `json:"shareable,omitempty" yaml:"shareable,omitempty"`
	// PerClient defaults to false; an explicit true forces per-client
	// regardless of Shareable.
	PerClient   *bool         `json:"perClient,omitempty" yaml:"perClient,omitempty"`
	IdleTimeout time.Duration `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`
}

// IsShareable implements the key-derivation rule from spec §4.5:
//
//	shareable = template.perClient != true && template.shareable != false
func (p *TemplatePolicy) IsShareable() bool {
	if p == nil {
		return true
	}
	if p.PerClient != nil && *p.PerClient {
		return false
	}
	if p.Shareable != nil && !*p.Shareable {
		return false
	}
	return true
}

// InstallMetadata is passed through verbatim; the core never interprets it
// (spec §6 "Persisted state").
type InstallMetadata struct {
	InstalledAt   string `json:"installedAt,omitempty" yaml:"installedAt,omitempty"`
	InstalledBy   string `json:"installedBy,omitempty" yaml:"installedBy,omitempty"`
	Version       string `json:"version,omitempty" yaml:"version,omitempty"`
	RegistryID    string `json:"registryId,omitempty" yaml:"registryId,omitempty"`
	LastUpdated   string `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
}

// ServerConfig is the tagged union over transport kinds described in spec §3.
// Placeholders may appear in any string-valued field (Command, Args, Env
// values, Cwd, URL, Headers values).
type ServerConfig struct {
	Name      string        `json:"name" yaml:"name"`
	Transport TransportKind `json:"transport" yaml:"transport"`

	// stdio fields.
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Cwd     string            `json:"cwd,omitempty" yaml:"cwd,omitempty"`

	// http / sse fields.
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Common fields.
	Tags     []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Disabled bool             `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Timeout  time.Duration    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Template *TemplatePolicy  `json:"template,omitempty" yaml:"template,omitempty"`
	Metadata *InstallMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep-enough copy of cfg suitable for in-place placeholder
// substitution without mutating the original template definition.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Args = append([]string(nil), c.Args...)
	clone.Tags = append([]string(nil), c.Tags...)
	if c.Env != nil {
		clone.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			clone.Env[k] = v
		}
	}
	if c.Headers != nil {
		clone.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			clone.Headers[k] = v
		}
	}
	return &clone
}

// PrimaryField returns the transport's required identifying field, used by
// C4 to drop entries that are missing it (spec §4.4 "getMatchingTemplates").
func (c *ServerConfig) PrimaryField() string {
	switch c.Transport {
	case TransportStdio:
		return c.Command
	case TransportHTTP, TransportSSE:
		return c.URL
	default:
		return ""
	}
}

// RenderedConfig is a ServerConfig with all placeholders substituted, plus
// RenderedHash, the content hash of the rendered config itself, and
// VariableHash over the variables actually consumed (spec §3 "Rendered
// config").
type RenderedConfig struct {
	Config       *ServerConfig
	RenderedHash string
	// VariableHash hashes only the variables referenced by the template,
	// independent of render outcome; spec §8 invariant 4.
	VariableHash string
}

// SessionStatus is the inbound session lifecycle state (spec §3 "Inbound
// session").
type SessionStatus string

// Session lifecycle states.
const (
	SessionConnecting   SessionStatus = "connecting"
	SessionConnected    SessionStatus = "connected"
	SessionDisconnected SessionStatus = "disconnected"
	SessionError        SessionStatus = "error"
)

// TagFilterMode selects how Filter.Tags is interpreted (spec §4.4).
type TagFilterMode string

// Filter modes.
const (
	FilterModeAny      TagFilterMode = "any"
	FilterModeAll      TagFilterMode = "all"
	FilterModeAdvanced TagFilterMode = "advanced"
	FilterModePreset   TagFilterMode = "preset"
)

// InstanceStatus is a pooled outbound instance's lifecycle state (spec §3
// "Pooled outbound instance").
type InstanceStatus string

// Instance lifecycle states.
const (
	InstanceActive      InstanceStatus = "active"
	InstanceIdle        InstanceStatus = "idle"
	InstanceTerminating InstanceStatus = "terminating"
)
