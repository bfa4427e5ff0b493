// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package session implements C7: admitting an inbound transport for a
// session id under a per-session single-flight gate, wiring C8 (server
// view), C6 (template-backed instances), and C9 (capability aggregation)
// together, and tearing the session back down on disconnect.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/singleflight"

	"github.com/mcpgateway/vmcp/pkg/logger"
	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/aggregator"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
	"github.com/mcpgateway/vmcp/pkg/vmcp/serverview"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
	"github.com/mcpgateway/vmcp/pkg/vmcp/templateserver"
	vmcptransport "github.com/mcpgateway/vmcp/pkg/vmcp/transport"
)

// ConnectDeadline bounds a single connect attempt (spec §4.7).
const ConnectDeadline = 30 * time.Second

// ConnectOptions carries per-connect admission parameters.
type ConnectOptions struct {
	Query      tagquery.Query
	PresetName string
}

// Session is one admitted inbound connection (spec §3 "Inbound session").
type Session struct {
	ID            string
	Status        vmcp.SessionStatus
	Context       *vmcp.Context
	PresetName    string
	LastConnected time.Time
	LastError     error

	// Handler is the per-session MCP server advertising the aggregated
	// capability set (spec §4.7 step 1); the inbound transport layer
	// attaches to it once ConnectTransport returns.
	Handler *mcpserver.MCPServer

	transport io.Closer
}

// Manager is C7.
type Manager struct {
	staticServers []filter.TemplateEntry
	templatesView []filter.TemplateEntry
	templateMgr   *templateserver.Manager
	agg           *aggregator.Aggregator
	presets       filter.PresetStore

	mu            sync.Mutex
	sessions      map[string]*Session
	disconnecting map[string]bool
	presetSubs    map[string]map[string]bool // presetName -> sessionIDs
	connectGate   singleflight.Group

	staticMu      sync.Mutex
	staticClients map[string]*client.Client
	staticGate    singleflight.Group
}

// New constructs a Manager. staticServers and templatesView are the
// configured server documents (spec §4.8); they are read, never mutated,
// by every connect.
func New(staticServers, templatesView []filter.TemplateEntry, templateMgr *templateserver.Manager, agg *aggregator.Aggregator, presets filter.PresetStore) *Manager {
	return &Manager{
		staticServers: staticServers,
		templatesView: templatesView,
		templateMgr:   templateMgr,
		agg:           agg,
		presets:       presets,
		sessions:      make(map[string]*Session),
		disconnecting: make(map[string]bool),
		presetSubs:    make(map[string]map[string]bool),
		staticClients: make(map[string]*client.Client),
	}
}

// ConnectTransport admits transport for sessionID under a per-session
// single-flight gate (spec §4.7). If the session is already connected this
// is a no-op; a concurrent caller for the same sessionID observes the
// outcome of the in-flight attempt rather than starting a second one.
func (m *Manager) ConnectTransport(ctx context.Context, transport io.Closer, sessionID string, sessionCtx *vmcp.Context, opts ConnectOptions) error {
	if m.alreadyConnected(sessionID) {
		logger.Infow("session already connected, skipping re-attach", "session", sessionID)
		return nil
	}

	_, err, _ := m.connectGate.Do(sessionID, func() (interface{}, error) {
		if m.alreadyConnected(sessionID) {
			return nil, nil
		}

		connectCtx, cancel := context.WithTimeout(ctx, ConnectDeadline)
		defer cancel()
		return nil, m.connect(connectCtx, transport, sessionID, sessionCtx, opts)
	})
	return err
}

func (m *Manager) alreadyConnected(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

func (m *Manager) connect(ctx context.Context, transport io.Closer, sessionID string, sessionCtx *vmcp.Context, opts ConnectOptions) error {
	sess := &Session{
		ID:         sessionID,
		Status:     vmcp.SessionConnecting,
		Context:    sessionCtx,
		PresetName: opts.PresetName,
		transport:  transport,
	}
	m.mu.Lock()
	m.sessions[sessionID] = sess
	m.mu.Unlock()

	if err := m.doConnect(ctx, sess, opts); err != nil {
		m.mu.Lock()
		sess.Status = vmcp.SessionError
		sess.LastError = err
		m.mu.Unlock()

		// Release whatever C6 reservations did get made before the failure.
		m.templateMgr.CleanupTemplateServers(sessionID)
		return err
	}
	return nil
}

func (m *Manager) doConnect(ctx context.Context, sess *Session, opts ConnectOptions) error {
	view := serverview.Resolve(m.staticServers, m.templatesView, opts.Query)
	if view.ConflictWarning != "" {
		logger.Warnw("server name conflict", "session", sess.ID, "detail", view.ConflictWarning)
	}

	regs := m.templateMgr.CreateTemplateBasedServers(ctx, sess.ID, sess.Context, opts.Query, m.templatesView)

	backends := make([]aggregator.Backend, 0, len(view.StaticServers)+len(regs))
	backends = append(backends, m.dialStatic(ctx, view.StaticServers)...)
	for _, r := range regs {
		backends = append(backends, aggregator.Backend{Name: r.TemplateName, OutboundKey: r.OutboundKey, Client: r.Instance.Client})
	}

	warnings, err := m.agg.SetupCapabilities(ctx, sess.ID, backends)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warnw("capability collision", "session", sess.ID, "detail", w)
	}

	handler := m.newHandlerServer(sess.ID)

	m.mu.Lock()
	sess.Handler = handler
	sess.Status = vmcp.SessionConnected
	sess.LastConnected = time.Now()
	m.mu.Unlock()

	if opts.PresetName != "" {
		m.subscribePreset(opts.PresetName, sess.ID)
	}

	logger.Infow("session connected", "session", sess.ID, "backends", len(backends))
	return nil
}

// dialStatic resolves a *client.Client for every static server entry,
// sharing one connection per server name across all sessions (spec §4.8:
// static server lifecycle is "a thin layer over the transport factory").
// A server that fails to dial is logged and skipped rather than failing
// the whole connect, matching C6's per-template failure handling.
func (m *Manager) dialStatic(ctx context.Context, entries []filter.TemplateEntry) []aggregator.Backend {
	backends := make([]aggregator.Backend, 0, len(entries))
	for _, e := range entries {
		c, err := m.staticClient(ctx, e)
		if err != nil {
			logger.Warnw("static server unavailable", "server", e.Name, "error", err)
			continue
		}
		backends = append(backends, aggregator.Backend{Name: e.Name, OutboundKey: e.Name, Client: c})
	}
	return backends
}

func (m *Manager) staticClient(ctx context.Context, entry filter.TemplateEntry) (*client.Client, error) {
	m.staticMu.Lock()
	if c, ok := m.staticClients[entry.Name]; ok {
		m.staticMu.Unlock()
		return c, nil
	}
	m.staticMu.Unlock()

	v, err, _ := m.staticGate.Do(entry.Name, func() (interface{}, error) {
		m.staticMu.Lock()
		if c, ok := m.staticClients[entry.Name]; ok {
			m.staticMu.Unlock()
			return c, nil
		}
		m.staticMu.Unlock()

		cfg := entry.Config.Clone()
		if cfg.Transport == "" {
			cfg.Transport = serverview.InferTransport(cfg)
		}
		c, err := vmcptransport.Dial(ctx, cfg, vmcptransport.DialOptions{})
		if err != nil {
			return nil, err
		}

		m.staticMu.Lock()
		m.staticClients[entry.Name] = c
		m.staticMu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*client.Client), nil
}

// DisconnectTransport tears sessionID down (spec §4.7
// "disconnectTransport"). Idempotent: a second call for an already
// disconnecting or unknown session is a no-op.
func (m *Manager) DisconnectTransport(sessionID string, forceClose bool) {
	m.mu.Lock()
	if m.disconnecting[sessionID] {
		m.mu.Unlock()
		return
	}
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.disconnecting[sessionID] = true
	sess.Status = vmcp.SessionDisconnected
	m.mu.Unlock()

	if forceClose && sess.transport != nil {
		if err := sess.transport.Close(); err != nil {
			logger.Warnw("closing inbound transport", "session", sessionID, "error", err)
		}
	}

	if sess.PresetName != "" {
		m.unsubscribePreset(sess.PresetName, sessionID)
	}

	m.agg.Teardown(sessionID)
	m.templateMgr.CleanupTemplateServers(sessionID)

	m.mu.Lock()
	delete(m.sessions, sessionID)
	delete(m.disconnecting, sessionID)
	m.mu.Unlock()

	logger.Infow("session disconnected", "session", sessionID)
}

// Cleanup forcibly disconnects every session (spec §4.7 "cleanup", shutdown
// path).
func (m *Manager) Cleanup() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.DisconnectTransport(id, true)
	}
}

// Get returns sessionID's current record, for status inspection.
func (m *Manager) Get(sessionID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

func (m *Manager) subscribePreset(presetName, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presetSubs[presetName] == nil {
		m.presetSubs[presetName] = make(map[string]bool)
	}
	m.presetSubs[presetName][sessionID] = true
}

func (m *Manager) unsubscribePreset(presetName, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.presetSubs[presetName], sessionID)
}

// SessionsForPreset returns every session currently subscribed to
// presetName's notification fan-out, for a config watcher to re-evaluate
// when a preset definition changes.
func (m *Manager) SessionsForPreset(presetName string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.presetSubs[presetName]
	out := make([]string, 0, len(subs))
	for id := range subs {
		out = append(out, id)
	}
	return out
}
