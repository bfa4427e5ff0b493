// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mcpgateway/vmcp/pkg/logger"
	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
)

// Query parameters accepted by the HTTP admission endpoint for filtering
// which templates a session sees (spec §4.4). Only preset/any/all are
// reachable over HTTP; an $advanced query is config-only.
const (
	queryParamPreset = "preset"
	queryParamTags   = "tags"
	queryParamMode   = "tag_filter_mode"
)

// nopCloser satisfies io.Closer for inbound transports whose teardown is
// already handled by the HTTP server's own connection lifecycle, so there
// is nothing left for C7 to close on disconnect.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Router builds the chi mux that terminates inbound HTTP/streamable
// sessions: it decodes the x-context-* header family and query-parameter
// fallback into a session context (spec §6), resolves the tag filter from
// query parameters, and hands the request to ConnectTransport before
// delegating the MCP message stream to the session's handler server.
func (m *Manager) Router() http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/mcp", m.serveMCP)
	return r
}

func (m *Manager) serveMCP(w http.ResponseWriter, r *http.Request) {
	sessionCtx, err := DecodeContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := sessionCtx.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		sessionCtx.SessionID = sessionID
	}

	opts, err := m.parseConnectOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := m.ConnectTransport(r.Context(), nopCloser{}, sessionID, sessionCtx, opts); err != nil {
		logger.Warnw("connect failed", "session", sessionID, "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	sess, ok := m.Get(sessionID)
	if !ok || sess.Handler == nil {
		http.Error(w, "session not connected", http.StatusInternalServerError)
		return
	}

	mcpserver.NewStreamableHTTPServer(sess.Handler).ServeHTTP(w, r)
}

func (m *Manager) parseConnectOptions(r *http.Request) (ConnectOptions, error) {
	q := r.URL.Query()

	var f filter.Filter
	switch {
	case q.Get(queryParamPreset) != "":
		f.PresetName = q.Get(queryParamPreset)
		f.TagFilterMode = vmcp.FilterModePreset
	case q.Get(queryParamTags) != "":
		f.Tags = strings.Split(q.Get(queryParamTags), ",")
		if q.Get(queryParamMode) == "all" {
			f.TagFilterMode = vmcp.FilterModeAll
		} else {
			f.TagFilterMode = vmcp.FilterModeAny
		}
	}

	query, err := filter.Resolve(f, m.presets)
	if err != nil {
		return ConnectOptions{}, err
	}
	return ConnectOptions{Query: query, PresetName: f.PresetName}, nil
}
