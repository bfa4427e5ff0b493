// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"net/http"
	"net/url"

	"dario.cat/mergo"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

// The x-context-* header family decoded into the session context (spec §6
// "Inbound transports").
const (
	HeaderProjectName     = "x-context-project-name"
	HeaderProjectPath     = "x-context-project-path"
	HeaderUserName        = "x-context-user-name"
	HeaderUserEmail       = "x-context-user-email"
	HeaderEnvironmentName = "x-context-environment-name"
	HeaderSessionID       = "x-context-session-id"
	HeaderTimestamp       = "x-context-timestamp"
	HeaderVersion         = "x-context-version"
)

// Equivalent query-parameter fallback names (spec §6).
const (
	QueryProjectName     = "project_name"
	QueryProjectPath     = "project_path"
	QueryUserName        = "user_name"
	QueryUserEmail       = "user_email"
	QueryEnvironmentName = "environment_name"
	QuerySessionID       = "context_session_id"
	QueryTimestamp       = "context_timestamp"
	QueryVersion         = "context_version"
)

// DecodeContext builds a *vmcp.Context from an inbound HTTP request's
// x-context-* headers, with the equivalent query parameters as a fallback.
// When the request also carries context_session_id as a query parameter,
// every query-derived field overrides its header-derived counterpart;
// otherwise query parameters only fill in fields the headers left blank
// (spec §6: "query parameters override iff context_session_id is
// supplied").
func DecodeContext(r *http.Request) (*vmcp.Context, error) {
	headerCtx := contextFromHeaders(r.Header)
	queryCtx := contextFromQuery(r.URL.Query())
	return mergeContext(headerCtx, queryCtx)
}

func mergeContext(headerCtx, queryCtx *vmcp.Context) (*vmcp.Context, error) {
	merged := *headerCtx

	var opts []func(*mergo.Config)
	if queryCtx.SessionID != "" {
		opts = append(opts, mergo.WithOverride)
	}
	if err := mergo.Merge(&merged, *queryCtx, opts...); err != nil {
		return nil, vmcp.NewError(vmcp.KindInputInvalid, "merging header and query context", err)
	}
	return &merged, nil
}

func contextFromHeaders(h http.Header) *vmcp.Context {
	return buildContext(
		h.Get(HeaderProjectName), h.Get(HeaderProjectPath),
		h.Get(HeaderUserName), h.Get(HeaderUserEmail),
		h.Get(HeaderEnvironmentName),
		h.Get(HeaderSessionID), h.Get(HeaderTimestamp), h.Get(HeaderVersion),
	)
}

func contextFromQuery(q url.Values) *vmcp.Context {
	return buildContext(
		q.Get(QueryProjectName), q.Get(QueryProjectPath),
		q.Get(QueryUserName), q.Get(QueryUserEmail),
		q.Get(QueryEnvironmentName),
		q.Get(QuerySessionID), q.Get(QueryTimestamp), q.Get(QueryVersion),
	)
}

func buildContext(projectName, projectPath, userName, userEmail, environmentName, sessionID, timestamp, version string) *vmcp.Context {
	ctx := &vmcp.Context{
		SessionID: sessionID,
		Timestamp: timestamp,
		Version:   version,
	}
	if projectName != "" || projectPath != "" {
		ctx.Project = &vmcp.ProjectContext{Name: projectName, Path: projectPath}
	}
	if userName != "" || userEmail != "" {
		ctx.User = &vmcp.UserContext{Name: userName, Email: userEmail}
	}
	if environmentName != "" {
		ctx.Environment = &vmcp.EnvironmentContext{Name: environmentName}
	}
	return ctx
}
