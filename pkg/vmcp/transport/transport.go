// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport builds an outbound mcp-go client for a rendered server
// config and drives its initialize handshake, with bounded retry around
// the connect step.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

// Implementation identifies this proxy to backend servers during
// initialize.
var Implementation = mcp.Implementation{
	Name:    "vmcp",
	Version: "dev",
}

// DialOptions bounds the connect+initialize handshake.
type DialOptions struct {
	// InitializeTimeout bounds a single initialize attempt; zero means no
	// per-attempt deadline beyond ctx's own.
	InitializeTimeout time.Duration
	// MaxRetries bounds the number of connect attempts; zero means a
	// single attempt with no retry.
	MaxRetries uint
}

// Dial constructs a backend client for cfg's transport, starts it, and
// performs initialize, retrying transient failures with exponential
// backoff (spec §4.5 step 3, "open the outbound transport ... perform
// initialize").
func Dial(ctx context.Context, cfg *vmcp.ServerConfig, opts DialOptions) (*client.Client, error) {
	operation := func() (*client.Client, error) {
		c, err := newClient(cfg)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		dialCtx := ctx
		var cancel context.CancelFunc
		if opts.InitializeTimeout > 0 {
			dialCtx, cancel = context.WithTimeout(ctx, opts.InitializeTimeout)
			defer cancel()
		}

		if err := c.Start(dialCtx); err != nil {
			return nil, vmcp.NewError(vmcp.KindBackendUnavailable, "starting transport", err)
		}

		initReq := mcp.InitializeRequest{}
		initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
		initReq.Params.ClientInfo = Implementation
		initReq.Params.Capabilities = mcp.ClientCapabilities{}

		if _, err := c.Initialize(dialCtx, initReq); err != nil {
			_ = c.Close()
			return nil, vmcp.NewError(vmcp.KindBackendUnavailable, "initializing backend", err)
		}
		return c, nil
	}

	retries := opts.MaxRetries
	if retries == 0 {
		retries = 1
	}
	return backoff.Retry(ctx, operation, backoff.WithMaxTries(retries))
}

// newClient builds the unstarted client for cfg's transport kind.
func newClient(cfg *vmcp.ServerConfig) (*client.Client, error) {
	switch cfg.Transport {
	case vmcp.TransportStdio:
		env := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		return client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)

	case vmcp.TransportHTTP:
		if len(cfg.Headers) == 0 {
			return client.NewStreamableHttpClient(cfg.URL)
		}
		return client.NewStreamableHttpClient(cfg.URL, transport.WithHTTPHeaders(cfg.Headers))

	case vmcp.TransportSSE:
		if len(cfg.Headers) == 0 {
			return client.NewSSEMCPClient(cfg.URL)
		}
		return client.NewSSEMCPClient(cfg.URL, transport.WithHeaders(cfg.Headers))

	default:
		return nil, vmcp.ErrUnsupportedTransport
	}
}
