// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the virtual MCP aggregating proxy.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcpgateway/vmcp/cmd/vmcp/app"
	"github.com/mcpgateway/vmcp/pkg/logger"
)

func main() {
	logger.Initialize()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("error executing command: %v", err)
		os.Exit(1)
	}
}
