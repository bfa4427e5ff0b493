// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the vmcp command-line
// application: a thin cobra/viper CLI over config loading and the server
// startup sequence.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcpgateway/vmcp/pkg/logger"
	"github.com/mcpgateway/vmcp/pkg/vmcp/aggregator"
	"github.com/mcpgateway/vmcp/pkg/vmcp/config"
	"github.com/mcpgateway/vmcp/pkg/vmcp/pool"
	"github.com/mcpgateway/vmcp/pkg/vmcp/session"
	"github.com/mcpgateway/vmcp/pkg/vmcp/template"
	"github.com/mcpgateway/vmcp/pkg/vmcp/templateserver"
	vmcptransport "github.com/mcpgateway/vmcp/pkg/vmcp/transport"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:               "vmcp",
	DisableAutoGenTag: true,
	Short:             "Virtual MCP Server - aggregate and proxy multiple MCP servers",
	Long: `vmcp is a proxy that aggregates multiple MCP servers behind one
session-scoped, tag-filtered endpoint. Static servers are always present;
template servers render per session from project/user/environment context
and are materialized on demand through a shared connection pool.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorf("displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd builds the vmcp root command.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the server document")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("binding config flag: %v", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newValidateCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the virtual MCP server",
		Long: `Load the server document specified by --config, start the outbound
connection pool, and listen for inbound MCP sessions over streamable HTTP.`,
		RunE: runServe,
	}
	cmd.Flags().String("host", "", "host to bind to (overrides the document's host)")
	cmd.Flags().Int("port", 0, "port to listen on (overrides the document's port)")
	cmd.Flags().String("presets", "", "path to the presets file (default: the --config path with .presets.json appended)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			logger.Infof("vmcp version: %s", version)
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the server document",
		RunE: func(_ *cobra.Command, _ []string) error {
			configPath := viper.GetString("config")
			if configPath == "" {
				return errors.New("no configuration file specified, use --config")
			}

			doc, err := loadAndValidateDocument(configPath)
			if err != nil {
				return err
			}

			logger.Infof("configuration is valid")
			logger.Infof("  name: %s", doc.Name)
			logger.Infof("  static servers: %d", len(doc.Static))
			logger.Infof("  templates: %d", len(doc.Templates))
			return nil
		},
	}
}

func loadAndValidateDocument(configPath string) (*config.Document, error) {
	logger.Infof("loading configuration from %s", configPath)

	loader := config.NewYAMLLoader(configPath, config.OSEnvReader{})
	doc, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := config.NewValidator().Validate(doc); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return doc, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	configPath := viper.GetString("config")
	if configPath == "" {
		return errors.New("no configuration file specified, use --config")
	}

	doc, err := loadAndValidateDocument(configPath)
	if err != nil {
		return err
	}

	presetsPath, _ := cmd.Flags().GetString("presets")
	if presetsPath == "" {
		presetsPath = configPath + ".presets.json"
	}
	presets, err := config.LoadPresetStore(presetsPath)
	if err != nil {
		return fmt.Errorf("loading presets: %w", err)
	}

	reg := prometheus.NewRegistry()
	p := pool.New(pool.Config{
		MaxInstancesPerTemplate: 8,
		MaxTotalInstances:       256,
		IdleTimeout:             10 * time.Minute,
		CleanupInterval:         time.Minute,
	}, pool.ConnectorFunc(vmcptransport.Dial), reg)
	defer p.Close()

	tm := templateserver.New(p, template.NewExtractor())
	agg := aggregator.New()
	mgr := session.New(doc.StaticEntries(), doc.TemplateEntries(), tm, agg, presets)
	defer mgr.Cleanup()

	host, _ := cmd.Flags().GetString("host")
	if host == "" {
		host = doc.Host
	}
	if host == "" {
		host = config.DefaultHost
	}
	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = doc.Port
	}
	if port == 0 {
		port = config.DefaultPort
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mgr.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}
