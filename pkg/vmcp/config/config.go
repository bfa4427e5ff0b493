// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the server document (static and
// template-backed backends) and the presets document (spec §6 "Persisted
// state"), and implements the derived-URL convention used to hand filtered
// endpoints to external clients.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
)

// Document is the on-disk server document: a flat list of server entries,
// each either statically declared or marked as a template. Whether an entry
// is a template is carried by which list it appears in (Static or
// Templates) rather than inferred, so that a server never silently changes
// category on reload.
type Document struct {
	Name      string        `yaml:"name"`
	Host      string        `yaml:"host,omitempty"`
	Port      int           `yaml:"port,omitempty"`
	Static    []ServerEntry `yaml:"staticServers,omitempty"`
	Templates []ServerEntry `yaml:"templates,omitempty"`
}

// ServerEntry is one server document entry; it currently carries only the
// shared vmcp.ServerConfig, inlined.
type ServerEntry struct {
	vmcp.ServerConfig `yaml:",inline"`
}

// EnvReader abstracts environment-variable lookup so ${VAR} expansion in the
// document (e.g. in env/headers values) can be tested without mutating the
// process environment.
type EnvReader interface {
	Getenv(key string) string
}

// OSEnvReader reads from the process environment.
type OSEnvReader struct{}

// Getenv implements EnvReader.
func (OSEnvReader) Getenv(key string) string { return os.Getenv(key) }

// YAMLLoader reads and parses a Document from path, expanding ${VAR}
// references against env.
type YAMLLoader struct {
	path string
	env  EnvReader
}

// NewYAMLLoader constructs a loader for the document at path.
func NewYAMLLoader(path string, env EnvReader) *YAMLLoader {
	if env == nil {
		env = OSEnvReader{}
	}
	return &YAMLLoader{path: path, env: env}
}

// Load reads, expands, and parses the document.
func (l *YAMLLoader) Load() (*Document, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", l.path, err)
	}

	expanded := os.Expand(string(raw), l.env.Getenv)

	var doc Document
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", l.path, err)
	}
	for i := range doc.Static {
		inferTransportIfAbsent(&doc.Static[i].ServerConfig)
	}
	for i := range doc.Templates {
		inferTransportIfAbsent(&doc.Templates[i].ServerConfig)
	}
	return &doc, nil
}

func inferTransportIfAbsent(cfg *vmcp.ServerConfig) {
	if cfg.Transport != "" {
		return
	}
	switch {
	case cfg.Command != "":
		cfg.Transport = vmcp.TransportStdio
	case cfg.URL != "":
		cfg.Transport = vmcp.TransportHTTP
	}
}

// StaticEntries converts the document's static servers to the form C7/C8
// consume, dropping any disabled entries (spec §4.8 "refusing disabled
// entries").
func (d *Document) StaticEntries() []filter.TemplateEntry {
	return toTemplateEntries(d.Static)
}

// TemplateEntries converts the document's templates to the form C3/C4
// consume.
func (d *Document) TemplateEntries() []filter.TemplateEntry {
	return toTemplateEntries(d.Templates)
}

func toTemplateEntries(entries []ServerEntry) []filter.TemplateEntry {
	out := make([]filter.TemplateEntry, 0, len(entries))
	for _, e := range entries {
		if e.Disabled {
			continue
		}
		cfg := e.ServerConfig
		out = append(out, filter.TemplateEntry{Name: e.Name, Config: &cfg})
	}
	return out
}

// DefaultHost and DefaultPort are used when a document omits them.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 4483
)
