// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mcpgateway/vmcp/pkg/vmcp/filter"
)

// PresetStore is a JSON-file-backed filter.PresetStore (spec §6 "Presets
// file"): a document mapping preset name to its definition, read into
// memory at construction and reloaded on demand via Reload.
type PresetStore struct {
	path string

	mu      sync.RWMutex
	presets map[string]*filter.Preset
}

// LoadPresetStore reads the presets file at path. A missing file is treated
// as an empty store rather than an error, so a fresh deployment need not
// pre-create it.
func LoadPresetStore(path string) (*PresetStore, error) {
	s := &PresetStore{path: path, presets: make(map[string]*filter.Preset)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the presets file from disk, replacing the in-memory set.
func (s *PresetStore) Reload() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.presets = make(map[string]*filter.Preset)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading presets %s: %w", s.path, err)
	}

	var doc map[string]*filter.Preset
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing presets %s: %w", s.path, err)
	}
	for name, p := range doc {
		p.Name = name
	}

	s.mu.Lock()
	s.presets = doc
	s.mu.Unlock()
	return nil
}

// GetPreset implements filter.PresetStore.
func (s *PresetStore) GetPreset(name string) (*filter.Preset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.presets[name]
	return p, ok
}

// Save persists p under name, overwriting any existing definition, then
// rewrites the whole file. Not safe for concurrent callers writing
// different names without external coordination beyond the in-memory lock.
func (s *PresetStore) Save(name string, p *filter.Preset) error {
	s.mu.Lock()
	p.Name = name
	s.presets[name] = p
	snapshot := make(map[string]*filter.Preset, len(s.presets))
	for k, v := range s.presets {
		snapshot[k] = v
	}
	s.mu.Unlock()

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling presets: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("writing presets %s: %w", s.path, err)
	}
	return nil
}

// Delete removes name from the store and rewrites the file.
func (s *PresetStore) Delete(name string) error {
	s.mu.Lock()
	delete(s.presets, name)
	snapshot := make(map[string]*filter.Preset, len(s.presets))
	for k, v := range s.presets {
		snapshot[k] = v
	}
	s.mu.Unlock()

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling presets: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o644)
}

// Names returns every preset name currently known, for "validate" reporting
// and admin listing.
func (s *PresetStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.presets))
	for name := range s.presets {
		out = append(out, name)
	}
	return out
}
