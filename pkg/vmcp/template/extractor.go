// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

// Extractor implements C1: parsing the placeholders referenced by a server
// config and computing the deterministic hash of the variables a render
// actually consumed.
type Extractor struct {
	mu    sync.Mutex
	cache map[string][]Reference
}

// NewExtractor returns a ready-to-use Extractor with an empty cache.
func NewExtractor() *Extractor {
	return &Extractor{cache: make(map[string][]Reference)}
}

// Extract returns the deduped, ordered list of variable references in cfg
// (spec §4.1 "extract"). Identical configs yield identical reference lists
// in the same order (spec §8 invariant 4).
func (e *Extractor) Extract(cfg *vmcp.ServerConfig) ([]Reference, error) {
	key := identityKey(cfg)

	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	var all []Reference
	seen := make(map[string]bool)
	for _, s := range stringFields(cfg) {
		refs, err := ParseReferences(s)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			dedupeKey := referenceKey(r)
			if seen[dedupeKey] {
				continue
			}
			seen[dedupeKey] = true
			all = append(all, r)
		}
	}

	e.mu.Lock()
	e.cache[key] = all
	e.mu.Unlock()

	return all, nil
}

// ClearCache drops all memoized extractions.
func (e *Extractor) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string][]Reference)
}

// GetUsed resolves every reference extracted from cfg against ctx and
// returns a map keyed by reference path. A path that fails to resolve is
// still present in the map with a nil value — downstream hashing and
// diagnostics need a stable key set (spec §4.1 "getUsed").
func (e *Extractor) GetUsed(cfg *vmcp.ServerConfig, ctx *vmcp.Context) (map[string]interface{}, error) {
	refs, err := e.Extract(cfg)
	if err != nil {
		return nil, err
	}

	ctxJSON, err := marshalContext(ctx)
	if err != nil {
		return nil, err
	}

	used := make(map[string]interface{}, len(refs))
	for _, ref := range refs {
		val, ok := resolvePath(ctxJSON, ref.Path)
		if !ok {
			used[ref.Path] = nil
			continue
		}
		used[ref.Path] = val
	}
	return used, nil
}

// CreateVariableHash hashes the used-variables map with sorted keys and
// stable JSON primitives, so unrelated context changes that don't touch any
// referenced path never change the hash (spec §4.1, §8 invariant 4).
func CreateVariableHash(used map[string]interface{}) string {
	keys := make([]string, 0, len(used))
	for k := range used {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]keyValue, len(keys))
	for i, k := range keys {
		ordered[i] = keyValue{Key: k, Value: used[k]}
	}

	// encoding/json preserves slice order, giving a stable byte sequence
	// for the sorted-key representation.
	b, err := json.Marshal(ordered)
	if err != nil {
		// used values are always JSON-marshalable scalars/strings/nil.
		b = []byte(err.Error())
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type keyValue struct {
	Key   string      `json:"k"`
	Value interface{} `json:"v"`
}

func referenceKey(r Reference) string {
	b, _ := json.Marshal(r)
	return string(b)
}

// identityKey fingerprints cfg's content for memoization purposes.
func identityKey(cfg *vmcp.ServerConfig) string {
	b, _ := json.Marshal(cfg)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// stringFields returns every placeholder-eligible string value in cfg, in a
// stable declared order: Command, Args, sorted Env values, Cwd, URL, sorted
// Header values (spec §3 "Placeholders may appear in any string-valued
// field").
func stringFields(cfg *vmcp.ServerConfig) []string {
	var out []string
	out = append(out, cfg.Command)
	out = append(out, cfg.Args...)
	out = append(out, sortedValues(cfg.Env)...)
	out = append(out, cfg.Cwd, cfg.URL)
	out = append(out, sortedValues(cfg.Headers)...)
	return out
}

func sortedValues(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
