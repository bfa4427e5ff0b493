// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
)

// marshalContext serializes ctx once per render so every reference lookup
// for that render reuses the same JSON bytes instead of re-marshaling.
func marshalContext(ctx *vmcp.Context) ([]byte, error) {
	if ctx == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return nil, fmt.Errorf("marshaling context: %w", err)
	}
	return b, nil
}

// resolvePath resolves a dot-joined path (e.g. "project.path") against the
// JSON-serialized context using gjson's dotted-path lookup. Unknown paths
// report ok=false so callers can fall back to a default or the literal
// placeholder per spec §4.1.
func resolvePath(ctxJSON []byte, path string) (string, bool) {
	res := gjson.GetBytes(ctxJSON, path)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}
