// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringToQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expr     string
		strategy Strategy
		want     Query
	}{
		{"single tag", "web", StrategyOr, Tag("web")},
		{"trims whitespace", "  web  ", StrategyOr, Tag("web")},
		{"drops empties", "web,,api", StrategyOr, Or(Tag("web"), Tag("api"))},
		{"and strategy", "web,api", StrategyAnd, And(Tag("web"), Tag("api"))},
		{"empty expression", "", StrategyOr, Query{}},
		{"advanced wraps opaque", `tags["web"]`, StrategyAdvanced, Query{Advanced: `tags["web"]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := StringToQuery(tt.expr, tt.strategy)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryToString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"tag", Tag("web"), "web"},
		{"or", Or(Tag("a"), Tag("b")), "a OR b"},
		{"and", And(Tag("a"), Tag("b")), "a AND b"},
		{"not", Not(Tag("a")), "NOT (a)"},
		{"in", Query{In: []string{"a", "b"}}, "IN [a, b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, QueryToString(tt.q))
		})
	}
}
