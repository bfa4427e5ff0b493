// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    Query
		tags []string
		want bool
	}{
		{"empty object is false", Query{}, []string{"web"}, false},
		{"bare tag match", Tag("web"), []string{"web", "api"}, true},
		{"bare tag miss", Tag("web"), []string{"api"}, false},
		{"$or true", Or(Tag("web"), Tag("db")), []string{"db"}, true},
		{"$or false", Or(Tag("web"), Tag("db")), []string{"api"}, false},
		{"$and true", And(Tag("web"), Tag("api")), []string{"web", "api"}, true},
		{"$and false", And(Tag("web"), Tag("api")), []string{"web"}, false},
		{"$not true", Not(Tag("web")), []string{"api"}, true},
		{"$not false", Not(Tag("web")), []string{"web"}, false},
		{"$in true", Query{In: []string{"web", "db"}}, []string{"db"}, true},
		{"$in false", Query{In: []string{"web", "db"}}, []string{"api"}, false},
		{"$advanced without resolver is false", Query{Advanced: "true"}, []string{"web"}, false},
		{"unknown top-level operator is false", Query{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := EvaluateTags(tt.q, tt.tags)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_ThreeStateQueryBoundary(t *testing.T) {
	t.Parallel()

	// spec §8 boundary scenario: tags {web,api,db}; web=selected,
	// api=not-selected, strategy=or.
	sel := Selections{"web": SelectionSelected, "api": SelectionNotSelected}
	q := BuildQueryFromSelections(sel, StrategyOr)

	assert.True(t, EvaluateTags(q, []string{"web"}))
	assert.False(t, EvaluateTags(q, []string{"web", "api"}))
	assert.True(t, EvaluateTags(q, []string{"web", "db"}))
}

func TestEvaluateWithResolver_Advanced(t *testing.T) {
	t.Parallel()

	resolver, err := NewCELResolver()
	if err != nil {
		t.Fatalf("NewCELResolver: %v", err)
	}

	q := Query{Advanced: `tags["web"] && !tags["legacy"]`}
	assert.True(t, EvaluateWithResolver(q, tagSet([]string{"web"}), resolver))
	assert.False(t, EvaluateWithResolver(q, tagSet([]string{"web", "legacy"}), resolver))
}
