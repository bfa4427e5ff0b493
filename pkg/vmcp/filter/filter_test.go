// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgateway/vmcp/pkg/vmcp"
	"github.com/mcpgateway/vmcp/pkg/vmcp/tagquery"
)

type fakePresetStore map[string]*Preset

func (f fakePresetStore) GetPreset(name string) (*Preset, bool) {
	p, ok := f[name]
	return p, ok
}

func TestResolve_Preset(t *testing.T) {
	t.Parallel()

	store := fakePresetStore{
		"dev": {Name: "dev", TagQuery: tagquery.Tag("web")},
	}

	got, err := Resolve(Filter{TagFilterMode: vmcp.FilterModePreset, PresetName: "dev"}, store)
	require.NoError(t, err)
	assert.Equal(t, tagquery.Tag("web"), got)
}

func TestResolve_PresetNotFound(t *testing.T) {
	t.Parallel()

	_, err := Resolve(Filter{TagFilterMode: vmcp.FilterModePreset, PresetName: "missing"}, fakePresetStore{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vmcp.ErrPresetNotFound))
}

func TestResolve_AnyAndAll(t *testing.T) {
	t.Parallel()

	anyQuery, err := Resolve(Filter{TagFilterMode: vmcp.FilterModeAny, Tags: []string{"web", "api"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, tagquery.StringToQuery("web,api", tagquery.StrategyOr), anyQuery)

	allQuery, err := Resolve(Filter{TagFilterMode: vmcp.FilterModeAll, Tags: []string{"web", "api"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, tagquery.StringToQuery("web,api", tagquery.StrategyAnd), allQuery)
}

func TestResolve_Advanced(t *testing.T) {
	t.Parallel()

	q := tagquery.Or(tagquery.Tag("web"), tagquery.Tag("api"))
	got, err := Resolve(Filter{TagFilterMode: vmcp.FilterModeAdvanced, AdvancedQuery: q}, nil)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestResolve_AdvancedInvalidRejected(t *testing.T) {
	t.Parallel()

	q := tagquery.Query{Or: []tagquery.Query{}}
	_, err := Resolve(Filter{TagFilterMode: vmcp.FilterModeAdvanced, AdvancedQuery: q}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, vmcp.ErrInvalidTagQuery))
}

func TestGetMatchingTemplates_PreservesOrderAndDropsIncomplete(t *testing.T) {
	t.Parallel()

	templates := []TemplateEntry{
		{Name: "a", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "tool-a", Tags: []string{"web"}}},
		{Name: "b", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Tags: []string{"web"}}}, // missing command
		{Name: "c", Config: &vmcp.ServerConfig{Transport: vmcp.TransportHTTP, URL: "https://c", Tags: []string{"api"}}},
		{Name: "d", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "tool-d", Tags: []string{"web"}}},
	}

	got := GetMatchingTemplates(templates, tagquery.Tag("web"))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "d", got[1].Name)
}

func TestGetMatchingTemplates_EmptyQueryMatchesNothing(t *testing.T) {
	t.Parallel()

	templates := []TemplateEntry{
		{Name: "a", Config: &vmcp.ServerConfig{Transport: vmcp.TransportStdio, Command: "tool-a", Tags: []string{"web"}}},
	}
	got := GetMatchingTemplates(templates, tagquery.Query{})
	assert.Empty(t, got)
}
