// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"net/url"
	"strings"
)

// Derived-URL query parameter names (spec §6 "Derived URLs").
const (
	ParamPreset    = "preset"
	ParamTagFilter = "tag-filter"
	ParamTags      = "tags"
)

// DeriveURL appends exactly one filtering parameter to base, in priority
// order preset > tagFilter > tags (spec §6): the first non-empty of the
// three wins and the others are ignored. tagFilter is a raw tag-query
// expression (free text like "web and api", URL-encoded here); tags is a
// plain tag list, comma-joined before encoding.
func DeriveURL(base, preset, tagFilter string, tags []string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	// Strip any pre-existing filtering parameters so DeriveURL is safe to
	// call on a URL that already carries one.
	q.Del(ParamPreset)
	q.Del(ParamTagFilter)
	q.Del(ParamTags)

	switch {
	case preset != "":
		q.Set(ParamPreset, preset)
	case tagFilter != "":
		q.Set(ParamTagFilter, tagFilter)
	case len(tags) > 0:
		q.Set(ParamTags, strings.Join(tags, ","))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParsedFilter is the single filtering parameter recovered by ParseURL.
type ParsedFilter struct {
	Preset    string
	TagFilter string
	Tags      []string
}

// ParseURL recovers at most one of the three filtering parameters from raw,
// preset winning when more than one is present (spec §6).
func ParseURL(raw string) (ParsedFilter, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedFilter{}, err
	}
	q := u.Query()

	if preset := q.Get(ParamPreset); preset != "" {
		return ParsedFilter{Preset: preset}, nil
	}
	if tf := q.Get(ParamTagFilter); tf != "" {
		return ParsedFilter{TagFilter: tf}, nil
	}
	if tags := q.Get(ParamTags); tags != "" {
		return ParsedFilter{Tags: strings.Split(tags, ",")}, nil
	}
	return ParsedFilter{}, nil
}
