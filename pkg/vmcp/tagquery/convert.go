// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

import "strings"

// Strategy selects how a flat tag list composes into a Query.
type Strategy string

// Composition strategies (spec §4.3 "Conversions").
const (
	StrategyOr       Strategy = "or"
	StrategyAnd      Strategy = "and"
	StrategyAdvanced Strategy = "advanced"
)

// StringToQuery implements C3's stringToQuery(expr, strategy) (spec §4.3).
// Comma splits, trims, and drops empties; "advanced" wraps the whole,
// unparsed expression opaquely.
func StringToQuery(expr string, strategy Strategy) Query {
	if strategy == StrategyAdvanced {
		return Query{Advanced: strings.TrimSpace(expr)}
	}

	var tags []string
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}

	if len(tags) == 0 {
		return Query{}
	}
	if len(tags) == 1 {
		return Tag(tags[0])
	}

	queries := make([]Query, len(tags))
	for i, t := range tags {
		queries[i] = Tag(t)
	}
	if strategy == StrategyAnd {
		return And(queries...)
	}
	return Or(queries...)
}

// QueryToString renders q in a deterministic human-readable form for
// display and logging only (spec §4.3 "queryToString"); it is not a parser
// input and round-tripping it through StringToQuery is not guaranteed.
func QueryToString(q Query) string {
	switch q.operator() {
	case "tag":
		return q.Tag
	case "$or":
		return joinSub(q.Or, " OR ")
	case "$and":
		return joinSub(q.And, " AND ")
	case "$not":
		return "NOT (" + QueryToString(*q.Not) + ")"
	case "$in":
		return "IN [" + strings.Join(q.In, ", ") + "]"
	case "$advanced":
		return q.Advanced
	default:
		return ""
	}
}

func joinSub(queries []Query, sep string) string {
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = QueryToString(q)
	}
	return strings.Join(parts, sep)
}
