// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

// AdvancedResolver evaluates an opaque $advanced expression against a tag
// set. When Evaluate is called without a resolver, $advanced queries are
// tolerated but always evaluate to false (spec §4.3).
type AdvancedResolver interface {
	Evaluate(expr string, tags map[string]bool) (bool, error)
}

// Evaluate implements C3's evaluate(query, tags) contract (spec §4.3):
// empty object is false, unknown top-level operators are false (tolerant,
// complements Validate), and $advanced without a resolver is false.
func Evaluate(q Query, tags map[string]bool) bool {
	return EvaluateWithResolver(q, tags, nil)
}

// EvaluateWithResolver is Evaluate with an optional $advanced resolver
// plugged in (see tagquery/advanced.go for the CEL-backed implementation).
func EvaluateWithResolver(q Query, tags map[string]bool, resolver AdvancedResolver) bool {
	switch q.operator() {
	case "tag":
		return tags[q.Tag]
	case "$or":
		for _, sub := range q.Or {
			if EvaluateWithResolver(sub, tags, resolver) {
				return true
			}
		}
		return false
	case "$and":
		for _, sub := range q.And {
			if !EvaluateWithResolver(sub, tags, resolver) {
				return false
			}
		}
		return true
	case "$not":
		return !EvaluateWithResolver(*q.Not, tags, resolver)
	case "$in":
		for _, t := range q.In {
			if tags[t] {
				return true
			}
		}
		return false
	case "$advanced":
		if resolver == nil {
			return false
		}
		ok, err := resolver.Evaluate(q.Advanced, tags)
		if err != nil {
			return false
		}
		return ok
	default:
		// Empty object, or a structurally-unknown shape: tolerant false.
		return false
	}
}

// tagSet converts a slice of tag strings into a lookup set.
func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

// EvaluateTags is a convenience wrapper accepting a []string tag list
// instead of a prebuilt set, matching how server configs store tags.
func EvaluateTags(q Query, tags []string) bool {
	return Evaluate(q, tagSet(tags))
}
