// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

import "fmt"

// ValidationResult is the structural validator's output (spec §4.3
// "validate").
type ValidationResult struct {
	OK     bool
	Errors []string
}

// Validate structurally checks q: each node uses at most one operator,
// operator bodies must be arrays where the schema calls for one, $not must
// wrap an object (not a bare string), and cycles (only reachable via *Query
// aliasing, not via decode) are rejected.
func Validate(q Query) ValidationResult {
	var errs []string
	validateRec(q, map[*Query]bool{}, &errs)
	return ValidationResult{OK: len(errs) == 0, Errors: errs}
}

func validateRec(q Query, seen map[*Query]bool, errs *[]string) {
	populated := 0
	for _, set := range []bool{q.Tag != "", q.Or != nil, q.And != nil, q.Not != nil, q.In != nil, q.Advanced != ""} {
		if set {
			populated++
		}
	}
	if populated > 1 {
		*errs = append(*errs, fmt.Sprintf("query must use exactly one operator, found %d", populated))
		return
	}

	switch q.operator() {
	case "$or":
		if len(q.Or) == 0 {
			*errs = append(*errs, "$or must be a non-empty array")
			return
		}
		for i := range q.Or {
			validateRec(q.Or[i], seen, errs)
		}
	case "$and":
		if len(q.And) == 0 {
			*errs = append(*errs, "$and must be a non-empty array")
			return
		}
		for i := range q.And {
			validateRec(q.And[i], seen, errs)
		}
	case "$not":
		if q.Not == nil {
			*errs = append(*errs, "$not must wrap a query object")
			return
		}
		if seen[q.Not] {
			*errs = append(*errs, "$not forms a circular reference")
			return
		}
		seen[q.Not] = true
		validateRec(*q.Not, seen, errs)
	case "$in":
		if len(q.In) == 0 {
			*errs = append(*errs, "$in must be a non-empty array of strings")
		}
	case "tag":
		if q.Tag == "" {
			*errs = append(*errs, "tag must be a non-empty string")
		}
	case "$advanced":
		if q.Advanced == "" {
			*errs = append(*errs, "$advanced must be a non-empty string")
		}
	case "empty":
		// {} is a valid (if useless) query; evaluate() treats it as false.
	default:
		*errs = append(*errs, fmt.Sprintf("unrecognized query shape: %+v", q))
	}
}
