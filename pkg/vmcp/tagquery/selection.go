// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

// SelectionState is the three-valued tag selection from spec §3 ("Tag
// selection state"): a tag is ignored, required, or forbidden.
type SelectionState string

// Selection states.
const (
	SelectionEmpty       SelectionState = "empty"
	SelectionSelected    SelectionState = "selected"
	SelectionNotSelected SelectionState = "not_selected"
)

// Selections maps a tag name to its SelectionState. Tags absent from the
// map are implicitly SelectionEmpty.
type Selections map[string]SelectionState

// BuildQueryFromSelections implements C3's buildQueryFromSelections (spec
// §4.3 "Three-state build"):
//
//  1. Partition into selected and not-selected sets (empty is dropped).
//  2. Positive = {$and: selected} under "and", {$or: selected} under "or";
//     a single selected tag collapses to the bare {tag} leaf.
//  3. Negatives conjoin onto the positive with {$not: {tag}} terms. With no
//     positives, negatives alone form {$and: [...]}. With neither, the
//     result is {} (matches nothing).
func BuildQueryFromSelections(selections Selections, strategy Strategy) Query {
	var selected, notSelected []string
	for tag, state := range selections {
		switch state {
		case SelectionSelected:
			selected = append(selected, tag)
		case SelectionNotSelected:
			notSelected = append(notSelected, tag)
		case SelectionEmpty:
			// Ignored.
		}
	}

	var positive *Query
	if len(selected) > 0 {
		q := positiveQuery(selected, strategy)
		positive = &q
	}

	if len(notSelected) == 0 {
		if positive != nil {
			return *positive
		}
		return Query{}
	}

	terms := make([]Query, 0, len(notSelected)+1)
	if positive != nil {
		terms = append(terms, *positive)
	}
	for _, tag := range notSelected {
		terms = append(terms, Not(Tag(tag)))
	}
	return And(terms...)
}

func positiveQuery(tags []string, strategy Strategy) Query {
	if len(tags) == 1 {
		return Tag(tags[0])
	}
	leaves := make([]Query, len(tags))
	for i, t := range tags {
		leaves[i] = Tag(t)
	}
	if strategy == StrategyAnd {
		return And(leaves...)
	}
	return Or(leaves...)
}
