// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package tagquery implements C3, the tag query evaluator: a recursive
// boolean expression over a server's tag set, three-state tag selection,
// and the string<->query conversions used for presets and display.
package tagquery

// Query is the recursive sum type from spec §3 ("Tag query"):
//
//	TagQuery = { tag: string }
//	         | { $or:  [TagQuery] }
//	         | { $and: [TagQuery] }
//	         | { $not:  TagQuery   }
//	         | { $in:  [string] }
//	         | { $advanced: string }
//
// Go has no sum types, so Query is modeled as a struct where exactly one of
// the fields is expected to be populated; Validate enforces that shape.
type Query struct {
	Tag      string  `json:"tag,omitempty" yaml:"tag,omitempty"`
	Or       []Query `json:"$or,omitempty" yaml:"$or,omitempty"`
	And      []Query `json:"$and,omitempty" yaml:"$and,omitempty"`
	Not      *Query  `json:"$not,omitempty" yaml:"$not,omitempty"`
	In       []string `json:"$in,omitempty" yaml:"$in,omitempty"`
	Advanced string  `json:"$advanced,omitempty" yaml:"$advanced,omitempty"`
}

// operator reports which single operator, if any, a Query uses. Returns
// "tag" for a plain {tag: ...} leaf and "empty" for the zero value {}.
func (q Query) operator() string {
	switch {
	case q.Tag != "":
		return "tag"
	case q.Or != nil:
		return "$or"
	case q.And != nil:
		return "$and"
	case q.Not != nil:
		return "$not"
	case q.In != nil:
		return "$in"
	case q.Advanced != "":
		return "$advanced"
	default:
		return "empty"
	}
}

// Tag builds a leaf {tag: name} query.
func Tag(name string) Query { return Query{Tag: name} }

// Or builds an {$or: [...]} query.
func Or(queries ...Query) Query { return Query{Or: queries} }

// And builds an {$and: [...]} query.
func And(queries ...Query) Query { return Query{And: queries} }

// Not builds a {$not: ...} query.
func Not(q Query) Query { return Query{Not: &q} }
