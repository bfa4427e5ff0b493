// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package tagquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid queries pass", func(t *testing.T) {
		t.Parallel()
		for _, q := range []Query{
			{},
			Tag("web"),
			Or(Tag("a"), Tag("b")),
			And(Tag("a"), Not(Tag("b"))),
			{In: []string{"a"}},
		} {
			res := Validate(q)
			assert.True(t, res.OK, "expected %+v to validate, errors: %v", q, res.Errors)
		}
	})

	t.Run("empty operator arrays are rejected", func(t *testing.T) {
		t.Parallel()
		res := Validate(Query{Or: []Query{}})
		assert.False(t, res.OK)
	})

	t.Run("nil $not is the empty query and is accepted", func(t *testing.T) {
		t.Parallel()
		res := Validate(Query{Not: nil})
		// Not field nil means operator() returns "empty", which is valid;
		// the circular-reference guard is exercised by the next subtest.
		assert.True(t, res.OK)
		_ = res
	})

	t.Run("circular $not is rejected", func(t *testing.T) {
		t.Parallel()
		cyclic := &Query{}
		cyclic.Not = cyclic
		res := Validate(*cyclic)
		assert.False(t, res.OK)
	})

	t.Run("empty $in is rejected", func(t *testing.T) {
		t.Parallel()
		res := Validate(Query{In: []string{}})
		assert.False(t, res.OK)
	})
}
