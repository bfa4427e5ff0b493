// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPipeline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		calls   []FunctionCall
		want    string
		wantErr bool
	}{
		{
			name:  "no calls returns input unchanged",
			input: "hello",
			want:  "hello",
		},
		{
			name:  "upper",
			input: "hello",
			calls: []FunctionCall{{Name: "upper"}},
			want:  "HELLO",
		},
		{
			name:  "lower",
			input: "HELLO",
			calls: []FunctionCall{{Name: "lower"}},
			want:  "hello",
		},
		{
			name:  "basename",
			input: "/a/b/c.txt",
			calls: []FunctionCall{{Name: "basename"}},
			want:  "c.txt",
		},
		{
			name:  "truncate shorter than limit",
			input: "hi",
			calls: []FunctionCall{{Name: "truncate", Args: []string{"8"}}},
			want:  "hi",
		},
		{
			name:  "truncate longer than limit appends ellipsis",
			input: "hello world",
			calls: []FunctionCall{{Name: "truncate", Args: []string{"5"}}},
			want:  "hello...",
		},
		{
			name:  "default on empty input",
			input: "",
			calls: []FunctionCall{{Name: "default", Args: []string{"fallback"}}},
			want:  "fallback",
		},
		{
			name:  "default on non-empty input is a no-op",
			input: "value",
			calls: []FunctionCall{{Name: "default", Args: []string{"fallback"}}},
			want:  "value",
		},
		{
			name:  "replace",
			input: "a-b-c",
			calls: []FunctionCall{{Name: "replace", Args: []string{"-", "_"}}},
			want:  "a_b-c",
		},
		{
			name:  "pipeline folds left to right",
			input: "/a/b/My-File.TXT",
			calls: []FunctionCall{{Name: "basename"}, {Name: "lower"}},
			want:  "my-file.txt",
		},
		{
			name:    "unknown function errors",
			input:   "x",
			calls:   []FunctionCall{{Name: "nope"}},
			wantErr: true,
		},
		{
			name:    "truncate requires an argument",
			input:   "x",
			calls:   []FunctionCall{{Name: "truncate"}},
			wantErr: true,
		},
		{
			name:    "truncate rejects non-positive length",
			input:   "x",
			calls:   []FunctionCall{{Name: "truncate", Args: []string{"0"}}},
			wantErr: true,
		},
		{
			name:    "replace requires two arguments",
			input:   "x",
			calls:   []FunctionCall{{Name: "replace", Args: []string{"a"}}},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ApplyPipeline(tc.input, tc.calls)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
