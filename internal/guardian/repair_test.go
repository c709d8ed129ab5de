package guardian

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "json code fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "bare code fence",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "surrounding prose",
			in:   "Sure! Here you go: {\"a\": 1} -- let me know if you need more.",
			want: `{"a": 1}`,
		},
		{
			name: "trailing comma in object",
			in:   `{"a": 1,}`,
			want: `{"a": 1}`,
		},
		{
			name: "trailing comma in array",
			in:   `[1, 2,]`,
			want: `[1, 2]`,
		},
		{
			name: "unquoted keys",
			in:   `{a: 1, b_two: "x"}`,
			want: `{"a": 1, "b_two": "x"}`,
		},
		{
			name: "single quotes without doubles",
			in:   `{'a': 'one'}`,
			want: `{"a": "one"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RepairJSON(tc.in)

			var wantAny, gotAny any
			require.NoError(t, json.Unmarshal([]byte(tc.want), &wantAny))
			require.NoError(t, json.Unmarshal([]byte(got), &gotAny), "repaired output not valid JSON: %q", got)
			assert.Equal(t, wantAny, gotAny)
		})
	}
}

func TestRepairJSON_BracesInsideStringsDoNotConfuseExtraction(t *testing.T) {
	in := `prefix {"text": "a } inside and a { too", "n": 1} suffix`
	got := RepairJSON(in)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &out))
	assert.Equal(t, "a } inside and a { too", out["text"])
}

func TestRepairJSON_SingleQuotesPreservedWhenDoublesPresent(t *testing.T) {
	in := `{"text": "it's fine"}`
	got := RepairJSON(in)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &out))
	assert.Equal(t, "it's fine", out["text"])
}
