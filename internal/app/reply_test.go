package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Reply
		ok   bool
	}{
		{
			name: "full object",
			raw:  `{"answer":"hi","actions":[{"type":"open"}],"follow_up_questions":["why?"]}`,
			want: Reply{Answer: "hi", Actions: []interface{}{map[string]interface{}{"type": "open"}}, FollowUpQuestions: []string{"why?"}},
			ok:   true,
		},
		{
			name: "missing lists",
			raw:  `{"answer":"only"}`,
			want: Reply{Answer: "only", Actions: []interface{}{}, FollowUpQuestions: []string{}},
			ok:   true,
		},
		{
			name: "null lists",
			raw:  `{"answer":"x","actions":null,"follow_up_questions":null}`,
			want: Reply{Answer: "x", Actions: []interface{}{}, FollowUpQuestions: []string{}},
			ok:   true,
		},
		{
			name: "surrounding whitespace",
			raw:  "  \n{\"answer\":\"padded\"}\n",
			want: Reply{Answer: "padded", Actions: []interface{}{}, FollowUpQuestions: []string{}},
			ok:   true,
		},
		{
			name: "plain text",
			raw:  "not json",
			want: Reply{Answer: "not json", Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
		{
			name: "json array",
			raw:  `["a"]`,
			want: Reply{Answer: `["a"]`, Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
		{
			name: "truncated object",
			raw:  `{"answer":"cut`,
			want: Reply{Answer: `{"answer":"cut`, Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
		{
			name: "wrong field type",
			raw:  `{"answer":42}`,
			want: Reply{Answer: `{"answer":42}`, Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
		{
			name: "trailing data",
			raw:  `{"answer":"a"} extra`,
			want: Reply{Answer: `{"answer":"a"} extra`, Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
		{
			name: "two objects",
			raw:  `{"answer":"a"}{"answer":"b"}`,
			want: Reply{Answer: `{"answer":"a"}{"answer":"b"}`, Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
		{
			name: "extra closing brace",
			raw:  `{"answer":"a"}}`,
			want: Reply{Answer: `{"answer":"a"}}`, Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
		{
			name: "empty",
			raw:  "",
			want: Reply{Answer: "", Actions: []interface{}{}, FollowUpQuestions: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReply(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReplyKeepsLargeIntegersExact(t *testing.T) {
	raw := `{"answer":"ok","actions":[{"ticket_id":12345678901234567891},7,1.5e3],"follow_up_questions":[]}`

	reply, ok := ParseReply(raw)
	require.True(t, ok)
	require.Len(t, reply.Actions, 3)
	assert.Equal(t, map[string]interface{}{"ticket_id": json.Number("12345678901234567891")}, reply.Actions[0])
	assert.Equal(t, json.Number("7"), reply.Actions[1])
	assert.Equal(t, json.Number("1.5e3"), reply.Actions[2])

	encoded, err := json.Marshal(reply)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(encoded))
	assert.Contains(t, string(encoded), "12345678901234567891")
}
