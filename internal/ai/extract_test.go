package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"prose around", "Sure! Here is the data:\n{\"a\":{\"b\":2}}\nHope this helps {x}", `{"a":{"b":2}}`, true},
		{"code fence", "```json\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`, true},
		{"brace in string", `{"s":"a } b { c","n":1} trailing }`, `{"s":"a } b { c","n":1}`, true},
		{"escaped quote", `{"s":"say \"}\" now"}`, `{"s":"say \"}\" now"}`, true},
		{"unbalanced opener then object", `{ broken {"ok":true}`, `{"ok":true}`, true},
		{"no object", "I could not find anything.", "", false},
		{"unterminated", `{"a":1`, "", false},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
