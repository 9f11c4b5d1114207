package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSummary_IsEmpty(t *testing.T) {
	assert.True(t, MatchSummary{}.IsEmpty())
	assert.True(t, MatchSummary{Rationale: "   "}.IsEmpty())
	assert.False(t, MatchSummary{Score: 0.8}.IsEmpty())
	assert.False(t, MatchSummary{Rationale: "strong overlap with backend stack"}.IsEmpty())
}

func TestLetterArtifacts_Primary(t *testing.T) {
	letters := LetterArtifacts{
		{Name: "email_body", Content: "Hi,"},
		{Name: PrimaryLetterName, Content: "Dear hiring team,"},
	}

	assert.Equal(t, "Dear hiring team,", letters.Primary().Content)
	assert.Empty(t, LetterArtifacts{{Name: "email_body", Content: "Hi,"}}.Primary().Content)
}

func TestLetterArtifacts_Get(t *testing.T) {
	letters := LetterArtifacts{{Name: "letter", Content: "x"}}

	got, ok := letters.Get("letter")
	assert.True(t, ok)
	assert.Equal(t, "x", got.Content)

	_, ok = letters.Get("missing")
	assert.False(t, ok)
}

func TestSourceDetail_ContactRef(t *testing.T) {
	tests := []struct {
		name   string
		detail SourceDetail
		want   string
	}{
		{"contact key", SourceDetail{"contact": "jobs@acme.io"}, "jobs@acme.io"},
		{"email key", SourceDetail{"email": " hr@acme.io "}, "hr@acme.io"},
		{"preference order", SourceDetail{"contact": "a@acme.io", "email": "b@acme.io"}, "a@acme.io"},
		{"non-string value", SourceDetail{"contact": 42}, ""},
		{"missing", SourceDetail{"title": "Engineer"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detail.ContactRef())
		})
	}
}
