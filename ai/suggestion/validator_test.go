package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSuggestion() *Suggestion {
	return &Suggestion{
		ID:            "sug-1",
		SourceBlockID: "blk-1",
		Type:          TypeRecommendation,
		Content:       "Consider a renal function panel before dose adjustment.",
		Origin: &ContextOrigin{
			SourceBlock: "blk-1",
			Excerpt:     "creatinine 1.8 mg/dL",
		},
		Source: "llm",
	}
}

func TestEvaluateValid(t *testing.T) {
	v := NewValidator()

	verdict := v.Evaluate(validSuggestion())
	assert.True(t, verdict.IsValid)
	assert.Empty(t, verdict.Reasons)
	assert.Equal(t, "valid", verdict.String())
}

func TestEvaluateSingleFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Suggestion)
		reason string
	}{
		{
			name:   "invalid type",
			mutate: func(s *Suggestion) { s.Type = "suggestion" },
			reason: ReasonInvalidType,
		},
		{
			name:   "empty content",
			mutate: func(s *Suggestion) { s.Content = "" },
			reason: ReasonEmptyContent,
		},
		{
			name:   "content too short",
			mutate: func(s *Suggestion) { s.Content = "too short" },
			reason: ReasonContentTooShort,
		},
		{
			name:   "missing origin",
			mutate: func(s *Suggestion) { s.Origin = nil },
			reason: ReasonMissingOrigin,
		},
		{
			name:   "empty origin source block",
			mutate: func(s *Suggestion) { s.Origin.SourceBlock = "" },
			reason: ReasonEmptyOriginBlock,
		},
		{
			name:   "empty origin excerpt",
			mutate: func(s *Suggestion) { s.Origin.Excerpt = "" },
			reason: ReasonEmptyOriginExcerpt,
		},
		{
			name:   "missing id",
			mutate: func(s *Suggestion) { s.ID = "" },
			reason: ReasonMissingID,
		},
		{
			name:   "missing source block id",
			mutate: func(s *Suggestion) { s.SourceBlockID = "" },
			reason: ReasonMissingSourceBlock,
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSuggestion()
			tt.mutate(s)
			verdict := v.Evaluate(s)
			assert.False(t, verdict.IsValid)
			assert.Equal(t, []string{tt.reason}, verdict.Reasons)
		})
	}
}

func TestEvaluateChecksAreIndependent(t *testing.T) {
	v := NewValidator()

	verdict := v.Evaluate(&Suggestion{Type: "bogus"})
	assert.False(t, verdict.IsValid)
	assert.ElementsMatch(t, []string{
		ReasonInvalidType,
		ReasonEmptyContent,
		ReasonMissingOrigin,
		ReasonMissingID,
		ReasonMissingSourceBlock,
	}, verdict.Reasons)
}

func TestEvaluateContentLengthCountsRunes(t *testing.T) {
	v := NewValidator()

	s := validSuggestion()
	s.Content = "presión ok" // 10 runes, more than 10 bytes
	verdict := v.Evaluate(s)
	assert.True(t, verdict.IsValid)
}

func TestEvaluateSentinelBlockIsValid(t *testing.T) {
	v := NewValidator()

	s := validSuggestion()
	s.SourceBlockID = SentinelSourceBlockID
	s.Origin.SourceBlock = SentinelSourceBlockID
	verdict := v.Evaluate(s)
	assert.True(t, verdict.IsValid)
}
