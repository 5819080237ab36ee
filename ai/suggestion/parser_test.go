package suggestion

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaggedLines(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	raw := "1. Consider ordering a renal panel before adjusting dosage. [TIPO: recommendation]\n" +
		"2. Patient reports penicillin allergy, avoid amoxicillin. [TIPO: warning]\n" +
		"3. Last HbA1c was measured four months ago. [TIPO: info]\n"

	got := p.Parse(raw, []string{"blk-1", "blk-2"})
	require.Len(t, got, 3)

	assert.Equal(t, TypeRecommendation, got[0].Type)
	assert.Equal(t, TypeWarning, got[1].Type)
	assert.Equal(t, TypeInfo, got[2].Type)

	assert.Equal(t, "Consider ordering a renal panel before adjusting dosage.", got[0].Content)
	assert.NotContains(t, got[0].Content, "TIPO")

	// Block ids are assigned round-robin over the context block ids.
	assert.Equal(t, "blk-1", got[0].SourceBlockID)
	assert.Equal(t, "blk-2", got[1].SourceBlockID)
	assert.Equal(t, "blk-1", got[2].SourceBlockID)

	for _, s := range got {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "llm", s.Source)
		require.NotNil(t, s.Origin)
		assert.Equal(t, s.SourceBlockID, s.Origin.SourceBlock)
		assert.NotEmpty(t, s.Origin.Excerpt)
	}
}

func TestParseTaggedLineCaseAndSpacing(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	got := p.Parse("- Review anticoagulation interactions today. [tipo:  WARNING ]", []string{"blk-1"})
	require.Len(t, got, 1)
	assert.Equal(t, TypeWarning, got[0].Type)
	assert.Equal(t, "Review anticoagulation interactions today.", got[0].Content)
}

func TestParseJSONLines(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	raw := `{"type": "recommendation", "content": "Schedule a follow-up visit within two weeks."}
{"type": "warning", "content": "Blood pressure trending upward across visits."}`

	got := p.Parse(raw, []string{"blk-9"})
	require.Len(t, got, 2)
	assert.Equal(t, TypeRecommendation, got[0].Type)
	assert.Equal(t, TypeWarning, got[1].Type)
	assert.Equal(t, "blk-9", got[0].SourceBlockID)
	assert.Equal(t, "blk-9", got[1].SourceBlockID)
}

func TestParseSkipsMalformedLines(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	raw := "Here are my suggestions:\n" + // untagged prose
		"{\"type\": \"warning\"}\n" + // JSON missing content
		"{not json at all}\n" +
		"[TIPO: info]\n" + // tag with no content
		"Check vaccination status for this season. [TIPO: info]\n"

	got := p.Parse(raw, []string{"blk-1"})
	require.Len(t, got, 1)
	assert.Equal(t, "Check vaccination status for this season.", got[0].Content)
}

func TestParseEmptyInput(t *testing.T) {
	p := NewParser(DefaultParserOptions())
	assert.Empty(t, p.Parse("", []string{"blk-1"}))
	assert.Empty(t, p.Parse("\n\n  \n", []string{"blk-1"}))
}

func TestParseSentinelBlockID(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	got := p.Parse("Maintain current treatment plan unchanged. [TIPO: recommendation]", nil)
	require.Len(t, got, 1)
	assert.Equal(t, SentinelSourceBlockID, got[0].SourceBlockID)
	assert.Equal(t, SentinelSourceBlockID, got[0].Origin.SourceBlock)
}

func TestParseUnknownTypeCoercion(t *testing.T) {
	raw := "Patient may benefit from dietary counseling. [TIPO: suggestion]"

	t.Run("coerced to info by default", func(t *testing.T) {
		p := NewParser(DefaultParserOptions())
		got := p.Parse(raw, []string{"blk-1"})
		require.Len(t, got, 1)
		assert.Equal(t, TypeInfo, got[0].Type)
	})

	t.Run("kept raw when coercion disabled", func(t *testing.T) {
		p := NewParser(ParserOptions{CoerceUnknownTypeToInfo: false, Source: "llm"})
		got := p.Parse(raw, []string{"blk-1"})
		require.Len(t, got, 1)
		assert.Equal(t, Type("suggestion"), got[0].Type)
		assert.False(t, got[0].Type.IsValid())
	})
}

func TestParseExcerptTruncation(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	long := strings.Repeat("a", 40)
	got := p.Parse(long+" [TIPO: info]", []string{"blk-1"})
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("a", 24)+"...", got[0].Origin.Excerpt)

	short := "short note"
	got = p.Parse(short+" [TIPO: info]", []string{"blk-1"})
	require.Len(t, got, 1)
	assert.Equal(t, short, got[0].Origin.Excerpt)
}

func TestParseRoundTripIsStable(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	first := p.Parse("Schedule a follow-up visit within two weeks. [TIPO: recommendation]", []string{"blk-1"})
	require.Len(t, first, 1)

	// Re-parsing the parser's own JSON form yields the same type and content.
	encoded, err := json.Marshal(first[0])
	require.NoError(t, err)
	second := p.Parse(string(encoded), []string{"blk-1"})
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Type, second[0].Type)
	assert.Equal(t, first[0].Content, second[0].Content)
}

func TestParseUniqueIDs(t *testing.T) {
	p := NewParser(DefaultParserOptions())

	raw := "First suggestion with enough content. [TIPO: info]\n" +
		"Second suggestion with enough content. [TIPO: info]"
	got := p.Parse(raw, []string{"blk-1"})
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}
