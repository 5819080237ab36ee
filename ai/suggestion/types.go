// Package suggestion defines the suggestion record produced by the response
// parser, plus the validation rules applied before a suggestion is shown to
// a reviewer or merged into a clinical record.
package suggestion

// Type classifies a suggestion.
type Type string

const (
	TypeRecommendation Type = "recommendation"
	TypeWarning        Type = "warning"
	TypeInfo           Type = "info"
)

// IsValid reports whether t is one of the known suggestion types.
func (t Type) IsValid() bool {
	switch t {
	case TypeRecommendation, TypeWarning, TypeInfo:
		return true
	}
	return false
}

// SentinelSourceBlockID is assigned when a suggestion was generated from an
// empty context and no real block can be referenced.
const SentinelSourceBlockID = "no-context"

// ContextOrigin ties a suggestion back to the memory block it came from.
type ContextOrigin struct {
	SourceBlock string `json:"source_block"`
	Excerpt     string `json:"excerpt"`
}

// Suggestion is one generated, typed suggestion. It is immutable after
// creation; reviewer feedback is attached elsewhere.
type Suggestion struct {
	ID            string         `json:"id"`
	SourceBlockID string         `json:"source_block_id"`
	Type          Type           `json:"type"`
	Content       string         `json:"content"`
	Origin        *ContextOrigin `json:"context_origin,omitempty"`
	// Source tags how the suggestion was produced ("llm" for the real
	// generation path, empty for fixtures).
	Source string `json:"source,omitempty"`
}
