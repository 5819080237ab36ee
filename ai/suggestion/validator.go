package suggestion

import "fmt"

// Stable reason strings reported by the validator. Callers match on these.
const (
	ReasonInvalidType        = "type must be one of recommendation, warning, info"
	ReasonEmptyContent       = "content must not be empty"
	ReasonContentTooShort    = "content must be at least 10 characters"
	ReasonMissingOrigin      = "context origin is missing"
	ReasonEmptyOriginBlock   = "context origin source block is empty"
	ReasonEmptyOriginExcerpt = "context origin excerpt is empty"
	ReasonMissingID          = "suggestion id is missing"
	ReasonMissingSourceBlock = "source block id is missing"
)

// minContentLength is the minimum content length in characters.
const minContentLength = 10

// Verdict is the outcome of validating one suggestion. A failing suggestion
// reports every failed check, not just the first.
type Verdict struct {
	IsValid bool
	Reasons []string
}

// Validator applies structural and business rules to candidate suggestions.
// It never mutates or discards a suggestion; it only annotates. Downstream
// consumers decide what to do with an invalid verdict.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Evaluate checks every rule independently and returns the verdict.
func (v *Validator) Evaluate(s *Suggestion) Verdict {
	var reasons []string

	if !s.Type.IsValid() {
		reasons = append(reasons, ReasonInvalidType)
	}

	switch {
	case s.Content == "":
		reasons = append(reasons, ReasonEmptyContent)
	case len([]rune(s.Content)) < minContentLength:
		reasons = append(reasons, ReasonContentTooShort)
	}

	if s.Origin == nil {
		reasons = append(reasons, ReasonMissingOrigin)
	} else {
		if s.Origin.SourceBlock == "" {
			reasons = append(reasons, ReasonEmptyOriginBlock)
		}
		if s.Origin.Excerpt == "" {
			reasons = append(reasons, ReasonEmptyOriginExcerpt)
		}
	}

	if s.ID == "" {
		reasons = append(reasons, ReasonMissingID)
	}
	if s.SourceBlockID == "" {
		reasons = append(reasons, ReasonMissingSourceBlock)
	}

	return Verdict{
		IsValid: len(reasons) == 0,
		Reasons: reasons,
	}
}

// String renders the verdict for log lines.
func (v Verdict) String() string {
	if v.IsValid {
		return "valid"
	}
	return fmt.Sprintf("invalid: %v", v.Reasons)
}
