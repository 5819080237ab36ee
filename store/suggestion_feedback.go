package store

import "context"

// FeedbackType classifies reviewer feedback on a suggestion.
type FeedbackType string

const (
	FeedbackUseful     FeedbackType = "useful"
	FeedbackIrrelevant FeedbackType = "irrelevant"
	FeedbackIncorrect  FeedbackType = "incorrect"
	FeedbackDangerous  FeedbackType = "dangerous"
)

// SuggestionFeedback is one reviewer verdict on a suggestion. Rows are never
// mutated; a later row for the same (user, suggestion) supersedes the
// earlier one.
type SuggestionFeedback struct {
	ID           int64
	SuggestionID string
	UserID       string
	VisitID      string
	Type         FeedbackType
	CreatedTs    int64
}

// UpsertSuggestionFeedback represents the input for recording feedback.
// One logical feedback exists per (user, suggestion).
type UpsertSuggestionFeedback struct {
	SuggestionID string
	UserID       string
	VisitID      string
	Type         FeedbackType
	CreatedTs    int64
}

// FindSuggestionFeedback represents the filter for listing feedback.
type FindSuggestionFeedback struct {
	SuggestionID *string
	UserID       *string
	VisitID      *string
}

// SuggestionFeedbackStore defines feedback persistence.
type SuggestionFeedbackStore interface {
	UpsertSuggestionFeedback(ctx context.Context, upsert *UpsertSuggestionFeedback) (*SuggestionFeedback, error)
	ListSuggestionFeedback(ctx context.Context, find *FindSuggestionFeedback) ([]*SuggestionFeedback, error)
}
