package store

import (
	"context"

	"github.com/clinsense/clinsense/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateMemoryBlock(ctx context.Context, create *CreateMemoryBlock) (*MemoryBlock, error) {
	return s.driver.CreateMemoryBlock(ctx, create)
}

func (s *Store) ListMemoryBlocks(ctx context.Context, find *FindMemoryBlock) ([]*MemoryBlock, error) {
	return s.driver.ListMemoryBlocks(ctx, find)
}

func (s *Store) CreateClinicalRecord(ctx context.Context, create *CreateClinicalRecord) (*ClinicalRecord, error) {
	return s.driver.CreateClinicalRecord(ctx, create)
}

func (s *Store) ListClinicalRecords(ctx context.Context, find *FindClinicalRecord) ([]*ClinicalRecord, error) {
	return s.driver.ListClinicalRecords(ctx, find)
}

func (s *Store) UpdateClinicalRecord(ctx context.Context, update *UpdateClinicalRecord) (*ClinicalRecord, error) {
	return s.driver.UpdateClinicalRecord(ctx, update)
}

func (s *Store) CreateAuditEvent(ctx context.Context, create *CreateAuditEvent) (*AuditEvent, error) {
	return s.driver.CreateAuditEvent(ctx, create)
}

func (s *Store) ListAuditEvents(ctx context.Context, find *FindAuditEvent) ([]*AuditEvent, error) {
	return s.driver.ListAuditEvents(ctx, find)
}

func (s *Store) CreateUsageMetric(ctx context.Context, create *CreateUsageMetric) (*UsageMetric, error) {
	return s.driver.CreateUsageMetric(ctx, create)
}

func (s *Store) ListUsageMetrics(ctx context.Context, find *FindUsageMetric) ([]*UsageMetric, error) {
	return s.driver.ListUsageMetrics(ctx, find)
}

func (s *Store) CreateLongitudinalMetric(ctx context.Context, create *CreateLongitudinalMetric) (*LongitudinalMetric, error) {
	return s.driver.CreateLongitudinalMetric(ctx, create)
}

func (s *Store) ListLongitudinalMetrics(ctx context.Context, find *FindLongitudinalMetric) ([]*LongitudinalMetric, error) {
	return s.driver.ListLongitudinalMetrics(ctx, find)
}

func (s *Store) UpsertSuggestionFeedback(ctx context.Context, upsert *UpsertSuggestionFeedback) (*SuggestionFeedback, error) {
	return s.driver.UpsertSuggestionFeedback(ctx, upsert)
}

func (s *Store) ListSuggestionFeedback(ctx context.Context, find *FindSuggestionFeedback) ([]*SuggestionFeedback, error) {
	return s.driver.ListSuggestionFeedback(ctx, find)
}
