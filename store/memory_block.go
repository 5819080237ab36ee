package store

import "context"

// MemoryTier identifies which memory layer a block belongs to.
type MemoryTier string

const (
	// MemoryTierContextual holds observations from the current visit.
	MemoryTierContextual MemoryTier = "contextual"
	// MemoryTierPersistent holds longitudinal patient history.
	MemoryTierPersistent MemoryTier = "persistent"
	// MemoryTierSemantic holds general clinical knowledge.
	MemoryTierSemantic MemoryTier = "semantic"
)

// MemoryBlock is one immutable memory record produced by the memory
// subsystem. Metadata carries tier-specific extra fields (patient_id,
// visit_id, source, ...) that the agent-facing shape drops.
type MemoryBlock struct {
	ID        string
	VisitID   string
	Tier      MemoryTier
	Content   string
	Metadata  map[string]any
	CreatedTs int64
}

// CreateMemoryBlock represents the input for creating a memory block.
type CreateMemoryBlock struct {
	ID        string
	VisitID   string
	Tier      MemoryTier
	Content   string
	Metadata  map[string]any
	CreatedTs int64
}

// FindMemoryBlock represents the filter for listing memory blocks.
type FindMemoryBlock struct {
	VisitID *string
	Tier    *MemoryTier
	Limit   *int
}

// MemoryBlockStore defines memory block persistence. Blocks are read-only
// from the pipeline's point of view; creation exists for ingestion and tests.
type MemoryBlockStore interface {
	CreateMemoryBlock(ctx context.Context, create *CreateMemoryBlock) (*MemoryBlock, error)
	ListMemoryBlocks(ctx context.Context, find *FindMemoryBlock) ([]*MemoryBlock, error)
}
