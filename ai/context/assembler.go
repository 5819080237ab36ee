package context

import (
	"context"

	"github.com/clinsense/clinsense/store"
)

// BlockLister is the narrow view of the memory store the assembler needs.
type BlockLister interface {
	ListMemoryBlocks(ctx context.Context, find *store.FindMemoryBlock) ([]*store.MemoryBlock, error)
}

// Assembler converts raw memory records into a normalized AgentContext.
type Assembler struct {
	lister BlockLister
}

// NewAssembler creates an assembler. The lister may be nil when only the
// pure Assemble path is used.
func NewAssembler(lister BlockLister) *Assembler {
	return &Assembler{lister: lister}
}

// AssembleVisit reads all three memory tiers for a visit and assembles the
// context. Read errors propagate to the caller unmodified; this component
// does not swallow failures.
func (a *Assembler) AssembleVisit(ctx context.Context, visitID string) (*AgentContext, error) {
	raw := &TierSet{}
	for _, tier := range []store.MemoryTier{store.MemoryTierContextual, store.MemoryTierPersistent, store.MemoryTierSemantic} {
		tier := tier
		blocks, err := a.lister.ListMemoryBlocks(ctx, &store.FindMemoryBlock{
			VisitID: &visitID,
			Tier:    &tier,
		})
		if err != nil {
			return nil, err
		}
		if blocks == nil {
			blocks = []*store.MemoryBlock{}
		}
		switch tier {
		case store.MemoryTierContextual:
			raw.Contextual = blocks
		case store.MemoryTierPersistent:
			raw.Persistent = blocks
		case store.MemoryTierSemantic:
			raw.Semantic = blocks
		}
	}

	agentCtx := a.Assemble(raw)
	if agentCtx.VisitID == "" {
		agentCtx.VisitID = visitID
	}
	return agentCtx, nil
}

// Assemble normalizes raw tier collections into an AgentContext. Records
// missing an id or content are filtered out. Patient and visit identifiers
// are recovered by scanning persistent, then contextual records for an
// embedded patient_id/visit_id field; absence yields an empty string.
func (a *Assembler) Assemble(raw *TierSet) *AgentContext {
	agentCtx := &AgentContext{}
	if raw == nil {
		return agentCtx
	}

	appendTier := func(tier store.MemoryTier, blocks []*store.MemoryBlock) {
		for _, b := range blocks {
			if b == nil || b.ID == "" || b.Content == "" {
				continue
			}
			agentCtx.Blocks = append(agentCtx.Blocks, Block{
				ID:      b.ID,
				Tier:    tier,
				Content: b.Content,
			})
		}
	}
	appendTier(store.MemoryTierContextual, raw.Contextual)
	appendTier(store.MemoryTierPersistent, raw.Persistent)
	appendTier(store.MemoryTierSemantic, raw.Semantic)

	identitySources := append(append([]*store.MemoryBlock{}, raw.Persistent...), raw.Contextual...)
	agentCtx.PatientID = firstMetadataValue(identitySources, "patient_id")
	agentCtx.VisitID = firstMetadataValue(identitySources, "visit_id")
	if agentCtx.VisitID == "" {
		agentCtx.VisitID = firstVisitID(identitySources)
	}

	return agentCtx
}

func firstMetadataValue(blocks []*store.MemoryBlock, key string) string {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if v, ok := b.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstVisitID(blocks []*store.MemoryBlock) string {
	for _, b := range blocks {
		if b != nil && b.VisitID != "" {
			return b.VisitID
		}
	}
	return ""
}
