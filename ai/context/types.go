// Package context provides context assembly for suggestion generation.
// It normalizes raw tiered memory records into the agent-facing shape
// consumed by the prompt compiler.
package context

import (
	"github.com/clinsense/clinsense/store"
)

// Block is the agent-facing view of a memory record. Tier-specific extra
// fields are dropped during assembly.
type Block struct {
	ID      string
	Tier    store.MemoryTier
	Content string
}

// AgentContext is the normalized input for one generation run. It is built
// fresh per invocation and never persisted. Blocks preserve tier grouping
// but carry no cross-tier ordering guarantee.
type AgentContext struct {
	VisitID   string
	PatientID string
	Blocks    []Block
}

// BlocksByTier returns the blocks belonging to the given tier.
func (c *AgentContext) BlocksByTier(tier store.MemoryTier) []Block {
	var blocks []Block
	for _, b := range c.Blocks {
		if b.Tier == tier {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// BlockIDs returns the ids of all blocks in the context.
func (c *AgentContext) BlockIDs() []string {
	ids := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		ids = append(ids, b.ID)
	}
	return ids
}

// TierSet holds the raw per-tier memory collections for a visit. A nil
// slice means the tier is absent; an empty non-nil slice means the tier is
// present but has no records.
type TierSet struct {
	Contextual []*store.MemoryBlock
	Persistent []*store.MemoryBlock
	Semantic   []*store.MemoryBlock
}

// Complete reports whether all three memory tiers are present.
func (t *TierSet) Complete() bool {
	if t == nil {
		return false
	}
	return t.Contextual != nil && t.Persistent != nil && t.Semantic != nil
}
