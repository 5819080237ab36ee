// Package prompt renders an assembled context into the natural-language
// prompt sent to the generation adapter.
package prompt

import (
	"strings"

	aicontext "github.com/clinsense/clinsense/ai/context"
	"github.com/clinsense/clinsense/store"
)

const header = `You are a clinical decision-support assistant. Based on the memory of the current patient visit, propose concrete, safe suggestions for the treating clinician.`

const closing = `Produce 2 to 3 suggestions, one per line. Tag every line with its type using the exact format [TIPO: recommendation], [TIPO: warning] or [TIPO: info]. Do not invent facts that are not supported by the memory above.`

var tierSections = []struct {
	Tier  store.MemoryTier
	Label string
}{
	{store.MemoryTierContextual, "Current visit (contextual memory)"},
	{store.MemoryTierPersistent, "Patient history (persistent memory)"},
	{store.MemoryTierSemantic, "Clinical knowledge (semantic memory)"},
}

// Compiler renders an AgentContext into a single prompt string. The output
// is deterministic: same context, same prompt.
type Compiler struct{}

// NewCompiler creates a prompt compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile renders the prompt. Tiers with no blocks produce no section
// header; an all-empty context yields only the instruction header and the
// closing instruction.
func (c *Compiler) Compile(agentCtx *aicontext.AgentContext) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")

	for _, section := range tierSections {
		blocks := agentCtx.BlocksByTier(section.Tier)
		if len(blocks) == 0 {
			continue
		}
		b.WriteString("\n## ")
		b.WriteString(section.Label)
		b.WriteString("\n")
		for _, block := range blocks {
			b.WriteString("- [")
			b.WriteString(block.ID)
			b.WriteString("] ")
			b.WriteString(block.Content)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(closing)
	return b.String()
}
