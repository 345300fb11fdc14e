package render

import (
	"strings"

	"github.com/goliatone/go-reportgen/pkg/layout"
)

// BlockSubset selects blocks by section id or block type. A block matching
// either list is kept. The header block is always kept while anything
// else survives.
type BlockSubset struct {
	Sections   []string
	BlockTypes []layout.BlockType
}

// Empty reports whether the subset selects everything.
func (s BlockSubset) Empty() bool {
	return len(normaliseTokens(s.Sections)) == 0 && len(s.BlockTypes) == 0
}

// ApplySubset returns the bound blocks matching subset, in their original
// order. The input slice is not modified.
func ApplySubset(blocks []layout.BoundBlock, subset BlockSubset) []layout.BoundBlock {
	if subset.Empty() {
		return blocks
	}
	sections := normaliseTokens(subset.Sections)
	types := make(map[layout.BlockType]struct{}, len(subset.BlockTypes))
	for _, bt := range subset.BlockTypes {
		types[bt] = struct{}{}
	}

	matches := func(block layout.Block) bool {
		if _, ok := sections[normaliseToken(block.SectionID)]; ok {
			return true
		}
		if _, ok := sections[normaliseToken(block.BindingRules.TemplateSection)]; ok && block.BindingRules.TemplateSection != "" {
			return true
		}
		_, ok := types[block.BlockType]
		return ok
	}

	var out []layout.BoundBlock
	var header *layout.BoundBlock
	for i, bound := range blocks {
		if bound.Block.BlockType == layout.BlockHeader && header == nil {
			header = &blocks[i]
			if matches(bound.Block) {
				out = append(out, bound)
			}
			continue
		}
		if matches(bound.Block) {
			out = append(out, bound)
		}
	}
	if header != nil && len(out) > 0 && out[0].Block.BlockType != layout.BlockHeader {
		out = append([]layout.BoundBlock{*header}, out...)
	}
	return out
}

func normaliseTokens(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		if token := normaliseToken(value); token != "" {
			out[token] = struct{}{}
		}
	}
	return out
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
