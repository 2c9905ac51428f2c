package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
)

// FoldingRanges emits one collapsible region for the frontmatter, one per
// multi-line slide and one per multi-line action block.
func FoldingRanges(doc *parser.Document) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange

	if fm := doc.FrontmatterRange; fm != nil && fm.End.Line > fm.Start.Line {
		ranges = append(ranges, foldingRange(*fm))
	}
	for _, slide := range doc.Slides {
		if slide.Range.End.Line > slide.Range.Start.Line {
			ranges = append(ranges, foldingRange(slide.Range))
		}
		for _, block := range slide.Blocks {
			if block.Range.End.Line > block.Range.Start.Line {
				ranges = append(ranges, foldingRange(block.Range))
			}
		}
	}
	return ranges
}

func foldingRange(r parser.Range) protocol.FoldingRange {
	return protocol.FoldingRange{
		StartLine: uint32(r.Start.Line),
		EndLine:   uint32(r.End.Line),
		Kind:      protocol.RegionFoldingRange,
	}
}
