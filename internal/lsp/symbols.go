package lsp

import (
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
)

// DocumentSymbols builds the outline: one entry per slide, nesting its
// action blocks (which nest their steps) and render directives.
func DocumentSymbols(doc *parser.Document) []protocol.DocumentSymbol {
	symbols := make([]protocol.DocumentSymbol, 0, len(doc.Slides))
	for _, slide := range doc.Slides {
		name := slide.Title
		if name == "" {
			name = fmt.Sprintf("Slide %d", slide.Index+1)
		}

		var children []protocol.DocumentSymbol
		for _, block := range slide.Blocks {
			children = append(children, blockSymbol(block))
		}
		for _, directive := range slide.Directives {
			children = append(children, protocol.DocumentSymbol{
				Name:           "render:" + directive.Type,
				Kind:           protocol.SymbolKindObject,
				Range:          toProtoRange(directive.Range),
				SelectionRange: toProtoRange(directive.TypeRange),
			})
		}

		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           name,
			Kind:           protocol.SymbolKindNamespace,
			Range:          toProtoRange(slide.Range),
			SelectionRange: toProtoRange(slide.Range),
			Children:       children,
		})
	}
	return symbols
}

func blockSymbol(block *parser.ActionBlock) protocol.DocumentSymbol {
	name := block.ActionType
	if name == "" {
		name = "action"
	}
	selection := block.ContentRange
	if block.HasType {
		selection = block.TypeRange
	}

	var children []protocol.DocumentSymbol
	for _, step := range block.Steps {
		stepName := step.ActionType
		if stepName == "" {
			stepName = "step"
		}
		children = append(children, protocol.DocumentSymbol{
			Name:           stepName,
			Kind:           protocol.SymbolKindMethod,
			Range:          toProtoRange(step.Range),
			SelectionRange: toProtoRange(step.TypeRange),
		})
	}

	return protocol.DocumentSymbol{
		Name:           name,
		Kind:           protocol.SymbolKindFunction,
		Range:          toProtoRange(block.Range),
		SelectionRange: toProtoRange(selection),
		Children:       children,
	}
}
