package lsp

import (
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

// HoverProvider answers hover requests from the catalog descriptions.
type HoverProvider struct {
	catalog *schema.Catalog
}

// NewHoverProvider creates a hover provider over the catalog.
func NewHoverProvider(catalog *schema.Catalog) *HoverProvider {
	return &HoverProvider{catalog: catalog}
}

// Hover returns markdown for the action type or parameter under the cursor,
// or nil when nothing documentable is there.
func (hp *HoverProvider) Hover(doc *parser.Document, position protocol.Position) *protocol.Hover {
	pos := fromProtoPosition(position)

	slide := doc.FindSlideAt(pos)
	if slide == nil {
		return nil
	}

	for _, link := range slide.Links {
		if link.TypeRange.ContainsPosition(pos) {
			return hp.actionHover(link.Type, link.TypeRange)
		}
	}

	block := doc.FindActionBlockAt(pos)
	if block == nil {
		return nil
	}

	if block.HasType && block.TypeRange.ContainsPosition(pos) {
		return hp.actionHover(block.ActionType, block.TypeRange)
	}
	if h := hp.paramHover(block.ActionType, block.Params, pos); h != nil {
		return h
	}
	for _, step := range block.Steps {
		if !step.Range.ContainsPosition(pos) {
			continue
		}
		if step.TypeRange.ContainsPosition(pos) {
			return hp.actionHover(step.ActionType, step.TypeRange)
		}
		return hp.paramHover(step.ActionType, step.Params, pos)
	}
	return nil
}

func (hp *HoverProvider) actionHover(name string, r parser.Range) *protocol.Hover {
	actionType, ok := hp.catalog.Lookup(name)
	if !ok {
		return nil
	}
	rng := toProtoRange(r)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: actionDocumentation(actionType),
		},
		Range: &rng,
	}
}

func (hp *HoverProvider) paramHover(typeName string, params []parser.Parameter, pos parser.Position) *protocol.Hover {
	actionType, ok := hp.catalog.Lookup(typeName)
	if !ok {
		return nil
	}
	for _, p := range params {
		if !p.KeyRange.ContainsPosition(pos) {
			continue
		}
		param, ok := actionType.Parameter(p.Key)
		if !ok {
			return nil
		}
		required := ""
		if param.Required {
			required = ", required"
		}
		rng := toProtoRange(p.KeyRange)
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: fmt.Sprintf("**%s** (%s%s)\n\n%s", param.Name, param.Type, required, param.Description),
			},
			Range: &rng,
		}
	}
	return nil
}
