package lsp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	actioncontext "github.com/ormasoftchile/executable-talk-sub000/internal/context"
	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

// CompletionProvider turns a classified cursor context, or a raw inline
// directive prefix, into completion items with precise replacement ranges.
type CompletionProvider struct {
	catalog *schema.Catalog
	logger  *zap.Logger
}

// NewCompletionProvider creates a completion provider over the catalog.
func NewCompletionProvider(catalog *schema.Catalog, logger *zap.Logger) *CompletionProvider {
	return &CompletionProvider{catalog: catalog, logger: logger}
}

var (
	actionPrefixRe = regexp.MustCompile(`\[[^\]]*\]\(action:([a-z0-9.]*)$`)
	renderPrefixRe = regexp.MustCompile(`\[[^\]]*\]\(render:([a-z]*)$`)
)

// Completions computes candidates for the position, or nil when nothing
// applies there.
func (cp *CompletionProvider) Completions(doc *parser.Document, position protocol.Position) []protocol.CompletionItem {
	pos := fromProtoPosition(position)
	line := doc.Line(pos.Line)
	cursor := pos.Character
	if cursor > len(line) {
		cursor = len(line)
	}
	before := line[:cursor]

	if m := actionPrefixRe.FindStringSubmatch(before); m != nil {
		replace := parser.NewRange(pos.Line, cursor-len(m[1]), pos.Line, cursor)
		return cp.typeItems(m[1], replace, false, "")
	}
	if m := renderPrefixRe.FindStringSubmatch(before); m != nil {
		replace := parser.NewRange(pos.Line, cursor-len(m[1]), pos.Line, cursor)
		return cp.renderTypeItems(m[1], replace)
	}

	ctx := actioncontext.Detect(doc, pos)
	return cp.contextItems(ctx, false)
}

func (cp *CompletionProvider) contextItems(ctx *actioncontext.Context, insideStep bool) []protocol.CompletionItem {
	switch ctx.Kind {
	case actioncontext.KindTypeValue:
		prefix := ""
		if ctx.ReplaceRange.Start.Character == 0 && ctx.Partial == "" {
			// bare line: the completion has to write the key as well
			prefix = "type: "
			if ctx.Step != nil {
				prefix = strings.Repeat(" ", ctx.Step.Indent+2) + "type: "
			}
		}
		return cp.typeItems(ctx.Partial, ctx.ReplaceRange, insideStep || ctx.Step != nil, prefix)

	case actioncontext.KindParamName:
		return cp.paramNameItems(ctx)

	case actioncontext.KindParamValue:
		return cp.paramValueItems(ctx)

	case actioncontext.KindStepContext:
		return cp.contextItems(ctx.Inner, true)

	default:
		return nil
	}
}

// typeItems suggests catalog action types matching the typed prefix. The
// sequence type is excluded inside steps; sequences do not nest.
func (cp *CompletionProvider) typeItems(partial string, replace parser.Range, excludeSequence bool, insertPrefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, t := range cp.catalog.Types() {
		if excludeSequence && t.Type == schema.SequenceType {
			continue
		}
		if !strings.HasPrefix(t.Type, partial) {
			continue
		}
		items = append(items, protocol.CompletionItem{
			Label:  t.Type,
			Kind:   protocol.CompletionItemKindFunction,
			Detail: t.Description,
			Documentation: &protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: actionDocumentation(&t),
			},
			FilterText: t.Type,
			TextEdit: &protocol.TextEdit{
				Range:   toProtoRange(replace),
				NewText: insertPrefix + t.Type,
			},
		})
	}
	return items
}

func (cp *CompletionProvider) renderTypeItems(partial string, replace parser.Range) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, t := range schema.RenderTypes() {
		if !strings.HasPrefix(t, partial) {
			continue
		}
		items = append(items, protocol.CompletionItem{
			Label:  t,
			Kind:   protocol.CompletionItemKindEnumMember,
			Detail: fmt.Sprintf("render:%s directive", t),
			TextEdit: &protocol.TextEdit{
				Range:   toProtoRange(replace),
				NewText: t,
			},
		})
	}
	return items
}

// paramNameItems suggests schema parameters not already present, required
// ones sorted first. The replacement covers the whole current line.
func (cp *CompletionProvider) paramNameItems(ctx *actioncontext.Context) []protocol.CompletionItem {
	actionType, ok := cp.catalog.Lookup(ctx.ActionType)
	if !ok {
		return nil
	}

	indent := ""
	if ctx.Step != nil {
		indent = strings.Repeat(" ", ctx.Step.Indent+2)
	}

	var items []protocol.CompletionItem
	for _, p := range actionType.Parameters {
		if ctx.Existing[p.Name] {
			continue
		}
		sortText := "1-" + p.Name
		detail := p.Type
		if p.Required {
			sortText = "0-" + p.Name
			detail = p.Type + ", required"
		}
		items = append(items, protocol.CompletionItem{
			Label:  p.Name,
			Kind:   protocol.CompletionItemKindProperty,
			Detail: detail,
			Documentation: &protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: p.Description,
			},
			SortText: sortText,
			TextEdit: &protocol.TextEdit{
				Range:   toProtoRange(ctx.ReplaceRange),
				NewText: indent + p.Name + ": ",
			},
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortText < items[j].SortText })
	return items
}

// paramValueItems suggests enumerated or boolean values for the keyed
// parameter. Free-form and file-path parameters yield nothing here; file
// paths come from the workspace index collaborator, not this engine.
func (cp *CompletionProvider) paramValueItems(ctx *actioncontext.Context) []protocol.CompletionItem {
	actionType, ok := cp.catalog.Lookup(ctx.ActionType)
	if !ok {
		return nil
	}
	param, ok := actionType.Parameter(ctx.Key)
	if !ok {
		return nil
	}

	var values []string
	switch {
	case len(param.Enum) > 0:
		values = param.Enum
	case param.Type == "boolean":
		values = []string{"true", "false"}
	default:
		return nil
	}

	var items []protocol.CompletionItem
	for _, v := range values {
		items = append(items, protocol.CompletionItem{
			Label:  v,
			Kind:   protocol.CompletionItemKindValue,
			Detail: param.Name,
			TextEdit: &protocol.TextEdit{
				Range:   toProtoRange(ctx.ReplaceRange),
				NewText: v,
			},
		})
	}
	return items
}

func actionDocumentation(t *schema.ActionType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n%s", t.Type, t.Description)
	if t.RequiresTrust {
		b.WriteString("\n\nRequires a trusted workspace.")
	}
	return b.String()
}
