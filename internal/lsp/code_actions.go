package lsp

import (
	"fmt"
	"regexp"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

// maxTypoDistance bounds how far an identifier may be from a catalog entry
// to still be offered as a correction.
const maxTypoDistance = 2

// CodeActionProvider turns diagnostics into concrete text edits.
type CodeActionProvider struct {
	catalog *schema.Catalog
}

// NewCodeActionProvider creates a provider over the action catalog.
func NewCodeActionProvider(catalog *schema.Catalog) *CodeActionProvider {
	return &CodeActionProvider{catalog: catalog}
}

// quotedRe extracts the offending identifier a diagnostic message carries.
var quotedRe = regexp.MustCompile(`'([^']+)'`)

func quotedIdentifier(message string) string {
	if m := quotedRe.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	return ""
}

// Actions builds quick-fixes for the given diagnostics. Construction is
// best-effort: a fix degrades to a coarser edit when the referenced element
// cannot be re-located, it is never silently dropped.
func (ca *CodeActionProvider) Actions(doc *parser.Document, docURI protocol.DocumentURI, diagnostics []protocol.Diagnostic) []protocol.CodeAction {
	var actions []protocol.CodeAction
	for _, diag := range diagnostics {
		switch fmt.Sprint(diag.Code) {
		case CodeUnknownType, CodeStepUnknownType:
			actions = append(actions, ca.typoFixes(docURI, diag)...)
		case CodeMissingParam, CodeStepMissingParam:
			if action, ok := ca.insertParamFix(doc, docURI, diag); ok {
				actions = append(actions, action)
			}
		case CodeUnknownParam, CodeStepUnknownParam:
			actions = append(actions, ca.removeParamFix(doc, docURI, diag))
		}
	}
	return actions
}

// typoFixes offers one replacement per catalog type within edit distance
// two of the offending identifier. A lone candidate is marked preferred.
func (ca *CodeActionProvider) typoFixes(docURI protocol.DocumentURI, diag protocol.Diagnostic) []protocol.CodeAction {
	typo := quotedIdentifier(diag.Message)
	if typo == "" {
		return nil
	}

	var candidates []string
	for _, t := range ca.catalog.Types() {
		if levenshtein(typo, t.Type) <= maxTypoDistance {
			candidates = append(candidates, t.Type)
		}
	}

	var actions []protocol.CodeAction
	for _, candidate := range candidates {
		actions = append(actions, protocol.CodeAction{
			Title:       fmt.Sprintf("Change to '%s'", candidate),
			Kind:        protocol.QuickFix,
			Diagnostics: []protocol.Diagnostic{diag},
			IsPreferred: len(candidates) == 1,
			Edit: singleEdit(docURI, protocol.TextEdit{
				Range:   diag.Range,
				NewText: candidate,
			}),
		})
	}
	return actions
}

// insertParamFix inserts "<name>: " on a fresh line inside the owning block
// or step: one line after the last existing parameter, else one line after
// the type line, else at the content start.
func (ca *CodeActionProvider) insertParamFix(doc *parser.Document, docURI protocol.DocumentURI, diag protocol.Diagnostic) (protocol.CodeAction, bool) {
	name := quotedIdentifier(diag.Message)
	if name == "" {
		return protocol.CodeAction{}, false
	}

	pos := fromProtoPosition(diag.Range.Start)
	block := doc.FindActionBlockAt(pos)
	if block == nil {
		return protocol.CodeAction{}, false
	}

	indent := ""
	insertLine := block.ContentRange.Start.Line
	params := block.Params
	typeLine := -1
	if block.HasType {
		typeLine = block.TypeRange.Start.Line
	}

	if fmt.Sprint(diag.Code) == CodeStepMissingParam {
		for _, step := range block.Steps {
			if step.Range.ContainsPosition(pos) {
				indent = strings.Repeat(" ", step.Indent+2)
				insertLine = step.Range.Start.Line + 1
				params = step.Params
				typeLine = step.TypeRange.Start.Line
				break
			}
		}
	}

	switch {
	case len(params) > 0:
		insertLine = params[len(params)-1].LineRange.End.Line + 1
	case typeLine >= 0:
		insertLine = typeLine + 1
	}

	at := protocol.Position{Line: uint32(insertLine)}
	return protocol.CodeAction{
		Title:       fmt.Sprintf("Add parameter '%s'", name),
		Kind:        protocol.QuickFix,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: singleEdit(docURI, protocol.TextEdit{
			Range:   protocol.Range{Start: at, End: at},
			NewText: indent + name + ": \n",
		}),
	}, true
}

// removeParamFix deletes the unknown parameter's full line span. When the
// parameter cannot be re-located, the diagnostic's own line is deleted
// instead.
func (ca *CodeActionProvider) removeParamFix(doc *parser.Document, docURI protocol.DocumentURI, diag protocol.Diagnostic) protocol.CodeAction {
	name := quotedIdentifier(diag.Message)
	pos := fromProtoPosition(diag.Range.Start)

	deleteLine := int(diag.Range.Start.Line)
	if param, ok := findParameter(doc, pos, name); ok {
		deleteLine = param.LineRange.Start.Line
	}

	return protocol.CodeAction{
		Title:       fmt.Sprintf("Remove parameter '%s'", name),
		Kind:        protocol.QuickFix,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: singleEdit(docURI, protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(deleteLine)},
				End:   protocol.Position{Line: uint32(deleteLine + 1)},
			},
		}),
	}
}

func findParameter(doc *parser.Document, pos parser.Position, name string) (parser.Parameter, bool) {
	block := doc.FindActionBlockAt(pos)
	if block == nil || name == "" {
		return parser.Parameter{}, false
	}

	params := block.Params
	for _, step := range block.Steps {
		if step.Range.ContainsPosition(pos) {
			params = step.Params
			break
		}
	}
	for _, p := range params {
		if p.Key == name && p.LineRange.ContainsPosition(pos) {
			return p, true
		}
	}
	// same block, stale line: still usable if the key is unique
	for _, p := range params {
		if p.Key == name {
			return p, true
		}
	}
	return parser.Parameter{}, false
}

func singleEdit(docURI protocol.DocumentURI, edit protocol.TextEdit) *protocol.WorkspaceEdit {
	return &protocol.WorkspaceEdit{
		Changes: map[uri.URI][]protocol.TextEdit{
			docURI: {edit},
		},
	}
}

// levenshtein computes the edit distance between a and b with unit costs,
// keeping a single working row.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			current := row[j]
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(prev+cost, min(row[j-1]+1, row[j]+1))
			prev = current
		}
	}
	return row[len(b)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
