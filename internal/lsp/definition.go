package lsp

import (
	"strings"

	"go.lsp.dev/protocol"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

// DefinitionProvider resolves file-path and launch-config parameter values
// to workspace locations via the workspace index.
type DefinitionProvider struct {
	catalog   *schema.Catalog
	workspace *WorkspaceIndex
}

// NewDefinitionProvider creates a definition provider.
func NewDefinitionProvider(catalog *schema.Catalog, workspace *WorkspaceIndex) *DefinitionProvider {
	return &DefinitionProvider{catalog: catalog, workspace: workspace}
}

// Definition resolves the parameter under the cursor, or nil when it does
// not name a resolvable file or launch configuration.
func (dp *DefinitionProvider) Definition(doc *parser.Document, position protocol.Position) []protocol.Location {
	pos := fromProtoPosition(position)

	block := doc.FindActionBlockAt(pos)
	if block == nil {
		return nil
	}

	typeName := block.ActionType
	params := block.Params
	for _, step := range block.Steps {
		if step.Range.ContainsPosition(pos) {
			typeName = step.ActionType
			params = step.Params
			break
		}
	}

	actionType, ok := dp.catalog.Lookup(typeName)
	if !ok {
		return nil
	}

	for _, p := range params {
		if !p.LineRange.ContainsPosition(pos) {
			continue
		}
		param, ok := actionType.Parameter(p.Key)
		if !ok {
			return nil
		}

		value := strings.Trim(p.Value, `"'`)
		switch param.CompletionKind {
		case "filePath":
			if loc, found := dp.workspace.ResolveFile(value); found {
				return []protocol.Location{loc}
			}
		case "launchConfig":
			if loc, found := dp.workspace.ResolveLaunchConfig(value); found {
				return []protocol.Location{loc}
			}
		}
		return nil
	}
	return nil
}
