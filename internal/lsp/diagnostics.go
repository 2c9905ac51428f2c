package lsp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

// DiagnosticSource tags every published diagnostic.
const DiagnosticSource = "executable-talk"

// Diagnostic codes. Block-level checks run in order and stop at the first
// structural fault; step, link and render checks mirror them.
const (
	CodeYamlParse        = "ET001"
	CodeMissingType      = "ET002"
	CodeUnknownType      = "ET003"
	CodeMissingParam     = "ET004"
	CodeUnknownParam     = "ET005"
	CodeStepMissingType  = "ET006"
	CodeStepUnknownType  = "ET007"
	CodeStepMissingParam = "ET008"
	CodeStepUnknownParam = "ET009"
	CodeUnclosedFence    = "ET010"
	CodeLinkUnknownType  = "ET011"
	CodeLinkUnknownParam = "ET012"
	CodeRenderUnknown    = "ET013"
	CodeRenderParam      = "ET014"
	CodeEmptyBlock       = "ET015"
)

// DiagnosticsProvider walks a document model and reports structural defects.
type DiagnosticsProvider struct {
	catalog *schema.Catalog
}

// NewDiagnosticsProvider creates a provider over the action catalog.
func NewDiagnosticsProvider(catalog *schema.Catalog) *DiagnosticsProvider {
	return &DiagnosticsProvider{catalog: catalog}
}

func makeDiagnostic(r parser.Range, code string, severity protocol.DiagnosticSeverity, message string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    toProtoRange(r),
		Severity: severity,
		Code:     code,
		Source:   DiagnosticSource,
		Message:  message,
	}
}

// Compute derives the full diagnostic list for one document.
func (dp *DiagnosticsProvider) Compute(doc *parser.Document) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, slide := range doc.Slides {
		for _, block := range slide.Blocks {
			diagnostics = append(diagnostics, dp.checkBlock(doc, block)...)
		}
		for _, link := range slide.Links {
			diagnostics = append(diagnostics, dp.checkLink(link)...)
		}
		for _, directive := range slide.Directives {
			diagnostics = append(diagnostics, dp.checkDirective(directive)...)
		}
	}
	return diagnostics
}

func (dp *DiagnosticsProvider) checkBlock(doc *parser.Document, block *parser.ActionBlock) []protocol.Diagnostic {
	var diags []protocol.Diagnostic

	if block.Unclosed {
		diags = append(diags, makeDiagnostic(block.Range, CodeUnclosedFence,
			protocol.DiagnosticSeverityWarning, "Action block is missing its closing fence"))
	}

	if block.ParseErr != nil {
		return append(diags, makeDiagnostic(block.ParseErr.Range, CodeYamlParse,
			protocol.DiagnosticSeverityError, "YAML parse error: "+block.ParseErr.Message))
	}

	if len(block.Mapping) == 0 {
		return append(diags, makeDiagnostic(block.ContentRange, CodeEmptyBlock,
			protocol.DiagnosticSeverityHint, "Action block is empty"))
	}

	if !block.HasType {
		return append(diags, makeDiagnostic(block.ContentRange, CodeMissingType,
			protocol.DiagnosticSeverityError, "Action block is missing a 'type' key"))
	}

	actionType, known := dp.catalog.Lookup(block.ActionType)
	if !known {
		return append(diags, makeDiagnostic(block.TypeRange, CodeUnknownType,
			protocol.DiagnosticSeverityError,
			fmt.Sprintf("Unknown action type '%s'", block.ActionType)))
	}

	for _, required := range actionType.RequiredParameters() {
		if _, present := block.Mapping[required.Name]; !present {
			diags = append(diags, makeDiagnostic(block.TypeRange, CodeMissingParam,
				protocol.DiagnosticSeverityError,
				fmt.Sprintf("Missing required parameter '%s' for action type '%s'", required.Name, block.ActionType)))
		}
	}

	for _, key := range sortedKeys(block.Mapping) {
		if actionType.AllowsKey(key) {
			continue
		}
		diags = append(diags, makeDiagnostic(dp.keyRangeFor(block, key), CodeUnknownParam,
			protocol.DiagnosticSeverityWarning,
			fmt.Sprintf("Unknown parameter '%s' for action type '%s'", key, block.ActionType)))
	}

	if block.ActionType == schema.SequenceType {
		diags = append(diags, dp.checkSteps(doc, block)...)
	}
	return diags
}

// keyRangeFor points at the scanned key span when one exists, else at the
// type declaration.
func (dp *DiagnosticsProvider) keyRangeFor(block *parser.ActionBlock, key string) parser.Range {
	for _, p := range block.Params {
		if p.Key == key {
			return p.KeyRange
		}
	}
	return block.TypeRange
}

var (
	stepMarkerRe = regexp.MustCompile(`^(\s{2,})-\s+type:`)
	stepParamRe  = regexp.MustCompile(`^(\s+)([A-Za-z_][A-Za-z0-9_.-]*):`)
)

type stepSpan struct {
	startLine int
	endLine   int
	indent    int
}

// scanStepSpans re-detects step boundaries from the block text. This runs
// independently of the parsed Steps list on the model.
func scanStepSpans(doc *parser.Document, block *parser.ActionBlock) []stepSpan {
	var spans []stepSpan
	for i := block.ContentRange.Start.Line; i <= block.ContentRange.End.Line; i++ {
		if m := stepMarkerRe.FindStringSubmatch(doc.Line(i)); m != nil {
			if n := len(spans); n > 0 {
				spans[n-1].endLine = i - 1
			}
			spans = append(spans, stepSpan{startLine: i, endLine: block.ContentRange.End.Line, indent: len(m[1])})
		}
	}
	return spans
}

func (dp *DiagnosticsProvider) checkSteps(doc *parser.Document, block *parser.ActionBlock) []protocol.Diagnostic {
	var diags []protocol.Diagnostic

	for _, span := range scanStepSpans(doc, block) {
		line := doc.Line(span.startLine)
		colon := strings.Index(line, "type:") + len("type")
		valStart, valEnd := parser.ValueSpan(line, colon)
		stepType := line[valStart:valEnd]
		typeRange := parser.NewRange(span.startLine, valStart, span.startLine, valEnd)

		if stepType == "" {
			diags = append(diags, makeDiagnostic(typeRange, CodeStepMissingType,
				protocol.DiagnosticSeverityError, "Step is missing an action type"))
			continue
		}

		actionType, known := dp.catalog.Lookup(stepType)
		if !known {
			diags = append(diags, makeDiagnostic(typeRange, CodeStepUnknownType,
				protocol.DiagnosticSeverityError,
				fmt.Sprintf("Unknown action type '%s'", stepType)))
			continue
		}

		present := make(map[string]parser.Range)
		for i := span.startLine + 1; i <= span.endLine; i++ {
			m := stepParamRe.FindStringSubmatch(doc.Line(i))
			if m == nil || len(m[1]) <= span.indent {
				continue
			}
			keyStart := len(m[1])
			present[m[2]] = parser.NewRange(i, keyStart, i, keyStart+len(m[2]))
		}

		for _, required := range actionType.RequiredParameters() {
			if _, ok := present[required.Name]; !ok {
				diags = append(diags, makeDiagnostic(typeRange, CodeStepMissingParam,
					protocol.DiagnosticSeverityError,
					fmt.Sprintf("Missing required parameter '%s' for action type '%s'", required.Name, stepType)))
			}
		}

		keys := make([]string, 0, len(present))
		for key := range present {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if actionType.AllowsKey(key) {
				continue
			}
			diags = append(diags, makeDiagnostic(present[key], CodeStepUnknownParam,
				protocol.DiagnosticSeverityWarning,
				fmt.Sprintf("Unknown parameter '%s' for action type '%s'", key, stepType)))
		}
	}
	return diags
}

func (dp *DiagnosticsProvider) checkLink(link *parser.ActionLink) []protocol.Diagnostic {
	actionType, known := dp.catalog.Lookup(link.Type)
	if !known {
		return []protocol.Diagnostic{makeDiagnostic(link.TypeRange, CodeLinkUnknownType,
			protocol.DiagnosticSeverityError,
			fmt.Sprintf("Unknown action type '%s'", link.Type))}
	}

	var diags []protocol.Diagnostic
	for _, key := range sortedQueryKeys(link.Params) {
		if actionType.AllowsKey(key) {
			continue
		}
		diags = append(diags, makeDiagnostic(link.Params[key].Range, CodeLinkUnknownParam,
			protocol.DiagnosticSeverityWarning,
			fmt.Sprintf("Unknown parameter '%s' for action type '%s'", key, link.Type)))
	}
	return diags
}

func (dp *DiagnosticsProvider) checkDirective(directive *parser.RenderDirective) []protocol.Diagnostic {
	// The directive pattern only admits the known render types; the check
	// stays so the rule set is total.
	if !schema.IsRenderType(directive.Type) {
		return []protocol.Diagnostic{makeDiagnostic(directive.TypeRange, CodeRenderUnknown,
			protocol.DiagnosticSeverityError,
			fmt.Sprintf("Unknown render type '%s'", directive.Type))}
	}

	var diags []protocol.Diagnostic
	for _, key := range sortedQueryKeys(directive.Params) {
		if schema.RenderAllowsKey(directive.Type, key) {
			continue
		}
		diags = append(diags, makeDiagnostic(directive.Params[key].Range, CodeRenderParam,
			protocol.DiagnosticSeverityWarning,
			fmt.Sprintf("Unknown parameter '%s' for render type '%s'", key, directive.Type)))
	}
	return diags
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedQueryKeys(m map[string]parser.QueryParam) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
