// Package context classifies cursor positions within action blocks to decide
// what kind of authoring assistance applies there.
package context

import (
	"regexp"
	"strings"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

// Kind discriminates the context variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindTypeValue
	KindParamName
	KindParamValue
	KindStepContext
)

// Context is a tagged result of classification. Only the fields meaningful
// to the Kind are populated.
type Context struct {
	Kind  Kind
	Block *parser.ActionBlock

	// KindStepContext: the enclosing step plus the classification relative
	// to it.
	Step  *parser.Step
	Inner *Context

	// KindTypeValue: the partial value typed so far.
	Partial string

	// KindParamValue: the owning action type and the key being valued.
	ActionType string
	Key        string

	// KindParamName: keys already present, for exclusion.
	Existing map[string]bool

	ReplaceRange parser.Range
}

var (
	typeKeyRe  = regexp.MustCompile(`^type:`)
	paramKeyRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.-]*):`)
	stepKeyRe  = regexp.MustCompile(`^(\s+)([A-Za-z_][A-Za-z0-9_.-]*):`)
)

// Detect classifies the position against the document model. Positions
// outside any action block content are KindUnknown.
func Detect(doc *parser.Document, pos parser.Position) *Context {
	block := doc.FindActionBlockAt(pos)
	if block == nil {
		return &Context{Kind: KindUnknown}
	}

	if block.ActionType == schema.SequenceType {
		for _, step := range block.Steps {
			if step.Range.ContainsPosition(pos) {
				inner := classifyStep(doc, block, step, pos)
				return &Context{
					Kind:         KindStepContext,
					Block:        block,
					Step:         step,
					Inner:        inner,
					ReplaceRange: inner.ReplaceRange,
				}
			}
		}
	}

	return classifyBlock(doc, block, pos)
}

func classifyBlock(doc *parser.Document, block *parser.ActionBlock, pos parser.Position) *Context {
	line := doc.Line(pos.Line)

	if typeKeyRe.MatchString(line) {
		valStart, valEnd := parser.ValueSpan(line, len("type"))
		return &Context{
			Kind:         KindTypeValue,
			Block:        block,
			Partial:      line[valStart:valEnd],
			ReplaceRange: parser.NewRange(pos.Line, valStart, pos.Line, valEnd),
		}
	}

	if m := paramKeyRe.FindStringSubmatch(line); m != nil && m[1] != "type" {
		valStart, valEnd := parser.ValueSpan(line, len(m[1]))
		if pos.Character >= valStart {
			return &Context{
				Kind:         KindParamValue,
				Block:        block,
				ActionType:   block.ActionType,
				Key:          m[1],
				ReplaceRange: parser.NewRange(pos.Line, valStart, pos.Line, valEnd),
			}
		}
	}

	wholeLine := parser.NewRange(pos.Line, 0, pos.Line, len(line))
	if block.ActionType != "" {
		return &Context{
			Kind:         KindParamName,
			Block:        block,
			ActionType:   block.ActionType,
			Existing:     mappingKeys(block.Mapping),
			ReplaceRange: wholeLine,
		}
	}

	// no type declared yet: suggest one for the whole line
	return &Context{
		Kind:         KindTypeValue,
		Block:        block,
		Partial:      "",
		ReplaceRange: wholeLine,
	}
}

// classifyStep mirrors block classification with value-range math anchored
// to the step's own type:/key: occurrences.
func classifyStep(doc *parser.Document, block *parser.ActionBlock, step *parser.Step, pos parser.Position) *Context {
	line := doc.Line(pos.Line)

	if pos.Line == step.Range.Start.Line {
		if i := strings.Index(line, "type:"); i >= 0 {
			valStart, valEnd := parser.ValueSpan(line, i+len("type"))
			return &Context{
				Kind:         KindTypeValue,
				Block:        block,
				Step:         step,
				Partial:      line[valStart:valEnd],
				ReplaceRange: parser.NewRange(pos.Line, valStart, pos.Line, valEnd),
			}
		}
	}

	if m := stepKeyRe.FindStringSubmatch(line); m != nil && len(m[1]) > step.Indent && m[2] != "type" {
		valStart, valEnd := parser.ValueSpan(line, len(m[1])+len(m[2]))
		if pos.Character >= valStart {
			return &Context{
				Kind:         KindParamValue,
				Block:        block,
				Step:         step,
				ActionType:   step.ActionType,
				Key:          m[2],
				ReplaceRange: parser.NewRange(pos.Line, valStart, pos.Line, valEnd),
			}
		}
	}

	wholeLine := parser.NewRange(pos.Line, 0, pos.Line, len(line))
	if step.ActionType != "" {
		existing := map[string]bool{"type": true}
		for _, p := range step.Params {
			existing[p.Key] = true
		}
		return &Context{
			Kind:         KindParamName,
			Block:        block,
			Step:         step,
			ActionType:   step.ActionType,
			Existing:     existing,
			ReplaceRange: wholeLine,
		}
	}

	return &Context{
		Kind:         KindTypeValue,
		Block:        block,
		Step:         step,
		Partial:      "",
		ReplaceRange: wholeLine,
	}
}

func mappingKeys(mapping map[string]interface{}) map[string]bool {
	keys := make(map[string]bool, len(mapping))
	for k := range mapping {
		keys[k] = true
	}
	return keys
}
