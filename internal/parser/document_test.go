package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_SlideCount(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"empty document", "", 1},
		{"single slide", "# Hello\n\nProse", 1},
		{"two slides", "# One\n---\n# Two", 2},
		{"three slides", "a\n---\nb\n---\nc", 3},
		{"long delimiter", "a\n-----\nb", 2},
		{"delimiter with trailing spaces", "a\n---   \nb", 2},
		{"frontmatter only", "---\ntitle: x\n---\n# Slide", 1},
	}

	for _, test := range tests {
		doc := Parse("file:///deck.md", 1, test.content)
		if len(doc.Slides) != test.expected {
			t.Errorf("%s: expected %d slides, got %d", test.name, test.expected, len(doc.Slides))
		}
	}
}

func TestParse_DelimiterInsideFence(t *testing.T) {
	content := "# A\n\n```text\n---\n```\n\ncontent"

	doc := Parse("file:///deck.md", 1, content)

	if len(doc.Slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(doc.Slides))
	}
}

func TestParse_Frontmatter(t *testing.T) {
	content := "---\ntitle: Demo\n---\n# Intro"

	doc := Parse("file:///deck.md", 1, content)

	if doc.FrontmatterRange == nil {
		t.Fatal("expected a frontmatter range")
	}
	if doc.FrontmatterRange.Start.Line != 0 || doc.FrontmatterRange.End.Line != 2 {
		t.Errorf("expected frontmatter lines 0-2, got %d-%d",
			doc.FrontmatterRange.Start.Line, doc.FrontmatterRange.End.Line)
	}
	if len(doc.Slides) != 1 {
		t.Errorf("expected 1 slide after frontmatter, got %d", len(doc.Slides))
	}
	if doc.Slides[0].Title != "Intro" {
		t.Errorf("expected title 'Intro', got %q", doc.Slides[0].Title)
	}
}

func TestParse_UnterminatedFrontmatterIsNotFrontmatter(t *testing.T) {
	content := "---\ntitle: Demo\n# Slide"

	doc := Parse("file:///deck.md", 1, content)

	if doc.FrontmatterRange != nil {
		t.Error("expected no frontmatter range without a closing delimiter")
	}
}

func TestParse_ActionBlock(t *testing.T) {
	content := strings.Join([]string{
		"# Intro",
		"",
		"```action",
		"type: file.open",
		"path: README.md",
		"```",
	}, "\n")

	doc := Parse("file:///deck.md", 1, content)

	if len(doc.Slides) != 1 || len(doc.Slides[0].Blocks) != 1 {
		t.Fatalf("expected 1 slide with 1 block, got %+v", doc.Slides)
	}
	block := doc.Slides[0].Blocks[0]

	if block.Unclosed {
		t.Error("block should not be unclosed")
	}
	if block.Range.Start.Line != 2 || block.Range.End.Line != 5 {
		t.Errorf("expected block lines 2-5, got %d-%d", block.Range.Start.Line, block.Range.End.Line)
	}
	if block.ContentRange.Start.Line != 3 || block.ContentRange.End.Line != 4 {
		t.Errorf("expected content lines 3-4, got %d-%d",
			block.ContentRange.Start.Line, block.ContentRange.End.Line)
	}
	if block.ActionType != "file.open" {
		t.Errorf("expected action type 'file.open', got %q", block.ActionType)
	}
	if block.TypeRange.Start.Line != 3 || block.TypeRange.Start.Character != 6 || block.TypeRange.End.Character != 15 {
		t.Errorf("unexpected type range: %+v", block.TypeRange)
	}

	if len(block.Params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(block.Params))
	}
	p := block.Params[0]
	if p.Key != "path" || p.Value != "README.md" {
		t.Errorf("unexpected parameter: %+v", p)
	}
	if p.KeyRange != NewRange(4, 0, 4, 4) {
		t.Errorf("unexpected key range: %+v", p.KeyRange)
	}
	if p.ValueRange != NewRange(4, 6, 4, 15) {
		t.Errorf("unexpected value range: %+v", p.ValueRange)
	}
	if p.LineRange != NewRange(4, 0, 4, 15) {
		t.Errorf("unexpected line range: %+v", p.LineRange)
	}
}

func TestParse_UnclosedBlock(t *testing.T) {
	content := strings.Join([]string{
		"# Intro",
		"```action",
		"type: file.open",
		"path: README.md",
	}, "\n")

	doc := Parse("file:///deck.md", 1, content)

	block := doc.Slides[0].Blocks[0]
	if !block.Unclosed {
		t.Fatal("expected unclosed block")
	}
	lastLine := doc.LineCount() - 1
	if block.ContentRange.End.Line != lastLine {
		t.Errorf("expected content to end at slide's last line %d, got %d",
			lastLine, block.ContentRange.End.Line)
	}
	if block.ActionType != "file.open" {
		t.Errorf("expected type parsed despite missing fence, got %q", block.ActionType)
	}
}

func TestParse_SequenceSteps(t *testing.T) {
	content := strings.Join([]string{
		"```action",
		"type: sequence",
		"steps:",
		"  - type: terminal.run",
		"    command: make build",
		"  - type: file.open",
		"    path: main.go",
		"```",
	}, "\n")

	doc := Parse("file:///deck.md", 1, content)

	block := doc.Slides[0].Blocks[0]
	if len(block.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(block.Steps))
	}

	first := block.Steps[0]
	if first.ActionType != "terminal.run" {
		t.Errorf("expected first step type 'terminal.run', got %q", first.ActionType)
	}
	if first.Range.Start.Line != 3 || first.Range.End.Line != 4 {
		t.Errorf("expected first step lines 3-4, got %d-%d",
			first.Range.Start.Line, first.Range.End.Line)
	}
	if len(first.Params) != 1 || first.Params[0].Key != "command" {
		t.Fatalf("unexpected first step params: %+v", first.Params)
	}
	if first.Params[0].Value != "make build" {
		t.Errorf("expected value 'make build', got %q", first.Params[0].Value)
	}

	second := block.Steps[1]
	if second.ActionType != "file.open" {
		t.Errorf("expected second step type 'file.open', got %q", second.ActionType)
	}
	if second.TypeRange.Start.Line != 5 {
		t.Errorf("expected second step type on line 5, got %d", second.TypeRange.Start.Line)
	}
}

func TestParse_NoStepsForNonSequence(t *testing.T) {
	content := "```action\ntype: terminal.run\ncommand: ls\n```"

	doc := Parse("file:///deck.md", 1, content)

	if steps := doc.Slides[0].Blocks[0].Steps; len(steps) != 0 {
		t.Errorf("expected no steps on a non-sequence block, got %d", len(steps))
	}
}

func TestParse_ActionLink(t *testing.T) {
	content := "Click [run it](action:terminal.run?command=ls%20-la&cwd=src) now"

	doc := Parse("file:///deck.md", 1, content)

	links := doc.Slides[0].Links
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	link := links[0]
	if link.Label != "run it" || link.Type != "terminal.run" {
		t.Errorf("unexpected link: %+v", link)
	}
	if got := content[link.TypeRange.Start.Character:link.TypeRange.End.Character]; got != "terminal.run" {
		t.Errorf("type range does not cover the type text, got %q", got)
	}

	command, ok := link.Params["command"]
	if !ok {
		t.Fatal("expected 'command' query parameter")
	}
	if command.Value != "ls -la" {
		t.Errorf("expected decoded value 'ls -la', got %q", command.Value)
	}
	if got := content[command.Range.Start.Character:command.Range.End.Character]; got != "ls%20-la" {
		t.Errorf("value range should cover the raw encoded text, got %q", got)
	}
	if cwd := link.Params["cwd"]; cwd.Value != "src" {
		t.Errorf("expected cwd 'src', got %q", cwd.Value)
	}
}

func TestParse_RenderDirective(t *testing.T) {
	content := "[demo](render:file?path=main.go&line=10)"

	doc := Parse("file:///deck.md", 1, content)

	directives := doc.Slides[0].Directives
	if len(directives) != 1 {
		t.Fatalf("expected 1 directive, got %d", len(directives))
	}
	d := directives[0]
	if d.Type != "file" {
		t.Errorf("expected render type 'file', got %q", d.Type)
	}
	if d.Params["path"].Value != "main.go" || d.Params["line"].Value != "10" {
		t.Errorf("unexpected directive params: %+v", d.Params)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	content := strings.Join([]string{
		"---",
		"title: Demo",
		"---",
		"# Intro",
		"",
		"```action",
		"type: sequence",
		"steps:",
		"  - type: terminal.run",
		"    command: ls",
		"```",
		"",
		"See [docs](action:file.open?path=README.md)",
		"---",
		"# End",
	}, "\n")

	first := Parse("file:///deck.md", 1, content)
	second := Parse("file:///deck.md", 2, content)

	if diff := cmp.Diff(first.Slides, second.Slides); diff != "" {
		t.Errorf("re-parsing identical content produced a different model (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.FrontmatterRange, second.FrontmatterRange); diff != "" {
		t.Errorf("frontmatter differs between parses:\n%s", diff)
	}
}

func TestFindActionBlockAt(t *testing.T) {
	content := "# S\n```action\ntype: file.open\n```\nprose"

	doc := Parse("file:///deck.md", 1, content)

	if block := doc.FindActionBlockAt(Position{Line: 2, Character: 3}); block == nil {
		t.Error("expected to find a block inside the content range")
	}
	if block := doc.FindActionBlockAt(Position{Line: 4, Character: 0}); block != nil {
		t.Error("expected no block in prose")
	}
}

func TestApplyChange_ReplacesModel(t *testing.T) {
	doc := Parse("file:///deck.md", 1, "# One")
	updated := ApplyChange(doc, 2, "# One\n---\n# Two")

	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}
	if len(updated.Slides) != 2 {
		t.Errorf("expected 2 slides after change, got %d", len(updated.Slides))
	}
	if len(doc.Slides) != 1 {
		t.Errorf("previous model must stay untouched, got %d slides", len(doc.Slides))
	}
}
