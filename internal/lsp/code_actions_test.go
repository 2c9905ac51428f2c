package lsp

import (
	"strings"
	"testing"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
)

const testURI = protocol.DocumentURI("file:///deck.md")

func actionsFor(t *testing.T, lines ...string) ([]protocol.CodeAction, *parser.Document) {
	t.Helper()
	doc := parser.Parse(string(testURI), 1, strings.Join(lines, "\n"))
	diags := NewDiagnosticsProvider(testCatalog(t)).Compute(doc)
	actions := NewCodeActionProvider(testCatalog(t)).Actions(doc, testURI, diags)
	return actions, doc
}

func editsOf(t *testing.T, action protocol.CodeAction) []protocol.TextEdit {
	t.Helper()
	if action.Edit == nil {
		t.Fatalf("action %q has no edit", action.Title)
	}
	edits, ok := action.Edit.Changes[uri.URI(testURI)]
	if !ok {
		t.Fatalf("action %q has no edit for the document", action.Title)
	}
	return edits
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"file.opn", "file.open", 1},
		{"file.open", "file.opn", 1},
		{"terminal.rn", "terminal.run", 1},
		{"kitten", "sitting", 3},
		{"file.open", "terminal.run", 11},
	}

	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.expected {
			t.Errorf("levenshtein(%q, %q): expected %d, got %d", test.a, test.b, test.expected, got)
		}
	}
}

func TestActions_TypoFix(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: file.opn",
		"path: a.md",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected exactly one fix, got %d", len(actions))
	}
	fix := actions[0]
	if fix.Title != "Change to 'file.open'" {
		t.Errorf("unexpected title: %q", fix.Title)
	}
	if fix.Kind != protocol.QuickFix {
		t.Errorf("expected a quick fix, got %v", fix.Kind)
	}
	if !fix.IsPreferred {
		t.Error("a lone candidate must be preferred")
	}
	if len(fix.Diagnostics) != 1 {
		t.Errorf("expected the source diagnostic attached, got %d", len(fix.Diagnostics))
	}

	edits := editsOf(t, fix)
	if len(edits) != 1 || edits[0].NewText != "file.open" {
		t.Fatalf("unexpected edits: %+v", edits)
	}
	// the replacement covers the typo text on the type line
	if edits[0].Range.Start.Line != 1 || edits[0].Range.Start.Character != 6 || edits[0].Range.End.Character != 14 {
		t.Errorf("unexpected edit range: %+v", edits[0].Range)
	}
}

func TestActions_TypoFixMultipleCandidates(t *testing.T) {
	// only "wait" is within distance two of "wai"
	actions, _ := actionsFor(t,
		"```action",
		"type: wai",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected one fix, got %d", len(actions))
	}
	if actions[0].Title != "Change to 'wait'" {
		t.Errorf("unexpected title: %q", actions[0].Title)
	}
}

func TestActions_NoTypoFixBeyondDistance(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: completely.wrong",
		"```",
	)

	if len(actions) != 0 {
		t.Errorf("expected no fixes for a distant identifier, got %d", len(actions))
	}
}

func TestActions_StepTypoFix(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: sequence",
		"steps:",
		"  - type: terminal.rn",
		"    command: ls",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected one fix, got %d", len(actions))
	}
	if actions[0].Title != "Change to 'terminal.run'" {
		t.Errorf("unexpected title: %q", actions[0].Title)
	}
	edits := editsOf(t, actions[0])
	if edits[0].Range.Start.Line != 3 {
		t.Errorf("expected the edit on the step line, got %+v", edits[0].Range)
	}
}

func TestActions_InsertMissingParam(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: file.open",
		"preview: true",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected one fix, got %d", len(actions))
	}
	fix := actions[0]
	if fix.Title != "Add parameter 'path'" {
		t.Errorf("unexpected title: %q", fix.Title)
	}

	edits := editsOf(t, fix)
	if len(edits) != 1 {
		t.Fatalf("expected one edit, got %d", len(edits))
	}
	edit := edits[0]
	if edit.NewText != "path: \n" {
		t.Errorf("unexpected insertion text: %q", edit.NewText)
	}
	// inserted one line after the last parameter
	if edit.Range.Start.Line != 3 || edit.Range.Start.Character != 0 {
		t.Errorf("unexpected insertion point: %+v", edit.Range)
	}
	if edit.Range.Start != edit.Range.End {
		t.Error("expected a zero-width insertion range")
	}
}

func TestActions_InsertMissingParamAfterType(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: terminal.run",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected one fix, got %d", len(actions))
	}
	edit := editsOf(t, actions[0])[0]
	if edit.NewText != "command: \n" {
		t.Errorf("unexpected insertion text: %q", edit.NewText)
	}
	if edit.Range.Start.Line != 2 {
		t.Errorf("expected insertion after the type line, got %+v", edit.Range)
	}
}

func TestActions_InsertStepParam(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: sequence",
		"steps:",
		"  - type: debug.start",
		"    stopOnEntry: true",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected one fix, got %d", len(actions))
	}
	edit := editsOf(t, actions[0])[0]
	if edit.NewText != "    config: \n" {
		t.Errorf("expected step-indented insertion, got %q", edit.NewText)
	}
	// after the step's last parameter line
	if edit.Range.Start.Line != 5 {
		t.Errorf("unexpected insertion line: %+v", edit.Range)
	}
}

func TestActions_RemoveUnknownParam(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: file.open",
		"path: a.md",
		"bogus: x",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected one fix, got %d", len(actions))
	}
	fix := actions[0]
	if fix.Title != "Remove parameter 'bogus'" {
		t.Errorf("unexpected title: %q", fix.Title)
	}

	edit := editsOf(t, fix)[0]
	if edit.NewText != "" {
		t.Errorf("expected a pure deletion, got %q", edit.NewText)
	}
	// the whole line goes, including its newline
	if edit.Range.Start.Line != 3 || edit.Range.Start.Character != 0 {
		t.Errorf("unexpected deletion start: %+v", edit.Range)
	}
	if edit.Range.End.Line != 4 || edit.Range.End.Character != 0 {
		t.Errorf("unexpected deletion end: %+v", edit.Range)
	}
}

func TestActions_RemoveStepParam(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: sequence",
		"steps:",
		"  - type: terminal.run",
		"    command: ls",
		"    bogus: x",
		"```",
	)

	if len(actions) != 1 {
		t.Fatalf("expected one fix, got %d", len(actions))
	}
	edit := editsOf(t, actions[0])[0]
	if edit.Range.Start.Line != 5 || edit.Range.End.Line != 6 {
		t.Errorf("expected the step parameter line deleted, got %+v", edit.Range)
	}
}

func TestActions_MixedDiagnostics(t *testing.T) {
	actions, _ := actionsFor(t,
		"```action",
		"type: file.open",
		"bogus: x",
		"```",
	)

	// one insert for the missing path, one removal for bogus
	if len(actions) != 2 {
		t.Fatalf("expected two fixes, got %d", len(actions))
	}
	titles := []string{actions[0].Title, actions[1].Title}
	if titles[0] != "Add parameter 'path'" || titles[1] != "Remove parameter 'bogus'" {
		t.Errorf("unexpected fix titles: %v", titles)
	}
}
