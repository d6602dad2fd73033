package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"simple word", "push int", protocol.Position{Line: 0, Character: 8}, "int"},
		{"at start", "pu", protocol.Position{Line: 0, Character: 2}, "pu"},
		{"empty line", "", protocol.Position{Line: 0, Character: 0}, ""},
		{"multi line", "push int8(1)\nexit\ndu", protocol.Position{Line: 2, Character: 2}, "du"},
		{"after paren", "push int8(", protocol.Position{Line: 0, Character: 10}, ""},
		{"cursor at beginning", "store", protocol.Position{Line: 0, Character: 0}, ""},
		{"line beyond document", "exit", protocol.Position{Line: 5, Character: 0}, ""},
		{"column beyond line", "exit", protocol.Position{Line: 0, Character: 40}, "exit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPrefix(tt.text, tt.pos); got != tt.want {
				t.Errorf("extractPrefix = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"opcode", "push int8(72)", protocol.Position{Line: 0, Character: 2}, "push"},
		{"end of word", "push int8(72)", protocol.Position{Line: 0, Character: 4}, "push"},
		{"type name", "push int8(72)", protocol.Position{Line: 0, Character: 6}, "int8"},
		{"literal digits", "push int8(72)", protocol.Position{Line: 0, Character: 11}, "72"},
		{"empty line", "", protocol.Position{Line: 0, Character: 0}, ""},
		{"multi line", "noop\nbigdecimal", protocol.Position{Line: 1, Character: 3}, "bigdecimal"},
		{"line beyond document", "exit", protocol.Position{Line: 3, Character: 0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractWord(tt.text, tt.pos); got != tt.want {
				t.Errorf("extractWord = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBoolPtr(t *testing.T) {
	if p := boolPtr(true); p == nil || !*p {
		t.Error("boolPtr(true) should point to true")
	}
	if p := boolPtr(false); p == nil || *p {
		t.Error("boolPtr(false) should point to false")
	}
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func labels(items []protocol.CompletionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

func TestLSP_CompleteOpcodes(t *testing.T) {
	items := complete("d", protocol.Position{Line: 0, Character: 1})
	got := labels(items)
	if strings.Join(got, ",") != "dup,div,dump" {
		t.Errorf("completions for d = %v, want [dup div dump]", got)
	}
	for _, item := range items {
		if item.Kind == nil || *item.Kind != protocol.CompletionItemKindKeyword {
			t.Errorf("%s completion should have Kind=Keyword", item.Label)
		}
	}
}

func TestLSP_CompleteAllOpcodesOnEmptyLine(t *testing.T) {
	items := complete("exit\n", protocol.Position{Line: 1, Character: 0})
	if len(items) != 17 {
		t.Errorf("got %d completions on an empty line, want 17", len(items))
	}
}

func TestLSP_CompleteTypeNames(t *testing.T) {
	items := complete("push i", protocol.Position{Line: 0, Character: 6})
	got := labels(items)
	if strings.Join(got, ",") != "int8,int16,int32" {
		t.Errorf("completions = %v, want [int8 int16 int32]", got)
	}
	if items[0].InsertText == nil || *items[0].InsertText != "int8(" {
		t.Errorf("insert text = %v, want int8(", items[0].InsertText)
	}

	items = complete("  ASSERT ", protocol.Position{Line: 0, Character: 9})
	if len(items) != 6 {
		t.Errorf("got %d type completions after assert, want 6", len(items))
	}
}

func TestLSP_CompleteNothing(t *testing.T) {
	tests := []struct {
		name string
		text string
		col  uint32
	}{
		{"register operand", "load ", 5},
		{"no operand", "exit ", 5},
		{"unknown opcode", "jump ", 5},
		{"in comment", "; pu", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if items := complete(tt.text, protocol.Position{Line: 0, Character: tt.col}); len(items) != 0 {
				t.Errorf("completions = %v, want none", labels(items))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Hover
// ---------------------------------------------------------------------------

func hoverText(t *testing.T, word string) string {
	t.Helper()
	h := hover(word)
	if h == nil {
		t.Fatalf("hover for %q should return a result", word)
	}
	mc, ok := h.Contents.(protocol.MarkupContent)
	if !ok {
		t.Fatal("hover contents should be MarkupContent")
	}
	if mc.Kind != protocol.MarkupKindMarkdown {
		t.Errorf("hover markup kind = %q, want %q", mc.Kind, protocol.MarkupKindMarkdown)
	}
	return mc.Value
}

func TestLSP_HoverOpcode(t *testing.T) {
	text := hoverText(t, "DIV")
	for _, want := range []string{"**div**", "a / b", "pops 2, pushes 1", "0x53"} {
		if !strings.Contains(text, want) {
			t.Errorf("hover = %q, missing %q", text, want)
		}
	}
	if text := hoverText(t, "store"); !strings.Contains(text, "register 0-15") {
		t.Errorf("store hover = %q", text)
	}
	if text := hoverText(t, "clear"); !strings.Contains(text, "pops all") {
		t.Errorf("clear hover = %q", text)
	}
}

func TestLSP_HoverTypeName(t *testing.T) {
	text := hoverText(t, "bigdecimal")
	if !strings.Contains(text, "34 significant digits") {
		t.Errorf("hover = %q", text)
	}
}

func TestLSP_HoverUnknownWord(t *testing.T) {
	if h := hover("frobnicate"); h != nil {
		t.Error("hover for unknown word should return nil")
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestLSP_DiagnosticsClean(t *testing.T) {
	if diags := diagnostics("push int8(72)\nprint\nexit\n"); len(diags) != 0 {
		t.Errorf("diagnostics = %+v, want none", diags)
	}
}

func TestLSP_DiagnosticsReportFailingLines(t *testing.T) {
	text := "push int8(1)\npush int9(2)\nexit\nfrob\r\n"
	diags := diagnostics(text)
	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(diags))
	}

	tests := []struct {
		line  protocol.UInteger
		width protocol.UInteger
	}{
		{1, 12},
		{3, 4},
	}
	for i, tt := range tests {
		d := diags[i]
		if d.Range.Start.Line != tt.line || d.Range.End.Line != tt.line {
			t.Errorf("diagnostic %d on line %d, want %d", i, d.Range.Start.Line, tt.line)
		}
		if d.Range.End.Character != tt.width {
			t.Errorf("diagnostic %d ends at %d, want %d", i, d.Range.End.Character, tt.width)
		}
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
			t.Errorf("diagnostic %d should be an error", i)
		}
		if d.Message == "" {
			t.Errorf("diagnostic %d has no message", i)
		}
	}
}

// ---------------------------------------------------------------------------
// LSP document synchronization state
// ---------------------------------------------------------------------------

func TestLSP_DocumentStore(t *testing.T) {
	lsp := NewLSP()

	lsp.mu.Lock()
	lsp.docs["file:///test.vasm"] = "exit"
	lsp.mu.Unlock()

	text, ok := lsp.document("file:///test.vasm")
	if !ok || text != "exit" {
		t.Errorf("document = %q, %v", text, ok)
	}

	lsp.mu.Lock()
	delete(lsp.docs, "file:///test.vasm")
	lsp.mu.Unlock()

	if _, ok := lsp.document("file:///test.vasm"); ok {
		t.Error("document should be removed after close")
	}
}
