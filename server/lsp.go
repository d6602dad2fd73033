package server

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/value"
)

const lspName = "stackvm-lsp"

// kindDocs describes each value type for hover.
var kindDocs = map[value.Kind]string{
	value.KindInt8:    "8-bit signed integer. The only type print accepts.",
	value.KindInt16:   "16-bit signed integer.",
	value.KindInt32:   "32-bit signed integer.",
	value.KindFloat32: "32-bit IEEE-754 binary float.",
	value.KindFloat64: "64-bit IEEE-754 binary float.",
	value.KindDecimal: fmt.Sprintf("Arbitrary-precision decimal. Division rounds to %d significant digits.", value.DecimalPrecision),
}

// LspServer provides editor features for stackvm assembly files.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("stackvm LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{" "},
	}

	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	log.Info("stackvm LSP shutting down")
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return complete(text, params.Position), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(word), nil
}

// complete offers opcode mnemonics for the first token of a line and type
// names for the operand of push and assert.
func complete(text string, pos protocol.Position) []protocol.CompletionItem {
	line, ok := lineBefore(text, pos)
	if !ok || strings.ContainsRune(line, ';') {
		return nil
	}
	prefix := extractPrefix(text, pos)
	lowerPrefix := strings.ToLower(prefix)
	head := strings.TrimSpace(line[:len(line)-len(prefix)])

	var items []protocol.CompletionItem

	if head == "" {
		for _, op := range bytecode.AllOpcodes() {
			info := bytecode.GetOpcodeInfo(op)
			if !strings.HasPrefix(info.Name, lowerPrefix) {
				continue
			}
			kind := protocol.CompletionItemKindKeyword
			detail := info.Doc
			name := info.Name
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &name,
			})
		}
		return items
	}

	op, ok := bytecode.LookupOpcode(head)
	if !ok || op.Operand() != bytecode.OperandValue {
		return nil
	}
	for _, k := range value.Kinds() {
		if !strings.HasPrefix(k.String(), lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindClass
		detail := kindDocs[k]
		insert := k.String() + "("
		items = append(items, protocol.CompletionItem{
			Label:      k.String(),
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &insert,
		})
	}
	return items
}

// hover documents an opcode mnemonic or a value type name.
func hover(word string) *protocol.Hover {
	var b strings.Builder

	if op, ok := bytecode.LookupOpcode(word); ok {
		info := bytecode.GetOpcodeInfo(op)
		fmt.Fprintf(&b, "**%s**", info.Name)
		switch info.Operand {
		case bytecode.OperandValue:
			b.WriteString(" `type(literal)`")
		case bytecode.OperandRegister:
			fmt.Fprintf(&b, " `register 0-%d`", bytecode.NumRegisters-1)
		}
		fmt.Fprintf(&b, "\n\n%s\n\n", info.Doc)
		if info.StackPop < 0 {
			fmt.Fprintf(&b, "Stack: pops all, pushes %d", info.StackPush)
		} else {
			fmt.Fprintf(&b, "Stack: pops %d, pushes %d", info.StackPop, info.StackPush)
		}
		fmt.Fprintf(&b, " (opcode 0x%02X)", byte(op))
	} else if k, ok := value.LookupKind(word); ok {
		fmt.Fprintf(&b, "**%s**\n\n%s", k, kindDocs[k])
	} else {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diags := diagnostics(text)
	if len(diags) > 0 {
		log.Debugf("%s: %d diagnostics", uri, len(diags))
	}
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// diagnostics assembles text and reports every bad line, spanning the
// whole line.
func diagnostics(text string) []protocol.Diagnostic {
	_, errs := asm.ParseAll("", []byte(text))
	lines := strings.Split(text, "\n")

	diags := make([]protocol.Diagnostic, 0, len(errs))
	for _, e := range errs {
		line := e.Line - 1
		width := 0
		if line >= 0 && line < len(lines) {
			width = len(strings.TrimRight(lines[line], "\r"))
		}
		severity := protocol.DiagnosticSeverityError
		source := lspName
		diags = append(diags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(line), Character: 0},
				End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(width)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  e.Err.Error(),
		})
	}
	return diags
}

// --- Text extraction helpers ---

// lineBefore returns the text of the cursor's line up to the cursor.
func lineBefore(text string, pos protocol.Position) (string, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", false
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	return line[:col], true
}

func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	line, ok := lineBefore(text, pos)
	if !ok {
		return ""
	}

	// Walk backwards from cursor to find the start of the identifier
	start := len(line)
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}
	return line[start:]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isWordChar(rune(line[end])) {
		end++
	}

	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
