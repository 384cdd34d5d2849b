package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/driver"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/symbols"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// documentState holds one open document's text and the last analysis run
// over it — re-run on every didOpen/didChange, never incrementally, since
// the Pipeline stages are already cheap enough for the script sizes Pine
// targets.
type documentState struct {
	text string
	ctx  *pineResult
}

// pineResult is the subset of a pipeline.Context a document needs kept
// around for hover/completion: the parsed tree, the resolution, and every
// diagnostic collected.
type pineResult struct {
	program *ast.Program
	res     *symbols.Resolution
	typeMap map[ast.Node]types.Type
	errs    []*diagnostics.Error
}

// Server is the language server's request loop: Content-Length framed
// JSON-RPC over stdio, built only out of package driver's Parse/Analyse
// surface. It performs no analysis of its own.
type Server struct {
	documents map[string]*documentState
	mu        sync.RWMutex
	writer    io.Writer
	libInfo   library.LibInfo
	sessionID uuid.UUID
}

func NewServer(writer io.Writer, libInfo library.LibInfo) *Server {
	if writer == nil {
		writer = os.Stdout
	}
	return &Server{
		documents: make(map[string]*documentState),
		writer:    writer,
		libInfo:   libInfo,
		sessionID: uuid.New(),
	}
}

func (s *Server) Start() {
	reader := bufio.NewReader(os.Stdin)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("error reading header: %v", err)
			}
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "Content-Length: ") {
			continue
		}
		contentLength, err := strconv.Atoi(strings.TrimPrefix(line, "Content-Length: "))
		if err != nil {
			log.Printf("error parsing Content-Length: %v", err)
			continue
		}

		for {
			sep, err := reader.ReadString('\n')
			if err != nil {
				log.Printf("error reading separator: %v", err)
				return
			}
			if strings.TrimRight(sep, "\r\n") == "" {
				break
			}
		}

		content := make([]byte, contentLength)
		if _, err := io.ReadFull(reader, content); err != nil {
			log.Printf("error reading content: %v", err)
			break
		}

		if err := s.handleMessage(content); err != nil {
			log.Printf("error handling message: %v", err)
		}
	}
}

func (s *Server) handleMessage(content []byte) error {
	var base struct {
		Jsonrpc string      `json:"jsonrpc"`
		ID      interface{} `json:"id,omitempty"`
		Method  string      `json:"method"`
		Params  interface{} `json:"params,omitempty"`
	}
	if err := json.Unmarshal(content, &base); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if base.ID != nil {
		return s.handleRequest(base.ID, base.Method, content)
	}
	return s.handleNotification(base.Method, content)
}

func (s *Server) handleRequest(id interface{}, method string, content []byte) error {
	switch method {
	case "initialize":
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: InitializeResult{
			Capabilities: ServerCapabilities{
				TextDocumentSync: 1,
				HoverProvider:    true,
				CompletionProvider: &CompletionOptions{
					TriggerCharacters: []string{"."},
				},
			},
		}})

	case "shutdown":
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: nil})

	case "textDocument/hover":
		var req RequestMessage
		var params HoverParams
		req.Params = &params
		if err := json.Unmarshal(content, &req); err != nil {
			return err
		}
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: s.hover(params)})

	case "textDocument/completion":
		var req RequestMessage
		var params CompletionParams
		req.Params = &params
		if err := json.Unmarshal(content, &req); err != nil {
			return err
		}
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: s.completion(params)})

	default:
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Error: &RPCError{
			Code: -32601, Message: fmt.Sprintf("method not found: %s", method),
		}})
	}
}

func (s *Server) handleNotification(method string, content []byte) error {
	switch method {
	case "initialized":
		return nil

	case "textDocument/didOpen":
		var n NotificationMessage
		var params DidOpenTextDocumentParams
		n.Params = &params
		if err := json.Unmarshal(content, &n); err != nil {
			return err
		}
		return s.updateDocument(params.TextDocument.URI, params.TextDocument.Text)

	case "textDocument/didChange":
		var n NotificationMessage
		var params DidChangeTextDocumentParams
		n.Params = &params
		if err := json.Unmarshal(content, &n); err != nil {
			return err
		}
		if len(params.ContentChanges) == 0 {
			return nil
		}
		return s.updateDocument(params.TextDocument.URI, params.ContentChanges[len(params.ContentChanges)-1].Text)

	case "textDocument/didClose":
		var n NotificationMessage
		var params DidCloseTextDocumentParams
		n.Params = &params
		if err := json.Unmarshal(content, &n); err != nil {
			return err
		}
		s.mu.Lock()
		delete(s.documents, params.TextDocument.URI)
		s.mu.Unlock()
		return nil

	case "exit":
		os.Exit(0)
		return nil

	default:
		return nil
	}
}

// updateDocument re-runs parse and analyse on every didOpen/didChange so
// published diagnostics and hover/completion stay current.
func (s *Server) updateDocument(uri, text string) error {
	ctx := driver.Analyse(uri, text, s.libInfo)

	result := &pineResult{program: ctx.AstRoot, typeMap: ctx.TypeMap, errs: ctx.Errors}
	if ctx.Resolution != nil {
		result.res = ctx.Resolution.(*symbols.Resolution)
	}

	s.mu.Lock()
	s.documents[uri] = &documentState{text: text, ctx: result}
	s.mu.Unlock()

	return s.publishDiagnostics(uri, result.errs)
}

func (s *Server) publishDiagnostics(uri string, errs []*diagnostics.Error) error {
	diags := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		diags = append(diags, Diagnostic{
			Range: Range{
				Start: Position{Line: e.Range.Start.Line - 1, Character: e.Range.Start.Column - 1},
				End:   Position{Line: e.Range.End.Line - 1, Character: e.Range.End.Column - 1},
			},
			Severity: severityFor(e.Severity),
			Code:     e.Code,
			Message:  e.Message,
			Source:   "pine",
		})
	}
	return s.sendNotification(NotificationMessage{
		Jsonrpc: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params:  PublishDiagnosticsParams{URI: uri, Diagnostics: diags},
	})
}

// severityFor maps a diagnostics.Severity onto the LSP's own four-level
// scale. Parse, analysis, and runtime diagnostics are all editor-blocking
// defects in the script the user is editing, so they map to Error; an
// internal invariant failure is a defect in the evaluator itself rather
// than in the script, so it is surfaced as a Warning instead of claiming
// the user's source is at fault.
func severityFor(sev diagnostics.Severity) DiagnosticSeverity {
	switch sev {
	case diagnostics.SeverityParse, diagnostics.SeverityAnalysis, diagnostics.SeverityRuntime:
		return SeverityError
	case diagnostics.SeverityInternal:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// identAt returns the *ast.Identifier (among every identifier the analyser
// resolved) whose range contains pos, and the type the analyser inferred
// for it. res.Refs and res.Decls together cover every identifier Pine's
// analyser ever looks at, so this search need not walk the whole tree
// itself.
func identAt(res *symbols.Resolution, typeMap map[ast.Node]types.Type, pos Position) (*ast.Identifier, types.Type, bool) {
	line, col := pos.Line+1, pos.Character+1
	check := func(ident *ast.Identifier) (*ast.Identifier, types.Type, bool) {
		r := ident.GetRange()
		if r.Start.Line == line && col >= r.Start.Column && col <= r.End.Column {
			return ident, typeMap[ident], true
		}
		return nil, nil, false
	}
	for ident := range res.Refs {
		if id, t, ok := check(ident); ok {
			return id, t, true
		}
	}
	for ident := range res.Decls {
		if id, t, ok := check(ident); ok {
			return id, t, true
		}
	}
	return nil, nil, false
}

func (s *Server) hover(params HoverParams) *Hover {
	s.mu.RLock()
	doc, ok := s.documents[params.TextDocument.URI]
	s.mu.RUnlock()
	if !ok || doc.ctx.res == nil {
		return nil
	}

	ident, t, found := identAt(doc.ctx.res, doc.ctx.typeMap, params.Position)
	if !found {
		return nil
	}
	typeName := "unknown"
	if t != nil {
		typeName = t.String()
	}
	return &Hover{Contents: MarkupContent{
		Kind:  "plaintext",
		Value: fmt.Sprintf("%s: %s", ident.Name, typeName),
	}}
}

func (s *Server) completion(params CompletionParams) *CompletionList {
	items := make([]CompletionItem, 0, 32)
	seen := make(map[string]bool)

	for _, b := range s.libInfo.Builtins.All() {
		if seen[b.Name] {
			continue
		}
		seen[b.Name] = true
		items = append(items, CompletionItem{Label: b.Name, Kind: CompletionItemFunction, Detail: "built-in"})
	}

	s.mu.RLock()
	doc, ok := s.documents[params.TextDocument.URI]
	s.mu.RUnlock()
	if ok && doc.ctx.res != nil {
		for ident := range doc.ctx.res.Decls {
			if seen[ident.Name] {
				continue
			}
			seen[ident.Name] = true
			items = append(items, CompletionItem{Label: ident.Name, Kind: CompletionItemVariable})
		}
	}

	return &CompletionList{IsIncomplete: false, Items: items}
}

func (s *Server) sendResponse(r ResponseMessage) error   { return s.sendMessage(r) }
func (s *Server) sendNotification(n NotificationMessage) error { return s.sendMessage(n) }

func (s *Server) sendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}
