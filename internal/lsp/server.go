package lsp

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

const serverName = "executable-talk-ls"

// Server owns the per-document state and answers every analysis request
// synchronously against the latest cached model.
type Server struct {
	conn    jsonrpc2.Conn
	logger  *zap.Logger
	catalog *schema.Catalog

	documents  *DocumentManager
	debouncer  *Debouncer
	workspace  *WorkspaceIndex
	completion *CompletionProvider
	diagnostic *DiagnosticsProvider
	actions    *CodeActionProvider
	hover      *HoverProvider
	definition *DefinitionProvider
}

// NewServer wires the analysis engines over the action catalog.
func NewServer(logger *zap.Logger, catalog *schema.Catalog, debounce time.Duration) *Server {
	workspace := NewWorkspaceIndex()
	return &Server{
		logger:     logger,
		catalog:    catalog,
		documents:  NewDocumentManager(),
		debouncer:  NewDebouncer(debounce),
		workspace:  workspace,
		completion: NewCompletionProvider(catalog, logger),
		diagnostic: NewDiagnosticsProvider(catalog),
		actions:    NewCodeActionProvider(catalog),
		hover:      NewHoverProvider(catalog),
		definition: NewDefinitionProvider(catalog, workspace),
	}
}

// SetConnection gives the server its channel for notifications and the
// custom requests it issues to the client.
func (s *Server) SetConnection(conn jsonrpc2.Conn) {
	s.conn = conn
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("initializing", zap.String("server", serverName))

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{":", "/", " ", "\n"},
			},
			HoverProvider:          true,
			DocumentSymbolProvider: true,
			FoldingRangeProvider:   true,
			CodeActionProvider:     true,
			DefinitionProvider:     true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: "0.1.0",
		},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s.logger.Info("server initialized")
	if s.conn != nil {
		go s.workspace.Populate(context.Background(), s.conn, s.logger)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	s.debouncer.Stop()
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("document opened", zap.String("uri", string(uri)))

	s.documents.Open(uri, params.TextDocument.Version, params.TextDocument.Text)
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	uri := params.TextDocument.URI
	s.logger.Debug("document changed", zap.String("uri", string(uri)))

	// sync is full: the last change carries the entire new text
	last := params.ContentChanges[len(params.ContentChanges)-1]
	s.documents.Update(uri, params.TextDocument.Version, last.Text)
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("document closed", zap.String("uri", string(uri)))

	s.debouncer.Cancel(uri)
	s.documents.Close(uri)
	return nil
}

// scheduleDiagnostics (re)arms the per-document debounce timer. Once the
// timer fires the pass runs to completion against whatever content is
// latest by then.
func (s *Server) scheduleDiagnostics(uri protocol.DocumentURI) {
	s.debouncer.Schedule(uri, func() {
		doc, ok := s.documents.Get(uri)
		if !ok {
			return
		}
		diagnostics := s.diagnostic.Compute(doc)
		s.publishDiagnostics(uri, diagnostics)
	})
}

func (s *Server) publishDiagnostics(uri protocol.DocumentURI, diagnostics []protocol.Diagnostic) {
	if s.conn == nil {
		return
	}
	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}
	if err := s.conn.Notify(context.Background(), protocol.MethodTextDocumentPublishDiagnostics, params); err != nil {
		s.logger.Warn("failed to publish diagnostics", zap.String("uri", string(uri)), zap.Error(err))
	}
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	items := s.completion.Completions(doc, params.Position)
	if items == nil {
		return nil, nil
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.hover.Hover(doc, params.Position), nil
}

func (s *Server) DocumentSymbol(ctx context.Context, params *protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return DocumentSymbols(doc), nil
}

func (s *Server) FoldingRange(ctx context.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return FoldingRanges(doc), nil
}

func (s *Server) CodeAction(ctx context.Context, params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.actions.Actions(doc, params.TextDocument.URI, params.Context.Diagnostics), nil
}

func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.definition.Definition(doc, params.Position), nil
}

// Handler dispatches JSON-RPC requests onto the server methods.
func (s *Server) Handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("request", zap.String("method", req.Method()))

		switch req.Method() {
		case "initialize":
			var params protocol.InitializeParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Initialize(ctx, &params)
			return reply(ctx, result, err)

		case "initialized":
			var params protocol.InitializedParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.Initialized(ctx, &params))

		case "shutdown":
			return reply(ctx, nil, s.Shutdown(ctx))

		case "exit":
			return nil

		case "textDocument/didOpen":
			var params protocol.DidOpenTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidOpen(ctx, &params))

		case "textDocument/didChange":
			var params protocol.DidChangeTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidChange(ctx, &params))

		case "textDocument/didClose":
			var params protocol.DidCloseTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidClose(ctx, &params))

		case "textDocument/completion":
			var params protocol.CompletionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Completion(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/hover":
			var params protocol.HoverParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Hover(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/documentSymbol":
			var params protocol.DocumentSymbolParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.DocumentSymbol(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/foldingRange":
			var params protocol.FoldingRangeParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.FoldingRange(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/codeAction":
			var params protocol.CodeActionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.CodeAction(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/definition":
			var params protocol.DefinitionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Definition(ctx, &params)
			return reply(ctx, result, err)

		default:
			return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
		}
	}
}
