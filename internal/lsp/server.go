// Package lsp serves the Analyzer over the Language Server Protocol.
package lsp

import (
	"context"

	"github.com/op/go-logging"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/config"
	"github.com/jward/shellsense/internal/dispatch"
)

var log = logging.MustGetLogger("lsp")

const serverName = "shellsense"

// Options configures a Server.
type Options struct {
	// ConfigPath overrides the workspace config file location.
	ConfigPath string
	// Analyzer options are applied after those derived from the config.
	Analyzer []shellsense.Option
	Version  string
}

// Server holds the protocol handler and the workspace state behind it.
// Fields below dispatch are only touched inside dispatch.Do.
type Server struct {
	handler  protocol.Handler
	dispatch *dispatch.Dispatcher
	opts     Options

	root     string
	reserved bool
	open     map[string]bool
	onDisk   map[string]bool
}

// NewServer creates a Server with an empty workspace. The workspace is
// scanned when the client sends initialize with a root.
func NewServer(opts Options) (*Server, error) {
	a, err := shellsense.New(opts.Analyzer...)
	if err != nil {
		return nil, err
	}
	s := &Server{
		dispatch: dispatch.New(a),
		opts:     opts,
		reserved: true,
		open:     make(map[string]bool),
		onDisk:   make(map[string]bool),
	}
	s.handler = protocol.Handler{
		Initialize:                    s.initialize,
		Initialized:                   s.initialized,
		Shutdown:                      s.shutdown,
		SetTrace:                      s.setTrace,
		TextDocumentDidOpen:           s.didOpen,
		TextDocumentDidChange:         s.didChange,
		TextDocumentDidClose:          s.didClose,
		TextDocumentDefinition:        s.definition,
		TextDocumentReferences:        s.references,
		TextDocumentDocumentHighlight: s.documentHighlight,
		TextDocumentDocumentSymbol:    s.documentSymbol,
		WorkspaceSymbol:               s.workspaceSymbol,
		TextDocumentCompletion:        s.completion,
	}
	return s, nil
}

// Handler returns the glsp handler.
func (s *Server) Handler() *protocol.Handler {
	return &s.handler
}

// RunStdio serves the protocol on stdin/stdout until the client exits.
func (s *Server) RunStdio() error {
	defer s.dispatch.Close()
	return glspserver.NewServer(&s.handler, serverName, false).RunStdio()
}

// Close releases the workspace.
func (s *Server) Close() {
	s.dispatch.Close()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (interface{}, error) {
	root := rootPath(params)
	if root != "" {
		s.loadWorkspace(root)
	}

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull

	var version *string
	if s.opts.Version != "" {
		version = &s.opts.Version
	}
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: version,
		},
	}, nil
}

// loadWorkspace scans root. Failures are logged and leave an empty
// workspace, so open documents still get analyzed.
func (s *Server) loadWorkspace(root string) {
	cfg, err := config.Load(root, s.opts.ConfigPath)
	if err != nil {
		log.Warningf("%s; using defaults", err)
		cfg = config.Default()
	}
	opts := append(cfg.AnalyzerOptions(), s.opts.Analyzer...)

	a, err := shellsense.FromRoot(context.Background(), root, opts...)
	if err != nil {
		log.Errorf("workspace scan of %s failed: %s", root, err)
		return
	}

	s.dispatch.Replace(a)
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		s.root = root
		s.reserved = cfg.IncludeReservedWords()
		s.onDisk = make(map[string]bool)
		for _, uri := range a.Documents() {
			s.onDisk[uri] = true
		}
		log.Infof("indexed %d script(s) under %s", len(s.onDisk), root)
	})
}

func rootPath(params *protocol.InitializeParams) string {
	if params.RootURI != nil && *params.RootURI != "" {
		return shellsense.URIToPath(*params.RootURI)
	}
	if params.RootPath != nil {
		return *params.RootPath
	}
	if len(params.WorkspaceFolders) > 0 {
		return shellsense.URIToPath(params.WorkspaceFolders[0].URI)
	}
	return ""
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
