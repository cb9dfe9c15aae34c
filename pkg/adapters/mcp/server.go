package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/scanner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DocumentsURI is the resource listing the stored document ids.
const DocumentsURI = "canopy://documents"

// CommandsResponse mirrors the HTTP API's reply to a command batch.
type CommandsResponse struct {
	Results []command.Result `json:"results" jsonschema_description:"One result per applied command"`
	Error   string           `json:"error,omitempty" jsonschema_description:"The error that stopped the batch, if any"`
}

// commandsOutputSchema describes CommandsResponse. Nodes nest, so the schema
// is written by hand with a recursive $ref instead of reflected from the types.
var commandsOutputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "results": {
      "type": "array",
      "description": "One result per applied command",
      "items": {
        "type": "object",
        "properties": {
          "op": {"type": "string"},
          "id": {"type": "string"},
          "scope": {"type": "string"},
          "selected": {"type": "string"},
          "diff": {"type": "object"},
          "template": {
            "type": "object",
            "properties": {
              "templateId": {"type": "string"},
              "name": {"type": "string"},
              "isGlobal": {"type": "boolean"},
              "rootNode": {"$ref": "#/$defs/node"}
            }
          }
        },
        "required": ["op", "scope"]
      }
    },
    "error": {"type": "string", "description": "The error that stopped the batch, if any"}
  },
  "required": ["results"],
  "$defs": {
    "node": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "type": {"type": "string"},
        "label": {"type": "string"},
        "attributes": {"type": "object"},
        "children": {"type": "array", "items": {"$ref": "#/$defs/node"}}
      },
      "required": ["id", "type"]
    }
  }
}`)

// Engine defines what the MCP server needs from the Canopy engine.
type Engine interface {
	Documents(ctx context.Context) ([]string, error)
	View(ctx context.Context, docID string, fn func(*domain.Document) error) error
	ApplyAll(ctx context.Context, docID string, cmds []command.Command) ([]command.Result, error)
}

// Server wraps the Canopy Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version), server.WithToolCapabilities(true)),
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mostly for tests and embedding.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
// It returns when ctx is cancelled or the listener fails.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	docID := mcp.WithString("doc_id", mcp.Required(), mcp.Description("The document ID"))

	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the stored document IDs."),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get the full document: page tree and template registry."),
		docID,
	), s.handleGetDocument)

	s.mcpServer.AddTool(mcp.NewTool("apply_command",
		mcp.WithDescription("Apply editor commands to a document. Missing documents are created."),
		docID,
		mcp.WithString("commands", mcp.Required(), mcp.Description(`JSON: one command, a list of commands, or {"commands": [...]}`)),
		mcp.WithRawOutputSchema(commandsOutputSchema),
	), mcp.NewStructuredToolHandler(s.handleApplyCommand))

	s.mcpServer.AddTool(mcp.NewTool("scan_targets",
		mcp.WithDescription("List the node IDs used as popup or mega-menu targets."),
		docID,
	), s.handleScanTargets)

	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the document's templates."),
		docID,
	), s.handleListTemplates)

	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Check a document for structural errors and warnings."),
		docID,
	), s.handleValidate)
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.engine.Documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return jsonResult(map[string][]string{"documents": ids})
}

func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, request, func(doc *domain.Document) any { return doc })
}

// TargetsResponse lists the ids kept out of the normal flow.
type TargetsResponse struct {
	Popups    []string `json:"popups"`
	MegaMenus []string `json:"megaMenus"`
}

func (s *Server) handleScanTargets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, request, func(doc *domain.Document) any {
		t := scanner.Scan(doc.RootNodes)
		return TargetsResponse{Popups: t.PopupIDs(), MegaMenus: t.MegaMenuIDs()}
	})
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, request, func(doc *domain.Document) any {
		templates := doc.Templates
		if templates == nil {
			templates = []domain.Template{}
		}
		return map[string][]domain.Template{"templates": templates}
	})
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, request, func(doc *domain.Document) any {
		report := validator.ValidateDocument(doc)
		if report.Issues == nil {
			report.Issues = []validator.Issue{}
		}
		return report
	})
}

// view loads the requested document and returns fn's value as JSON text.
func (s *Server) view(ctx context.Context, request mcp.CallToolRequest, fn func(*domain.Document) any) (*mcp.CallToolResult, error) {
	docID, _ := request.GetArguments()["doc_id"].(string)
	if docID == "" {
		return mcp.NewToolResultError("doc_id is required"), nil
	}

	var out any
	err := s.engine.View(ctx, docID, func(doc *domain.Document) error {
		out = fn(doc)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("document %q: %v", docID, err)), nil
	}
	return jsonResult(out)
}

// Handler methods for structured tools

func (s *Server) handleApplyCommand(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CommandsResponse, error) {
	docID, _ := args["doc_id"].(string)
	if docID == "" {
		return CommandsResponse{}, fmt.Errorf("doc_id: %w", domain.ErrInvalidID)
	}

	raw, _ := args["commands"].(string)
	cmds, err := command.DecodeJSON([]byte(raw))
	if err != nil {
		s.logger.Warn("MCP apply_command: Invalid commands", "doc_id", docID, "err", err)
		return CommandsResponse{}, fmt.Errorf("invalid commands: %w", err)
	}

	results, err := s.engine.ApplyAll(ctx, docID, cmds)
	if results == nil {
		results = []command.Result{}
	}
	resp := CommandsResponse{Results: results}
	if err != nil {
		s.logger.Warn("MCP apply_command: Command rejected", "doc_id", docID, "err", err)
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DocumentsURI, "Stored Documents",
		mcp.WithMIMEType("application/json"),
	), s.readDocuments)
}

func (s *Server) readDocuments(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.engine.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(map[string][]string{"documents": ids})

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DocumentsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
