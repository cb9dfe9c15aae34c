package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/scanner"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps command payloads.
const maxBodyBytes = 1 << 20

// Engine defines what the HTTP API needs from the Canopy engine.
type Engine interface {
	Documents(ctx context.Context) ([]string, error)
	View(ctx context.Context, docID string, fn func(*domain.Document) error) error
	ApplyAll(ctx context.Context, docID string, cmds []command.Command) ([]command.Result, error)
	Delete(ctx context.Context, docID string) error
	Subscribe(fn func(docID string, diff *domain.DocumentDiff))
}

// Server serves the document API.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the engine.
// Every persisted change is broadcast to the document's SSE subscribers.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	engine.Subscribe(func(docID string, diff *domain.DocumentDiff) {
		bytes, err := json.Marshal(diff)
		if err != nil {
			server.logger.Error("Failed to encode diff", "doc_id", docID, "err", err)
			return
		}
		server.Streams.Broadcast(docID, string(bytes))
	})

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", server.ListDocuments)
		r.Route("/{docID}", func(r chi.Router) {
			r.Get("/", server.GetDocument)
			r.Delete("/", server.DeleteDocument)
			r.Post("/commands", server.ApplyCommands)
			r.Get("/targets", server.GetTargets)
			r.Get("/validate", server.Validate)
			r.Get("/templates", server.ListTemplates)
			r.Get("/templates/{templateID}", server.GetTemplate)
			r.Get("/events", server.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "canopy-http",
		"version": strings.TrimSpace(canopy.Version),
	})
}

// ListDocuments handles the GET /documents request.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Documents(r.Context())
	if err != nil {
		s.writeError(w, "List documents", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"documents": ids})
}

// view loads the path's document and hands it to fn, writing errors itself.
func (s *Server) view(w http.ResponseWriter, r *http.Request, op string, fn func(*domain.Document)) {
	docID := chi.URLParam(r, "docID")
	err := s.Engine.View(r.Context(), docID, func(doc *domain.Document) error {
		fn(doc)
		return nil
	})
	if err != nil {
		s.writeError(w, op, err)
	}
}

// GetDocument handles the GET /documents/{docID} request.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, "Get document", func(doc *domain.Document) {
		s.writeJSON(w, http.StatusOK, doc)
	})
}

// TargetsResponse lists the ids kept out of the normal flow.
type TargetsResponse struct {
	Popups    []string `json:"popups"`
	MegaMenus []string `json:"megaMenus"`
}

// GetTargets handles the GET /documents/{docID}/targets request.
func (s *Server) GetTargets(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, "Scan targets", func(doc *domain.Document) {
		t := scanner.Scan(doc.RootNodes)
		s.writeJSON(w, http.StatusOK, TargetsResponse{Popups: t.PopupIDs(), MegaMenus: t.MegaMenuIDs()})
	})
}

// Validate handles the GET /documents/{docID}/validate request.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, "Validate", func(doc *domain.Document) {
		report := validator.ValidateDocument(doc)
		if report.Issues == nil {
			report.Issues = []validator.Issue{}
		}
		s.writeJSON(w, http.StatusOK, report)
	})
}

// ListTemplates handles the GET /documents/{docID}/templates request.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, "List templates", func(doc *domain.Document) {
		s.writeJSON(w, http.StatusOK, map[string][]domain.Template{"templates": doc.Templates})
	})
}

// GetTemplate handles the GET /documents/{docID}/templates/{templateID} request.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	s.view(w, r, "Get template", func(doc *domain.Document) {
		for _, tpl := range doc.Templates {
			if tpl.TemplateID == templateID {
				s.writeJSON(w, http.StatusOK, tpl)
				return
			}
		}
		s.writeError(w, "Get template", fmt.Errorf("%s: %w", templateID, domain.ErrTemplateNotFound))
	})
}

// DeleteDocument handles the DELETE /documents/{docID} request.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), chi.URLParam(r, "docID")); err != nil {
		s.writeError(w, "Delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommandsResponse reports the commands applied, and the error that stopped the batch.
type CommandsResponse struct {
	Results []command.Result `json:"results"`
	Error   string           `json:"error,omitempty"`
}

// ApplyCommands handles the POST /documents/{docID}/commands request.
// The body is one command, a list of commands, or {"commands": [...]}.
func (s *Server) ApplyCommands(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmds, err := command.DecodeJSON(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		s.logger.Warn("ApplyCommands: Invalid request body", "err", err)
		return
	}

	results, err := s.Engine.ApplyAll(r.Context(), docID, cmds)
	if results == nil {
		results = []command.Result{}
	}
	resp := CommandsResponse{Results: results}
	if err != nil {
		resp.Error = err.Error()
		s.logger.Warn("ApplyCommands: Command rejected", "doc_id", docID, "err", err)
		s.writeJSON(w, statusFor(err), resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // DocID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

func (sm *StreamManager) Subscribe(docID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[docID]; !ok {
		sm.subscribers[docID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[docID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[docID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, docID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(docID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[docID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "doc_id", docID)
		}
	}
}

// Subscribers reports how many streams follow docID.
func (sm *StreamManager) Subscribers(docID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[docID])
}

// SubscribeEvents handles the GET /documents/{docID}/events request (SSE).
// The optional "watch" query (page, templates) drops diffs that touch neither.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	docID := chi.URLParam(r, "docID")
	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(docID)
	defer cancel()
	s.logger.Info("SSE: Subscribing to document updates", "doc_id", docID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "doc_id", docID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !wanted(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func wanted(msg string, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	var diff domain.DocumentDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "page":
			if len(diff.Added) > 0 || len(diff.Removed) > 0 || len(diff.Changed) > 0 {
				return true
			}
		case "templates":
			if len(diff.TemplatesAdded) > 0 || len(diff.TemplatesRemoved) > 0 || len(diff.TemplatesChanged) > 0 {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, command.ErrUnknownOp),
		errors.Is(err, command.ErrMissingField),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrLeafChildren),
		errors.Is(err, domain.ErrNotGlobal),
		errors.Is(err, domain.ErrNotEditingMaster),
		errors.Is(err, domain.ErrTemplateRoot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
