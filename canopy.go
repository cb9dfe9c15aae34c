package canopy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/editor"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/tree"
)

// Engine is the high-level entry point for the Canopy library.
// It keeps one editor per open document and persists every change through
// a session manager, so edits to the same document are serialized.
type Engine struct {
	store        ports.DocumentStore
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	sessions     *session.Manager
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	gen          tree.IDGenerator
	historyLimit int

	mu      sync.Mutex
	editors map[string]*openDocument
	subs    []func(docID string, diff *domain.DocumentDiff)
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the document store (default: in-memory).
func WithStore(store ports.DocumentStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of documents across replicas.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every editor.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithIDGenerator sets the generator used for fresh node ids.
func WithIDGenerator(gen tree.IDGenerator) Option {
	return func(e *Engine) {
		e.gen = gen
	}
}

// WithHistoryLimit caps the undo history of each open document.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// New initializes a new Canopy Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		editors:      make(map[string]*openDocument),
		historyLimit: editor.DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.gen == nil {
		eng.gen = tree.UUIDGenerator{}
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)
	return eng
}

// Store returns the underlying document store.
func (e *Engine) Store() ports.DocumentStore {
	return e.store
}

// Subscribe registers fn to receive the diff of every persisted change.
func (e *Engine) Subscribe(fn func(docID string, diff *domain.DocumentDiff)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *Engine) newEditor(docID string) *editor.Editor {
	return editor.New(
		editor.WithIDGenerator(e.gen),
		editor.WithLifecycleHooks(e.hooks),
		editor.WithLogger(e.logger.With("doc_id", docID)),
		editor.WithHistoryLimit(e.historyLimit),
	)
}

// openDocument is a cached editor and the stored form it was last synced with.
// The stored form may differ from the editor's document when a middleware
// rewrites documents on save (redaction).
type openDocument struct {
	ed     *editor.Editor
	stored []byte
}

// editorFor returns the cached editor of docID, reloaded when the stored
// document moved on (another replica or a direct store write).
// Callers hold the document lock.
func (e *Engine) editorFor(stored *domain.Document, docID string) *editor.Editor {
	enc := encodeDocument(stored)

	e.mu.Lock()
	od, ok := e.editors[docID]
	if !ok {
		od = &openDocument{ed: e.newEditor(docID)}
		e.editors[docID] = od
	}
	e.mu.Unlock()

	if !ok || enc == nil || !bytes.Equal(od.stored, enc) {
		od.ed.Load(stored)
		od.stored = enc
	}
	return od.ed
}

// synced records what the store holds for docID after a save.
func (e *Engine) synced(ctx context.Context, docID string) {
	var enc []byte
	if doc, err := e.store.Load(ctx, docID); err == nil {
		enc = encodeDocument(doc)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if od, ok := e.editors[docID]; ok {
		od.stored = enc
	}
}

// encodeDocument returns the JSON form, so numbers that went through a
// JSON store (float64) still match the editor's in-memory values.
// It returns nil when the document cannot be encoded.
func encodeDocument(doc *domain.Document) []byte {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return b
}

// Open returns the stored document, creating an empty one when missing.
func (e *Engine) Open(ctx context.Context, docID string) (*domain.Document, error) {
	if docID == "" {
		return nil, fmt.Errorf("document id: %w", domain.ErrInvalidID)
	}
	return e.sessions.LoadOrCreate(ctx, docID)
}

// Edit runs fn against the document's editor under the document lock and
// persists the result when the document changed. A missing document starts empty.
// The diff is nil when nothing changed.
func (e *Engine) Edit(ctx context.Context, docID string, fn func(*editor.Editor) error) (*domain.DocumentDiff, error) {
	if docID == "" {
		return nil, fmt.Errorf("document id: %w", domain.ErrInvalidID)
	}

	var diff *domain.DocumentDiff
	err := e.sessions.WithLock(ctx, docID, func(ctx context.Context) error {
		stored, err := e.loadOrNew(ctx, docID)
		if err != nil {
			return err
		}

		ed := e.editorFor(stored, docID)
		before := ed.Document()
		fnErr := fn(ed)

		after := ed.Document()
		diff = domain.Diff(before, after)
		if diff == nil {
			return fnErr
		}
		if err := e.store.Save(ctx, docID, after); err != nil {
			// Drop the cached editor; the next edit reloads from the store.
			e.forget(docID)
			diff = nil
			return fmt.Errorf("failed to save document %s: %w", docID, err)
		}
		e.synced(ctx, docID)
		return fnErr
	})

	if diff != nil {
		e.publish(docID, diff)
	}
	return diff, err
}

// View runs fn against a read-only copy of the document.
func (e *Engine) View(ctx context.Context, docID string, fn func(*domain.Document) error) error {
	doc, err := e.sessions.Load(ctx, docID)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Apply runs one command against the document.
func (e *Engine) Apply(ctx context.Context, docID string, cmd command.Command) (command.Result, error) {
	var res command.Result
	_, err := e.Edit(ctx, docID, func(ed *editor.Editor) error {
		var err error
		res, err = command.Apply(ed, cmd)
		return err
	})
	return res, err
}

// ApplyAll runs cmds in order and stops at the first error.
// Commands applied before the error stay applied and persisted.
func (e *Engine) ApplyAll(ctx context.Context, docID string, cmds []command.Command) ([]command.Result, error) {
	var results []command.Result
	_, err := e.Edit(ctx, docID, func(ed *editor.Editor) error {
		var err error
		results, err = command.ApplyAll(ed, cmds)
		return err
	})
	return results, err
}

// Delete removes the document and forgets its editor.
func (e *Engine) Delete(ctx context.Context, docID string) error {
	err := e.sessions.Delete(ctx, docID)
	e.forget(docID)
	return err
}

// Documents lists the stored document ids, sorted.
func (e *Engine) Documents(ctx context.Context) ([]string, error) {
	ids, err := e.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// ExportTemplates writes the document's templates to lib.
func (e *Engine) ExportTemplates(ctx context.Context, docID string, lib ports.TemplateLibrary) (int, error) {
	var n int
	err := e.View(ctx, docID, func(doc *domain.Document) error {
		n = len(doc.Templates)
		return lib.Export(ctx, doc.Templates)
	})
	return n, err
}

// ImportTemplates merges every template of lib into the document.
// Templates with an existing id replace the document's version.
func (e *Engine) ImportTemplates(ctx context.Context, docID string, lib ports.TemplateLibrary) (int, error) {
	templates, err := lib.Import(ctx)
	if err != nil {
		return 0, err
	}
	_, err = e.Edit(ctx, docID, func(ed *editor.Editor) error {
		doc := ed.Document()
		for _, tpl := range templates {
			replaced := false
			for i := range doc.Templates {
				if doc.Templates[i].TemplateID == tpl.TemplateID {
					doc.Templates[i] = tpl
					replaced = true
					break
				}
			}
			if !replaced {
				doc.Templates = append(doc.Templates, tpl)
			}
		}
		ed.Load(doc)
		return nil
	})
	return len(templates), err
}

func (e *Engine) loadOrNew(ctx context.Context, docID string) (*domain.Document, error) {
	doc, err := e.store.Load(ctx, docID)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.NewDocument(), nil
	}
	return nil, fmt.Errorf("failed to load document %s: %w", docID, err)
}

func (e *Engine) forget(docID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.editors, docID)
}

func (e *Engine) publish(docID string, diff *domain.DocumentDiff) {
	e.mu.Lock()
	subs := slices.Clone(e.subs)
	e.mu.Unlock()
	for _, fn := range subs {
		fn(docID, diff)
	}
}
