package editor

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/scanner"
	"github.com/aretw0/canopy/pkg/tree"
)

// DefaultHistoryLimit is the number of undo steps kept when none is configured.
const DefaultHistoryLimit = 50

// Editor is one editing session over a document: the live page, its templates,
// the current selection and the optional template under master edit.
//
// An Editor is not safe for concurrent use. Callers serialize access, see
// session.Manager for the locking used by the servers.
type Editor struct {
	page      []domain.Node
	templates *registry.Registry
	editing   string
	selected  string

	gen     tree.IDGenerator
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	history *history
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDGenerator sets the generator used for fresh node ids.
func WithIDGenerator(gen tree.IDGenerator) Option {
	return func(e *Editor) {
		e.gen = gen
	}
}

// WithRegistry injects the template registry (useful to control template ids).
func WithRegistry(r *registry.Registry) Option {
	return func(e *Editor) {
		e.templates = r
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHistoryLimit sets the number of undo steps kept. Zero disables undo.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		e.history = newHistory(n)
	}
}

// New creates an Editor over an empty document.
func New(opts ...Option) *Editor {
	e := &Editor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.templates == nil {
		e.templates = registry.NewRegistry()
	}
	if e.gen == nil {
		e.gen = tree.UUIDGenerator{}
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.history == nil {
		e.history = newHistory(DefaultHistoryLimit)
	}
	return e
}

// Load replaces the session content with doc. Selection, master edit and
// history are reset. A nil doc loads an empty document.
func (e *Editor) Load(doc *domain.Document) {
	if doc == nil {
		doc = domain.NewDocument()
	}
	e.page = slices.Clone(doc.RootNodes)
	e.templates.Reset(doc.Templates)
	e.editing = ""
	e.selected = ""
	e.history.clear()

	if dups := tree.Duplicates(e.page); len(dups) > 0 {
		e.logger.Warn("Loaded page has duplicate ids", "ids", dups)
	}
}

// Document returns the persisted shape of the current state.
func (e *Editor) Document() *domain.Document {
	doc := domain.NewDocument()
	doc.RootNodes = append(doc.RootNodes, e.page...)
	doc.Templates = append(doc.Templates, e.templates.List()...)
	return doc
}

// Nodes returns the active scope: the page, or the single root of the template under master edit.
// The returned nodes must be treated as immutable.
func (e *Editor) Nodes() []domain.Node {
	return slices.Clone(e.activeScope())
}

// Page returns the live page regardless of master edit.
func (e *Editor) Page() []domain.Node {
	return slices.Clone(e.page)
}

// Templates returns every template in creation order.
func (e *Editor) Templates() []domain.Template {
	return e.templates.List()
}

// Template returns one template by id.
func (e *Editor) Template(id string) (domain.Template, bool) {
	return e.templates.Get(id)
}

// Lookup returns the callback renderers use to resolve stubs.
func (e *Editor) Lookup() domain.TemplateLookup {
	return e.templates.Lookup()
}

// Resolve expands a global stub to its template's current root node.
func (e *Editor) Resolve(stub domain.Node) (domain.Node, bool) {
	return e.templates.Resolve(stub)
}

// Selected returns the selected node id, or "" when nothing is selected.
func (e *Editor) Selected() string {
	return e.selected
}

// EditingTemplate returns the template id under master edit.
func (e *Editor) EditingTemplate() (string, bool) {
	return e.editing, e.editing != ""
}

// Targets scans the live page for popup and mega-menu targets.
func (e *Editor) Targets() scanner.Targets {
	return scanner.Scan(e.page)
}

// Scope names the active scope for events and logs.
func (e *Editor) Scope() string {
	if e.editing != "" {
		return "template:" + e.editing
	}
	return domain.ScopePage
}

func (e *Editor) activeScope() []domain.Node {
	if e.editing == "" {
		return e.page
	}
	tpl, ok := e.templates.Get(e.editing)
	if !ok {
		return nil
	}
	return []domain.Node{tpl.RootNode}
}

// setActiveScope writes nodes back to whichever store is active.
// A template scope must keep exactly one root.
func (e *Editor) setActiveScope(nodes []domain.Node) error {
	if e.editing == "" {
		e.page = nodes
		return nil
	}
	if len(nodes) != 1 {
		return fmt.Errorf("template %s: %w", e.editing, domain.ErrTemplateRoot)
	}
	return e.templates.Replace(e.editing, nodes[0])
}

// mutate runs fn against the active scope and commits its result.
// fn returns the new scope and whether anything changed; unchanged results
// are not written and leave no history entry.
func (e *Editor) mutate(command, nodeID string, fn func(scope []domain.Node) ([]domain.Node, bool, error)) (bool, error) {
	before := e.snapshot()
	next, changed, err := fn(e.activeScope())
	if err == nil && changed {
		err = e.setActiveScope(next)
	}
	if err != nil {
		changed = false
	}
	if changed {
		e.history.push(before)
	}
	e.emit(command, nodeID, changed, err)
	return changed, err
}

// record commits a change made directly on editor state (template registry, mode) by fn.
func (e *Editor) record(command, nodeID string, fn func() (bool, error)) (bool, error) {
	before := e.snapshot()
	changed, err := fn()
	if err != nil {
		e.restore(before)
		changed = false
	}
	if changed {
		e.history.push(before)
	}
	e.emit(command, nodeID, changed, err)
	return changed, err
}

func (e *Editor) emit(command, nodeID string, changed bool, err error) {
	log := e.logger.With("command", command, "scope", e.Scope())
	if nodeID != "" {
		log = log.With("node_id", nodeID)
	}
	if err != nil {
		log.Warn("Command rejected", "error", err)
	} else {
		log.Debug("Command applied", "changed", changed)
	}

	if e.hooks.OnCommand != nil {
		e.hooks.OnCommand(&domain.CommandEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventCommand,
				Scope:     e.Scope(),
			},
			Command: command,
			NodeID:  nodeID,
			Changed: changed,
			Err:     err,
		})
	}
}

func (e *Editor) emitScope(templateID string, entered bool) {
	e.logger.Info("Scope changed", "template_id", templateID, "entered", entered)
	if e.hooks.OnScopeChange != nil {
		e.hooks.OnScopeChange(&domain.ScopeEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventScopeChange,
				Scope:     e.Scope(),
			},
			TemplateID: templateID,
			Entered:    entered,
		})
	}
}
