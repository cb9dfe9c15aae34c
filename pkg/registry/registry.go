package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/google/uuid"
)

// Option configures a Registry.
type Option func(*Registry)

// WithIDFunc overrides how new template ids are produced.
// Ids already present are skipped, so fn may repeat itself.
func WithIDFunc(fn func() string) Option {
	return func(r *Registry) {
		r.newID = fn
	}
}

// Registry manages the saved templates of one document.
// Templates are stored by value; callers always receive copies of the slice
// headers, and the node trees inside are never mutated in place.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]domain.Template
	order     []string
	newID     func() string
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		templates: make(map[string]domain.Template),
		newID:     defaultID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultID() string {
	return "tpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Create stores root under a freshly generated template id and returns the template.
// The caller is responsible for root having ids that are unique within itself.
func (r *Registry) Create(name string, isGlobal bool, root domain.Node) domain.Template {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, exists := r.templates[id]; !exists && id != "" {
			break
		}
		id = r.newID()
	}

	tpl := domain.Template{
		TemplateID: id,
		Name:       name,
		IsGlobal:   isGlobal,
		RootNode:   root,
	}
	r.templates[id] = tpl
	r.order = append(r.order, id)
	return tpl
}

// Put adds or overwrites a template as is. Used when loading persisted state.
func (r *Registry) Put(tpl domain.Template) error {
	if tpl.TemplateID == "" {
		return fmt.Errorf("put template: %w", domain.ErrInvalidID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[tpl.TemplateID]; !exists {
		r.order = append(r.order, tpl.TemplateID)
	}
	r.templates[tpl.TemplateID] = tpl
	return nil
}

// Get returns the template stored under id.
func (r *Registry) Get(id string) (domain.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[id]
	return tpl, ok
}

// Lookup exposes Get as the callback renderers use to expand stubs.
func (r *Registry) Lookup() domain.TemplateLookup {
	return r.Get
}

// Replace swaps the root node of an existing template.
// It returns ErrTemplateNotFound when id is unknown.
func (r *Registry) Replace(id string, root domain.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tpl, ok := r.templates[id]
	if !ok {
		return fmt.Errorf("replace template %s: %w", id, domain.ErrTemplateNotFound)
	}
	tpl.RootNode = root
	r.templates[id] = tpl
	return nil
}

// Delete removes a template. Stubs that reference it are left alone and
// resolve to nothing from now on. Reports whether anything was removed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return false
	}
	delete(r.templates, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return true
}

// List returns the templates in creation order.
func (r *Registry) List() []domain.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

// Len returns the number of templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Reset replaces the whole content with templates, keeping their order.
func (r *Registry) Reset(templates []domain.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates = make(map[string]domain.Template, len(templates))
	r.order = r.order[:0:0]
	for _, tpl := range templates {
		if _, dup := r.templates[tpl.TemplateID]; !dup {
			r.order = append(r.order, tpl.TemplateID)
		}
		r.templates[tpl.TemplateID] = tpl
	}
}

// Resolve expands a global stub to the current root node of its template.
// Anything that is not a stub, or a stub whose template is gone, yields false.
// Resolution always reads the registry at call time.
func (r *Registry) Resolve(stub domain.Node) (domain.Node, bool) {
	id, ok := stub.TemplateRef()
	if !ok {
		return domain.Node{}, false
	}
	tpl, ok := r.Get(id)
	if !ok {
		return domain.Node{}, false
	}
	return tpl.RootNode, true
}
