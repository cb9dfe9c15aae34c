package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tree"
)

// Library implements ports.TemplateLibrary using an in-memory list.
type Library struct {
	mu        sync.RWMutex
	templates []domain.Template
}

// NewLibrary creates a library seeded with templates.
func NewLibrary(templates ...domain.Template) *Library {
	l := &Library{}
	_ = l.Export(context.Background(), templates)
	return l
}

// Export stores copies of the templates, replacing entries with the same id in place.
func (l *Library) Export(ctx context.Context, templates []domain.Template) error {
	for _, tpl := range templates {
		if tpl.TemplateID == "" {
			return fmt.Errorf("template %q: %w", tpl.Name, domain.ErrInvalidID)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, tpl := range templates {
		tpl.RootNode = tree.Copy(tpl.RootNode)
		if i := l.index(tpl.TemplateID); i >= 0 {
			l.templates[i] = tpl
			continue
		}
		l.templates = append(l.templates, tpl)
	}
	return nil
}

// Import returns copies of every stored template in first-export order.
func (l *Library) Import(ctx context.Context) ([]domain.Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Template, 0, len(l.templates))
	for _, tpl := range l.templates {
		tpl.RootNode = tree.Copy(tpl.RootNode)
		out = append(out, tpl)
	}
	return out, nil
}

func (l *Library) index(id string) int {
	for i, tpl := range l.templates {
		if tpl.TemplateID == id {
			return i
		}
	}
	return -1
}
