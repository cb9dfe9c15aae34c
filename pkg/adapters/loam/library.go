package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/loam"
)

// Library adapts a Loam repository to the ports.TemplateLibrary interface.
// Each template is one Markdown file: metadata in frontmatter, master tree in the body.
type Library struct {
	Repo *loam.TypedRepository[TemplateMetadata]
}

// New creates a new Loam template library.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Library {
	return &Library{
		Repo: repo,
	}
}

// Open initializes a Loam repository at path and wraps it.
func Open(path string) (*Library, error) {
	repo, err := loam.Init(path, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to init loam repo at %s: %w", path, err)
	}
	return New(loam.NewTypedRepository[TemplateMetadata](repo)), nil
}

// Export writes one file per template, replacing files with the same id.
func (l *Library) Export(ctx context.Context, templates []domain.Template) error {
	existing, err := l.load(ctx)
	if err != nil {
		return err
	}
	order := make(map[string]int, len(existing))
	next := 0
	for _, e := range existing {
		order[e.meta.ID] = e.meta.Order
		if e.meta.Order >= next {
			next = e.meta.Order + 1
		}
	}

	for _, tpl := range templates {
		if tpl.TemplateID == "" {
			return fmt.Errorf("template %q: %w", tpl.Name, domain.ErrInvalidID)
		}

		body, err := json.MarshalIndent(tpl.RootNode, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal template %s: %w", tpl.TemplateID, err)
		}

		pos, ok := order[tpl.TemplateID]
		if !ok {
			pos = next
			order[tpl.TemplateID] = pos
			next++
		}

		err = l.Repo.Save(ctx, &loam.DocumentModel[TemplateMetadata]{
			ID:      tpl.TemplateID,
			Content: string(body),
			Data: TemplateMetadata{
				ID:     tpl.TemplateID,
				Name:   tpl.Name,
				Global: tpl.IsGlobal,
				Order:  pos,
				Root:   tpl.RootNode.ID,
				Kind:   string(tpl.RootNode.Kind),
			},
		})
		if err != nil {
			return fmt.Errorf("loam save failed for %s: %w", tpl.TemplateID, err)
		}
	}
	return nil
}

// Import reads every template file in export order.
func (l *Library) Import(ctx context.Context) ([]domain.Template, error) {
	entries, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Template, 0, len(entries))
	for _, e := range entries {
		// List returns metadata only; the master tree is in the body.
		doc, err := l.Repo.Get(ctx, e.docID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", e.docID, err)
		}
		var root domain.Node
		if err := json.Unmarshal([]byte(strings.TrimSpace(doc.Content)), &root); err != nil {
			return nil, fmt.Errorf("template %s: invalid master tree: %w", e.meta.ID, err)
		}
		out = append(out, domain.Template{
			TemplateID: e.meta.ID,
			Name:       e.meta.Name,
			IsGlobal:   e.meta.Global,
			RootNode:   root,
		})
	}
	return out, nil
}

type entry struct {
	meta  TemplateMetadata
	docID string
}

func (l *Library) load(ctx context.Context) ([]entry, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	entries := make([]entry, 0, len(docs))
	for _, doc := range docs {
		meta := doc.Data
		// Use the ID from metadata if available, otherwise filename ID
		if meta.ID == "" {
			meta.ID = trimExtension(doc.ID)
		}

		if existingPath, ok := seen[meta.ID]; ok {
			return nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", meta.ID, existingPath, doc.ID)
		}
		seen[meta.ID] = doc.ID
		entries = append(entries, entry{meta: meta, docID: doc.ID})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].meta.Order != entries[j].meta.Order {
			return entries[i].meta.Order < entries[j].meta.Order
		}
		return entries[i].meta.ID < entries[j].meta.ID
	})
	return entries, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
