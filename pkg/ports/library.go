package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// TemplateLibrary is a shared on-disk collection of templates that documents
// can export to and import from.
type TemplateLibrary interface {
	// Export writes the templates to the library, replacing entries with the same id.
	Export(ctx context.Context, templates []domain.Template) error

	// Import reads every template of the library.
	Import(ctx context.Context) ([]domain.Template, error)
}
