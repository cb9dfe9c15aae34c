package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// DocumentStore persists documents as opaque blobs keyed by document id.
// The core never queries inside a document; it only saves and loads it whole.
type DocumentStore interface {
	// Save persists the document under the given id, replacing any previous version.
	Save(ctx context.Context, docID string, doc *domain.Document) error

	// Load retrieves the document for the given id.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, docID string) (*domain.Document, error)

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, docID string) error

	// List returns the ids of every stored document.
	List(ctx context.Context) ([]string, error)
}
