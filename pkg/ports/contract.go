package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDocument() *domain.Document {
	doc := domain.NewDocument()
	doc.RootNodes = []domain.Node{
		{
			ID:    "s1",
			Kind:  domain.KindSection,
			Label: "Hero",
			Children: []domain.Node{
				{ID: "b1", Kind: domain.KindButton, Attributes: map[string]any{"text": "Buy", "action": "popup", "targetId": "p1"}},
			},
		},
		domain.NewStub("g1", "tpl-1", "Footer"),
	}
	doc.Templates = []domain.Template{
		{
			TemplateID: "tpl-1",
			Name:       "Footer",
			IsGlobal:   true,
			RootNode:   domain.Node{ID: "f1", Kind: domain.KindSection, Attributes: map[string]any{"style": map[string]any{"padding": "8px"}}},
		},
	}
	return doc
}

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument()

		err := store.Save(ctx, docID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.RootNodes, 2)
		assert.Equal(t, "Hero", loaded.RootNodes[0].Label)
		assert.Equal(t, "b1", loaded.RootNodes[0].Children[0].ID)
		assert.Equal(t, "Buy", loaded.RootNodes[0].Children[0].Attr("text"))

		ref, ok := loaded.RootNodes[1].TemplateRef()
		require.True(t, ok, "stub must keep its template reference")
		assert.Equal(t, "tpl-1", ref)

		require.Len(t, loaded.Templates, 1)
		assert.Equal(t, "Footer", loaded.Templates[0].Name)
		assert.True(t, loaded.Templates[0].IsGlobal)
		assert.NotNil(t, loaded.Templates[0].RootNode.Attributes["style"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		doc := contractDocument()
		doc.RootNodes = doc.RootNodes[:1]
		require.NoError(t, store.Save(ctx, docID, doc))

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Len(t, loaded.RootNodes, 1)
	})

	t.Run("Isolation", func(t *testing.T) {
		doc := contractDocument()
		require.NoError(t, store.Save(ctx, docID, doc))

		// Mutating the saved value must not leak into the store.
		doc.RootNodes[0].Label = "mutated"
		doc.RootNodes[0].Children[0].Attributes["text"] = "mutated"

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, "Hero", loaded.RootNodes[0].Label)
		assert.Equal(t, "Buy", loaded.RootNodes[0].Children[0].Attr("text"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, docID, contractDocument())
		require.NoError(t, err)

		err = store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, docID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		_ = store.Save(ctx, id1, contractDocument())
		_ = store.Save(ctx, id2, contractDocument())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		docs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, docs, id1)
		assert.Contains(t, docs, id2)
	})
}

// RunTemplateLibraryContract verifies that a TemplateLibrary keeps templates
// across an export/import cycle. The library must start empty.
func RunTemplateLibraryContract(t *testing.T, lib TemplateLibrary) {
	ctx := context.Background()

	t.Run("Import Empty", func(t *testing.T) {
		got, err := lib.Import(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Export and Import", func(t *testing.T) {
		templates := contractDocument().Templates
		templates = append(templates, domain.Template{
			TemplateID: "tpl-2",
			Name:       "Card",
			RootNode: domain.Node{
				ID:       "c1",
				Kind:     domain.KindCard,
				Label:    "Card",
				Children: []domain.Node{{ID: "c1-t", Kind: domain.KindText, Attributes: map[string]any{"text": "Hi"}}},
			},
		})
		require.NoError(t, lib.Export(ctx, templates))

		got, err := lib.Import(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "tpl-1", got[0].TemplateID, "import keeps export order")
		assert.Equal(t, "Footer", got[0].Name)
		assert.True(t, got[0].IsGlobal)
		assert.Equal(t, "f1", got[0].RootNode.ID)
		assert.Equal(t, map[string]any{"padding": "8px"}, got[0].RootNode.Attributes["style"])

		assert.False(t, got[1].IsGlobal)
		require.Len(t, got[1].RootNode.Children, 1)
		assert.Equal(t, "Hi", got[1].RootNode.Children[0].Attr("text"))
	})

	t.Run("Replace Same ID", func(t *testing.T) {
		require.NoError(t, lib.Export(ctx, []domain.Template{
			{TemplateID: "tpl-1", Name: "Footer v2", IsGlobal: true, RootNode: domain.Node{ID: "f2", Kind: domain.KindSection}},
		}))

		got, err := lib.Import(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Footer v2", got[0].Name)
		assert.Equal(t, "f2", got[0].RootNode.ID)
	})

	t.Run("Rejects Empty ID", func(t *testing.T) {
		err := lib.Export(ctx, []domain.Template{{Name: "nameless"}})
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})
}
