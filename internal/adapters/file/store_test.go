package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/canopy/internal/adapters/file"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements DocumentStore
var _ ports.DocumentStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunDocumentStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	t.Run("Writes Pretty JSON", func(t *testing.T) {
		doc := domain.NewDocument()
		doc.RootNodes = []domain.Node{{ID: "s1", Kind: domain.KindSection}}
		require.NoError(t, store.Save(ctx, "home", doc))

		data, err := os.ReadFile(filepath.Join(dir, "home.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"type": "section"`)
		assert.Contains(t, string(data), `"templates": []`)
	})

	t.Run("Ignores Garbage And Temp Files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.txt"), []byte("x"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-home-123.json"), []byte("{}"), 0644))

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"home"}, list)
	})

	t.Run("Rejects Path Traversal", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, "../escape", domain.NewDocument()))
		_, err := store.Load(ctx, "")
		assert.Error(t, err)
	})

	t.Run("Missing Directory Lists Empty", func(t *testing.T) {
		list, err := file.New(filepath.Join(dir, "nope")).List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
