package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo initializes a Loam repository in a temp dir.
func setupTestRepo(t *testing.T) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

func TestLibrary_Contract(t *testing.T) {
	_, repo := setupTestRepo(t)
	lib := New(loam.NewTypedRepository[TemplateMetadata](repo))
	ports.RunTemplateLibraryContract(t, lib)
}

func TestLibrary_HandWrittenFile(t *testing.T) {
	dir, repo := setupTestRepo(t)

	content := `---
name: Banner
global: true
---
{"id": "b1", "type": "section", "children": [{"id": "b1-t", "type": "text"}]}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "banner.md"), []byte(content), 0644))

	lib := New(loam.NewTypedRepository[TemplateMetadata](repo))
	got, err := lib.Import(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "banner", got[0].TemplateID, "file name stands in for a missing id")
	assert.Equal(t, "Banner", got[0].Name)
	assert.True(t, got[0].IsGlobal)
	assert.Equal(t, "b1", got[0].RootNode.ID)
	assert.Len(t, got[0].RootNode.Children, 1)
}

func TestLibrary_InvalidBody(t *testing.T) {
	_, repo := setupTestRepo(t)
	require.NoError(t, repo.Save(context.Background(), core.Document{
		ID:      "broken.md",
		Content: "---\nid: broken\n---\nnot json",
	}))

	lib := New(loam.NewTypedRepository[TemplateMetadata](repo))
	_, err := lib.Import(context.Background())
	assert.ErrorContains(t, err, "broken")
}

func TestOpen(t *testing.T) {
	lib, err := Open(t.TempDir())
	require.NoError(t, err)

	got, err := lib.Import(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
