package canopy_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/adapters/file"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/editor"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func section() *domain.Node {
	return &domain.Node{Kind: domain.KindSection}
}

func TestEngine_EditPersists(t *testing.T) {
	store := memory.NewStore()
	eng := canopy.New(canopy.WithStore(store), canopy.WithIDGenerator(tree.NewSequence("n")))
	ctx := context.Background()

	var diffs []*domain.DocumentDiff
	eng.Subscribe(func(docID string, diff *domain.DocumentDiff) {
		assert.Equal(t, "doc", docID)
		diffs = append(diffs, diff)
	})

	res, err := eng.Apply(ctx, "doc", command.Command{Op: command.OpInsert, Node: section()})
	require.NoError(t, err)
	assert.Equal(t, "n1", res.ID)

	stored, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, stored.RootNodes, 1)

	// A no-op is neither saved nor published.
	_, err = eng.Apply(ctx, "doc", command.Command{Op: command.OpDelete, ID: "ghost"})
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, []string{"n1"}, diffs[0].Added)

	ids, err := eng.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, ids)
}

func TestEngine_UndoAcrossCalls(t *testing.T) {
	// The file store round-trips through JSON; the cached editor must survive it.
	eng := canopy.New(canopy.WithStore(file.New(t.TempDir())))
	ctx := context.Background()

	_, err := eng.ApplyAll(ctx, "doc", []command.Command{
		{Op: command.OpInsert, Node: section()},
		{Op: command.OpUpdateStyle, ID: "", Key: "padding", Value: 24},
	})
	require.ErrorIs(t, err, command.ErrMissingField)

	res, err := eng.Apply(ctx, "doc", command.Command{Op: command.OpUndo})
	require.NoError(t, err)
	assert.True(t, res.Changed(), "undo history is kept between calls")

	doc, err := eng.Open(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, doc.RootNodes)
}

func TestEngine_RedactedStoreKeepsSession(t *testing.T) {
	redact, err := middleware.NewRedactionMiddleware([]string{"email"})
	require.NoError(t, err)
	store := memory.NewStore()
	eng := canopy.New(
		canopy.WithStore(middleware.Chain(store, redact)),
		canopy.WithIDGenerator(tree.NewSequence("n")),
	)
	ctx := context.Background()

	_, err = eng.Edit(ctx, "doc", func(ed *editor.Editor) error {
		id, err := ed.Insert(domain.RootTarget, domain.PositionInside, domain.Node{
			Kind:       domain.KindForm,
			Attributes: map[string]any{"email": "ops@example.com"},
		})
		if err != nil {
			return err
		}
		ed.Select(id)
		return nil
	})
	require.NoError(t, err)

	stored, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.RootNodes[0].Attr("email"))

	diff, err := eng.Edit(ctx, "doc", func(ed *editor.Editor) error {
		assert.True(t, ed.CanUndo(), "history survives a masked save")
		assert.Equal(t, "n1", ed.Selected())
		assert.Equal(t, "ops@example.com", ed.Document().RootNodes[0].Attr("email"))
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, diff, "masking alone is not a change")
}

func TestEngine_ReloadsExternalChanges(t *testing.T) {
	store := memory.NewStore()
	eng := canopy.New(canopy.WithStore(store))
	ctx := context.Background()

	_, err := eng.Apply(ctx, "doc", command.Command{Op: command.OpInsert, Node: section()})
	require.NoError(t, err)

	// Another writer replaces the document behind the engine's back.
	external := domain.NewDocument()
	external.RootNodes = []domain.Node{{ID: "x", Kind: domain.KindText}}
	require.NoError(t, store.Save(ctx, "doc", external))

	_, err = eng.Edit(ctx, "doc", func(ed *editor.Editor) error {
		page := ed.Page()
		require.Len(t, page, 1)
		assert.Equal(t, "x", page[0].ID)
		assert.False(t, ed.CanUndo(), "history from the stale copy is dropped")
		return nil
	})
	require.NoError(t, err)
}

func TestEngine_EditErrorKeepsPartialWork(t *testing.T) {
	eng := canopy.New()
	ctx := context.Background()
	boom := errors.New("boom")

	diff, err := eng.Edit(ctx, "doc", func(ed *editor.Editor) error {
		_, _ = ed.Insert(domain.RootTarget, domain.PositionInside, *section())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, diff)

	doc, err := eng.Open(ctx, "doc")
	require.NoError(t, err)
	assert.Len(t, doc.RootNodes, 1)
}

func TestEngine_ConcurrentEdits(t *testing.T) {
	eng := canopy.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Apply(ctx, "doc", command.Command{Op: command.OpInsert, Node: section()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, err := eng.Open(ctx, "doc")
	require.NoError(t, err)
	assert.Len(t, doc.RootNodes, 20)
}

func TestEngine_DeleteAndInvalidID(t *testing.T) {
	eng := canopy.New()
	ctx := context.Background()

	_, err := eng.Open(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	_, err = eng.Edit(ctx, "", func(*editor.Editor) error { return nil })
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = eng.Open(ctx, "doc")
	require.NoError(t, err)
	require.NoError(t, eng.Delete(ctx, "doc"))

	err = eng.View(ctx, "doc", func(*domain.Document) error { return nil })
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestEngine_Templates(t *testing.T) {
	eng := canopy.New()
	ctx := context.Background()
	lib := memory.NewLibrary()

	results, err := eng.ApplyAll(ctx, "a", []command.Command{
		{Op: command.OpInsert, Node: section()},
	})
	require.NoError(t, err)
	_, err = eng.Apply(ctx, "a", command.Command{Op: command.OpSaveAsTemplate, ID: results[0].ID, Name: "Hero", Global: true})
	require.NoError(t, err)

	n, err := eng.ExportTemplates(ctx, "a", lib)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = eng.ImportTemplates(ctx, "b", lib)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Importing twice replaces rather than duplicates.
	_, err = eng.ImportTemplates(ctx, "b", lib)
	require.NoError(t, err)

	doc, err := eng.Open(ctx, "b")
	require.NoError(t, err)
	require.Len(t, doc.Templates, 1)
	assert.Equal(t, "Hero", doc.Templates[0].Name)
}
