package registry_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tpl-%d", n)
	}
}

func hero() domain.Node {
	return domain.Node{
		ID:       "hero",
		Kind:     domain.KindSection,
		Children: []domain.Node{{ID: "b", Kind: domain.KindButton}},
	}
}

func TestRegistry_CRUD(t *testing.T) {
	r := registry.NewRegistry(registry.WithIDFunc(sequence()))

	a := r.Create("Hero", true, hero())
	b := r.Create("Footer", false, domain.Node{ID: "f", Kind: domain.KindSection})

	assert.Equal(t, "tpl-1", a.TemplateID)
	assert.Equal(t, "tpl-2", b.TemplateID)
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get("tpl-1")
	require.True(t, ok)
	assert.Equal(t, "Hero", got.Name)
	assert.True(t, got.IsGlobal)

	require.NoError(t, r.Replace("tpl-1", domain.Node{ID: "other", Kind: domain.KindCard}))
	got, _ = r.Get("tpl-1")
	assert.Equal(t, domain.KindCard, got.RootNode.Kind)

	err := r.Replace("nope", hero())
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	assert.True(t, r.Delete("tpl-1"))
	assert.False(t, r.Delete("tpl-1"))

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "tpl-2", list[0].TemplateID)
}

func TestRegistry_CreateSkipsTakenIDs(t *testing.T) {
	calls := 0
	r := registry.NewRegistry(registry.WithIDFunc(func() string {
		calls++
		if calls <= 2 {
			return "same"
		}
		return "other"
	}))

	r.Create("A", false, hero())
	tpl := r.Create("B", false, hero())

	assert.Equal(t, "other", tpl.TemplateID)
}

func TestRegistry_DefaultIDs(t *testing.T) {
	r := registry.NewRegistry()
	tpl := r.Create("Hero", true, hero())
	assert.True(t, strings.HasPrefix(tpl.TemplateID, "tpl-"))
}

func TestRegistry_PutAndReset(t *testing.T) {
	r := registry.NewRegistry()

	assert.ErrorIs(t, r.Put(domain.Template{}), domain.ErrInvalidID)

	require.NoError(t, r.Put(domain.Template{TemplateID: "x", Name: "X", RootNode: hero()}))
	require.NoError(t, r.Put(domain.Template{TemplateID: "x", Name: "X2", RootNode: hero()}))
	assert.Equal(t, 1, r.Len())

	r.Reset([]domain.Template{
		{TemplateID: "b", RootNode: hero()},
		{TemplateID: "a", RootNode: hero()},
	})
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].TemplateID)
	assert.Equal(t, "a", list[1].TemplateID)
}

func TestRegistry_Resolve(t *testing.T) {
	r := registry.NewRegistry(registry.WithIDFunc(sequence()))
	tpl := r.Create("Hero", true, hero())

	t.Run("Stub Resolves", func(t *testing.T) {
		stub := domain.NewStub("s1", tpl.TemplateID, "Hero")
		first, ok := r.Resolve(stub)
		require.True(t, ok)
		second, ok := r.Resolve(stub)
		require.True(t, ok)
		assert.Equal(t, first, second, "resolution is idempotent without edits")
		assert.Equal(t, hero(), first)
	})

	t.Run("Sees Latest Template", func(t *testing.T) {
		require.NoError(t, r.Replace(tpl.TemplateID, domain.Node{ID: "new", Kind: domain.KindCard}))
		got, ok := r.Resolve(domain.NewStub("s1", tpl.TemplateID, ""))
		require.True(t, ok)
		assert.Equal(t, "new", got.ID)
	})

	t.Run("Dangling", func(t *testing.T) {
		_, ok := r.Resolve(domain.NewStub("s2", "gone", ""))
		assert.False(t, ok)
	})

	t.Run("Not A Stub", func(t *testing.T) {
		_, ok := r.Resolve(domain.Node{ID: "x", Kind: domain.KindSection, Attributes: map[string]any{"templateId": tpl.TemplateID}})
		assert.False(t, ok)
	})

	t.Run("Lookup Callback", func(t *testing.T) {
		lookup := r.Lookup()
		got, ok := lookup(tpl.TemplateID)
		require.True(t, ok)
		assert.Equal(t, "Hero", got.Name)
	})
}
