package tree_test

import (
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page() []domain.Node {
	return []domain.Node{
		{
			ID:   "s1",
			Kind: domain.KindSection,
			Children: []domain.Node{
				{ID: "b1", Kind: domain.KindButton, Attributes: map[string]any{"text": "Buy"}},
				{
					ID:   "c1",
					Kind: domain.KindContainer,
					Children: []domain.Node{
						{ID: "t1", Kind: domain.KindText},
					},
				},
			},
		},
		{ID: "h1", Kind: domain.KindHeading},
	}
}

// normalize maps empty child slices to nil so equality ignores the nil/empty distinction.
func normalize(nodes []domain.Node) []domain.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		n.Children = normalize(n.Children)
		if len(n.Attributes) == 0 {
			n.Attributes = nil
		}
		out[i] = n
	}
	return out
}

func ids(nodes []domain.Node) []string {
	var out []string
	tree.Walk(nodes, func(n domain.Node, _ int) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

func TestLocate(t *testing.T) {
	nodes := page()

	n, ok := tree.Locate(nodes, "t1")
	require.True(t, ok)
	assert.Equal(t, domain.KindText, n.Kind)

	_, ok = tree.Locate(nodes, "missing")
	assert.False(t, ok)

	_, ok = tree.Locate(nil, "s1")
	assert.False(t, ok)
}

func TestLocate_FirstMatchWins(t *testing.T) {
	nodes := []domain.Node{
		{ID: "a", Kind: domain.KindSection, Children: []domain.Node{{ID: "dup", Kind: domain.KindText, Label: "deep"}}},
		{ID: "dup", Kind: domain.KindText, Label: "top"},
	}
	n, ok := tree.Locate(nodes, "dup")
	require.True(t, ok)
	assert.Equal(t, "deep", n.Label)
}

func TestUpdate(t *testing.T) {
	original := page()

	updated := tree.Update(original, "b1", func(n domain.Node) domain.Node {
		n.Label = "CTA"
		n.Attributes["text"] = "Order"
		return n
	})

	n, _ := tree.Locate(updated, "b1")
	assert.Equal(t, "CTA", n.Label)
	assert.Equal(t, "Order", n.Attributes["text"])

	// Earlier snapshot is untouched.
	old, _ := tree.Locate(original, "b1")
	assert.Empty(t, old.Label)
	assert.Equal(t, "Buy", old.Attributes["text"])

	// Untouched sibling is shared.
	assert.Equal(t, original[1], updated[1])
}

func TestUpdate_MissingIsNoop(t *testing.T) {
	original := page()
	updated := tree.Update(original, "ghost", func(n domain.Node) domain.Node {
		n.Label = "x"
		return n
	})
	assert.Equal(t, original, updated)
}

func TestRemove(t *testing.T) {
	original := page()

	out, removed := tree.Remove(original, "c1")
	require.NotNil(t, removed)
	assert.Equal(t, "c1", removed.ID)
	require.Len(t, removed.Children, 1, "subtree travels with the removed node")
	assert.Equal(t, []string{"s1", "b1", "h1"}, ids(out))

	// Input untouched.
	assert.Equal(t, []string{"s1", "b1", "c1", "t1", "h1"}, ids(original))
}

func TestRemove_OnlyFirstDuplicate(t *testing.T) {
	nodes := []domain.Node{
		{ID: "x", Kind: domain.KindText, Label: "first"},
		{ID: "x", Kind: domain.KindText, Label: "second"},
	}
	out, removed := tree.Remove(nodes, "x")
	require.NotNil(t, removed)
	assert.Equal(t, "first", removed.Label)
	require.Len(t, out, 1)
	assert.Equal(t, "second", out[0].Label)
}

func TestRemove_Missing(t *testing.T) {
	original := page()
	out, removed := tree.Remove(original, "ghost")
	assert.Nil(t, removed)
	assert.Equal(t, original, out)
}

func TestInsert(t *testing.T) {
	n := domain.Node{ID: "new", Kind: domain.KindImage}

	tests := []struct {
		name     string
		target   string
		position domain.Position
		want     []string
	}{
		{"Root Sentinel", domain.RootTarget, domain.PositionInside, []string{"s1", "b1", "c1", "t1", "h1", "new"}},
		{"Before Top Level", "h1", domain.PositionBefore, []string{"s1", "b1", "c1", "t1", "new", "h1"}},
		{"After Top Level", "s1", domain.PositionAfter, []string{"s1", "b1", "c1", "t1", "new", "h1"}},
		{"Before Nested", "b1", domain.PositionBefore, []string{"s1", "new", "b1", "c1", "t1", "h1"}},
		{"After Deep", "t1", domain.PositionAfter, []string{"s1", "b1", "c1", "t1", "new", "h1"}},
		{"Inside Appends", "s1", domain.PositionInside, []string{"s1", "b1", "c1", "t1", "new", "h1"}},
		{"Inside Initialises Children", "h1", domain.PositionInside, []string{"s1", "b1", "c1", "t1", "h1", "new"}},
		{"Missing Target", "ghost", domain.PositionAfter, []string{"s1", "b1", "c1", "t1", "h1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tree.Insert(page(), tt.target, tt.position, n)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestInsert_InsideLandsUnderTarget(t *testing.T) {
	out := tree.Insert(page(), "h1", domain.PositionInside, domain.Node{ID: "new", Kind: domain.KindText})
	h1, _ := tree.Locate(out, "h1")
	require.Len(t, h1.Children, 1)
	assert.Equal(t, "new", h1.Children[0].ID)
}

func TestInsert_FirstContainerWins(t *testing.T) {
	nodes := []domain.Node{
		{ID: "a", Kind: domain.KindSection, Children: []domain.Node{{ID: "dup", Kind: domain.KindText}}},
		{ID: "b", Kind: domain.KindSection, Children: []domain.Node{{ID: "dup", Kind: domain.KindText}}},
	}
	out := tree.Insert(nodes, "dup", domain.PositionAfter, domain.Node{ID: "new", Kind: domain.KindText})
	assert.Len(t, out[0].Children, 2)
	assert.Len(t, out[1].Children, 1)
}

func TestInsertRemoveInverse(t *testing.T) {
	n := domain.Node{ID: "fresh", Kind: domain.KindButton, Attributes: map[string]any{"text": "Go"}}
	targets := []string{"s1", "b1", "c1", "t1", "h1", domain.RootTarget}
	positions := []domain.Position{domain.PositionInside, domain.PositionBefore, domain.PositionAfter}

	for _, target := range targets {
		for _, pos := range positions {
			t.Run(target+"/"+string(pos), func(t *testing.T) {
				s := page()
				out, removed := tree.Remove(tree.Insert(s, target, pos, n), n.ID)
				require.NotNil(t, removed)
				assert.Equal(t, n, *removed)
				assert.Equal(t, normalize(s), normalize(out))
			})
		}
	}
}

func TestSetChildren(t *testing.T) {
	children := []domain.Node{{ID: "x", Kind: domain.KindText}}

	out, err := tree.SetChildren(page(), "c1", children)
	require.NoError(t, err)
	c1, _ := tree.Locate(out, "c1")
	assert.Equal(t, children, c1.Children)

	original := page()
	out, err = tree.SetChildren(original, "b1", children)
	assert.ErrorIs(t, err, domain.ErrLeafChildren)
	assert.Equal(t, original, out)

	// Clearing children of a leaf is harmless.
	_, err = tree.SetChildren(page(), "b1", nil)
	assert.NoError(t, err)

	out, err = tree.SetChildren(original, "ghost", children)
	assert.NoError(t, err)
	assert.Equal(t, original, out)
}

func TestWalkHelpers(t *testing.T) {
	nodes := page()

	assert.Equal(t, 5, tree.Count(nodes))
	assert.Len(t, tree.CollectIDs(nodes), 5)
	assert.True(t, tree.CheckCollision("t1", nodes))
	assert.False(t, tree.CheckCollision("zz", nodes))
	assert.True(t, tree.Contains(nodes[0], "t1"))
	assert.True(t, tree.Contains(nodes[0], "s1"))
	assert.False(t, tree.Contains(nodes[0], "h1"))

	var shallow []string
	tree.Walk(nodes, func(n domain.Node, depth int) bool {
		shallow = append(shallow, n.ID)
		return depth < 1
	})
	assert.Equal(t, []string{"s1", "b1", "c1", "h1"}, shallow)

	dup := append(page(), domain.Node{ID: "b1", Kind: domain.KindButton})
	assert.Equal(t, []string{"b1"}, tree.Duplicates(dup))
}
