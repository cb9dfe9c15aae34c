package scanner_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageJSON = `[
  {"id": "nav", "type": "navbar", "attributes": {"links": [
    {"label": "Home", "url": "/"},
    {"label": "Products", "type": "mega-menu", "targetId": "mm1"},
    {"label": "More", "children": [
      {"label": "Deals", "type": "mega-menu", "targetId": "mm2"},
      {"label": "Contact", "action": "popup", "targetId": "pop2"}
    ]},
    "not-a-link"
  ]}},
  {"id": "s1", "type": "section", "children": [
    {"id": "b1", "type": "button", "attributes": {"action": "popup", "targetId": "pop1"}},
    {"id": "b2", "type": "button", "attributes": {"action": "popup"}},
    {"id": "b3", "type": "button", "attributes": {"action": "link", "targetId": "nope"}}
  ]},
  {"id": "pop1", "type": "section"},
  {"id": "mm1", "type": "container"}
]`

func loadPage(t *testing.T) []domain.Node {
	t.Helper()
	var nodes []domain.Node
	require.NoError(t, json.Unmarshal([]byte(pageJSON), &nodes))
	return nodes
}

func TestScan(t *testing.T) {
	targets := scanner.Scan(loadPage(t))

	assert.Equal(t, []string{"pop1", "pop2"}, targets.PopupIDs())
	assert.Equal(t, []string{"mm1", "mm2"}, targets.MegaMenuIDs())

	assert.True(t, targets.Hidden("pop1"))
	assert.True(t, targets.Hidden("mm2"))
	assert.True(t, targets.IsPopup("pop2"))
	assert.False(t, targets.IsMegaMenu("pop2"))
	assert.False(t, targets.Hidden("s1"))
	assert.False(t, targets.Hidden("nope"))
}

func TestScan_Empty(t *testing.T) {
	targets := scanner.Scan(nil)
	assert.Empty(t, targets.PopupIDs())
	assert.False(t, targets.Hidden("x"))

	var zero scanner.Targets
	assert.False(t, zero.Hidden("x"))
}

func TestDecodeLinks(t *testing.T) {
	typed := []scanner.NavLink{{Label: "A", TargetID: "x"}}
	assert.Equal(t, typed, scanner.DecodeLinks(typed))

	maps := []map[string]any{{"label": "B", "type": "mega-menu", "targetId": "y"}}
	got := scanner.DecodeLinks(maps)
	require.Len(t, got, 1)
	assert.Equal(t, "y", got[0].TargetID)

	assert.Nil(t, scanner.DecodeLinks("garbage"))
}

func TestScan_MalformedLinkKeepsNestedTargets(t *testing.T) {
	nodes := []domain.Node{
		{ID: "nav", Kind: domain.KindNavbar, Attributes: map[string]any{
			"links": []any{
				map[string]any{"label": "Shop", "url": 42, "children": []any{
					map[string]any{"type": "mega-menu", "targetId": "mm1"},
				}},
				map[string]any{"label": map[string]any{"en": "Help"}, "children": []any{
					map[string]any{"action": "popup", "targetId": "help"},
				}},
			},
		}},
	}

	targets := scanner.Scan(nodes)
	assert.Equal(t, []string{"mm1"}, targets.MegaMenuIDs())
	assert.Equal(t, []string{"help"}, targets.PopupIDs())

	links := scanner.DecodeLinks(nodes[0].Attributes["links"])
	require.Len(t, links, 2)
	assert.Equal(t, "42", links[0].URL)
}

func TestScan_TargetSetsAreDisjoint(t *testing.T) {
	nodes := []domain.Node{
		{ID: "b", Kind: domain.KindButton, Attributes: map[string]any{"action": "popup", "targetId": "shared"}},
		{ID: "nav", Kind: domain.KindNavbar, Attributes: map[string]any{
			"links": []any{
				map[string]any{"type": "mega-menu", "action": "popup", "targetId": "both"},
				map[string]any{"type": "mega-menu", "targetId": "shared"},
			},
		}},
	}

	targets := scanner.Scan(nodes)
	assert.Equal(t, []string{"both", "shared"}, targets.MegaMenuIDs())
	assert.Empty(t, targets.PopupIDs(), "mega menu wins over popup")
	assert.True(t, targets.Hidden("both"))
}
