package scanner

import (
	"sort"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// NavLink is one entry of a node's "links" attribute (navbars, menus).
// Unknown keys are ignored.
type NavLink struct {
	Label    string    `json:"label" mapstructure:"label"`
	URL      string    `json:"url" mapstructure:"url"`
	Type     string    `json:"type" mapstructure:"type"`
	Action   string    `json:"action" mapstructure:"action"`
	TargetID string    `json:"targetId" mapstructure:"targetId"`
	Children []NavLink `json:"children" mapstructure:"children"`
}

// Targets holds the ids referenced as popup or mega-menu content.
type Targets struct {
	Popups    map[string]struct{}
	MegaMenus map[string]struct{}
}

// IsPopup reports whether id is opened by some popup trigger.
func (t Targets) IsPopup(id string) bool {
	_, ok := t.Popups[id]
	return ok
}

// IsMegaMenu reports whether id is opened by some mega-menu link.
func (t Targets) IsMegaMenu(id string) bool {
	_, ok := t.MegaMenus[id]
	return ok
}

// Hidden reports whether id must be kept out of the normal flow.
func (t Targets) Hidden(id string) bool {
	return t.IsPopup(id) || t.IsMegaMenu(id)
}

// PopupIDs returns the popup targets sorted.
func (t Targets) PopupIDs() []string {
	return sortedKeys(t.Popups)
}

// MegaMenuIDs returns the mega-menu targets sorted.
func (t Targets) MegaMenuIDs() []string {
	return sortedKeys(t.MegaMenus)
}

// Scan walks the whole tree and collects popup and mega-menu targets.
// It looks at node attributes and at nested navigation links; malformed
// link fields never hide the links nested below them.
// The two sets are disjoint: an id opened both ways counts as a mega menu.
func Scan(nodes []domain.Node) Targets {
	t := Targets{
		Popups:    make(map[string]struct{}),
		MegaMenus: make(map[string]struct{}),
	}
	t.scanNodes(nodes)
	for id := range t.MegaMenus {
		delete(t.Popups, id)
	}
	return t
}

func (t Targets) scanNodes(nodes []domain.Node) {
	for _, n := range nodes {
		if n.Attr(domain.AttrAction) == domain.ActionPopup {
			if target := n.Attr(domain.AttrTargetID); target != "" {
				t.Popups[target] = struct{}{}
			}
		}
		if raw, ok := n.Attributes[domain.AttrLinks]; ok {
			t.scanLinks(DecodeLinks(raw))
		}
		t.scanNodes(n.Children)
	}
}

func (t Targets) scanLinks(links []NavLink) {
	for _, l := range links {
		if l.TargetID != "" {
			switch {
			case l.Type == domain.LinkTypeMegaMenu:
				t.MegaMenus[l.TargetID] = struct{}{}
			case l.Action == domain.ActionPopup:
				t.Popups[l.TargetID] = struct{}{}
			}
		}
		t.scanLinks(l.Children)
	}
}

// DecodeLinks converts a raw "links" attribute into NavLinks.
// Scalar fields are decoded leniently ("url": 42 becomes "42"). A link whose
// fields still do not fit keeps its string fields and its children; entries
// that are not objects are dropped.
func DecodeLinks(raw any) []NavLink {
	switch v := raw.(type) {
	case []NavLink:
		return v
	case []any:
		out := make([]NavLink, 0, len(v))
		for _, item := range v {
			if link, ok := decodeLink(item); ok {
				out = append(out, link)
			}
		}
		return out
	case []map[string]any:
		out := make([]NavLink, 0, len(v))
		for _, item := range v {
			if link, ok := decodeLink(item); ok {
				out = append(out, link)
			}
		}
		return out
	default:
		return nil
	}
}

func decodeLink(item any) (NavLink, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		if link, ok := item.(NavLink); ok {
			return link, true
		}
		return NavLink{}, false
	}

	var link NavLink
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &link,
	})
	if err == nil && decoder.Decode(m) == nil {
		return link, true
	}

	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return NavLink{
		Label:    str("label"),
		URL:      str("url"),
		Type:     str(domain.AttrLinkType),
		Action:   str(domain.AttrAction),
		TargetID: str(domain.AttrTargetID),
		Children: DecodeLinks(m["children"]),
	}, true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
