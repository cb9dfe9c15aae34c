package domain

// RootTarget is the sentinel insert target meaning "append to the top level of
// the active scope". It is never a real node id.
const RootTarget = "root"

// Attribute keys the core reads. Everything else in Node.Attributes is opaque.
const (
	AttrTemplateID = "templateId"
	AttrStyle      = "style"
	AttrAction     = "action"
	AttrTargetID   = "targetId"
	AttrLinks      = "links"
	AttrLinkType   = "type"
)

// Trigger values recognised by the target scanner.
const (
	ActionPopup      = "popup"
	LinkTypeMegaMenu = "mega-menu"
)

// Position says where a node goes relative to an insert target.
type Position string

const (
	PositionInside Position = "inside"
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

// Valid reports whether p is one of the three positions.
func (p Position) Valid() bool {
	return p == PositionInside || p == PositionBefore || p == PositionAfter
}

// Zone is the vertical band of the target the pointer is over during a drag.
type Zone string

const (
	ZoneTop    Zone = "top"
	ZoneMiddle Zone = "middle"
	ZoneBottom Zone = "bottom"
)
