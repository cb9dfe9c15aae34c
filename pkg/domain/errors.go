package domain

import "errors"

// Structural errors.
var (
	// ErrDuplicateID is returned when an id change would collide inside the active scope.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidID is returned for an empty id or the reserved root sentinel.
	ErrInvalidID = errors.New("invalid id")

	// ErrLeafChildren is returned when children are assigned to a leaf kind.
	// The node is left unchanged.
	ErrLeafChildren = errors.New("leaf kind cannot own children")

	// ErrNodeNotFound is returned by commands that need an existing node to produce a result.
	ErrNodeNotFound = errors.New("node not found")
)

// Template errors.
var (
	// ErrTemplateNotFound is returned when a template id is not in the registry.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrNotGlobal is returned when a stub operation targets a node that is not a global stub.
	ErrNotGlobal = errors.New("node is not a global stub")

	// ErrNotEditingMaster is returned when master-edit-only operations run outside that mode.
	ErrNotEditingMaster = errors.New("not editing a master template")

	// ErrTemplateRoot is returned when a master edit would leave a template
	// with zero or several root nodes. The template is left unchanged.
	ErrTemplateRoot = errors.New("template must keep exactly one root node")
)

// ErrDocumentNotFound is returned when a document id cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")
