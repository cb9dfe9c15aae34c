package domain

// Template is a named, independently owned subtree reusable through global stubs.
// RootNode never shares identity with anything in the live page.
type Template struct {
	TemplateID string `json:"templateId" yaml:"templateId"`
	Name       string `json:"name" yaml:"name"`
	IsGlobal   bool   `json:"isGlobal" yaml:"isGlobal"`
	RootNode   Node   `json:"rootNode" yaml:"rootNode"`
}

// Document is the persisted state handed to and from an external store.
// Templates never own page nodes; stubs reference them by id only.
type Document struct {
	RootNodes []Node     `json:"rootNodes" yaml:"rootNodes"`
	Templates []Template `json:"templates" yaml:"templates"`
}

// NewDocument returns an empty document with non-nil slices so it serialises as [] rather than null.
func NewDocument() *Document {
	return &Document{
		RootNodes: []Node{},
		Templates: []Template{},
	}
}

// TemplateLookup resolves a template id. Renderers use it to expand global stubs.
type TemplateLookup func(templateID string) (Template, bool)
