package loam

// TemplateMetadata is the frontmatter of a template file.
// The master tree itself is stored as JSON in the document body.
type TemplateMetadata struct {
	ID     string `json:"id" mapstructure:"id"`
	Name   string `json:"name" mapstructure:"name"`
	Global bool   `json:"global" mapstructure:"global"`
	// Order keeps the export order stable across filesystems.
	Order int `json:"order" mapstructure:"order"`
	// Root and Kind mirror the master root for readers browsing the files.
	Root string `json:"root" mapstructure:"root"`
	Kind string `json:"kind" mapstructure:"kind"`
}
