package validator

import (
	"errors"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/scanner"
	"github.com/aretw0/canopy/pkg/schema"
)

var navLink schema.Type

func init() {
	linkFields := schema.Schema{
		"label":             schema.String(),
		"url":               schema.String(),
		domain.AttrLinkType: schema.String(),
		domain.AttrAction:   schema.String(),
		domain.AttrTargetID: schema.String(),
	}
	navLink = schema.Custom("link", func(v any) error {
		switch l := v.(type) {
		case scanner.NavLink:
			return nil
		case map[string]any:
			return schema.Validate(linkFields, l)
		default:
			return fmt.Errorf("expected link object, got %T", v)
		}
	})
	// Links nest.
	linkFields["children"] = schema.Slice(navLink)
}

// attributeSchema lists the value types of the attributes the editor reads.
// Other attributes are opaque and never checked.
func attributeSchema(kind domain.Kind) schema.Schema {
	s := schema.Schema{
		domain.AttrStyle:    schema.Map(nil),
		domain.AttrAction:   schema.String(),
		domain.AttrTargetID: schema.String(),
	}
	switch kind {
	case domain.KindNavbar, domain.KindMenu:
		s[domain.AttrLinks] = schema.Slice(navLink)
	case domain.KindGlobal:
		s[domain.AttrTemplateID] = schema.String()
	}
	return s
}

func checkAttributes(r *Report, scope string, n domain.Node) {
	err := schema.Validate(attributeSchema(n.Kind), n.Attributes)
	if err == nil {
		return
	}
	for _, e := range schema.ValidationErrors(err) {
		var ve *schema.ValidationError
		if errors.As(e, &ve) {
			r.add(SeverityWarning, scope, n.ID, "attribute %q: %s", ve.Key, ve.Reason)
		}
	}
}
