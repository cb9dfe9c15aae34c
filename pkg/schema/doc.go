// Package schema checks loosely typed maps, such as node attributes decoded
// from JSON or YAML, against a small set of expected value types.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "action":   schema.String(),
//	    "style":    schema.Map(nil),
//	    "targetId": schema.String(),
//	}
//
//	if err := schema.Validate(s, node.Attributes); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // report e
//	    }
//	}
//
// Only the fields present in the data are checked.
package schema
