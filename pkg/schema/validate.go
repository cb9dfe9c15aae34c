package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"action": String(), "style": Map(nil), "links": Slice(link)}
type Schema map[string]Type

// Validate checks the fields of data that the schema names. Absent fields
// are fine, and so are fields the schema does not name.
// Failures are reported together, in field order.
func Validate(schema Schema, data map[string]any) error {
	var errs []error
	for _, fieldName := range sortedFields(schema) {
		value, exists := data[fieldName]
		if !exists {
			continue
		}
		if err := schema[fieldName].Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func sortedFields(schema Schema) []string {
	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
