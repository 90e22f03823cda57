package schema

import (
	"sort"

	"github.com/aretw0/fable/pkg/domain"
)

// Schema is a map of field names to their expected types.
// Example: {"name": String(), "age": Int(), "tags": Slice(String())}
type Schema map[string]Type

// FromContract builds a Schema from declared output fields.
func FromContract(fields []domain.OutputFieldSpec) Schema {
	s := make(Schema, len(fields))
	for _, f := range fields {
		s[f.Name] = ForField(f.Type)
	}
	return s
}

// Validate checks if data conforms to the schema.
// Returns an *AggregateError with all validation failures found, ordered by
// field name.
func Validate(schema Schema, data map[string]domain.Value) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []error
	for _, fieldName := range sortedKeys(schema) {
		if err := validateField(schema[fieldName], fieldName, data); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only specific fields from data against the schema.
// Missing fields are treated as an error.
func ValidateFields(schema Schema, data map[string]domain.Value, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error
	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "not defined in schema",
			})
			continue
		}
		if err := validateField(fieldType, fieldName, data); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Coerce returns a copy of data with every schema field coerced to its type
// where possible, plus the failures for fields that could not be coerced or
// are missing. Fields outside the schema are copied unchanged.
func Coerce(schema Schema, data map[string]domain.Value) (map[string]domain.Value, error) {
	out := make(map[string]domain.Value, len(data))
	for k, v := range data {
		out[k] = v
	}

	var errs []error
	for _, fieldName := range sortedKeys(schema) {
		value, exists := data[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: ReasonRequired, Missing: true})
			continue
		}
		coerced, err := schema[fieldName].Coerce(value)
		if err != nil {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: err.Error(), Value: value})
			continue
		}
		out[fieldName] = coerced
	}

	if len(errs) > 0 {
		return out, &AggregateError{Errors: errs}
	}
	return out, nil
}

func validateField(fieldType Type, fieldName string, data map[string]domain.Value) error {
	value, exists := data[fieldName]
	if !exists {
		return &ValidationError{Key: fieldName, Reason: ReasonRequired, Missing: true}
	}
	if err := fieldType.Validate(value); err != nil {
		return &ValidationError{Key: fieldName, Reason: err.Error(), Value: value}
	}
	return nil
}

func sortedKeys(s Schema) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
