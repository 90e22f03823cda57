package domain

import "strings"

// FieldType is the declared type of an output field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// ParseFieldType maps a declared type name (and a few common aliases) onto a
// FieldType. The second result is false for unknown names.
func ParseFieldType(name string) (FieldType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str", "text":
		return FieldString, true
	case "number", "int", "integer", "float", "double":
		return FieldNumber, true
	case "boolean", "bool":
		return FieldBoolean, true
	case "array", "list":
		return FieldArray, true
	case "object", "map", "dict":
		return FieldObject, true
	}
	return "", false
}

// OutputFieldSpec declares one field a generation step is expected to return.
type OutputFieldSpec struct {
	Name        string    `json:"name" yaml:"name" mapstructure:"name"`
	Type        FieldType `json:"type" yaml:"type" mapstructure:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}
