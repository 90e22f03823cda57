package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/fable/pkg/domain"
)

// Type defines the contract for field validation and coercion.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value domain.Value) error
	// Coerce converts value into this type when a lossless textual reading
	// exists (e.g., the string "5" for a number). It returns an error when
	// no such reading exists.
	Coerce(value domain.Value) (domain.Value, error)
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value domain.Value) error {
	if value.Kind() != domain.KindString {
		return fmt.Errorf("expected string, got %s", value.Kind())
	}
	return nil
}

// Coerce renders scalars as text. Arrays and objects are rejected.
func (t *StringType) Coerce(value domain.Value) (domain.Value, error) {
	switch value.Kind() {
	case domain.KindString:
		return value, nil
	case domain.KindNumber, domain.KindBool:
		return domain.String(value.Text()), nil
	}
	return value, t.Validate(value)
}

// NumberType validates numeric values, optionally requiring whole numbers.
type NumberType struct {
	integer bool
}

func (t *NumberType) Name() string {
	if t.integer {
		return "int"
	}
	return "number"
}

func (t *NumberType) Validate(value domain.Value) error {
	f, ok := value.Float()
	if !ok {
		return fmt.Errorf("expected %s, got %s", t.Name(), value.Kind())
	}
	if t.integer && f != math.Trunc(f) {
		return fmt.Errorf("expected int, got float (not a whole number)")
	}
	return nil
}

// Coerce reads numeric strings.
func (t *NumberType) Coerce(value domain.Value) (domain.Value, error) {
	if s, ok := value.Str(); ok {
		if c := domain.CoerceText(s); c.Kind() == domain.KindNumber {
			value = c
		}
	}
	return value, t.Validate(value)
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "boolean" }

func (t *BoolType) Validate(value domain.Value) error {
	if value.Kind() != domain.KindBool {
		return fmt.Errorf("expected boolean, got %s", value.Kind())
	}
	return nil
}

// Coerce reads "true"/"false" (any case) and "yes"/"no".
func (t *BoolType) Coerce(value domain.Value) (domain.Value, error) {
	if s, ok := value.Str(); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			value = domain.Bool(true)
		case "false", "no":
			value = domain.Bool(false)
		}
	}
	return value, t.Validate(value)
}

// ArrayType validates arrays, optionally of a specific element type.
type ArrayType struct {
	elemType Type
}

func (t *ArrayType) Name() string {
	if t.elemType == nil {
		return "array"
	}
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *ArrayType) Validate(value domain.Value) error {
	items, ok := value.Array()
	if !ok {
		return fmt.Errorf("expected array, got %s", value.Kind())
	}
	if t.elemType == nil {
		return nil
	}
	for i, item := range items {
		if err := t.elemType.Validate(item); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Coerce wraps a scalar into a one-element array, splits comma-separated
// text, and coerces each element when an element type is set.
func (t *ArrayType) Coerce(value domain.Value) (domain.Value, error) {
	switch value.Kind() {
	case domain.KindArray:
	case domain.KindString:
		s, _ := value.Str()
		if parsed := parseEmbedded(s); parsed.Kind() == domain.KindArray {
			value = parsed
			break
		}
		var items []domain.Value
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, domain.String(domain.Unquote(part)))
			}
		}
		value = domain.Array(items...)
	case domain.KindNull, domain.KindObject:
		return value, t.Validate(value)
	default:
		value = domain.Array(value)
	}

	if t.elemType == nil {
		return value, nil
	}
	items, _ := value.Array()
	out := make([]domain.Value, len(items))
	for i, item := range items {
		c, err := t.elemType.Coerce(item)
		if err != nil {
			return value, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = c
	}
	return domain.Array(out...), nil
}

// ObjectType validates objects.
type ObjectType struct{}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value domain.Value) error {
	if value.Kind() != domain.KindObject {
		return fmt.Errorf("expected object, got %s", value.Kind())
	}
	return nil
}

// Coerce reads a string holding a JSON object.
func (t *ObjectType) Coerce(value domain.Value) (domain.Value, error) {
	if s, ok := value.Str(); ok {
		if parsed := parseEmbedded(s); parsed.Kind() == domain.KindObject {
			value = parsed
		}
	}
	return value, t.Validate(value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(domain.Value) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value domain.Value) error {
	return t.validate(value)
}

// Coerce only validates.
func (t *CustomType) Coerce(value domain.Value) (domain.Value, error) {
	return value, t.validate(value)
}

// --- Factory Functions ---

// String creates a string type.
func String() Type { return &StringType{} }

// Number creates a number type.
func Number() Type { return &NumberType{} }

// Int creates a whole-number type.
func Int() Type { return &NumberType{integer: true} }

// Boolean creates a boolean type.
func Boolean() Type { return &BoolType{} }

// Array creates an array type with any elements.
func Array() Type { return &ArrayType{} }

// Slice creates an array type for elements of the given type.
func Slice(elemType Type) Type {
	return &ArrayType{elemType: elemType}
}

// Object creates an object type.
func Object() Type { return &ObjectType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(domain.Value) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ForField returns the type matching a declared output field type.
// Unknown field types validate as strings.
func ForField(ft domain.FieldType) Type {
	switch ft {
	case domain.FieldNumber:
		return Number()
	case domain.FieldBoolean:
		return Boolean()
	case domain.FieldArray:
		return Array()
	case domain.FieldObject:
		return Object()
	default:
		return String()
	}
}

// ParseType converts a string type name to a Type.
// Supports the output field names and aliases ("string", "number", "int",
// "bool", "list", ...) plus element-typed arrays such as "[string]".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	switch strings.ToLower(typeStr) {
	case "int", "integer":
		return Int(), nil
	}
	if ft, ok := domain.ParseFieldType(typeStr); ok {
		return ForField(ft), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", typeStr)
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"name": "string", "age": "int"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}

func parseEmbedded(s string) domain.Value {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '[' && s[0] != '{') {
		return domain.Value{}
	}
	var v domain.Value
	if err := v.UnmarshalJSON([]byte(s)); err != nil {
		return domain.Value{}
	}
	return v
}
