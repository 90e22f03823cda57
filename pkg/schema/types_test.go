package schema

import (
	"testing"

	"github.com/aretw0/fable/pkg/domain"
)

func TestStringType(t *testing.T) {
	typ := String()

	if typ.Name() != "string" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "string")
	}

	tests := []struct {
		value   domain.Value
		wantErr bool
	}{
		{domain.String("hello"), false},
		{domain.String(""), false},
		{domain.Number(42), true},
		{domain.Bool(true), true},
		{domain.Null(), true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestNumberTypes(t *testing.T) {
	if Number().Name() != "number" || Int().Name() != "int" {
		t.Fatalf("unexpected names %q, %q", Number().Name(), Int().Name())
	}

	tests := []struct {
		typ     Type
		value   domain.Value
		wantErr bool
	}{
		{Number(), domain.Number(42.5), false},
		{Int(), domain.Number(42), false},
		{Int(), domain.Number(42.5), true}, // not whole
		{Number(), domain.String("42"), true},
		{Number(), domain.Null(), true},
	}

	for _, tt := range tests {
		err := tt.typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.typ.Name(), tt.value, err, tt.wantErr)
		}
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		in      domain.Value
		want    domain.Value
		wantErr bool
	}{
		{"number from text", Number(), domain.String(" 5 "), domain.Number(5), false},
		{"number from words", Number(), domain.String("five"), domain.String("five"), true},
		{"int from fraction text", Int(), domain.String("2.5"), domain.Number(2.5), true},
		{"bool from text", Boolean(), domain.String("Yes"), domain.Bool(true), false},
		{"bool from FALSE", Boolean(), domain.String("FALSE"), domain.Bool(false), false},
		{"string from number", String(), domain.Number(7), domain.String("7"), false},
		{"string from array", String(), domain.Array(), domain.Array(), true},
		{"array from csv", Array(), domain.String("a, b"), domain.Array(domain.String("a"), domain.String("b")), false},
		{"array from json text", Array(), domain.String(`[1,2]`), domain.Array(domain.Number(1), domain.Number(2)), false},
		{"array wraps scalar", Array(), domain.Number(3), domain.Array(domain.Number(3)), false},
		{"typed array", Slice(Number()), domain.String("1, 2"), domain.Array(domain.Number(1), domain.Number(2)), false},
		{"object from json text", Object(), domain.String(`{"a":1}`), domain.Object(map[string]domain.Value{"a": domain.Number(1)}), false},
		{"object from text", Object(), domain.String("nope"), domain.String("nope"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Coerce(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("Coerce(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSliceType(t *testing.T) {
	typ := Slice(String())
	if typ.Name() != "[string]" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "[string]")
	}
	if err := typ.Validate(domain.Array(domain.String("a"), domain.Number(1))); err == nil {
		t.Error("expected element error")
	}
	if err := typ.Validate(domain.Array()); err != nil {
		t.Errorf("empty array: %v", err)
	}
}

func TestCustomType(t *testing.T) {
	nonEmpty := Custom("non_empty", func(v domain.Value) error {
		if v.Len() == 0 {
			return errEmpty
		}
		return nil
	})

	if nonEmpty.Name() != "non_empty" {
		t.Errorf("Name() = %q", nonEmpty.Name())
	}
	if err := nonEmpty.Validate(domain.String("x")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := nonEmpty.Coerce(domain.String("")); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"string", "string", false},
		{"text", "string", false},
		{"int", "int", false},
		{"float", "number", false},
		{"bool", "boolean", false},
		{"list", "array", false},
		{"dict", "object", false},
		{"[int]", "[int]", false},
		{"[[string]]", "[[string]]", false},
		{"unknown", "", true},
		{"[unknown]", "", true},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got.Name() != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.in, got.Name(), tt.want)
		}
	}
}

func TestForField(t *testing.T) {
	if ForField(domain.FieldNumber).Name() != "number" {
		t.Error("number field")
	}
	if ForField(domain.FieldType("weird")).Name() != "string" {
		t.Error("unknown field types should validate as strings")
	}
}
