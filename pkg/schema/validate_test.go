package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/fable/pkg/domain"
)

var errEmpty = errors.New("empty")

func TestValidate(t *testing.T) {
	s := Schema{
		"name": String(),
		"age":  Int(),
		"tags": Slice(String()),
	}

	tests := []struct {
		name      string
		data      map[string]domain.Value
		wantCount int
	}{
		{
			name: "valid",
			data: map[string]domain.Value{
				"name": domain.String("Ann"),
				"age":  domain.Number(5),
				"tags": domain.Array(domain.String("brave")),
			},
		},
		{
			name: "missing and wrong",
			data: map[string]domain.Value{
				"name": domain.Number(1),
				"tags": domain.Array(),
			},
			wantCount: 2,
		},
		{
			name: "extra fields ignored",
			data: map[string]domain.Value{
				"name":  domain.String("Ann"),
				"age":   domain.Number(5),
				"tags":  domain.Array(),
				"extra": domain.Bool(true),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(s, tt.data)
			errs := ValidationErrors(err)
			if len(errs) != tt.wantCount {
				t.Fatalf("got %d errors (%v), want %d", len(errs), err, tt.wantCount)
			}
		})
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(nil, map[string]domain.Value{"x": domain.Null()}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidate_ErrorClassification(t *testing.T) {
	err := Validate(Schema{"a": String(), "b": Number()}, map[string]domain.Value{"b": domain.String("x")})
	if !errors.Is(err, domain.ErrMissingField) {
		t.Errorf("expected ErrMissingField in %v", err)
	}
	if !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch in %v", err)
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("unexpected message %q", err.Error())
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Key != "a" {
		t.Errorf("expected first failure on field a, got %v", ve)
	}
}

func TestValidateFields(t *testing.T) {
	s := Schema{"a": String(), "b": Number()}
	data := map[string]domain.Value{"a": domain.String("x")}

	if err := ValidateFields(s, data, "a"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateFields(s, data, "b"); err == nil {
		t.Error("expected error for missing b")
	}
	if err := ValidateFields(s, data, "zzz"); err == nil {
		t.Error("expected error for undefined field")
	}
	if err := ValidateFields(s, data); err != nil {
		t.Errorf("no fields: %v", err)
	}
}

func TestCoerceSchema(t *testing.T) {
	s := FromContract([]domain.OutputFieldSpec{
		{Name: "age", Type: domain.FieldNumber},
		{Name: "active", Type: domain.FieldBoolean},
		{Name: "bio", Type: domain.FieldString},
		{Name: "missing", Type: domain.FieldString},
	})
	data := map[string]domain.Value{
		"age":    domain.String("5"),
		"active": domain.String("true"),
		"bio":    domain.Array(),
		"other":  domain.Null(),
	}

	out, err := Coerce(s, data)
	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", err)
	}
	if !out["age"].Equal(domain.Number(5)) {
		t.Errorf("age = %v", out["age"])
	}
	if !out["active"].Equal(domain.Bool(true)) {
		t.Errorf("active = %v", out["active"])
	}
	if out["bio"].Kind() != domain.KindArray {
		t.Errorf("bio should stay untouched, got %v", out["bio"])
	}
	if _, ok := out["other"]; !ok {
		t.Error("fields outside the schema must be kept")
	}
	if data["age"].Kind() != domain.KindString {
		t.Error("input map must not be modified")
	}
}
