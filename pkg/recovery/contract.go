package recovery

import (
	"errors"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/schema"
)

// ValidateContract checks recovered data against declared output fields.
// Present fields are coerced to their declared type when a textual reading
// exists. Missing fields and values that cannot be coerced are reported as
// diagnostics; the data is never discarded.
func ValidateContract(data map[string]domain.Value, contract []domain.OutputFieldSpec) (map[string]domain.Value, []domain.Diagnostic) {
	if len(contract) == 0 {
		return data, nil
	}

	out, err := schema.Coerce(schema.FromContract(contract), data)
	var diags []domain.Diagnostic
	for _, e := range schema.ValidationErrors(err) {
		var ve *schema.ValidationError
		if !errors.As(e, &ve) {
			continue
		}
		kind := domain.KindTypeMismatch
		if ve.Missing {
			kind = domain.KindMissingField
		}
		diags = append(diags, domain.Diagnostic{
			Kind:       kind,
			Expression: ve.Key,
			Message:    e.Error(),
			Offset:     -1,
		})
	}
	return out, diags
}
