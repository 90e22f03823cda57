// Package schema provides a small type system for recovered output fields.
//
// It defines built-in types (string, number, int, boolean, array, object)
// plus element-typed arrays and custom validators. Schemas map field names to
// types. Besides strict validation every type offers best-effort coercion,
// which the recovery parser applies to declared output fields:
//
//	s := schema.Schema{
//	    "name": schema.String(),
//	    "age":  schema.Int(),
//	    "tags": schema.Slice(schema.String()),
//	}
//
//	data := map[string]domain.Value{
//	    "name": domain.String("Ann"),
//	    "age":  domain.String("5"),
//	    "tags": domain.String("brave, quiet"),
//	}
//
//	coerced, err := schema.Coerce(s, data)
//	// coerced["age"] is the number 5, coerced["tags"] is ["brave","quiet"]
//
// Schemas can also be derived from an output contract with FromContract or
// parsed from type strings with ParseTypeMap.
package schema
