package schema

// Validator validates a value against a schema and reports violations as
// ErrorDescriptor values.
//
// Implementations translate their backing library's error objects into the
// normalized descriptor shape so callers never depend on a specific
// schema-validation library. The error return covers backend problems only
// (an uncompilable schema); an invalid instance is reported through
// Result.Valid, never as an error.
type Validator interface {
	Validate(value any, s *Schema) (*Result, error)
}

// Default returns the library's standard Validator backend.
func Default() Validator {
	return NewGoJSONSchemaValidator()
}
