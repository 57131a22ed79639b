package schema

// ErrorKind categorizes a schema violation. The constants cover the kinds the
// feedback translator distinguishes; backends may report further kinds, which
// callers treat as uncategorized.
type ErrorKind string

const (
	// KindType means the value has the wrong type.
	KindType ErrorKind = "type"
	// KindAnyOf means the value matches none of the allowed alternatives.
	KindAnyOf ErrorKind = "anyOf"
	// KindAdditionalProperties means the object carries a property the
	// schema forbids.
	KindAdditionalProperties ErrorKind = "additionalProperties"
	// KindRequired means a required property is missing.
	KindRequired ErrorKind = "required"
	// KindFormat means a string does not match its declared format.
	KindFormat ErrorKind = "format"
	// KindUniqueItems means an array repeats items where uniqueness is
	// required.
	KindUniqueItems ErrorKind = "uniqueItems"
	// KindEnum means the value is outside the enumerated set.
	KindEnum ErrorKind = "enum"
	// KindConst means the value differs from the required constant.
	KindConst ErrorKind = "const"
)

// ErrorDescriptor is one entry from a validation failure: where the violation
// happened, what category it falls into, the offending argument (expected
// type, missing property name, allowed values...), and the backend's raw
// human-readable message.
type ErrorDescriptor struct {
	// Property is the instance path of the violation, in the backend's
	// convention ("(root)" for the root instance, "person.age" for nested
	// properties).
	Property string `json:"property"`
	// Kind is the violation category.
	Kind ErrorKind `json:"kind"`
	// Argument carries the kind-specific detail: the expected type for
	// KindType, the missing property name for KindRequired, the allowed
	// type list for KindAnyOf, and so on. May be nil.
	Argument any `json:"argument,omitempty"`
	// Message is the backend's raw message, used verbatim where the
	// translator has no specific template.
	Message string `json:"message"`
}

// Result is the outcome of validating a value against a schema.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ErrorDescriptor `json:"errors,omitempty"`
}
