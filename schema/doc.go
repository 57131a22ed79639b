// Package schema models JSON Schema documents and validates values against
// them.
//
// The Schema struct covers the conventional JSON-Schema shape (types, required
// properties, enumerations, formats, uniqueness, additional-properties policy)
// with chainable builders for programmatic construction.
//
// Validation runs behind the small Validator interface so the rest of the
// library never depends on a particular schema-validation library's error
// shape. The default backend wraps github.com/xeipuuv/gojsonschema and
// normalizes its results into ErrorDescriptor values: property path, a
// categorical ErrorKind, the offending argument, and the library's raw
// message.
package schema
