package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// rootField is the path gojsonschema reports for errors on the document root.
const rootField = "(root)"

// GoJSONSchemaValidator validates values with github.com/xeipuuv/gojsonschema
// and normalizes its result errors into ErrorDescriptor values.
type GoJSONSchemaValidator struct{}

// NewGoJSONSchemaValidator creates the gojsonschema-backed validator.
func NewGoJSONSchemaValidator() *GoJSONSchemaValidator {
	return &GoJSONSchemaValidator{}
}

// Validate checks value against s. The returned error covers schema
// compilation problems only; instance violations land in Result.Errors.
func (v *GoJSONSchemaValidator) Validate(value any, s *Schema) (*Result, error) {
	if s == nil {
		return &Result{Valid: true}, nil
	}

	raw, err := s.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	res, err := compiled.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, fmt.Errorf("validate value: %w", err)
	}

	if res.Valid() {
		return &Result{Valid: true}, nil
	}

	descriptors := make([]ErrorDescriptor, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		descriptors = append(descriptors, ErrorDescriptor{
			Property: re.Field(),
			Kind:     mapKind(re.Type()),
			Argument: argumentFor(re, s),
			Message:  re.Description(),
		})
	}

	return &Result{Valid: false, Errors: descriptors}, nil
}

// mapKind translates gojsonschema error type names into ErrorKind categories.
// Unrecognized names pass through so callers can still see them.
func mapKind(t string) ErrorKind {
	switch t {
	case "invalid_type":
		return KindType
	case "number_any_of":
		return KindAnyOf
	case "additional_property_not_allowed":
		return KindAdditionalProperties
	case "required":
		return KindRequired
	case "format":
		return KindFormat
	case "unique":
		return KindUniqueItems
	case "enum":
		return KindEnum
	case "const":
		return KindConst
	default:
		return ErrorKind(t)
	}
}

// argumentFor extracts the kind-specific offending argument from a result
// error. The anyOf kind gets no detail from the library, so the allowed type
// list is resolved from the configured schema at the error's path instead.
func argumentFor(re gojsonschema.ResultError, root *Schema) any {
	details := re.Details()

	switch mapKind(re.Type()) {
	case KindType:
		return details["expected"]
	case KindRequired, KindAdditionalProperties:
		return details["property"]
	case KindFormat:
		return details["format"]
	case KindEnum:
		return details["allowed"]
	case KindConst:
		if allowed, ok := details["allowed"]; ok {
			return allowed
		}
		if sub := resolveAt(root, re.Field()); sub != nil {
			return sub.Const
		}
		return nil
	case KindAnyOf:
		if sub := resolveAt(root, re.Field()); sub != nil {
			if types := anyOfTypes(sub); len(types) > 0 {
				return types
			}
		}
		return nil
	default:
		return nil
	}
}

// resolveAt walks the schema to the subschema addressed by a result error
// field path ("(root)", "age", "person.age", "items.0.name").
func resolveAt(root *Schema, path string) *Schema {
	if root == nil {
		return nil
	}
	if path == "" || path == rootField {
		return root
	}

	current := root
	for _, segment := range strings.Split(path, ".") {
		if current == nil {
			return nil
		}
		if next := current.GetProperty(segment); next != nil {
			current = next
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil && current.Items != nil {
			current = current.Items
			continue
		}
		return nil
	}
	return current
}

// anyOfTypes renders the alternatives of an anyOf schema as a type-name list.
func anyOfTypes(s *Schema) []string {
	if s == nil || len(s.AnyOf) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.AnyOf))
	for _, branch := range s.AnyOf {
		switch {
		case branch == nil:
			continue
		case branch.Type != nil && len(branch.Type.Types) > 0:
			for _, t := range branch.Type.Types {
				names = append(names, string(t))
			}
		case branch.Title != "":
			names = append(names, branch.Title)
		}
	}
	return names
}
