package schema

import (
	"encoding/json"
	"fmt"
)

// SchemaType represents JSON Schema types.
type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeNull    SchemaType = "null"
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
)

// StringFormat represents common string format constraints.
type StringFormat string

const (
	FormatDateTime StringFormat = "date-time"
	FormatDate     StringFormat = "date"
	FormatTime     StringFormat = "time"
	FormatEmail    StringFormat = "email"
	FormatURI      StringFormat = "uri"
	FormatUUID     StringFormat = "uuid"
	FormatHostname StringFormat = "hostname"
	FormatIPv4     StringFormat = "ipv4"
	FormatIPv6     StringFormat = "ipv6"
)

// TypeSet represents the "type" keyword, which accepts either a single type
// name or a list of alternatives.
type TypeSet struct {
	Types []SchemaType
}

// Types builds a TypeSet from one or more schema types.
func Types(ts ...SchemaType) *TypeSet {
	if len(ts) == 0 {
		return nil
	}
	return &TypeSet{Types: ts}
}

// MarshalJSON implements json.Marshaler for TypeSet.
func (ts *TypeSet) MarshalJSON() ([]byte, error) {
	if ts == nil || len(ts.Types) == 0 {
		return json.Marshal(nil)
	}
	if len(ts.Types) == 1 {
		return json.Marshal(ts.Types[0])
	}
	return json.Marshal(ts.Types)
}

// UnmarshalJSON implements json.Unmarshaler for TypeSet.
func (ts *TypeSet) UnmarshalJSON(data []byte) error {
	var single SchemaType
	if err := json.Unmarshal(data, &single); err == nil {
		ts.Types = []SchemaType{single}
		return nil
	}
	var many []SchemaType
	if err := json.Unmarshal(data, &many); err == nil {
		ts.Types = many
		return nil
	}
	return fmt.Errorf("type must be a string or an array of strings")
}

// Contains reports whether the set includes the given type.
func (ts *TypeSet) Contains(t SchemaType) bool {
	if ts == nil {
		return false
	}
	for _, candidate := range ts.Types {
		if candidate == t {
			return true
		}
	}
	return false
}

// Schema represents a JSON Schema definition.
// It supports nested objects, arrays, enums, and the common validation
// constraints a model response contract needs.
type Schema struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Type definition; a single type or a list of alternatives.
	Type *TypeSet `json:"type,omitempty"`

	// Object properties
	Properties           map[string]*Schema    `json:"properties,omitempty"`
	Required             []string              `json:"required,omitempty"`
	AdditionalProperties *AdditionalProperties `json:"additionalProperties,omitempty"`
	MinProperties        *int                  `json:"minProperties,omitempty"`
	MaxProperties        *int                  `json:"maxProperties,omitempty"`

	// Array items
	Items       *Schema `json:"items,omitempty"`
	MinItems    *int    `json:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty"`
	UniqueItems *bool   `json:"uniqueItems,omitempty"`

	// Enum and const
	Enum  []any `json:"enum,omitempty"`
	Const any   `json:"const,omitempty"`

	// String constraints
	MinLength *int         `json:"minLength,omitempty"`
	MaxLength *int         `json:"maxLength,omitempty"`
	Pattern   string       `json:"pattern,omitempty"`
	Format    StringFormat `json:"format,omitempty"`

	// Numeric constraints
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// Default value
	Default any `json:"default,omitempty"`

	// Composition keywords
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`
}

// AdditionalProperties represents the additionalProperties field which can be
// either a boolean or a schema.
type AdditionalProperties struct {
	Allowed bool
	Schema  *Schema
}

// MarshalJSON implements json.Marshaler for AdditionalProperties.
func (ap *AdditionalProperties) MarshalJSON() ([]byte, error) {
	if ap == nil {
		return json.Marshal(nil)
	}
	if ap.Schema != nil {
		return json.Marshal(ap.Schema)
	}
	return json.Marshal(ap.Allowed)
}

// UnmarshalJSON implements json.Unmarshaler for AdditionalProperties.
func (ap *AdditionalProperties) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		ap.Allowed = b
		ap.Schema = nil
		return nil
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err == nil {
		ap.Allowed = true
		ap.Schema = &s
		return nil
	}

	return fmt.Errorf("additionalProperties must be boolean or schema")
}

// New creates a new Schema with the specified type.
func New(t SchemaType) *Schema {
	return &Schema{Type: Types(t)}
}

// Object creates a new object schema.
func Object() *Schema {
	return &Schema{
		Type:       Types(TypeObject),
		Properties: make(map[string]*Schema),
	}
}

// Array creates a new array schema with the specified items schema.
func Array(items *Schema) *Schema {
	return &Schema{
		Type:  Types(TypeArray),
		Items: items,
	}
}

// String creates a new string schema.
func String() *Schema {
	return &Schema{Type: Types(TypeString)}
}

// Number creates a new number schema.
func Number() *Schema {
	return &Schema{Type: Types(TypeNumber)}
}

// Integer creates a new integer schema.
func Integer() *Schema {
	return &Schema{Type: Types(TypeInteger)}
}

// Boolean creates a new boolean schema.
func Boolean() *Schema {
	return &Schema{Type: Types(TypeBoolean)}
}

// Enum creates a new enum schema with the specified values.
func Enum(values ...any) *Schema {
	return &Schema{Enum: values}
}

// WithTitle sets the title and returns the schema for chaining.
func (s *Schema) WithTitle(title string) *Schema {
	s.Title = title
	return s
}

// WithDescription sets the description and returns the schema for chaining.
func (s *Schema) WithDescription(desc string) *Schema {
	s.Description = desc
	return s
}

// WithDefault sets the default value and returns the schema for chaining.
func (s *Schema) WithDefault(def any) *Schema {
	s.Default = def
	return s
}

// WithTypes widens the type keyword to a list of alternatives.
func (s *Schema) WithTypes(ts ...SchemaType) *Schema {
	s.Type = Types(ts...)
	return s
}

// AddProperty adds a property to an object schema.
func (s *Schema) AddProperty(name string, prop *Schema) *Schema {
	if s.Properties == nil {
		s.Properties = make(map[string]*Schema)
	}
	s.Properties[name] = prop
	return s
}

// AddRequired adds required field names to an object schema.
func (s *Schema) AddRequired(names ...string) *Schema {
	s.Required = append(s.Required, names...)
	return s
}

// WithMinLength sets the minimum length for string schema.
func (s *Schema) WithMinLength(min int) *Schema {
	s.MinLength = &min
	return s
}

// WithMaxLength sets the maximum length for string schema.
func (s *Schema) WithMaxLength(max int) *Schema {
	s.MaxLength = &max
	return s
}

// WithPattern sets the pattern for string schema.
func (s *Schema) WithPattern(pattern string) *Schema {
	s.Pattern = pattern
	return s
}

// WithFormat sets the format for string schema.
func (s *Schema) WithFormat(format StringFormat) *Schema {
	s.Format = format
	return s
}

// WithMinimum sets the minimum value for numeric schema.
func (s *Schema) WithMinimum(min float64) *Schema {
	s.Minimum = &min
	return s
}

// WithMaximum sets the maximum value for numeric schema.
func (s *Schema) WithMaximum(max float64) *Schema {
	s.Maximum = &max
	return s
}

// WithMultipleOf sets the multipleOf constraint for numeric schema.
func (s *Schema) WithMultipleOf(val float64) *Schema {
	s.MultipleOf = &val
	return s
}

// WithMinItems sets the minimum items for array schema.
func (s *Schema) WithMinItems(min int) *Schema {
	s.MinItems = &min
	return s
}

// WithMaxItems sets the maximum items for array schema.
func (s *Schema) WithMaxItems(max int) *Schema {
	s.MaxItems = &max
	return s
}

// WithUniqueItems sets the uniqueItems constraint for array schema.
func (s *Schema) WithUniqueItems(unique bool) *Schema {
	s.UniqueItems = &unique
	return s
}

// WithAdditionalProperties sets the additionalProperties constraint.
func (s *Schema) WithAdditionalProperties(allowed bool) *Schema {
	s.AdditionalProperties = &AdditionalProperties{Allowed: allowed}
	return s
}

// WithAdditionalPropertiesSchema sets the additionalProperties to a schema.
func (s *Schema) WithAdditionalPropertiesSchema(schema *Schema) *Schema {
	s.AdditionalProperties = &AdditionalProperties{Allowed: true, Schema: schema}
	return s
}

// WithEnum sets the enum values.
func (s *Schema) WithEnum(values ...any) *Schema {
	s.Enum = values
	return s
}

// WithConst sets the const value.
func (s *Schema) WithConst(value any) *Schema {
	s.Const = value
	return s
}

// WithAnyOf sets the anyOf alternatives.
func (s *Schema) WithAnyOf(schemas ...*Schema) *Schema {
	s.AnyOf = schemas
	return s
}

// ToJSON serializes the schema to JSON.
func (s *Schema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// FromJSON deserializes a schema from JSON.
func FromJSON(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal JSON schema: %w", err)
	}
	return &s, nil
}

// IsRequired checks if a property is required.
func (s *Schema) IsRequired(name string) bool {
	for _, req := range s.Required {
		if req == name {
			return true
		}
	}
	return false
}

// GetProperty returns a property schema by name.
func (s *Schema) GetProperty(name string) *Schema {
	if s == nil || s.Properties == nil {
		return nil
	}
	return s.Properties[name]
}

// HasProperty checks if a property exists.
func (s *Schema) HasProperty(name string) bool {
	return s.GetProperty(name) != nil
}
