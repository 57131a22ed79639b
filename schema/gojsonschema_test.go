package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNilSchema(t *testing.T) {
	v := NewGoJSONSchemaValidator()

	res, err := v.Validate(map[string]any{"anything": true}, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateSuccess(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().
		AddProperty("name", String()).
		AddProperty("age", Number()).
		AddRequired("name")

	res, err := v.Validate(map[string]any{"name": "Ada", "age": 36}, s)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateWrongType(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().AddProperty("age", Number())

	res, err := v.Validate(map[string]any{"age": "thirty"}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindType, desc.Kind)
	assert.Equal(t, "age", desc.Property)
	assert.Equal(t, "number", desc.Argument)
}

func TestValidateMissingRequired(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().
		AddProperty("id", Number()).
		AddRequired("id")

	res, err := v.Validate(map[string]any{}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindRequired, desc.Kind)
	assert.Equal(t, "(root)", desc.Property)
	assert.Equal(t, "id", desc.Argument)
}

func TestValidateMissingRequiredNested(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().
		AddProperty("person", Object().
			AddProperty("age", Number()).
			AddRequired("age")).
		AddRequired("person")

	res, err := v.Validate(map[string]any{"person": map[string]any{}}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindRequired, desc.Kind)
	assert.Equal(t, "person", desc.Property)
	assert.Equal(t, "age", desc.Argument)
}

func TestValidateAdditionalProperty(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().
		AddProperty("name", String()).
		WithAdditionalProperties(false)

	res, err := v.Validate(map[string]any{"name": "Ada", "extra": 1}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindAdditionalProperties, desc.Kind)
	assert.Equal(t, "(root)", desc.Property)
	assert.Equal(t, "extra", desc.Argument)
}

func TestValidateFormat(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().AddProperty("email", String().WithFormat(FormatEmail))

	res, err := v.Validate(map[string]any{"email": "not-an-email"}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindFormat, desc.Kind)
	assert.Equal(t, "email", desc.Property)
	assert.Equal(t, "email", desc.Argument)
}

func TestValidateUniqueItems(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().AddProperty("tags", Array(String()).WithUniqueItems(true))

	res, err := v.Validate(map[string]any{"tags": []any{"a", "a"}}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindUniqueItems, desc.Kind)
	assert.Equal(t, "tags", desc.Property)
}

func TestValidateEnum(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().AddProperty("color", String().WithEnum("red", "green"))

	res, err := v.Validate(map[string]any{"color": "blue"}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindEnum, desc.Kind)
	assert.Equal(t, "color", desc.Property)
	assert.Contains(t, desc.Message, "must be one of the following:")
	assert.Contains(t, desc.Message, "red")
	assert.Contains(t, desc.Message, "green")
}

func TestValidateConst(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().AddProperty("version", String().WithConst("v1"))

	res, err := v.Validate(map[string]any{"version": "v2"}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)

	desc := res.Errors[0]
	assert.Equal(t, KindConst, desc.Kind)
	assert.Equal(t, "version", desc.Property)
	assert.Contains(t, fmt.Sprintf("%v", desc.Argument), "v1")
}

func TestValidateAnyOfResolvesAllowedTypes(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().
		AddProperty("value", (&Schema{}).WithAnyOf(String(), Number()))

	res, err := v.Validate(map[string]any{"value": true}, s)
	require.NoError(t, err)
	require.False(t, res.Valid)

	var anyOfDesc *ErrorDescriptor
	for i := range res.Errors {
		if res.Errors[i].Kind == KindAnyOf {
			anyOfDesc = &res.Errors[i]
			break
		}
	}
	require.NotNil(t, anyOfDesc, "expected an anyOf error descriptor")
	assert.Equal(t, "value", anyOfDesc.Property)
	assert.Equal(t, []string{"string", "number"}, anyOfDesc.Argument)
}

func TestValidateCompileError(t *testing.T) {
	v := NewGoJSONSchemaValidator()
	s := Object().AddProperty("name", String().WithPattern("("))

	res, err := v.Validate(map[string]any{"name": "x"}, s)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestResolveAt(t *testing.T) {
	s := Object().
		AddProperty("person", Object().
			AddProperty("age", Number())).
		AddProperty("items", Array(Object().
			AddProperty("name", String())))

	tests := []struct {
		name string
		path string
		want *Schema
	}{
		{"root", "(root)", s},
		{"empty", "", s},
		{"property", "person", s.GetProperty("person")},
		{"nested property", "person.age", s.GetProperty("person").GetProperty("age")},
		{"array element", "items.0.name", s.GetProperty("items").Items.GetProperty("name")},
		{"unknown", "person.missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveAt(s, tt.path))
		})
	}
}
