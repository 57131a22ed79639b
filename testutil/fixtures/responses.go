// Package fixtures provides canned model outputs and schemas for validator
// and wave tests.
package fixtures

import (
	"encoding/json"

	"github.com/rmolinamir/alphawave/schema"
	"github.com/rmolinamir/alphawave/types"
)

// Model output samples, from clean to messy.
const (
	// CleanJSON is a bare JSON object with no surrounding prose.
	CleanJSON = `{"name":"Ada","age":36}`

	// FencedJSON wraps the object in a markdown code fence, the way chat
	// models often reply.
	FencedJSON = "Here you go:\n```json\n{\"name\":\"Ada\",\"age\":36}\n```\nLet me know if you need more."

	// ChattyJSON buries the object in prose with a second, earlier object
	// that should lose the last-to-first scan.
	ChattyJSON = `First I considered {"name":"Babbage"} but settled on {"name":"Ada","age":36} instead.`

	// WrongTypeJSON violates PersonSchema: age is a string.
	WrongTypeJSON = `{"name":"Ada","age":"thirty-six"}`

	// MissingFieldJSON violates PersonSchema: age is absent.
	MissingFieldJSON = `{"name":"Ada"}`

	// NoJSON contains no JSON object at all.
	NoJSON = `I am sorry, I cannot answer that in the requested format.`
)

// PersonSchema requires a name string and an age number.
func PersonSchema() *schema.Schema {
	var s schema.Schema
	raw := `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "number"}
		},
		"required": ["name", "age"],
		"additionalProperties": false
	}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		panic(err)
	}
	return &s
}

// TextResponse wraps text in a successful PromptResponse.
func TextResponse(text string) *types.PromptResponse {
	return types.NewTextResponse(text)
}

// RateLimitedResponse mimics a provider 429.
func RateLimitedResponse() *types.PromptResponse {
	return types.NewErrorResponse(
		types.StatusRateLimited,
		types.NewError(types.ErrRateLimited, "rate limit exceeded"),
	)
}
