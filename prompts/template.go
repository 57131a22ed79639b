package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
)

// variablePattern matches {{$name}} template variables.
var variablePattern = regexp.MustCompile(`\{\{\$([A-Za-z0-9_]+)\}\}`)

// TemplateSection renders text with {{$variable}} placeholders resolved from
// memory. Missing variables render as empty strings.
type TemplateSection struct {
	role     types.Role
	template string
}

var _ Section = (*TemplateSection)(nil)

// NewTemplateSection creates a template section with the given role.
func NewTemplateSection(role types.Role, template string) *TemplateSection {
	return &TemplateSection{role: role, template: template}
}

// RenderAsMessages interpolates the template from memory and renders the
// result as one message.
func (s *TemplateSection) RenderAsMessages(ctx context.Context, mem memory.Memory, tok tokenizer.Tokenizer, maxTokens int) (*Rendered, error) {
	var lookupErr error
	text := variablePattern.ReplaceAllStringFunc(s.template, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		value, err := mem.Get(ctx, name)
		if err != nil {
			if !errors.Is(err, memory.ErrNotFound) {
				lookupErr = err
			}
			return ""
		}
		return renderValue(value)
	})
	if lookupErr != nil {
		return nil, fmt.Errorf("resolve template variable: %w", lookupErr)
	}
	length, err := tok.CountTokens(text)
	if err != nil {
		return nil, fmt.Errorf("count tokens: %w", err)
	}
	return &Rendered{
		Messages: []types.Message{types.NewMessage(s.role, text)},
		Length:   length,
		TooLong:  length > maxTokens,
	}, nil
}

// renderValue converts a memory value to prompt text: strings pass through,
// structured values render as JSON, everything else formats with %v.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}
