package prompts

import (
	"context"
	"fmt"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
)

// Rendered is the output of a section render: the messages to send, the
// token length they occupy, and whether the section exceeded its budget.
type Rendered struct {
	Messages []types.Message
	Length   int
	TooLong  bool
}

// Section renders part of a prompt as messages within a token budget.
type Section interface {
	RenderAsMessages(ctx context.Context, mem memory.Memory, tok tokenizer.Tokenizer, maxTokens int) (*Rendered, error)
}

// Flexible marks sections that size themselves to whatever budget remains
// after the fixed sections of a prompt have rendered.
type Flexible interface {
	Flexible() bool
}

// TextSection renders fixed text as a single message.
type TextSection struct {
	role types.Role
	text string
}

var _ Section = (*TextSection)(nil)

// NewTextSection creates a section with a fixed role and text.
func NewTextSection(role types.Role, text string) *TextSection {
	return &TextSection{role: role, text: text}
}

// NewSystemMessage creates a fixed system text section.
func NewSystemMessage(text string) *TextSection {
	return NewTextSection(types.RoleSystem, text)
}

// NewUserMessage creates a fixed user text section.
func NewUserMessage(text string) *TextSection {
	return NewTextSection(types.RoleUser, text)
}

// NewAssistantMessage creates a fixed assistant text section.
func NewAssistantMessage(text string) *TextSection {
	return NewTextSection(types.RoleAssistant, text)
}

// RenderAsMessages renders the section's text as one message. TooLong is set
// when the text alone exceeds the budget; the text is never truncated.
func (s *TextSection) RenderAsMessages(ctx context.Context, mem memory.Memory, tok tokenizer.Tokenizer, maxTokens int) (*Rendered, error) {
	length, err := tok.CountTokens(s.text)
	if err != nil {
		return nil, fmt.Errorf("count tokens: %w", err)
	}
	return &Rendered{
		Messages: []types.Message{types.NewMessage(s.role, s.text)},
		Length:   length,
		TooLong:  length > maxTokens,
	}, nil
}
