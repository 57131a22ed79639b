package prompts

import (
	"context"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/tokenizer"
)

// Prompt is an ordered list of sections rendered into a single message list
// under an overall token budget. Fixed sections render first against the full
// budget; flexible sections share what remains between them.
type Prompt struct {
	sections []Section
}

var _ Section = (*Prompt)(nil)

// NewPrompt creates a prompt from the given sections.
func NewPrompt(sections ...Section) *Prompt {
	return &Prompt{sections: sections}
}

// AddSection appends a section and returns the prompt for chaining.
func (p *Prompt) AddSection(s Section) *Prompt {
	p.sections = append(p.sections, s)
	return p
}

// Sections returns the prompt's sections in order.
func (p *Prompt) Sections() []Section {
	return p.sections
}

// RenderAsMessages renders all sections in their configured order. TooLong is
// set when the fixed sections alone exceed the budget or any fixed section
// overflowed its own render.
func (p *Prompt) RenderAsMessages(ctx context.Context, mem memory.Memory, tok tokenizer.Tokenizer, maxTokens int) (*Rendered, error) {
	rendered := make([]*Rendered, len(p.sections))
	fixedLength := 0
	flexCount := 0
	for i, s := range p.sections {
		if f, ok := s.(Flexible); ok && f.Flexible() {
			flexCount++
			continue
		}
		r, err := s.RenderAsMessages(ctx, mem, tok, maxTokens)
		if err != nil {
			return nil, err
		}
		rendered[i] = r
		fixedLength += r.Length
	}

	remaining := maxTokens - fixedLength
	if remaining < 0 {
		remaining = 0
	}
	if flexCount > 1 {
		remaining /= flexCount
	}
	for i, s := range p.sections {
		if rendered[i] != nil {
			continue
		}
		r, err := s.RenderAsMessages(ctx, mem, tok, remaining)
		if err != nil {
			return nil, err
		}
		rendered[i] = r
	}

	out := &Rendered{}
	for _, r := range rendered {
		out.Messages = append(out.Messages, r.Messages...)
		out.Length += r.Length
		if r.TooLong {
			out.TooLong = true
		}
	}
	if out.Length > maxTokens {
		out.TooLong = true
	}
	return out, nil
}
