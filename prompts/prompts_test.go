package prompts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
)

// newTestTokenizer returns the character-based estimator: ~4 ASCII chars per
// token, minimum 1 for non-empty text.
func newTestTokenizer() tokenizer.Tokenizer {
	return tokenizer.NewEstimator("test", 1000)
}

func TestTextSectionRender(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewVolatileMemory()
	tok := newTestTokenizer()

	s := NewTextSection(types.RoleSystem, "system rules here!!!")
	r, err := s.RenderAsMessages(ctx, mem, tok, 100)
	require.NoError(t, err)

	require.Len(t, r.Messages, 1)
	assert.Equal(t, types.RoleSystem, r.Messages[0].Role)
	assert.Equal(t, "system rules here!!!", r.Messages[0].Content)
	assert.Equal(t, 5, r.Length)
	assert.False(t, r.TooLong)
}

func TestTextSectionTooLong(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewVolatileMemory()
	tok := newTestTokenizer()

	s := NewSystemMessage("system rules here!!!")
	r, err := s.RenderAsMessages(ctx, mem, tok, 3)
	require.NoError(t, err)

	assert.True(t, r.TooLong)
	// The text itself is never truncated.
	assert.Equal(t, "system rules here!!!", r.Messages[0].Content)
}

func TestTextSectionConveniences(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewVolatileMemory()
	tok := newTestTokenizer()

	tests := []struct {
		name    string
		section Section
		role    types.Role
	}{
		{"system", NewSystemMessage("a"), types.RoleSystem},
		{"user", NewUserMessage("a"), types.RoleUser},
		{"assistant", NewAssistantMessage("a"), types.RoleAssistant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.section.RenderAsMessages(ctx, mem, tok, 10)
			require.NoError(t, err)
			require.Len(t, r.Messages, 1)
			assert.Equal(t, tt.role, r.Messages[0].Role)
		})
	}
}

func TestTemplateSectionInterpolation(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()

	tests := []struct {
		name     string
		template string
		vars     map[string]any
		want     string
	}{
		{
			name:     "string variable",
			template: "Hello {{$name}}!",
			vars:     map[string]any{"name": "Ada"},
			want:     "Hello Ada!",
		},
		{
			name:     "missing variable renders empty",
			template: "Hello {{$name}}!",
			vars:     nil,
			want:     "Hello !",
		},
		{
			name:     "underscore variable name",
			template: "{{$user_name}} asked",
			vars:     map[string]any{"user_name": "grace"},
			want:     "grace asked",
		},
		{
			name:     "number renders naturally",
			template: "attempts: {{$count}}",
			vars:     map[string]any{"count": 42},
			want:     "attempts: 42",
		},
		{
			name:     "map renders as JSON",
			template: "state: {{$state}}",
			vars:     map[string]any{"state": map[string]any{"a": float64(1)}},
			want:     `state: {"a":1}`,
		},
		{
			name:     "list renders as JSON",
			template: "items: {{$items}}",
			vars:     map[string]any{"items": []any{"x", "y"}},
			want:     `items: ["x","y"]`,
		},
		{
			name:     "multiple variables",
			template: "{{$a}} and {{$b}}",
			vars:     map[string]any{"a": "one", "b": "two"},
			want:     "one and two",
		},
		{
			name:     "no variables",
			template: "plain text",
			vars:     nil,
			want:     "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewVolatileMemory()
			for k, v := range tt.vars {
				require.NoError(t, mem.Set(ctx, k, v))
			}

			s := NewTemplateSection(types.RoleUser, tt.template)
			r, err := s.RenderAsMessages(ctx, mem, tok, 100)
			require.NoError(t, err)

			require.Len(t, r.Messages, 1)
			assert.Equal(t, tt.want, r.Messages[0].Content)
		})
	}
}

// failingMemory errors on every variable read.
type failingMemory struct {
	memory.Memory
}

func (m *failingMemory) Get(ctx context.Context, key string) (any, error) {
	return nil, errors.New("backend down")
}

func TestTemplateSectionLookupError(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := &failingMemory{Memory: memory.NewVolatileMemory()}

	s := NewTemplateSection(types.RoleUser, "Hello {{$name}}")
	_, err := s.RenderAsMessages(ctx, mem, tok, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func seedHistory(t *testing.T, mem memory.Memory, contents ...string) {
	t.Helper()
	ctx := context.Background()
	for i, c := range contents {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		require.NoError(t, mem.AppendMessage(ctx, types.NewMessage(role, c)))
	}
}

func TestConversationHistoryFitsNewestFirst(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()
	seedHistory(t, mem, "one", "two", "three", "four")

	s := NewConversationHistory(10)
	r, err := s.RenderAsMessages(ctx, mem, tok, 3)
	require.NoError(t, err)

	// Each message costs one token; only the newest three fit, in
	// chronological order.
	require.Len(t, r.Messages, 3)
	assert.Equal(t, "two", r.Messages[0].Content)
	assert.Equal(t, "three", r.Messages[1].Content)
	assert.Equal(t, "four", r.Messages[2].Content)
	assert.Equal(t, 3, r.Length)
	assert.False(t, r.TooLong)
}

func TestConversationHistoryMessageCap(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()
	seedHistory(t, mem, "one", "two", "three", "four")

	s := NewConversationHistory(1)
	r, err := s.RenderAsMessages(ctx, mem, tok, 100)
	require.NoError(t, err)

	require.Len(t, r.Messages, 1)
	assert.Equal(t, "four", r.Messages[0].Content)
}

func TestConversationHistoryEmpty(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()

	s := NewConversationHistory(10)
	r, err := s.RenderAsMessages(ctx, mem, tok, 100)
	require.NoError(t, err)

	assert.Empty(t, r.Messages)
	assert.Zero(t, r.Length)
}

func TestConversationHistoryZeroBudget(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()
	seedHistory(t, mem, "one", "two")

	s := NewConversationHistory(10)
	r, err := s.RenderAsMessages(ctx, mem, tok, 0)
	require.NoError(t, err)

	assert.Empty(t, r.Messages)
	assert.False(t, r.TooLong)
}

func TestConversationHistoryDefaultCap(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()

	contents := make([]string, 14)
	for i := range contents {
		contents[i] = "word"
	}
	seedHistory(t, mem, contents...)

	s := NewConversationHistory(0)
	r, err := s.RenderAsMessages(ctx, mem, tok, 1000)
	require.NoError(t, err)

	assert.Len(t, r.Messages, 10)
}

func TestPromptRenderOrderAndBudget(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()
	require.NoError(t, mem.Set(ctx, "input", "Hi"))
	seedHistory(t, mem, "word", "word", "word", "word", "word", "word")

	p := NewPrompt(
		NewSystemMessage("system rules here!!!"),
		NewConversationHistory(10),
		NewTemplateSection(types.RoleUser, "{{$input}}"),
	)

	r, err := p.RenderAsMessages(ctx, mem, tok, 10)
	require.NoError(t, err)

	// Fixed sections take 6 tokens, history gets the remaining 4.
	require.Len(t, r.Messages, 6)
	assert.Equal(t, types.RoleSystem, r.Messages[0].Role)
	assert.Equal(t, "Hi", r.Messages[5].Content)
	assert.Equal(t, types.RoleUser, r.Messages[5].Role)
	assert.Equal(t, 10, r.Length)
	assert.False(t, r.TooLong)
}

func TestPromptTooLongWhenFixedSectionsOverflow(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()
	seedHistory(t, mem, "word", "word")

	p := NewPrompt(
		NewSystemMessage("system rules here!!!"),
		NewConversationHistory(10),
	)

	r, err := p.RenderAsMessages(ctx, mem, tok, 4)
	require.NoError(t, err)

	assert.True(t, r.TooLong)
	// History got no budget and rendered nothing.
	require.Len(t, r.Messages, 1)
	assert.Equal(t, types.RoleSystem, r.Messages[0].Role)
}

func TestPromptAddSection(t *testing.T) {
	p := NewPrompt().
		AddSection(NewSystemMessage("a")).
		AddSection(NewUserMessage("b"))

	assert.Len(t, p.Sections(), 2)
}

func TestPromptNests(t *testing.T) {
	ctx := context.Background()
	tok := newTestTokenizer()
	mem := memory.NewVolatileMemory()

	inner := NewPrompt(NewSystemMessage("deep"))
	outer := NewPrompt(inner, NewUserMessage("ask"))

	r, err := outer.RenderAsMessages(ctx, mem, tok, 100)
	require.NoError(t, err)

	require.Len(t, r.Messages, 2)
	assert.Equal(t, "deep", r.Messages[0].Content)
	assert.Equal(t, "ask", r.Messages[1].Content)
}
