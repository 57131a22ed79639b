package prompts

import (
	"context"
	"fmt"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
)

// defaultMaxMessages bounds the history window when no cap is configured.
const defaultMaxMessages = 10

// ConversationHistory renders the memory's message history. Messages are
// fitted newest first until the token budget or message cap is reached, then
// returned in chronological order. The window is contiguous: fitting stops at
// the first message that does not fit.
type ConversationHistory struct {
	maxMessages int
}

var _ Section = (*ConversationHistory)(nil)

// NewConversationHistory creates a history section keeping at most
// maxMessages messages. A non-positive cap defaults to 10.
func NewConversationHistory(maxMessages int) *ConversationHistory {
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	return &ConversationHistory{maxMessages: maxMessages}
}

// Flexible reports that history sizes itself to the remaining prompt budget.
func (s *ConversationHistory) Flexible() bool { return true }

// RenderAsMessages renders as much recent history as fits the budget. It
// never reports TooLong: history sheds oldest messages instead.
func (s *ConversationHistory) RenderAsMessages(ctx context.Context, mem memory.Memory, tok tokenizer.Tokenizer, maxTokens int) (*Rendered, error) {
	msgs, err := mem.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	kept := make([]types.Message, 0, len(msgs))
	total := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if len(kept) >= s.maxMessages {
			break
		}
		cost, err := tok.CountTokens(msgs[i].Content)
		if err != nil {
			return nil, fmt.Errorf("count tokens: %w", err)
		}
		if total+cost > maxTokens {
			break
		}
		kept = append(kept, msgs[i])
		total += cost
	}

	// Restore chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return &Rendered{Messages: kept, Length: total}, nil
}
