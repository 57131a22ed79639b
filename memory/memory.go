package memory

import (
	"context"
	"errors"

	"github.com/rmolinamir/alphawave/types"
)

// ErrNotFound is returned when a variable does not exist in the memory.
var ErrNotFound = errors.New("memory: variable not found")

// Memory is the wave's working state: named variables plus the conversation
// history. Implementations must be safe for concurrent use.
type Memory interface {
	// Has reports whether the variable exists.
	Has(ctx context.Context, key string) (bool, error)

	// Get returns the variable's value, or ErrNotFound.
	Get(ctx context.Context, key string) (any, error)

	// Set stores the variable.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the variable. Deleting a missing variable is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Clear removes all variables and the message history.
	Clear(ctx context.Context) error

	// Messages returns the conversation history, oldest first.
	Messages(ctx context.Context) ([]types.Message, error)

	// AppendMessage appends a message to the conversation history.
	AppendMessage(ctx context.Context, msg types.Message) error

	// SetMessages replaces the conversation history.
	SetMessages(ctx context.Context, msgs []types.Message) error
}
