package validators

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
)

// TestProperty_JSONValidator_Deterministic checks that validating the same
// text twice yields identical results: the validator holds no hidden state.
func TestProperty_JSONValidator_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := NewJSONResponseValidator(personSchema())

		text := rapid.StringMatching(`[a-zA-Z0-9 .,:"{}\[\]]{0,80}`).Draw(rt, "text")
		resp := types.NewTextResponse(text)

		ctx := context.Background()
		mem := memory.NewVolatileMemory()
		tok := tokenizer.NewEstimator("test", 0)

		first, err := v.ValidateResponse(ctx, mem, tok, resp, 3)
		require.NoError(rt, err)
		second, err := v.ValidateResponse(ctx, mem, tok, resp, 3)
		require.NoError(rt, err)

		assert.Equal(rt, first, second)
	})
}

// TestProperty_JSONValidator_LastObjectWins checks that without a schema the
// last embedded object is always the one returned, however many precede it.
func TestProperty_JSONValidator_LastObjectWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := NewJSONResponseValidator(nil)

		count := rapid.IntRange(1, 5).Draw(rt, "count")
		prose := rapid.StringMatching(`[a-zA-Z0-9 .,!?]{0,20}`).Draw(rt, "prose")

		var sb strings.Builder
		var lastValue int
		for i := 0; i < count; i++ {
			value := rapid.IntRange(-1000, 1000).Draw(rt, "value")
			lastValue = value

			data, err := json.Marshal(map[string]any{"n": value})
			require.NoError(rt, err)

			sb.WriteString(prose)
			sb.Write(data)
		}
		sb.WriteString(prose)

		validation := validateText(t, v, sb.String())
		require.True(rt, validation.Valid)

		obj, ok := validation.Value.(map[string]any)
		require.True(rt, ok)
		assert.Equal(rt, float64(lastValue), obj["n"])
	})
}

// TestProperty_JSONValidator_NoJSONAlwaysMissingFeedback checks that brace-free
// text always produces the configured missing-JSON feedback.
func TestProperty_JSONValidator_NoJSONAlwaysMissingFeedback(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := NewJSONResponseValidator(nil)

		text := rapid.StringMatching(`[a-zA-Z0-9 .,!?]{0,120}`).Draw(rt, "text")

		validation := validateText(t, v, text)
		assert.False(rt, validation.Valid)
		assert.Equal(rt, DefaultMissingJSONFeedback, validation.Feedback)
	})
}
