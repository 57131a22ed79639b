package validators

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rmolinamir/alphawave/schema"
)

var feedbackKinds = []schema.ErrorKind{
	schema.KindType,
	schema.KindAnyOf,
	schema.KindAdditionalProperties,
	schema.KindRequired,
	schema.KindFormat,
	schema.KindUniqueItems,
	schema.KindEnum,
	schema.KindConst,
}

func genDescriptor() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, len(feedbackKinds)-1),
		gen.Identifier(),
		gen.Identifier(),
		gen.AlphaString(),
	).Map(func(values []any) schema.ErrorDescriptor {
		return schema.ErrorDescriptor{
			Kind:     feedbackKinds[values[0].(int)],
			Property: values[1].(string),
			Argument: values[2].(string),
			Message:  values[3].(string),
		}
	})
}

func TestProperty_FeedbackTranslationDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("same descriptors always yield the same feedback", prop.ForAll(
		func(descs []schema.ErrorDescriptor) bool {
			first := buildFeedback("The JSON returned had errors. Apply these fixes:", descs)
			second := buildFeedback("The JSON returned had errors. Apply these fixes:", descs)
			return first == second
		},
		gen.SliceOf(genDescriptor()),
	))

	properties.Property("one repair line per descriptor, header first", prop.ForAll(
		func(descs []schema.ErrorDescriptor) bool {
			feedback := buildFeedback("header", descs)
			lines := strings.Split(feedback, "\n")
			if len(lines) != len(descs)+1 {
				return false
			}
			return lines[0] == "header"
		},
		gen.SliceOf(genDescriptor()),
	))

	properties.Property("descriptor order is preserved in the output", prop.ForAll(
		func(descs []schema.ErrorDescriptor) bool {
			feedback := buildFeedback("header", descs)
			lines := strings.Split(feedback, "\n")[1:]
			for i, desc := range descs {
				if lines[i] != feedbackLine(desc) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genDescriptor()),
	))

	properties.TestingRun(t)
}
