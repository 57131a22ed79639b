package validators

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rmolinamir/alphawave/schema"
)

// buildFeedback joins the header and one repair line per error descriptor.
func buildFeedback(header string, errors []schema.ErrorDescriptor) string {
	lines := make([]string, 0, len(errors)+1)
	lines = append(lines, header)
	for _, desc := range errors {
		lines = append(lines, feedbackLine(desc))
	}
	return strings.Join(lines, "\n")
}

// feedbackLine translates one schema error into a repair instruction the
// model can act on. Each kind maps to a fixed template; unknown kinds fall
// back to replaying the validator's own message.
func feedbackLine(desc schema.ErrorDescriptor) string {
	switch desc.Kind {
	case schema.KindType:
		return fmt.Sprintf("convert %q to a %s", desc.Property, stringify(desc.Argument))
	case schema.KindAnyOf:
		return fmt.Sprintf("convert %q to one of the allowed types: %s", desc.Property, stringify(desc.Argument))
	case schema.KindAdditionalProperties:
		return fmt.Sprintf("remove the %q property from %q", stringify(desc.Argument), desc.Property)
	case schema.KindRequired:
		return fmt.Sprintf("add the %q property to %q", stringify(desc.Argument), desc.Property)
	case schema.KindFormat:
		return fmt.Sprintf("change the %q property to be a %s", desc.Property, stringify(desc.Argument))
	case schema.KindUniqueItems:
		return fmt.Sprintf("remove all duplicate items from %q", desc.Property)
	case schema.KindEnum:
		return fmt.Sprintf("change the %q property to be one of these values: %s", desc.Property, allowedValues(desc.Message))
	case schema.KindConst:
		return fmt.Sprintf("change the %q property to be %s", desc.Property, stringify(desc.Argument))
	default:
		return fmt.Sprintf("%q %s. Fix that", desc.Property, desc.Message)
	}
}

// allowedValues recovers the allowed-value list from the validator's own enum
// message, which reads "must be one of the following: ...". Everything after
// the first colon, trimmed, is the list.
func allowedValues(message string) string {
	if idx := strings.Index(message, ":"); idx != -1 {
		return strings.TrimSpace(message[idx+1:])
	}
	return strings.TrimSpace(message)
}

// stringify renders an error argument for a feedback line: sequences join
// with commas, structured values render as JSON, scalars use their natural
// form.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
