package response

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fenceRe matches a markdown code fence with an optional json language tag.
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ParseAllObjects extracts every complete JSON object literal embedded in
// text, in order of appearance. A span counts as an object when its braces
// balance outside of string literals and the span decodes as a JSON object.
// Surrounding prose, markdown fences, and multiple objects are all tolerated;
// spans that fail to decode are skipped, and a skipped opening brace does not
// hide objects that start after it.
func ParseAllObjects(text string) []map[string]any {
	var objects []map[string]any

	for i := 0; i < len(text); {
		offset := strings.IndexByte(text[i:], '{')
		if offset == -1 {
			break
		}
		start := i + offset

		span, ok := scanBalancedObject(text, start)
		if !ok {
			i = start + 1
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(span), &obj); err != nil {
			i = start + 1
			continue
		}

		objects = append(objects, obj)
		i = start + len(span)
	}

	return objects
}

// ParseJSON returns the last JSON object embedded in text, or nil when the
// text contains none.
func ParseJSON(text string) map[string]any {
	objects := ParseAllObjects(text)
	if len(objects) == 0 {
		return nil
	}
	return objects[len(objects)-1]
}

// scanBalancedObject scans text from start, which must index an opening
// brace, and returns the span up to the brace that balances it. Braces inside
// string literals do not count; backslash escapes inside strings are honored.
func scanBalancedObject(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}

		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// StripCodeFences returns the body of the first markdown code fence in text,
// or the trimmed text unchanged when no fence is present.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}
	if matches := fenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return text
}

// RemoveEmptyValues returns a copy of obj with empty object-valued properties
// removed, recursively. A property whose nested object becomes empty after
// cleaning is removed as well. Arrays, scalars, and nulls pass through
// untouched; partial generations often emit placeholder objects like
// {"metadata": {}} that would otherwise fail schema validation.
//
// Empty arrays are deliberately kept: [] is usually a complete, meaningful
// value ("no items"), while {} is usually an abandoned placeholder. Schemas
// that want to reject empty arrays can say so with minItems.
func RemoveEmptyValues(obj map[string]any) map[string]any {
	cleaned := make(map[string]any, len(obj))

	for key, value := range obj {
		nested, ok := value.(map[string]any)
		if !ok {
			cleaned[key] = value
			continue
		}

		nestedCleaned := RemoveEmptyValues(nested)
		if len(nestedCleaned) == 0 {
			continue
		}
		cleaned[key] = nestedCleaned
	}

	return cleaned
}
