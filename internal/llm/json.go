package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// trailingCommaRegex matches trailing commas before closing brace/bracket.
var trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

// DecodeJSON extracts the first JSON value from a model response and
// unmarshals it into T. Markdown fences and trailing prose are ignored, and
// raw control characters inside strings (literal newlines in bullet lists)
// are escaped before a second attempt.
func DecodeJSON[T any](response string) (T, error) {
	var result T

	cleaned := StripFences(response)
	if cleaned == "" {
		return result, fmt.Errorf("no JSON found in response")
	}

	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return result, fmt.Errorf("no JSON start ({ or [) found")
	}
	jsonPart := cleaned[idx:]

	err := json.NewDecoder(strings.NewReader(jsonPart)).Decode(&result)
	if err == nil {
		return result, nil
	}

	repaired := trailingCommaRegex.ReplaceAllString(escapeControlChars(jsonPart), "$1")
	if repaired != jsonPart {
		var second T
		if err2 := json.NewDecoder(strings.NewReader(repaired)).Decode(&second); err2 == nil {
			return second, nil
		}
	}
	return result, fmt.Errorf("parse JSON: %w", err)
}

// StripFences removes ```json / ``` code fences around a response.
func StripFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

func escapeControlChars(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c < 0x20:
			switch c {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				fmt.Fprintf(&b, `\u%04x`, c)
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
