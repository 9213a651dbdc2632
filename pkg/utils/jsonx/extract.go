package jsonx

import (
	"encoding/json"
	"strings"
)

// ExtractObject performs best-effort JSON object extraction from free text.
// Generative models wrap JSON in prose even when told not to; this takes the
// substring from the first '{' to the last '}' and unmarshals only that. The
// second return value is false when the text contains no parseable object.
// ExtractObject never returns an error.
func ExtractObject(text string, v any) bool {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return false
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return false
	}
	return true
}
