// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// markdownReplacer strips the markdown artifacts the generator leaks into
// plain-text responses.
var markdownReplacer = strings.NewReplacer("#", "", "*", "")

// Sanitize removes markdown heading and emphasis markers from a response
// and trims the residual whitespace on each line, so "# heading" becomes
// "heading" and "**bold**" becomes "bold".
func Sanitize(s string) string {
	stripped := markdownReplacer.Replace(s)
	lines := strings.Split(stripped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// DecodeJSON unmarshals a schema-constrained response defensively. Code
// fences around the payload are tolerated; anything before the first brace
// or bracket is discarded. Callers substitute a fallback value when an
// error is returned.
func DecodeJSON(raw []byte, out any) error {
	payload := bytes.TrimSpace(raw)

	if bytes.HasPrefix(payload, []byte("```")) {
		payload = bytes.TrimPrefix(payload, []byte("```json"))
		payload = bytes.TrimPrefix(payload, []byte("```"))
		if idx := bytes.LastIndex(payload, []byte("```")); idx >= 0 {
			payload = payload[:idx]
		}
		payload = bytes.TrimSpace(payload)
	}

	if idx := bytes.IndexAny(payload, "{["); idx > 0 {
		payload = payload[idx:]
	}

	if len(payload) == 0 {
		return fmt.Errorf("empty JSON payload")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding JSON payload: %w", err)
	}
	return nil
}
