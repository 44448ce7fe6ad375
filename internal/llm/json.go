package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeStructured unmarshals a model response into out, tolerating the
// markdown fences and preambles models wrap JSON in.
func decodeStructured(raw string, out any) error {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	// Try to extract the outermost JSON object
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("response is not valid JSON")
}
