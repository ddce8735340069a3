// Package ai provides the classification client interface and implementations.
package ai

import "encoding/json"

// extractJSON attempts to extract a JSON object from content that might be
// wrapped in markdown fences or surrounding prose. The model reply is
// untrusted input: unwrap first, validate after, never cast directly.
func extractJSON(content string) string {
	// Try to parse the entire content as JSON first
	if isValidJSON(content) {
		return content
	}

	// Otherwise take the first balanced {...} block
	start := -1
	for i, c := range content {
		if c == '{' {
			start = i
			break
		}
	}

	if start == -1 {
		return ""
	}

	depth := 0
	end := -1
	for i := start; i < len(content); i++ {
		if content[i] == '{' {
			depth++
		} else if content[i] == '}' {
			depth--
			if depth == 0 {
				end = i + 1
				break
			}
		}
	}

	if end == -1 {
		return ""
	}

	extracted := content[start:end]
	if isValidJSON(extracted) {
		return extracted
	}

	return ""
}

func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
